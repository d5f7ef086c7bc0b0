package model

import "time"

// Member represents a registered customer as stored in the `members`
// table.  Whether the member currently holds a paid plan is not stored
// here; it is asked of the billing provider on each request.
type Member struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Kana         string    `json:"kana"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PostalCode   string    `json:"postal_code"`
	Address      string    `json:"address"`
	PhoneNumber  string    `json:"phone_number"`
	Birthday     *string   `json:"birthday,omitempty"`
	Occupation   *string   `json:"occupation,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Administrator is a back-office account.  Administrators live in their
// own table; an email may exist both here and in `members` and the two
// rows are unrelated.
type Administrator struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  Space
// records which principal space issued it ("member" or "admin") so a
// token can only ever be exchanged within that space.
type RefreshToken struct {
	ID          uint64
	Space       string
	PrincipalID uint64
	TokenHash   string
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	CreatedAt   time.Time
}

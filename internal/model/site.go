package model

import "time"

// Favorite links a member to a restaurant they bookmarked.
type Favorite struct {
	MemberID   uint64     `json:"member_id"`
	Restaurant Restaurant `json:"restaurant"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Term holds the terms of service text.  Only the first row is used.
type Term struct {
	ID        uint64    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Company holds the operator's profile shown on the company page.
type Company struct {
	ID                uint64    `json:"id"`
	Name              string    `json:"name"`
	PostalCode        string    `json:"postal_code"`
	Address           string    `json:"address"`
	Representative    string    `json:"representative"`
	EstablishmentDate string    `json:"establishment_date"`
	Capital           string    `json:"capital"`
	Business          string    `json:"business"`
	NumberOfEmployees string    `json:"number_of_employees"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Subscription is a row of the local billing ledger.
type Subscription struct {
	ID            uint64     `json:"id"`
	MemberID      uint64     `json:"member_id"`
	Plan          string     `json:"plan"`
	PaymentMethod string     `json:"payment_method"`
	Status        string     `json:"status"`
	EndsAt        *time.Time `json:"ends_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

package model

import "time"

// Review is a member's scored comment on a restaurant.  Score is an
// integer between 1 and 5.
type Review struct {
	ID           uint64    `json:"id"`
	MemberID     uint64    `json:"member_id"`
	MemberName   string    `json:"member_name,omitempty"`
	RestaurantID uint64    `json:"restaurant_id"`
	Score        int       `json:"score"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

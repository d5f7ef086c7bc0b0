package model

import "time"

// Reservation records a member's table booking at a restaurant.  There is
// no update path: a reservation is created and later either kept or
// cancelled (deleted) by its owner.
type Reservation struct {
	ID               uint64    `json:"id"`
	MemberID         uint64    `json:"member_id"`
	RestaurantID     uint64    `json:"restaurant_id"`
	RestaurantName   string    `json:"restaurant_name,omitempty"`
	ReservedDatetime time.Time `json:"reserved_datetime"`
	NumberOfPeople   int       `json:"number_of_people"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

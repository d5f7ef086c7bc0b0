package model

import "time"

// Restaurant mirrors a row of the `restaurants` table.  Price range and
// opening hours are validated on write (lowest < highest, open < close)
// and stored as given.
type Restaurant struct {
	ID              uint64    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	LowestPrice     uint32    `json:"lowest_price"`
	HighestPrice    uint32    `json:"highest_price"`
	PostalCode      string    `json:"postal_code"`
	Address         string    `json:"address"`
	OpeningTime     string    `json:"opening_time"` // HH:MM
	ClosingTime     string    `json:"closing_time"` // HH:MM
	SeatingCapacity uint32    `json:"seating_capacity"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// RestaurantSummary is a restaurant row joined with its review and
// reservation aggregates, as produced by the search engine.
// AverageScore is nil when the restaurant has no reviews.  ReviewCount is
// never serialized: a viewer held to the newest reviews must not learn
// how many more there are.
type RestaurantSummary struct {
	Restaurant
	AverageScore     *float64 `json:"average_score"`
	ReviewCount      int64    `json:"-"`
	ReservationCount int64    `json:"reservation_count"`
}

// RestaurantDetail adds the many-to-many associations to a summary.
type RestaurantDetail struct {
	RestaurantSummary
	Categories      []Category       `json:"categories"`
	RegularHolidays []RegularHoliday `json:"regular_holidays"`
}

// Category is a cuisine or genre label; many-to-many with Restaurant.
type Category struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegularHoliday is a weekly closing day; many-to-many with Restaurant.
// DayIndex follows time.Weekday and is nil for irregular closures.
type RegularHoliday struct {
	ID       uint64 `json:"id"`
	Day      string `json:"day"`
	DayIndex *int   `json:"day_index,omitempty"`
}

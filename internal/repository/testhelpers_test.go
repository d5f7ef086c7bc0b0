package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/mayuuuu918/nagoyameshi/internal/model"
)

var base = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

func mustMember(t *testing.T, db *sql.DB, name string) uint64 {
	t.Helper()
	m := &model.Member{Name: name, Kana: "テスト", Email: name + "@example.com"}
	if err := NewMemberRepo(db).Create(context.Background(), m, "password", 4); err != nil {
		t.Fatalf("create member: %v", err)
	}
	return m.ID
}

// mustRestaurant creates a restaurant whose created_at is base plus age
// minutes, so creation order is explicit.
func mustRestaurant(t *testing.T, db *sql.DB, name, address string, lowest uint32, age int, categoryIDs ...uint64) uint64 {
	t.Helper()
	rest := &model.Restaurant{
		Name:            name,
		Description:     name + " description",
		LowestPrice:     lowest,
		HighestPrice:    lowest + 4000,
		PostalCode:      "4600001",
		Address:         address,
		OpeningTime:     "11:00",
		ClosingTime:     "22:00",
		SeatingCapacity: 40,
		CreatedAt:       base.Add(time.Duration(age) * time.Minute),
	}
	if err := NewRestaurantRepo(db).Create(context.Background(), rest, categoryIDs, nil); err != nil {
		t.Fatalf("create restaurant %s: %v", name, err)
	}
	return rest.ID
}

func mustCategory(t *testing.T, db *sql.DB, name string) uint64 {
	t.Helper()
	c, err := NewCategoryRepo(db).Create(context.Background(), name)
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	return c.ID
}

func mustReview(t *testing.T, db *sql.DB, memberID, restaurantID uint64, score, age int) uint64 {
	t.Helper()
	rv := &model.Review{
		MemberID:     memberID,
		RestaurantID: restaurantID,
		Score:        score,
		Content:      fmt.Sprintf("review %d", age),
		CreatedAt:    base.Add(time.Duration(age) * time.Minute),
	}
	if err := NewReviewRepo(db).Create(context.Background(), rv); err != nil {
		t.Fatalf("create review: %v", err)
	}
	return rv.ID
}

func mustReservation(t *testing.T, db *sql.DB, memberID, restaurantID uint64, at time.Time) uint64 {
	t.Helper()
	res := &model.Reservation{MemberID: memberID, RestaurantID: restaurantID, ReservedDatetime: at, NumberOfPeople: 2}
	if err := NewReservationRepo(db).Create(context.Background(), res); err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	return res.ID
}

func ids(items []model.RestaurantSummary) []uint64 {
	out := make([]uint64, len(items))
	for i, s := range items {
		out[i] = s.ID
	}
	return out
}

func equalIDs(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

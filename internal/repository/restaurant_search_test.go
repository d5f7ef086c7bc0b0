package repository

import (
	"context"
	"testing"

	"github.com/mayuuuu918/nagoyameshi/internal/database/dbtest"
)

type searchFixture struct {
	repo             *RestaurantRepo
	a, b, c, d       uint64
	washoku, yoshoku uint64
}

func newSearchFixture(t *testing.T) searchFixture {
	db := dbtest.Open(t)
	f := searchFixture{repo: NewRestaurantRepo(db)}
	f.washoku = mustCategory(t, db, "washoku")
	f.yoshoku = mustCategory(t, db, "yoshoku")
	f.a = mustRestaurant(t, db, "Misokatsu Yaba", "Nagoya Naka", 1000, 1, f.washoku)
	f.b = mustRestaurant(t, db, "Hitsumabushi Atsuta", "Nagoya Atsuta", 3000, 2, f.yoshoku)
	f.c = mustRestaurant(t, db, "Kishimen Tei", "Gifu", 500, 3)
	f.d = mustRestaurant(t, db, "Curry House", "Tokyo", 2000, 4, f.washoku)

	m := mustMember(t, db, "reviewer")
	mustReview(t, db, m, f.a, 2, 1)
	mustReview(t, db, m, f.a, 4, 2)
	mustReview(t, db, m, f.b, 5, 3)
	mustReview(t, db, m, f.d, 4, 4)

	mustReservation(t, db, m, f.a, base)
	mustReservation(t, db, m, f.a, base)
	mustReservation(t, db, m, f.c, base)
	return f
}

func TestSearchFilters(t *testing.T) {
	f := newSearchFixture(t)
	cases := []struct {
		name string
		q    SearchQuery
		want []uint64
	}{
		{"no filter, newest first", SearchQuery{}, []uint64{f.d, f.c, f.b, f.a}},
		{"keyword on name and address", SearchQuery{Keyword: "Atsuta"}, []uint64{f.b}},
		{"keyword on address only", SearchQuery{Keyword: "Nagoya"}, []uint64{f.b, f.a}},
		{"keyword on category name", SearchQuery{Keyword: "washo"}, []uint64{f.d, f.a}},
		{"keyword wildcard is literal", SearchQuery{Keyword: "%"}, nil},
		{"category", SearchQuery{CategoryID: f.washoku, HasCategory: true}, []uint64{f.d, f.a}},
		{"price below threshold", SearchQuery{MaxPrice: 2000, HasPrice: true}, []uint64{f.c, f.a}},
		{"price threshold is strict", SearchQuery{MaxPrice: 1000, HasPrice: true}, []uint64{f.c}},
		{"keyword beats category", SearchQuery{Keyword: "Gifu", CategoryID: f.washoku, HasCategory: true}, []uint64{f.c}},
		{"keyword beats price", SearchQuery{Keyword: "Tokyo", MaxPrice: 600, HasPrice: true}, []uint64{f.d}},
		{"category beats price", SearchQuery{CategoryID: f.yoshoku, HasCategory: true, MaxPrice: 600, HasPrice: true}, []uint64{f.b}},
		{"zero price matches nothing", SearchQuery{HasPrice: true}, nil},
		{"unknown category beats price", SearchQuery{HasCategory: true, MaxPrice: 2000, HasPrice: true}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := f.repo.Search(context.Background(), tc.q)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if got := ids(page.Items); !equalIDs(got, tc.want) {
				t.Fatalf("ids = %v, want %v", got, tc.want)
			}
			if page.Total != int64(len(tc.want)) {
				t.Fatalf("total = %d, want %d", page.Total, len(tc.want))
			}
		})
	}
}

func TestSearchKeywordIgnoresCategoryFilter(t *testing.T) {
	f := newSearchFixture(t)
	ctx := context.Background()
	both, err := f.repo.Search(ctx, SearchQuery{Keyword: "Nagoya", CategoryID: f.yoshoku, HasCategory: true})
	if err != nil {
		t.Fatal(err)
	}
	only, err := f.repo.Search(ctx, SearchQuery{Keyword: "Nagoya"})
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(ids(both.Items), ids(only.Items)) || both.Total != only.Total {
		t.Fatalf("keyword+category = %v, keyword only = %v", ids(both.Items), ids(only.Items))
	}
}

func TestSearchSorts(t *testing.T) {
	f := newSearchFixture(t)
	cases := []struct {
		name string
		q    SearchQuery
		want []uint64
	}{
		{"price ascending", SearchQuery{Sort: SortPriceAsc}, []uint64{f.c, f.a, f.d, f.b}},
		{"rating descending, unreviewed last", SearchQuery{Sort: SortRating}, []uint64{f.b, f.d, f.a, f.c}},
		{"rating ascending, unreviewed still last", SearchQuery{Sort: SortRating, Direction: Asc}, []uint64{f.a, f.d, f.b, f.c}},
		{"popularity descending", SearchQuery{Sort: SortPopularity}, []uint64{f.a, f.c, f.d, f.b}},
		{"popularity ascending", SearchQuery{Sort: SortPopularity, Direction: Asc}, []uint64{f.d, f.b, f.c, f.a}},
		{"sort applies after filter", SearchQuery{CategoryID: f.washoku, HasCategory: true, Sort: SortPriceAsc}, []uint64{f.a, f.d}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := f.repo.Search(context.Background(), tc.q)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if got := ids(page.Items); !equalIDs(got, tc.want) {
				t.Fatalf("ids = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSearchAggregatesAndPaging(t *testing.T) {
	f := newSearchFixture(t)
	page, err := f.repo.Search(context.Background(), SearchQuery{Page: 2, PerPage: 3})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 4 || page.LastPage != 2 || len(page.Items) != 1 || page.Items[0].ID != f.a {
		t.Fatalf("page = %+v", page)
	}
	a := page.Items[0]
	if a.AverageScore == nil || *a.AverageScore != 3 {
		t.Fatalf("average = %v, want 3", a.AverageScore)
	}
	if a.ReviewCount != 2 || a.ReservationCount != 2 {
		t.Fatalf("counts = %d reviews, %d reservations", a.ReviewCount, a.ReservationCount)
	}

	c, err := f.repo.Detail(context.Background(), f.c)
	if err != nil {
		t.Fatal(err)
	}
	if c.AverageScore != nil || c.ReviewCount != 0 {
		t.Fatalf("unreviewed restaurant summary = %+v", c.RestaurantSummary)
	}
}

func TestSearchPriceScenario(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRestaurantRepo(db)
	r := mustRestaurant(t, db, "R", "Nagoya", 1000, 1)
	ctx := context.Background()

	for _, tc := range []struct {
		threshold int64
		included  bool
	}{{2000, true}, {1001, true}, {1000, false}, {500, false}} {
		page, err := repo.Search(ctx, SearchQuery{MaxPrice: tc.threshold, HasPrice: true})
		if err != nil {
			t.Fatal(err)
		}
		got := len(page.Items) == 1 && page.Items[0].ID == r
		if got != tc.included {
			t.Errorf("price=%d: included = %v, want %v", tc.threshold, got, tc.included)
		}
	}
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mayuuuu918/nagoyameshi/internal/database/dbtest"
	"github.com/mayuuuu918/nagoyameshi/internal/model"
	"github.com/mayuuuu918/nagoyameshi/internal/utils"
)

func categoryIDs(cs []model.Category) []uint64 {
	out := make([]uint64, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func TestRestaurantSyncReplacesAssociations(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := NewRestaurantRepo(db)
	c1, c2, c3 := mustCategory(t, db, "one"), mustCategory(t, db, "two"), mustCategory(t, db, "three")
	holidays := NewHolidayRepo(db)
	mon, err := holidays.Create(ctx, "Monday", intPtr(1))
	if err != nil {
		t.Fatal(err)
	}
	tue, err := holidays.Create(ctx, "Tuesday", intPtr(2))
	if err != nil {
		t.Fatal(err)
	}

	id := mustRestaurant(t, db, "Sync", "Nagoya", 1000, 1, c1, c2)
	rest, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	rest.Name = "Synced"
	if err := repo.Update(ctx, &rest, []uint64{c2, c3, c3}, []uint64{mon.ID, tue.ID}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	d, err := repo.Detail(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "Synced" {
		t.Errorf("name = %q", d.Name)
	}
	if got := categoryIDs(d.Categories); !equalIDs(got, []uint64{c2, c3}) {
		t.Errorf("categories = %v, want [%d %d]", got, c2, c3)
	}
	if len(d.RegularHolidays) != 2 || *d.RegularHolidays[0].DayIndex != 1 {
		t.Errorf("holidays = %+v", d.RegularHolidays)
	}

	if err := repo.Update(ctx, &rest, nil, nil); err != nil {
		t.Fatal(err)
	}
	d, _ = repo.Detail(ctx, id)
	if len(d.Categories) != 0 || len(d.RegularHolidays) != 0 {
		t.Errorf("empty sync left %d categories, %d holidays", len(d.Categories), len(d.RegularHolidays))
	}
}

func TestRestaurantUpdateIsAllOrNothing(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := NewRestaurantRepo(db)
	c1 := mustCategory(t, db, "one")
	id := mustRestaurant(t, db, "Before", "Nagoya", 1000, 1, c1)

	rest, _ := repo.GetByID(ctx, id)
	rest.Name = "After"
	if err := repo.Update(ctx, &rest, []uint64{9999}, nil); err == nil {
		t.Fatal("update with unknown category succeeded")
	}
	d, err := repo.Detail(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "Before" || !equalIDs(categoryIDs(d.Categories), []uint64{c1}) {
		t.Fatalf("partial update observed: name %q, categories %v", d.Name, categoryIDs(d.Categories))
	}
}

func TestRestaurantNotFound(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRestaurantRepo(db)
	if _, err := repo.Detail(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Detail err = %v", err)
	}
	if err := repo.Delete(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete err = %v", err)
	}
}

func TestReservationDeleteOwnership(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := NewReservationRepo(db)
	owner, other := mustMember(t, db, "owner"), mustMember(t, db, "other")
	r := mustRestaurant(t, db, "R", "Nagoya", 1000, 1)
	id := mustReservation(t, db, owner, r, base)

	if err := repo.Delete(ctx, id, other); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign delete err = %v", err)
	}
	if _, err := repo.GetByID(ctx, id); err != nil {
		t.Fatalf("reservation gone after foreign delete: %v", err)
	}
	if err := repo.Delete(ctx, id, owner); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := repo.Delete(ctx, id, owner); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestReservationListByMember(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	m, other := mustMember(t, db, "m"), mustMember(t, db, "o")
	r := mustRestaurant(t, db, "R", "Nagoya", 1000, 1)
	for i := 0; i < 17; i++ {
		mustReservation(t, db, m, r, base.Add(time.Duration(i)*time.Hour))
	}
	mustReservation(t, db, other, r, base)

	page, err := NewReservationRepo(db).ListByMember(ctx, m, 1, 15)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 17 || len(page.Items) != 15 || page.LastPage != 2 {
		t.Fatalf("page: total %d, items %d, last %d", page.Total, len(page.Items), page.LastPage)
	}
	if !page.Items[0].ReservedDatetime.Equal(base.Add(16 * time.Hour)) {
		t.Fatalf("first = %v, want latest reserved time", page.Items[0].ReservedDatetime)
	}
	if page.Items[0].RestaurantName != "R" {
		t.Fatalf("restaurant name = %q", page.Items[0].RestaurantName)
	}
}

func TestReviewPagingAndOwnership(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := NewReviewRepo(db)
	m, other := mustMember(t, db, "m"), mustMember(t, db, "o")
	r := mustRestaurant(t, db, "R", "Nagoya", 1000, 1)
	var last uint64
	for i := 0; i < 10; i++ {
		last = mustReview(t, db, m, r, 1+i%5, i)
	}

	latest, err := repo.LatestByRestaurant(ctx, r, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(latest) != 3 || latest[0].ID != last || latest[0].MemberName != "m" {
		t.Fatalf("latest = %+v", latest)
	}
	p2, err := repo.PageByRestaurant(ctx, r, 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	if p2.Total != 10 || len(p2.Items) != 5 || p2.LastPage != 2 {
		t.Fatalf("page 2: %+v", p2)
	}

	if err := repo.Update(ctx, last, other, 1, "hijack"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign update err = %v", err)
	}
	if err := repo.Update(ctx, last, m, 5, "edited"); err != nil {
		t.Fatal(err)
	}
	rv, _ := repo.GetByID(ctx, last)
	if rv.Score != 5 || rv.Content != "edited" {
		t.Fatalf("review = %+v", rv)
	}
	if err := repo.Delete(ctx, last, other); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign delete err = %v", err)
	}
	if owner, _ := repo.OwnerOf(ctx, last); owner != m {
		t.Fatalf("owner = %d", owner)
	}
}

func TestMemberEmailUniqueness(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	members := NewMemberRepo(db)
	a := mustMember(t, db, "a")
	mustMember(t, db, "b")

	dup := &model.Member{Name: "dup", Email: " A@Example.com "}
	if err := members.Create(ctx, dup, "pw", 4); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("duplicate create err = %v", err)
	}
	m, err := members.GetByID(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	m.Email = "b@example.com"
	if err := members.UpdateProfile(ctx, &m); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("update to taken email err = %v", err)
	}

	// administrators are a separate credential store
	if _, err := NewAdminRepo(db).Create(ctx, "a@example.com", "pw", 4); err != nil {
		t.Fatalf("admin with member email: %v", err)
	}
}

func TestMemberList(t *testing.T) {
	db := dbtest.Open(t)
	mustMember(t, db, "tanaka")
	mustMember(t, db, "suzuki")
	page, err := NewMemberRepo(db).List(context.Background(), "tana", 1, 15)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Items[0].Name != "tanaka" {
		t.Fatalf("page = %+v", page)
	}
}

func TestRefreshTokensAreScopedBySpace(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	tokens := NewTokenRepo(db)
	hash := utils.HashRefreshRaw("raw")
	if err := tokens.StoreRefresh(ctx, utils.SpaceMember, 7, hash, time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if _, err := tokens.ValidateRefresh(ctx, utils.SpaceAdmin, hash); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("admin space accepted member token: %v", err)
	}
	id, err := tokens.ValidateRefresh(ctx, utils.SpaceMember, hash)
	if err != nil || id != 7 {
		t.Fatalf("ValidateRefresh = %d, %v", id, err)
	}
	if err := tokens.RevokeAll(ctx, utils.SpaceMember, 7); err != nil {
		t.Fatal(err)
	}
	if _, err := tokens.ValidateRefresh(ctx, utils.SpaceMember, hash); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("revoked token accepted: %v", err)
	}
}

func TestFavorites(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	favs := NewFavoriteRepo(db)
	m := mustMember(t, db, "m")
	r := mustRestaurant(t, db, "R", "Nagoya", 1000, 1)
	for i := 0; i < 2; i++ {
		if err := favs.Add(ctx, m, r); err != nil {
			t.Fatalf("add #%d: %v", i, err)
		}
	}
	page, err := favs.ListByMember(ctx, m, 1, 15)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Items[0].Restaurant.ID != r {
		t.Fatalf("favorites = %+v", page)
	}
	if err := favs.Remove(ctx, m, r); err != nil {
		t.Fatal(err)
	}
	if ok, _ := favs.Exists(ctx, m, r); ok {
		t.Fatal("favorite still present")
	}
}

func TestSiteSingletons(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	site := NewSiteRepo(db)
	if _, err := site.Term(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty term err = %v", err)
	}
	first, err := site.SaveTerm(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := site.SaveTerm(ctx, "v2")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Fatalf("terms row replaced: %d then %d", first.ID, second.ID)
	}
	c, err := site.SaveCompany(ctx, model.Company{Name: "NAGOYAMESHI Inc."})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := site.Company(ctx)
	if got.ID != c.ID || got.Name != "NAGOYAMESHI Inc." {
		t.Fatalf("company = %+v", got)
	}
}

func intPtr(v int) *int { return &v }

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mayuuuu918/nagoyameshi/internal/access"
	"github.com/mayuuuu918/nagoyameshi/internal/database/dbtest"
	"github.com/mayuuuu918/nagoyameshi/internal/model"
	"github.com/mayuuuu918/nagoyameshi/internal/queue"
	"github.com/mayuuuu918/nagoyameshi/internal/repository"
	"github.com/mayuuuu918/nagoyameshi/internal/utils"
)

type recordingPublisher struct {
	topics []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ any) error {
	p.topics = append(p.topics, topic)
	return p.err
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type env struct {
	db           *sql.DB
	events       *recordingPublisher
	reservations *ReservationService
	reviews      *ReviewService
	restaurants  *RestaurantService
	members      *MemberService
}

func newEnv(t *testing.T) env {
	db := dbtest.Open(t)
	events := &recordingPublisher{}
	restRepo := repository.NewRestaurantRepo(db)
	return env{
		db:           db,
		events:       events,
		reservations: NewReservationService(repository.NewReservationRepo(db), restRepo, events, discard),
		reviews:      NewReviewService(repository.NewReviewRepo(db), restRepo, events, discard),
		restaurants:  NewRestaurantService(restRepo, repository.NewCategoryRepo(db), repository.NewHolidayRepo(db)),
		members:      NewMemberService(repository.NewMemberRepo(db), 4),
	}
}

func (e env) member(t *testing.T, name string) access.Principal {
	t.Helper()
	m := &model.Member{Name: name, Kana: "カナ", Email: name + "@example.com"}
	if err := repository.NewMemberRepo(e.db).Create(context.Background(), m, "password", 4); err != nil {
		t.Fatal(err)
	}
	return access.Member(m.ID)
}

func (e env) restaurant(t *testing.T) uint64 {
	t.Helper()
	r, err := e.restaurants.Create(context.Background(), validRestaurant())
	if err != nil {
		t.Fatalf("create restaurant: %v", err)
	}
	return r.ID
}

func validRestaurant() RestaurantInput {
	return RestaurantInput{
		Name:            "Yabaton",
		Description:     "miso katsu",
		LowestPrice:     1000,
		HighestPrice:    5000,
		PostalCode:      "4600011",
		Address:         "Nagoya Naka",
		OpeningTime:     "11:00",
		ClosingTime:     "21:00",
		SeatingCapacity: 50,
	}
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	return ve.Fields
}

func TestReservationCreate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := e.member(t, "m")
	r := e.restaurant(t)

	res, err := e.reservations.Create(ctx, m, r, ReservationInput{Date: "2024-05-01", Time: "18:30", NumberOfPeople: 4})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC)
	if !res.ReservedDatetime.Equal(want) || res.NumberOfPeople != 4 || res.ID == 0 {
		t.Fatalf("reservation = %+v", res)
	}
	if len(e.events.topics) != 1 || e.events.topics[0] != queue.TopicReservationCreated {
		t.Fatalf("events = %v", e.events.topics)
	}

	cases := []struct {
		name  string
		in    ReservationInput
		field string
	}{
		{"bad date", ReservationInput{Date: "2024/05/01", Time: "18:30", NumberOfPeople: 2}, "reservation_date"},
		{"bad time", ReservationInput{Date: "2024-05-01", Time: "6pm", NumberOfPeople: 2}, "reservation_time"},
		{"nobody", ReservationInput{Date: "2024-05-01", Time: "18:30", NumberOfPeople: 0}, "number_of_people"},
		{"too many", ReservationInput{Date: "2024-05-01", Time: "18:30", NumberOfPeople: 51}, "number_of_people"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.reservations.Create(ctx, m, r, tc.in)
			if _, ok := fieldErrors(t, err)[tc.field]; !ok {
				t.Fatalf("fields = %v, want %s", fieldErrors(t, err), tc.field)
			}
		})
	}

	if _, err := e.reservations.Create(ctx, m, 999, ReservationInput{Date: "2024-05-01", Time: "18:30", NumberOfPeople: 2}); !errors.Is(err, access.ErrNotFound) {
		t.Fatalf("unknown restaurant err = %v", err)
	}
	if _, err := e.reservations.Create(ctx, access.Anonymous(), r, ReservationInput{}); !errors.Is(err, access.ErrUnauthenticated) {
		t.Fatalf("anonymous err = %v", err)
	}
}

func TestReservationCreateSurvivesBrokerOutage(t *testing.T) {
	e := newEnv(t)
	e.events.err = errors.New("broker down")
	m := e.member(t, "m")
	if _, err := e.reservations.Create(context.Background(), m, e.restaurant(t), ReservationInput{Date: "2024-05-01", Time: "18:30", NumberOfPeople: 2}); err != nil {
		t.Fatalf("Create with failing publisher: %v", err)
	}
}

func TestCancelSucceedsOnlyForOwner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner, other := e.member(t, "owner"), e.member(t, "other")
	r := e.restaurant(t)
	res, err := e.reservations.Create(ctx, owner, r, ReservationInput{Date: "2024-05-01", Time: "18:30", NumberOfPeople: 2})
	if err != nil {
		t.Fatal(err)
	}

	if err := e.reservations.Cancel(ctx, other, res.ID); !errors.Is(err, access.ErrNotOwner) {
		t.Fatalf("cancel by other err = %v", err)
	}
	if list, _ := e.reservations.ListForMember(ctx, owner, 1); list.Total != 1 {
		t.Fatalf("reservation vanished after foreign cancel: total %d", list.Total)
	}
	if err := e.reservations.Cancel(ctx, owner, res.ID); err != nil {
		t.Fatalf("cancel by owner: %v", err)
	}
	if list, _ := e.reservations.ListForMember(ctx, owner, 1); list.Total != 0 {
		t.Fatalf("reservation still listed: total %d", list.Total)
	}
	if err := e.reservations.Cancel(ctx, owner, res.ID); !errors.Is(err, access.ErrNotFound) {
		t.Fatalf("second cancel err = %v", err)
	}
	if got := e.events.topics[len(e.events.topics)-1]; got != queue.TopicReservationCancelled {
		t.Fatalf("last event = %s", got)
	}
}

func TestReviewVisibility(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.member(t, "author")
	r := e.restaurant(t)
	reviews := repository.NewReviewRepo(e.db)
	authorID, _ := author.MemberID()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 10; i++ {
		rv := &model.Review{MemberID: authorID, RestaurantID: r, Score: 1 + i%5, Content: fmt.Sprintf("#%d", i), CreatedAt: start.Add(time.Duration(i) * time.Hour)}
		if err := reviews.Create(ctx, rv); err != nil {
			t.Fatal(err)
		}
	}

	free, err := e.reviews.ListForRestaurant(ctx, r, false, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(free.Items) != 3 || free.Pagination != nil {
		t.Fatalf("free listing: %d items, pagination %+v", len(free.Items), free.Pagination)
	}
	for i, want := range []string{"#10", "#9", "#8"} {
		if free.Items[i].Content != want {
			t.Errorf("free item %d = %s, want %s", i, free.Items[i].Content, want)
		}
	}

	p1, err := e.reviews.ListForRestaurant(ctx, r, true, 1)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := e.reviews.ListForRestaurant(ctx, r, true, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(p1.Items) != 5 || len(p2.Items) != 5 || p1.Pagination.Total != 10 || p1.Pagination.LastPage != 2 {
		t.Fatalf("paid pages: %d + %d items, pagination %+v", len(p1.Items), len(p2.Items), p1.Pagination)
	}
	if p1.Items[0].Content != "#10" || p2.Items[4].Content != "#1" {
		t.Fatalf("paid order: first %s, last %s", p1.Items[0].Content, p2.Items[4].Content)
	}
}

func TestReviewLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author, other := e.member(t, "author"), e.member(t, "other")
	r := e.restaurant(t)
	r2 := e.restaurant(t)

	for _, in := range []ReviewInput{{Score: 0, Content: "x"}, {Score: 6, Content: "x"}, {Score: 3, Content: "   "}} {
		if _, err := e.reviews.Create(ctx, author, r, in); !IsValidation(err) {
			t.Fatalf("Create(%+v) err = %v", in, err)
		}
	}
	rv, err := e.reviews.Create(ctx, author, r, ReviewInput{Score: 4, Content: " tasty "})
	if err != nil {
		t.Fatal(err)
	}
	if rv.Content != "tasty" {
		t.Fatalf("content = %q", rv.Content)
	}
	if _, err := e.reviews.Update(ctx, other, r, rv.ID, ReviewInput{Score: 1, Content: "bad"}); !errors.Is(err, access.ErrNotOwner) {
		t.Fatalf("foreign update err = %v", err)
	}
	if _, err := e.reviews.Update(ctx, author, r2, rv.ID, ReviewInput{Score: 1, Content: "bad"}); !errors.Is(err, access.ErrNotFound) {
		t.Fatalf("update under wrong restaurant err = %v", err)
	}
	updated, err := e.reviews.Update(ctx, author, r, rv.ID, ReviewInput{Score: 5, Content: "better"})
	if err != nil || updated.Score != 5 {
		t.Fatalf("Update = %+v, %v", updated, err)
	}
	if err := e.reviews.Destroy(ctx, other, r, rv.ID); !errors.Is(err, access.ErrNotOwner) {
		t.Fatalf("foreign destroy err = %v", err)
	}
	if err := e.reviews.Destroy(ctx, author, r, rv.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.reviews.Get(ctx, r, rv.ID); !errors.Is(err, access.ErrNotFound) {
		t.Fatalf("Get after destroy err = %v", err)
	}
}

func TestRestaurantValidation(t *testing.T) {
	e := newEnv(t)
	cases := []struct {
		name   string
		mutate func(*RestaurantInput)
		field  string
	}{
		{"price range inverted", func(in *RestaurantInput) { in.HighestPrice = 500 }, "highest_price"},
		{"equal prices", func(in *RestaurantInput) { in.HighestPrice = in.LowestPrice }, "highest_price"},
		{"closing before opening", func(in *RestaurantInput) { in.ClosingTime = "10:00" }, "closing_time"},
		{"malformed time", func(in *RestaurantInput) { in.OpeningTime = "25:00" }, "opening_time"},
		{"postal code length", func(in *RestaurantInput) { in.PostalCode = "460-0011" }, "postal_code"},
		{"negative capacity", func(in *RestaurantInput) { in.SeatingCapacity = -1 }, "seating_capacity"},
		{"missing name", func(in *RestaurantInput) { in.Name = " " }, "name"},
		{"unknown category", func(in *RestaurantInput) { in.CategoryIDs = []uint64{42} }, "category_ids"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validRestaurant()
			tc.mutate(&in)
			_, err := e.restaurants.Create(context.Background(), in)
			if _, ok := fieldErrors(t, err)[tc.field]; !ok {
				t.Fatalf("fields = %v, want %s", fieldErrors(t, err), tc.field)
			}
		})
	}
}

func TestRestaurantUpdateSyncsCategories(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cats := repository.NewCategoryRepo(e.db)
	a, _ := cats.Create(ctx, "a")
	b, _ := cats.Create(ctx, "b")
	in := validRestaurant()
	in.CategoryIDs = []uint64{a.ID}
	r, err := e.restaurants.Create(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	in.CategoryIDs = []uint64{b.ID}
	in.Name = "Renamed"
	if _, err := e.restaurants.Update(ctx, r.ID, in); err != nil {
		t.Fatal(err)
	}
	d, err := e.restaurants.Detail(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "Renamed" || len(d.Categories) != 1 || d.Categories[0].ID != b.ID {
		t.Fatalf("detail = %+v", d)
	}
	if _, err := e.restaurants.Update(ctx, 999, in); !errors.Is(err, access.ErrNotFound) {
		t.Fatalf("update missing err = %v", err)
	}
}

func TestSearchParams(t *testing.T) {
	cases := []struct {
		name string
		in   SearchParams
		want repository.SearchQuery
	}{
		{"defaults", SearchParams{}, repository.SearchQuery{Sort: repository.SortNewest, Direction: repository.Desc, Page: 1, PerPage: 15}},
		{"filters parsed", SearchParams{Keyword: " miso ", CategoryID: "3", Price: "2000", Page: 2},
			repository.SearchQuery{Keyword: "miso", CategoryID: 3, HasCategory: true, MaxPrice: 2000, HasPrice: true, Sort: repository.SortNewest, Direction: repository.Desc, Page: 2, PerPage: 15}},
		{"zero price is still a filter", SearchParams{Price: "0"},
			repository.SearchQuery{HasPrice: true, Sort: repository.SortNewest, Direction: repository.Desc, Page: 1, PerPage: 15}},
		{"junk numbers stay present", SearchParams{CategoryID: "x", Price: "abc"},
			repository.SearchQuery{HasCategory: true, HasPrice: true, Sort: repository.SortNewest, Direction: repository.Desc, Page: 1, PerPage: 15}},
		{"negative price kept", SearchParams{Price: "-1"},
			repository.SearchQuery{MaxPrice: -1, HasPrice: true, Sort: repository.SortNewest, Direction: repository.Desc, Page: 1, PerPage: 15}},
		{"blank filters absent", SearchParams{CategoryID: " ", Price: ""},
			repository.SearchQuery{Sort: repository.SortNewest, Direction: repository.Desc, Page: 1, PerPage: 15}},
		{"rating ascending", SearchParams{Sort: "rating", Direction: "asc"},
			repository.SearchQuery{Sort: repository.SortRating, Direction: repository.Asc, Page: 1, PerPage: 15}},
		{"legacy price sort", SearchParams{SelectSort: "lowest_price asc"},
			repository.SearchQuery{Sort: repository.SortPriceAsc, Direction: repository.Asc, Page: 1, PerPage: 15}},
		{"legacy newest", SearchParams{SelectSort: "created_at desc"},
			repository.SearchQuery{Sort: repository.SortNewest, Direction: repository.Desc, Page: 1, PerPage: 15}},
		{"sort wins over legacy", SearchParams{Sort: "popularity", SelectSort: "lowest_price asc"},
			repository.SearchQuery{Sort: repository.SortPopularity, Direction: repository.Desc, Page: 1, PerPage: 15}},
		{"unknown sort", SearchParams{Sort: "random"},
			repository.SearchQuery{Sort: repository.SortNewest, Direction: repository.Desc, Page: 1, PerPage: 15}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Query(); got != tc.want {
				t.Fatalf("Query() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestProfileUpdate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := e.member(t, "m")
	e.member(t, "taken")
	id, _ := m.MemberID()
	in := ProfileInput{
		Name:        "Nagoya Taro",
		Kana:        "ナゴヤタロウ",
		Email:       "new@example.com",
		PostalCode:  "4600011",
		Address:     "Nagoya",
		PhoneNumber: "0521234567",
		Birthday:    "19900101",
	}
	got, err := e.members.UpdateProfile(ctx, m, id, in)
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.Birthday == nil || *got.Birthday != "19900101" || got.Occupation != nil {
		t.Fatalf("member = %+v", got)
	}

	bad := in
	bad.Kana = "hiragana"
	bad.PhoneNumber = "123"
	fields := fieldErrors(t, func() error { _, err := e.members.UpdateProfile(ctx, m, id, bad); return err }())
	if _, ok := fields["kana"]; !ok {
		t.Errorf("kana accepted: %v", fields)
	}
	if _, ok := fields["phone_number"]; !ok {
		t.Errorf("phone accepted: %v", fields)
	}

	dup := in
	dup.Email = "taken@example.com"
	if _, err := e.members.UpdateProfile(ctx, m, id, dup); fieldErrors(t, err)["email"] == "" {
		t.Fatal("duplicate email accepted")
	}
	if _, err := e.members.UpdateProfile(ctx, m, id+1, in); !errors.Is(err, access.ErrNotOwner) {
		t.Fatalf("foreign profile err = %v", err)
	}
}

func TestAuthSpacesAreDisjoint(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	members := repository.NewMemberRepo(db)
	admins := repository.NewAdminRepo(db)
	svc := NewAuthService(members, admins, repository.NewTokenRepo(db), AuthConfig{
		MemberSecret: "m-secret", AdminSecret: "a-secret", AccessTTLMin: 5, RefreshTTLDays: 1,
	})
	if err := members.Create(ctx, &model.Member{Name: "m", Email: "same@example.com"}, "member-pass", 4); err != nil {
		t.Fatal(err)
	}
	if _, err := admins.Create(ctx, "same@example.com", "admin-pass", 4); err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.Login(ctx, utils.SpaceMember, "same@example.com", "admin-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("member login with admin password err = %v", err)
	}
	_, pair, err := svc.Login(ctx, utils.SpaceAdmin, "same@example.com", "admin-pass")
	if err != nil {
		t.Fatal(err)
	}
	resolver := access.NewResolver("m-secret", "a-secret")
	if p := resolver.ResolveToken(pair.Access.Token); !p.IsAdministrator() {
		t.Fatalf("admin token resolved to %v", p)
	}
	if _, _, err := svc.Refresh(ctx, utils.SpaceMember, pair.Refresh.Raw); err == nil {
		t.Fatal("admin refresh token accepted in member space")
	}
	_, next, err := svc.Refresh(ctx, utils.SpaceAdmin, pair.Refresh.Raw)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Refresh(ctx, utils.SpaceAdmin, pair.Refresh.Raw); err == nil {
		t.Fatal("rotated refresh token reused")
	}
	if err := svc.Logout(ctx, utils.SpaceAdmin, 0, next.Refresh.Raw); err != nil {
		t.Fatal(err)
	}
}

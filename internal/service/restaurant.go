package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/mayuuuu918/nagoyameshi/internal/model"
	"github.com/mayuuuu918/nagoyameshi/internal/repository"
)

const (
	// SearchPerPage is the page size of the public restaurant search.
	SearchPerPage = 15
	// AdminPerPage is the page size of administrator listings.
	AdminPerPage = 15
	homeListSize = 6
)

// SearchParams is the raw query string of the restaurant index.
// SelectSort is the older "<column> <direction>" selector; Sort and
// Direction take precedence when both are given.
type SearchParams struct {
	Keyword    string `query:"keyword"`
	CategoryID string `query:"category_id"`
	Price      string `query:"price"`
	Sort       string `query:"sort"`
	Direction  string `query:"direction"`
	SelectSort string `query:"select_sort"`
	Page       int    `query:"page"`
}

// Query turns raw parameters into a search query.  A filter counts as
// present whenever its parameter is non-blank.
func (p SearchParams) Query() repository.SearchQuery {
	q := repository.SearchQuery{
		Keyword: strings.TrimSpace(p.Keyword),
		Page:    p.Page,
		PerPage: SearchPerPage,
	}
	if q.Page < 1 {
		q.Page = 1
	}
	// a sent but unparseable value stays present and matches nothing:
	// category 0 does not exist and no price is below 0
	if raw := strings.TrimSpace(p.CategoryID); raw != "" {
		q.HasCategory = true
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			q.CategoryID = id
		}
	}
	if raw := strings.TrimSpace(p.Price); raw != "" {
		q.HasPrice = true
		if price, err := strconv.ParseInt(raw, 10, 64); err == nil {
			q.MaxPrice = price
		}
	}

	sort, dir := p.Sort, p.Direction
	if sort == "" && p.SelectSort != "" {
		col, d, _ := strings.Cut(strings.TrimSpace(p.SelectSort), " ")
		sort, dir = legacySortColumn(col), strings.TrimSpace(d)
	}
	q.Sort = parseSort(sort)
	q.Direction = repository.Desc
	if strings.EqualFold(dir, "asc") {
		q.Direction = repository.Asc
	}
	return q
}

func legacySortColumn(col string) string {
	switch col {
	case "lowest_price":
		return string(repository.SortPriceAsc)
	case "rating", "average_score", "reviews_avg_score":
		return string(repository.SortRating)
	case "popular", "popularity", "reservation_count", "reservations_count":
		return string(repository.SortPopularity)
	default:
		return string(repository.SortNewest)
	}
}

func parseSort(s string) repository.SortKey {
	switch k := repository.SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case repository.SortPriceAsc, repository.SortRating, repository.SortPopularity:
		return k
	default:
		return repository.SortNewest
	}
}

// RestaurantInput is the administrator's restaurant form.
type RestaurantInput struct {
	Name              string   `json:"name" form:"name" validate:"required,max=255"`
	Description       string   `json:"description" form:"description" validate:"required"`
	LowestPrice       int      `json:"lowest_price" form:"lowest_price" validate:"min=0"`
	HighestPrice      int      `json:"highest_price" form:"highest_price" validate:"min=0,gtfield=LowestPrice"`
	PostalCode        string   `json:"postal_code" form:"postal_code" validate:"required,len=7,numeric"`
	Address           string   `json:"address" form:"address" validate:"required,max=255"`
	OpeningTime       string   `json:"opening_time" form:"opening_time" validate:"required,datetime=15:04"`
	ClosingTime       string   `json:"closing_time" form:"closing_time" validate:"required,datetime=15:04"`
	SeatingCapacity   int      `json:"seating_capacity" form:"seating_capacity" validate:"min=0"`
	CategoryIDs       []uint64 `json:"category_ids" form:"category_ids"`
	RegularHolidayIDs []uint64 `json:"regular_holiday_ids" form:"regular_holiday_ids"`
}

// Home is the landing page content.
type Home struct {
	HighlyRated []model.RestaurantSummary `json:"highly_rated_restaurants"`
	Categories  []model.Category          `json:"categories"`
	Newest      []model.RestaurantSummary `json:"new_restaurants"`
}

// RestaurantService is the restaurant catalogue: public search and detail,
// and the administrator's create, update and delete.
type RestaurantService struct {
	Restaurants *repository.RestaurantRepo
	Categories  *repository.CategoryRepo
	Holidays    *repository.HolidayRepo
}

func NewRestaurantService(r *repository.RestaurantRepo, c *repository.CategoryRepo, h *repository.HolidayRepo) *RestaurantService {
	return &RestaurantService{Restaurants: r, Categories: c, Holidays: h}
}

// Search runs one filtered, sorted, paginated search.
func (s *RestaurantService) Search(ctx context.Context, q repository.SearchQuery) (model.Page[model.RestaurantSummary], error) {
	return s.Restaurants.Search(ctx, q)
}

func (s *RestaurantService) Detail(ctx context.Context, id uint64) (model.RestaurantDetail, error) {
	d, err := s.Restaurants.Detail(ctx, id)
	if err != nil {
		return model.RestaurantDetail{}, ownershipError(err)
	}
	return d, nil
}

// Home collects the best rated and the newest restaurants with every
// category.
func (s *RestaurantService) Home(ctx context.Context) (Home, error) {
	rated, err := s.Restaurants.Search(ctx, repository.SearchQuery{Sort: repository.SortRating, PerPage: homeListSize})
	if err != nil {
		return Home{}, err
	}
	newest, err := s.Restaurants.Search(ctx, repository.SearchQuery{Sort: repository.SortNewest, PerPage: homeListSize})
	if err != nil {
		return Home{}, err
	}
	cats, err := s.Categories.All(ctx)
	if err != nil {
		return Home{}, err
	}
	return Home{HighlyRated: rated.Items, Categories: cats, Newest: newest.Items}, nil
}

// Create validates in and stores a restaurant with its associations.
func (s *RestaurantService) Create(ctx context.Context, in RestaurantInput) (model.Restaurant, error) {
	if err := s.validate(ctx, &in); err != nil {
		return model.Restaurant{}, err
	}
	rest := in.restaurant()
	if err := s.Restaurants.Create(ctx, &rest, in.CategoryIDs, in.RegularHolidayIDs); err != nil {
		return model.Restaurant{}, err
	}
	return rest, nil
}

// Update validates in and replaces restaurant id and its associations in
// one step.
func (s *RestaurantService) Update(ctx context.Context, id uint64, in RestaurantInput) (model.Restaurant, error) {
	if err := s.validate(ctx, &in); err != nil {
		return model.Restaurant{}, err
	}
	cur, err := s.Restaurants.GetByID(ctx, id)
	if err != nil {
		return model.Restaurant{}, ownershipError(err)
	}
	rest := in.restaurant()
	rest.ID, rest.CreatedAt = cur.ID, cur.CreatedAt
	if err := s.Restaurants.Update(ctx, &rest, in.CategoryIDs, in.RegularHolidayIDs); err != nil {
		return model.Restaurant{}, ownershipError(err)
	}
	return rest, nil
}

func (s *RestaurantService) Delete(ctx context.Context, id uint64) error {
	return ownershipError(s.Restaurants.Delete(ctx, id))
}

func (s *RestaurantService) validate(ctx context.Context, in *RestaurantInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Address = strings.TrimSpace(in.Address)
	in.OpeningTime = strings.TrimSpace(in.OpeningTime)
	in.ClosingTime = strings.TrimSpace(in.ClosingTime)

	err := check(*in)
	ve := &ValidationError{Fields: map[string]string{}}
	if err != nil && !IsValidation(err) {
		return err
	}
	if err != nil {
		ve = err.(*ValidationError)
	}
	_, openBad := ve.Fields["opening_time"]
	_, closeBad := ve.Fields["closing_time"]
	if !openBad && !closeBad && in.ClosingTime <= in.OpeningTime {
		ve.Fields["closing_time"] = "must be after opening_time"
	}
	if n, err := s.Categories.CountExisting(ctx, in.CategoryIDs); err != nil {
		return err
	} else if n != distinct(in.CategoryIDs) {
		ve.Fields["category_ids"] = "contains an unknown category"
	}
	if n, err := s.Holidays.CountExisting(ctx, in.RegularHolidayIDs); err != nil {
		return err
	} else if n != distinct(in.RegularHolidayIDs) {
		ve.Fields["regular_holiday_ids"] = "contains an unknown regular holiday"
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}

func (in RestaurantInput) restaurant() model.Restaurant {
	return model.Restaurant{
		Name:            in.Name,
		Description:     in.Description,
		LowestPrice:     uint32(in.LowestPrice),
		HighestPrice:    uint32(in.HighestPrice),
		PostalCode:      in.PostalCode,
		Address:         in.Address,
		OpeningTime:     in.OpeningTime,
		ClosingTime:     in.ClosingTime,
		SeatingCapacity: uint32(in.SeatingCapacity),
	}
}

func distinct(ids []uint64) int {
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}


package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mayuuuu918/nagoyameshi/internal/access"
	"github.com/mayuuuu918/nagoyameshi/internal/model"
	"github.com/mayuuuu918/nagoyameshi/internal/queue"
	"github.com/mayuuuu918/nagoyameshi/internal/repository"
)

const (
	// ReviewsPerPage is the page size shown to subscribed viewers.
	ReviewsPerPage = 5
	// FreeReviewLimit is how many of the newest reviews a viewer without
	// a paid plan sees.
	FreeReviewLimit = 3
)

// ReviewInput is the review form.
type ReviewInput struct {
	Score   int    `json:"score" form:"score" validate:"required,min=1,max=5"`
	Content string `json:"content" form:"content" validate:"required"`
}

// ReviewListing is what a viewer gets to see of a restaurant's reviews.
// Pagination is nil for viewers without a paid plan: they get the newest
// few reviews and no hint that more exist.
type ReviewListing struct {
	Items      []model.Review `json:"items"`
	Pagination *Pagination    `json:"pagination,omitempty"`
}

// Pagination describes the page of a paginated listing.
type Pagination struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PerPage  int   `json:"per_page"`
	LastPage int   `json:"last_page"`
}

// ReviewService manages the review lifecycle.
type ReviewService struct {
	Reviews     *repository.ReviewRepo
	Restaurants *repository.RestaurantRepo
	Events      queue.Publisher
	Logger      *slog.Logger
}

func NewReviewService(reviews *repository.ReviewRepo, rest *repository.RestaurantRepo, events queue.Publisher, logger *slog.Logger) *ReviewService {
	return &ReviewService{Reviews: reviews, Restaurants: rest, Events: events, Logger: logger}
}

// Create posts a review by p on restaurantID.
func (s *ReviewService) Create(ctx context.Context, p access.Principal, restaurantID uint64, in ReviewInput) (model.Review, error) {
	memberID, ok := p.MemberID()
	if !ok {
		return model.Review{}, access.ErrUnauthenticated
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := check(in); err != nil {
		return model.Review{}, err
	}
	if _, err := s.Restaurants.GetByID(ctx, restaurantID); err != nil {
		return model.Review{}, ownershipError(err)
	}
	rv := model.Review{MemberID: memberID, RestaurantID: restaurantID, Score: in.Score, Content: in.Content}
	if err := s.Reviews.Create(ctx, &rv); err != nil {
		return model.Review{}, err
	}
	ev := queue.ReviewEvent{
		ReviewID:     rv.ID,
		MemberID:     memberID,
		RestaurantID: restaurantID,
		Score:        rv.Score,
		OccurredAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Events.Publish(ctx, queue.TopicReviewPosted, ev); err != nil {
		s.Logger.Warn("publish event failed", "topic", queue.TopicReviewPosted, "review_id", rv.ID, "err", err)
	}
	return rv, nil
}

// Get loads reviewID, which must belong to restaurantID.
func (s *ReviewService) Get(ctx context.Context, restaurantID, reviewID uint64) (model.Review, error) {
	rv, err := s.Reviews.GetByID(ctx, reviewID)
	if err != nil {
		return model.Review{}, ownershipError(err)
	}
	if rv.RestaurantID != restaurantID {
		return model.Review{}, access.ErrNotFound
	}
	return rv, nil
}

// Update rewrites score and content of a review owned by p.
func (s *ReviewService) Update(ctx context.Context, p access.Principal, restaurantID, reviewID uint64, in ReviewInput) (model.Review, error) {
	memberID, ok := p.MemberID()
	if !ok {
		return model.Review{}, access.ErrUnauthenticated
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := check(in); err != nil {
		return model.Review{}, err
	}
	if _, err := s.Get(ctx, restaurantID, reviewID); err != nil {
		return model.Review{}, err
	}
	if err := s.Reviews.Update(ctx, reviewID, memberID, in.Score, in.Content); err != nil {
		return model.Review{}, ownershipError(err)
	}
	return s.Get(ctx, restaurantID, reviewID)
}

// Destroy deletes a review owned by p.
func (s *ReviewService) Destroy(ctx context.Context, p access.Principal, restaurantID, reviewID uint64) error {
	memberID, ok := p.MemberID()
	if !ok {
		return access.ErrUnauthenticated
	}
	if _, err := s.Get(ctx, restaurantID, reviewID); err != nil {
		return err
	}
	return ownershipError(s.Reviews.Delete(ctx, reviewID, memberID))
}

// ListForRestaurant returns the reviews a viewer may see, newest first:
// every review five per page when subscribed, otherwise only the newest
// three.
func (s *ReviewService) ListForRestaurant(ctx context.Context, restaurantID uint64, viewerIsSubscribed bool, page int) (ReviewListing, error) {
	if _, err := s.Restaurants.GetByID(ctx, restaurantID); err != nil {
		return ReviewListing{}, ownershipError(err)
	}
	if !viewerIsSubscribed {
		items, err := s.Reviews.LatestByRestaurant(ctx, restaurantID, FreeReviewLimit)
		if err != nil {
			return ReviewListing{}, err
		}
		return ReviewListing{Items: items}, nil
	}
	if page < 1 {
		page = 1
	}
	p, err := s.Reviews.PageByRestaurant(ctx, restaurantID, page, ReviewsPerPage)
	if err != nil {
		return ReviewListing{}, err
	}
	return ReviewListing{
		Items:      p.Items,
		Pagination: &Pagination{Total: p.Total, Page: p.Page, PerPage: p.PerPage, LastPage: p.LastPage},
	}, nil
}

// OwnerOf resolves the author of a review for the ownership guard.  A
// review filed under another restaurant counts as missing.
func (s *ReviewService) OwnerOf(ctx context.Context, restaurantID, reviewID uint64) (uint64, error) {
	rv, err := s.Get(ctx, restaurantID, reviewID)
	if err != nil {
		return 0, err
	}
	return rv.MemberID, nil
}


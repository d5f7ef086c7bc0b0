package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mayuuuu918/nagoyameshi/internal/access"
	"github.com/mayuuuu918/nagoyameshi/internal/model"
	"github.com/mayuuuu918/nagoyameshi/internal/queue"
	"github.com/mayuuuu918/nagoyameshi/internal/repository"
)

// ReservationsPerPage is the page size of a member's reservation list.
const ReservationsPerPage = 15

// ReservationInput is the reservation form.  Date and time are kept as the
// submitted strings so that format errors can be reported per field.
type ReservationInput struct {
	Date           string `json:"reservation_date" form:"reservation_date" validate:"required,datetime=2006-01-02"`
	Time           string `json:"reservation_time" form:"reservation_time" validate:"required,datetime=15:04"`
	NumberOfPeople int    `json:"number_of_people" form:"number_of_people" validate:"required,min=1,max=50"`
}

// ReservationService manages the reservation lifecycle: create, cancel and
// list.  There is no update; cancel and create again instead.
type ReservationService struct {
	Reservations *repository.ReservationRepo
	Restaurants  *repository.RestaurantRepo
	Events       queue.Publisher
	Logger       *slog.Logger
}

func NewReservationService(res *repository.ReservationRepo, rest *repository.RestaurantRepo, events queue.Publisher, logger *slog.Logger) *ReservationService {
	return &ReservationService{Reservations: res, Restaurants: rest, Events: events, Logger: logger}
}

// Create books restaurantID for the member p.  The caller has already
// passed the authentication and subscription guards.  Seating capacity and
// overlapping bookings are not checked.
func (s *ReservationService) Create(ctx context.Context, p access.Principal, restaurantID uint64, in ReservationInput) (model.Reservation, error) {
	memberID, ok := p.MemberID()
	if !ok {
		return model.Reservation{}, access.ErrUnauthenticated
	}
	in.Date, in.Time = strings.TrimSpace(in.Date), strings.TrimSpace(in.Time)
	if err := check(in); err != nil {
		return model.Reservation{}, err
	}
	// wall-clock time as entered, stored without zone conversion
	at, err := time.ParseInLocation("2006-01-02 15:04", in.Date+" "+in.Time, time.UTC)
	if err != nil {
		return model.Reservation{}, Invalid("reservation_date", "is not a valid date")
	}
	rest, err := s.Restaurants.GetByID(ctx, restaurantID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Reservation{}, access.ErrNotFound
	}
	if err != nil {
		return model.Reservation{}, err
	}

	res := model.Reservation{
		MemberID:         memberID,
		RestaurantID:     rest.ID,
		RestaurantName:   rest.Name,
		ReservedDatetime: at,
		NumberOfPeople:   in.NumberOfPeople,
	}
	if err := s.Reservations.Create(ctx, &res); err != nil {
		return model.Reservation{}, err
	}
	s.publish(ctx, queue.TopicReservationCreated, res)
	return res, nil
}

// Cancel deletes a reservation owned by p.  There is no cutoff before the
// reserved time.
func (s *ReservationService) Cancel(ctx context.Context, p access.Principal, reservationID uint64) error {
	memberID, ok := p.MemberID()
	if !ok {
		return access.ErrUnauthenticated
	}
	res, err := s.Reservations.GetByID(ctx, reservationID)
	if err != nil {
		return ownershipError(err)
	}
	if err := s.Reservations.Delete(ctx, reservationID, memberID); err != nil {
		return ownershipError(err)
	}
	s.publish(ctx, queue.TopicReservationCancelled, res)
	return nil
}

// ListForMember returns p's reservations, latest reserved time first.
func (s *ReservationService) ListForMember(ctx context.Context, p access.Principal, page int) (model.Page[model.Reservation], error) {
	memberID, ok := p.MemberID()
	if !ok {
		return model.Page[model.Reservation]{}, access.ErrUnauthenticated
	}
	if page < 1 {
		page = 1
	}
	return s.Reservations.ListByMember(ctx, memberID, page, ReservationsPerPage)
}

// OwnerOf resolves the owning member of a reservation for the ownership
// guard.
func (s *ReservationService) OwnerOf(ctx context.Context, reservationID uint64) (uint64, error) {
	owner, err := s.Reservations.OwnerOf(ctx, reservationID)
	return owner, ownershipError(err)
}

func (s *ReservationService) publish(ctx context.Context, topic string, res model.Reservation) {
	ev := queue.ReservationEvent{
		ReservationID:  res.ID,
		MemberID:       res.MemberID,
		RestaurantID:   res.RestaurantID,
		RestaurantName: res.RestaurantName,
		ReservedAt:     res.ReservedDatetime.Format("2006-01-02 15:04"),
		NumberOfPeople: res.NumberOfPeople,
		OccurredAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Events.Publish(ctx, topic, ev); err != nil {
		s.Logger.Warn("publish event failed", "topic", topic, "reservation_id", res.ID, "err", err)
	}
}

// ownershipError maps repository ownership errors onto the access
// taxonomy.
func ownershipError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return access.ErrNotFound
	case errors.Is(err, repository.ErrForbidden):
		return access.ErrNotOwner
	default:
		return err
	}
}

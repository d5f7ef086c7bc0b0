// Package queue carries domain events over RabbitMQ: payload types, a
// publisher used by the services and a consumer that appends one line per
// event to logs/reservation.log.
package queue

import (
	"encoding/json"
	"fmt"
)

// Queue names.  Each event type has its own durable queue.
const (
	TopicReservationCreated   = "reservation.created"
	TopicReservationCancelled = "reservation.cancelled"
	TopicReviewPosted         = "review.posted"
)

// Topics lists every queue the consumer listens on.
var Topics = []string{TopicReservationCreated, TopicReservationCancelled, TopicReviewPosted}

// ReservationEvent is published when a reservation is made or cancelled.
type ReservationEvent struct {
	ReservationID  uint64 `json:"reservation_id"`
	MemberID       uint64 `json:"member_id"`
	RestaurantID   uint64 `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	ReservedAt     string `json:"reserved_at"`
	NumberOfPeople int    `json:"number_of_people"`
	OccurredAt     string `json:"occurred_at"`
}

// ReviewEvent is published when a review is posted.
type ReviewEvent struct {
	ReviewID     uint64 `json:"review_id"`
	MemberID     uint64 `json:"member_id"`
	RestaurantID uint64 `json:"restaurant_id"`
	Score        int    `json:"score"`
	OccurredAt   string `json:"occurred_at"`
}

// FormatLine renders a message body from topic as a single log line.
func FormatLine(topic string, body []byte) (string, error) {
	switch topic {
	case TopicReservationCreated, TopicReservationCancelled:
		var ev ReservationEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", topic, err)
		}
		verb := "Reservation created"
		if topic == TopicReservationCancelled {
			verb = "Reservation cancelled"
		}
		return fmt.Sprintf("[%s] %s | reservation_id=%d | member_id=%d | restaurant_id=%d | restaurant=%q | reserved_at=%s | people=%d\n",
			ev.OccurredAt, verb, ev.ReservationID, ev.MemberID, ev.RestaurantID, ev.RestaurantName, ev.ReservedAt, ev.NumberOfPeople), nil
	case TopicReviewPosted:
		var ev ReviewEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", topic, err)
		}
		return fmt.Sprintf("[%s] Review posted | review_id=%d | member_id=%d | restaurant_id=%d | score=%d\n",
			ev.OccurredAt, ev.ReviewID, ev.MemberID, ev.RestaurantID, ev.Score), nil
	default:
		return "", fmt.Errorf("unknown topic %q", topic)
	}
}

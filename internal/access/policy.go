package access

import (
	"context"
	"fmt"
)

// Action names a gated operation of the HTTP surface.
type Action string

// Member-facing actions.
const (
	ActionHome               Action = "home"
	ActionRestaurantIndex    Action = "restaurants.index"
	ActionRestaurantShow     Action = "restaurants.show"
	ActionPageView           Action = "pages.show" // terms, company
	ActionReviewIndex        Action = "reviews.index"
	ActionReviewCreate       Action = "reviews.create"
	ActionReviewEdit         Action = "reviews.edit"
	ActionReviewUpdate       Action = "reviews.update"
	ActionReviewDestroy      Action = "reviews.destroy"
	ActionReservationIndex   Action = "reservations.index"
	ActionReservationCreate  Action = "reservations.create"
	ActionReservationDestroy Action = "reservations.destroy"
	ActionFavoriteIndex      Action = "favorites.index"
	ActionFavoriteStore      Action = "favorites.store"
	ActionFavoriteDestroy    Action = "favorites.destroy"
	ActionProfileShow        Action = "user.index"
	ActionProfileEdit        Action = "user.edit"
	ActionProfileUpdate      Action = "user.update"
	ActionSubscriptionCreate Action = "subscription.create"
	ActionSubscriptionManage Action = "subscription.manage"
)

// ActionAdmin covers every administrator-facing operation.
const ActionAdmin Action = "admin"

// Policy maps each action to its guard chain.
type Policy map[Action]Chain

// DefaultPolicy returns the guard chains of the service.  Member-facing
// chains always start with AdministratorExclusion then Authentication (when
// login is needed); subscription guards come next and Ownership last, so a
// resource owner is only looked up for subscribed (where required), logged
// in members.
func DefaultPolicy() Policy {
	public := Chain{AdministratorExclusion}
	member := Chain{AdministratorExclusion, Authentication}
	subscribed := Chain{AdministratorExclusion, Authentication, SubscriptionRequired}
	owned := Chain{AdministratorExclusion, Authentication, Ownership}
	subscribedOwned := Chain{AdministratorExclusion, Authentication, SubscriptionRequired, Ownership}

	return Policy{
		ActionHome:            public,
		ActionRestaurantIndex: public,
		ActionRestaurantShow:  public,
		ActionPageView:        public,

		ActionReviewIndex:   member,
		ActionReviewCreate:  subscribed,
		ActionReviewEdit:    subscribedOwned,
		ActionReviewUpdate:  subscribedOwned,
		ActionReviewDestroy: subscribedOwned,

		ActionReservationIndex:   subscribed,
		ActionReservationCreate:  subscribed,
		ActionReservationDestroy: owned,

		ActionFavoriteIndex:   member,
		ActionFavoriteStore:   member,
		ActionFavoriteDestroy: member,

		ActionProfileShow:   member,
		ActionProfileEdit:   owned,
		ActionProfileUpdate: owned,

		ActionSubscriptionCreate: {AdministratorExclusion, Authentication, SubscriptionForbidden},
		ActionSubscriptionManage: subscribed,

		ActionAdmin: {AdministratorAuthentication},
	}
}

// Evaluate runs the chain registered for req.Action.  Unknown actions are
// denied.
func (p Policy) Evaluate(ctx context.Context, req *Request) Decision {
	chain, ok := p[req.Action]
	if !ok {
		return failure(fmt.Errorf("no policy for action %q", req.Action))
	}
	return chain.Evaluate(ctx, req)
}

// Package access decides, for every request, which actions the requesting
// principal may perform.  It resolves credentials into a Principal, asks the
// billing provider whether a member's paid plan is active, and evaluates an
// ordered, short-circuiting chain of guards per action.
package access

import "fmt"

// Kind tags the variant held by a Principal.
type Kind uint8

const (
	KindAnonymous Kind = iota
	KindMember
	KindAdministrator
)

func (k Kind) String() string {
	switch k {
	case KindMember:
		return "member"
	case KindAdministrator:
		return "administrator"
	default:
		return "anonymous"
	}
}

// Principal is the resolved identity making a request: exactly one of
// anonymous, a member, or an administrator.  Member and administrator ids
// come from different tables, so an id is only meaningful together with
// its kind.
type Principal struct {
	kind Kind
	id   uint64
}

// Anonymous returns the principal of an unauthenticated request.
func Anonymous() Principal { return Principal{kind: KindAnonymous} }

// Member returns the principal of an authenticated member.
func Member(id uint64) Principal { return Principal{kind: KindMember, id: id} }

// Administrator returns the principal of an authenticated administrator.
func Administrator(id uint64) Principal { return Principal{kind: KindAdministrator, id: id} }

func (p Principal) Kind() Kind            { return p.kind }
func (p Principal) ID() uint64            { return p.id }
func (p Principal) IsAnonymous() bool     { return p.kind == KindAnonymous }
func (p Principal) IsMember() bool        { return p.kind == KindMember }
func (p Principal) IsAdministrator() bool { return p.kind == KindAdministrator }

// MemberID returns the member id, or false when p is not a member.
func (p Principal) MemberID() (uint64, bool) {
	if p.kind != KindMember {
		return 0, false
	}
	return p.id, true
}

func (p Principal) String() string {
	if p.kind == KindAnonymous {
		return "anonymous"
	}
	return fmt.Sprintf("%s:%d", p.kind, p.id)
}

package access

import (
	"strings"

	"github.com/mayuuuu918/nagoyameshi/internal/utils"
)

// Resolver turns request credentials into a Principal.  Member and
// administrator tokens are signed with different secrets and carry
// different audiences, so a single credential can only ever verify in one
// space.
type Resolver struct {
	memberSecret string
	adminSecret  string
}

func NewResolver(memberSecret, adminSecret string) *Resolver {
	return &Resolver{memberSecret: memberSecret, adminSecret: adminSecret}
}

// Resolve inspects an Authorization header value.  Missing, malformed,
// expired or foreign tokens all resolve to Anonymous.
func (r *Resolver) Resolve(authorization string) Principal {
	raw, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok {
		return Anonymous()
	}
	return r.ResolveToken(strings.TrimSpace(raw))
}

// ResolveToken resolves a bare access token.
func (r *Resolver) ResolveToken(raw string) Principal {
	if raw == "" {
		return Anonymous()
	}
	if id, err := utils.ParseAccessToken(r.memberSecret, utils.SpaceMember, raw); err == nil {
		return Member(id)
	}
	if id, err := utils.ParseAccessToken(r.adminSecret, utils.SpaceAdmin, raw); err == nil {
		return Administrator(id)
	}
	return Anonymous()
}

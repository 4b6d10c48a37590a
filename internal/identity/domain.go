// Package identity is the actor/role provider: it authenticates API keys
// and answers authorization questions such as who may override the
// non-negative-stock guard.
package identity

import (
	"time"

	"github.com/google/uuid"
)

// Role enumerates actor roles.
type Role string

const (
	RoleOwner   Role = "OWNER"
	RoleManager Role = "MANAGER"
	RoleClerk   Role = "CLERK"
)

// Actor is an authenticated user of the posting API.
type Actor struct {
	ID        int64
	TenantID  uuid.UUID
	Name      string
	Role      Role
	KeyHash   string
	CreatedAt time.Time
}

// CanOverrideStock reports whether the role may authorize negative stock.
func (r Role) CanOverrideStock() bool {
	return r == RoleOwner || r == RoleManager
}

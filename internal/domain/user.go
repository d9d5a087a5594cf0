package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role controls access to the privileged moderation surface. Identity
// provisioning happens in the main fan-site application; this service only
// reads the user table it maintains.
type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// IsModerator reports whether the role grants access to moderation endpoints.
func (r Role) IsModerator() bool {
	return r == RoleModerator || r == RoleAdmin
}

type User struct {
	ID        uuid.UUID
	Username  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	Exists(ctx context.Context, userID uuid.UUID) (bool, error)
}

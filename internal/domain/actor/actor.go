package actor

import (
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidRole = errors.New("invalid role")

// Role controls which commands an authenticated caller may issue. Bidders
// place bids and watch auctions; operators and admins run control operations.
type Role string

const (
	RoleBidder   Role = "bidder"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

func NewRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleBidder, RoleOperator, RoleAdmin:
		return Role(raw), nil
	default:
		return "", ErrInvalidRole
	}
}

func (r Role) String() string { return string(r) }

// Actor identifies who issued a command; control operations record it for
// attribution. The timer scheduler ends auctions as System.
type Actor struct {
	ID   uuid.UUID
	Name string
	Role Role
}

// System is the attribution used when the engine itself acts, such as a timer
// firing an auto-end.
func System() Actor {
	return Actor{Name: "system", Role: RoleAdmin}
}

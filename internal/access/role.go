package access

import (
	"fmt"
	"strings"
)

// Role is the closed set of caller roles. The zero value is not a valid role.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleUser
	RoleEmployee
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleUser:     "user",
	RoleEmployee: "employee",
	RoleAdmin:    "admin",
}

// ParseRole accepts the wire names user, employee and admin (case-insensitive).
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user":
		return RoleUser, nil
	case "employee":
		return RoleEmployee, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleUnknown, fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRole, uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RoleSet is a bitmask over Role values.
type RoleSet uint8

func Roles(roles ...Role) RoleSet {
	var set RoleSet
	for _, role := range roles {
		if role.Valid() {
			set |= 1 << role
		}
	}
	return set
}

func (s RoleSet) Has(role Role) bool {
	return role.Valid() && s&(1<<role) != 0
}

func (s RoleSet) Empty() bool {
	return s == 0
}

// List returns the members in ascending privilege order.
func (s RoleSet) List() []Role {
	out := make([]Role, 0, len(roleNames))
	for _, role := range []Role{RoleUser, RoleEmployee, RoleAdmin} {
		if s.Has(role) {
			out = append(out, role)
		}
	}
	return out
}

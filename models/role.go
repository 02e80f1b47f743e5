package models

import "fmt"

// Role selects the route prefix of the remote API and the action set of a booking.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "technician"
	RoleUser       Role = "user"
)

// Roles lists every role in route order.
var Roles = []Role{RoleAdmin, RoleTechnician, RoleUser}

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleTechnician, RoleUser:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

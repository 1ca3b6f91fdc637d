// Package rbac defines the two privilege tiers that gate management endpoints.
package rbac

type Role string
type Action string

const (
	RoleAnonymous   Role = ""
	RoleFacilitator Role = "facilitator"
	RoleAdmin       Role = "admin"
)

const (
	// ActionManage covers slot, room, and idea management.
	ActionManage Action = "manage"
	// ActionAdmin covers user management and the reset operations.
	ActionAdmin Action = "admin"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleFacilitator:
		return action == ActionManage
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleFacilitator, RoleAdmin:
		return Role(role)
	default:
		return RoleAnonymous
	}
}

// Valid reports whether role names an assignable role. Anonymous is a
// resolved state, never an assignable one.
func Valid(role string) bool {
	return Role(role) == RoleFacilitator || Role(role) == RoleAdmin
}

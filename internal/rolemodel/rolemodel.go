// Package rolemodel implements the ordered role lattice and capability
// predicates: OWNER(5) > ADMIN(4) > OP(3) > VOICE(2) > MEMBER(1).
package rolemodel

import "ircgateway/internal/models"

// HasAtLeast reports whether role meets or exceeds min. An unknown or zero
// role never satisfies any minimum, including RoleNone itself.
func HasAtLeast(role models.Role, min models.Role) bool {
	if role < models.RoleMember || role > models.RoleOwner || min == models.RoleNone {
		return false
	}
	return role >= min
}

// FromMode maps a /op, /deop, /voice, /devoice command name to the role it
// assigns. The second return value is false for any other command name.
func FromMode(cmd string) (models.Role, bool) {
	switch cmd {
	case "op":
		return models.RoleOp, true
	case "deop":
		return models.RoleMember, true
	case "voice":
		return models.RoleVoice, true
	case "devoice":
		return models.RoleMember, true
	default:
		return models.RoleNone, false
	}
}

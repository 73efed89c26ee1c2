package rolemodel

import (
	"testing"

	"ircgateway/internal/models"
)

func TestHasAtLeast(t *testing.T) {
	tests := []struct {
		name string
		role models.Role
		min  models.Role
		want bool
	}{
		{"owner satisfies op", models.RoleOwner, models.RoleOp, true},
		{"member fails op", models.RoleMember, models.RoleOp, false},
		{"exact match satisfies", models.RoleVoice, models.RoleVoice, true},
		{"none never satisfies", models.RoleNone, models.RoleMember, false},
		{"nothing satisfies none", models.RoleOwner, models.RoleNone, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasAtLeast(tt.role, tt.min); got != tt.want {
				t.Errorf("HasAtLeast(%v, %v) = %v, want %v", tt.role, tt.min, got, tt.want)
			}
		})
	}
}

func TestFromMode(t *testing.T) {
	tests := []struct {
		cmd  string
		want models.Role
		ok   bool
	}{
		{"op", models.RoleOp, true},
		{"deop", models.RoleMember, true},
		{"voice", models.RoleVoice, true},
		{"devoice", models.RoleMember, true},
		{"kick", models.RoleNone, false},
	}
	for _, tt := range tests {
		role, ok := FromMode(tt.cmd)
		if role != tt.want || ok != tt.ok {
			t.Errorf("FromMode(%q) = (%v, %v), want (%v, %v)", tt.cmd, role, ok, tt.want, tt.ok)
		}
	}
}

package auth

import "testing"

func TestLevelGrants(t *testing.T) {
	tests := []struct {
		name  string
		level Level
		perm  Permission
		want  bool
	}{
		{"read only grants read", 1, PermissionRead, true},
		{"read only denies create", 1, PermissionCreate, false},
		{"read only denies update", 1, PermissionUpdate, false},
		{"read only denies delete", 1, PermissionDelete, false},
		{"full level grants read", 15, PermissionRead, true},
		{"full level grants create", 15, PermissionCreate, true},
		{"full level grants update", 15, PermissionUpdate, true},
		{"full level grants delete", 15, PermissionDelete, true},
		{"read+update grants update", 5, PermissionUpdate, true},
		{"read+update denies create", 5, PermissionCreate, false},
		{"read+update denies delete", 5, PermissionDelete, false},
		{"zero grants nothing", 0, PermissionRead, false},
		{"create+delete denies read", 10, PermissionRead, false},
		{"create+delete grants delete", 10, PermissionDelete, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.Grants(tt.perm); got != tt.want {
				t.Errorf("Level(%d).Grants(%d) = %v, want %v", tt.level, tt.perm, got, tt.want)
			}
		})
	}
}

func TestLevelGrantsExhaustive(t *testing.T) {
	perms := []Permission{PermissionRead, PermissionCreate, PermissionUpdate, PermissionDelete}
	for level := Level(0); level < 16; level++ {
		for _, p := range perms {
			want := int(level)&int(p) == int(p)
			if got := level.Grants(p); got != want {
				t.Errorf("Level(%d).Grants(%s) = %v, want %v", level, p, got, want)
			}
		}
	}
}

func TestPermissionString(t *testing.T) {
	if PermissionRead.String() != "read" || PermissionDelete.String() != "delete" {
		t.Error("unexpected permission names")
	}
	if Permission(64).String() != "unknown" {
		t.Error("unnamed bit should stringify as unknown")
	}
}

// Package auth provides bearer-token verification and capability-bitmask
// authorization for the API.
package auth

// Permission is a single capability bit.
type Permission int

// Capability bits. Disjoint powers of two, so a level can combine them.
const (
	PermissionRead   Permission = 1 << iota // 1
	PermissionCreate                        // 2
	PermissionUpdate                        // 4
	PermissionDelete                        // 8
)

// Level is a non-negative combination of permission bits, carried as the
// x_permission_level claim in access tokens.
type Level int

// Grants reports whether the level includes the given capability bit.
func (l Level) Grants(p Permission) bool {
	return l&Level(p) == Level(p)
}

// String returns a short name for a single capability bit.
func (p Permission) String() string {
	switch p {
	case PermissionRead:
		return "read"
	case PermissionCreate:
		return "create"
	case PermissionUpdate:
		return "update"
	case PermissionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

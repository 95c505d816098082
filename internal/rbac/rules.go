package rbac

const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
	RoleAdmin   = "admin"
)

// ValidRole reports whether role is one the portal knows.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	RoleStudent: {
		"question:view",
		"test:submit-own",
		"progress:view-own",
		"catalog:view",
		"material:view",
		"user:change_password",
	},
	RoleFaculty: {
		"question:*",
		"progress:view-all",
		"analytics:view",
		"catalog:*",
		"material:*",
		"users:list",
		"user:change_password",
	},
	RoleAdmin: {
		"*",
	},
}

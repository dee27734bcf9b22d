package rbac

import "go-leave/internal/domain"

type Repository interface {
	GetRoleInheritance() ([]RoleInheritanceRow, error)
	GetRolePermissions() ([]RolePermissionRow, error)
}

type RoleInheritanceRow struct {
	Role     string
	Inherits string
}

type RolePermissionRow struct {
	Role     string
	Resource string
	Action   string
}

type staticRepository struct {
	inheritance []RoleInheritanceRow
	permissions []RolePermissionRow
}

// NewStaticRepository serves the fixed policy: employees manage their own
// leave, managers additionally read and decide everyone's.
func NewStaticRepository() Repository {
	employee := string(domain.RoleEmployee)
	manager := string(domain.RoleManager)

	return &staticRepository{
		inheritance: []RoleInheritanceRow{
			{Role: manager, Inherits: employee},
		},
		permissions: []RolePermissionRow{
			{Role: employee, Resource: "leave", Action: "create"},
			{Role: employee, Resource: "leave", Action: "read-own"},
			{Role: employee, Resource: "leave", Action: "cancel"},
			{Role: employee, Resource: "balance", Action: "read"},
			{Role: employee, Resource: "dashboard", Action: "read"},
			{Role: manager, Resource: "leave", Action: "read-all"},
			{Role: manager, Resource: "leave", Action: "decide"},
		},
	}
}

func (r *staticRepository) GetRoleInheritance() ([]RoleInheritanceRow, error) {
	return r.inheritance, nil
}

func (r *staticRepository) GetRolePermissions() ([]RolePermissionRow, error) {
	return r.permissions, nil
}

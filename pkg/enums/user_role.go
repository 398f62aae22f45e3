package enums

import "fmt"

// UserRole represents an organization-level permissions role.
type UserRole string

const (
	UserRoleOwner            UserRole = "owner"
	UserRoleManager          UserRole = "manager"
	UserRolePharmacist       UserRole = "pharmacist"
	UserRoleCashier          UserRole = "cashier"
	UserRoleInventoryOfficer UserRole = "inventory_officer"
)

var validUserRoles = []UserRole{
	UserRoleOwner,
	UserRoleManager,
	UserRolePharmacist,
	UserRoleCashier,
	UserRoleInventoryOfficer,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanManageStaff reports whether the role may invite or remove staff.
func (r UserRole) CanManageStaff() bool {
	return r == UserRoleOwner || r == UserRoleManager
}

// Label returns the human-readable form used in emails and UI payloads.
func (r UserRole) Label() string {
	switch r {
	case UserRoleOwner:
		return "Owner"
	case UserRoleManager:
		return "Manager"
	case UserRolePharmacist:
		return "Pharmacist"
	case UserRoleCashier:
		return "Cashier"
	case UserRoleInventoryOfficer:
		return "Inventory Officer"
	}
	return string(r)
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}

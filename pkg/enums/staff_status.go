package enums

import "fmt"

// StaffStatus captures the state of an organization-scoped staff profile.
type StaffStatus string

const (
	StaffStatusActive    StaffStatus = "active"
	StaffStatusInvited   StaffStatus = "invited"
	StaffStatusSuspended StaffStatus = "suspended"
)

var validStaffStatuses = []StaffStatus{
	StaffStatusActive,
	StaffStatusInvited,
	StaffStatusSuspended,
}

// String implements fmt.Stringer.
func (s StaffStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches a known StaffStatus.
func (s StaffStatus) IsValid() bool {
	for _, candidate := range validStaffStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStaffStatus converts raw input into a StaffStatus.
func ParseStaffStatus(value string) (StaffStatus, error) {
	for _, candidate := range validStaffStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid staff status %q", value)
}

package domain

import "time"

// StaffRole enumerates crew role tags.
type StaffRole string

const (
	StaffRoleCameraOperator   StaffRole = "camera_operator"
	StaffRoleSoundOperator    StaffRole = "sound_operator"
	StaffRoleLightingOperator StaffRole = "lighting_operator"
	StaffRoleEVSOperator      StaffRole = "evs_operator"
	StaffRoleDirector         StaffRole = "director"
	StaffRoleStreamOperator   StaffRole = "stream_operator"
	StaffRoleTechnician       StaffRole = "technician"
	StaffRoleElectrician      StaffRole = "electrician"
)

// StaffMember models a crew member who can be rostered onto productions.
type StaffMember struct {
	ID        string
	Name      string
	Roles     []StaffRole
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRole reports whether the staff member carries the role tag.
func (s *StaffMember) HasRole(role StaffRole) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ValidStaffRole reports whether role is a known crew tag.
func ValidStaffRole(role StaffRole) bool {
	_, ok := SlotForRole(role)
	return ok
}

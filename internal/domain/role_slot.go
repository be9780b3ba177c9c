package domain

// RoleSlot names a position on a production's staff roster.
type RoleSlot string

const (
	SlotCameraOperators   RoleSlot = "cameraOperators"
	SlotSoundOperators    RoleSlot = "soundOperators"
	SlotLightingOperators RoleSlot = "lightingOperators"
	SlotEVSOperator       RoleSlot = "evsOperator"
	SlotDirector          RoleSlot = "director"
	SlotStreamOperator    RoleSlot = "streamOperator"
	SlotTechnician        RoleSlot = "technician"
	SlotElectrician       RoleSlot = "electrician"
)

// SlotDefinition describes one roster slot and the crew role that fills it.
type SlotDefinition struct {
	Slot  RoleSlot
	Role  StaffRole
	Multi bool
}

// roleSlots is the only mapping between crew roles and roster slots.
var roleSlots = []SlotDefinition{
	{Slot: SlotCameraOperators, Role: StaffRoleCameraOperator, Multi: true},
	{Slot: SlotSoundOperators, Role: StaffRoleSoundOperator, Multi: true},
	{Slot: SlotLightingOperators, Role: StaffRoleLightingOperator, Multi: true},
	{Slot: SlotEVSOperator, Role: StaffRoleEVSOperator},
	{Slot: SlotDirector, Role: StaffRoleDirector},
	{Slot: SlotStreamOperator, Role: StaffRoleStreamOperator},
	{Slot: SlotTechnician, Role: StaffRoleTechnician},
	{Slot: SlotElectrician, Role: StaffRoleElectrician},
}

// LookupSlot returns the definition for a slot key.
func LookupSlot(slot RoleSlot) (SlotDefinition, bool) {
	for _, def := range roleSlots {
		if def.Slot == slot {
			return def, true
		}
	}
	return SlotDefinition{}, false
}

// SlotForRole maps a crew role tag to the roster slot it fills.
func SlotForRole(role StaffRole) (RoleSlot, bool) {
	for _, def := range roleSlots {
		if def.Role == role {
			return def.Slot, true
		}
	}
	return "", false
}

// IsMulti reports whether the slot holds a set of staff ids.
func (s RoleSlot) IsMulti() bool {
	def, ok := LookupSlot(s)
	return ok && def.Multi
}

// Valid reports whether the slot key is known.
func (s RoleSlot) Valid() bool {
	_, ok := LookupSlot(s)
	return ok
}

package domain

// Capability is the authority an authenticated actor holds.
type Capability string

const (
	CapabilityProducer       Capability = "producer"
	CapabilityBookingOfficer Capability = "booking_officer"
	CapabilityCrew           Capability = "crew"
)

// Actor identifies who performs an operation. It is always passed explicitly.
type Actor struct {
	ID         string
	Capability Capability
}

// IsBookingOfficer reports whether the actor may assign and cancel.
func (a Actor) IsBookingOfficer() bool {
	return a.Capability == CapabilityBookingOfficer
}

// Valid reports whether the capability is known.
func (c Capability) Valid() bool {
	switch c {
	case CapabilityProducer, CapabilityBookingOfficer, CapabilityCrew:
		return true
	}
	return false
}

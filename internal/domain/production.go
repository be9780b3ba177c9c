package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// ProductionStatus enumerates lifecycle states for productions.
type ProductionStatus string

const (
	ProductionStatusRequested ProductionStatus = "requested"
	ProductionStatusConfirmed ProductionStatus = "confirmed"
	ProductionStatusCompleted ProductionStatus = "completed"
	ProductionStatusCancelled ProductionStatus = "cancelled"
	ProductionStatusOvertime  ProductionStatus = "overtime"
)

var productionStatuses = []ProductionStatus{
	ProductionStatusRequested,
	ProductionStatusConfirmed,
	ProductionStatusCompleted,
	ProductionStatusCancelled,
	ProductionStatusOvertime,
}

// Valid reports whether the status is one of the known values.
func (s ProductionStatus) Valid() bool {
	for _, known := range productionStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s ProductionStatus) Terminal() bool {
	return s == ProductionStatusCompleted || s == ProductionStatusCancelled
}

// BlocksStaff reports whether staff on a production in this status are busy.
func (s ProductionStatus) BlocksStaff() bool {
	return s == ProductionStatusConfirmed || s == ProductionStatusOvertime
}

// BlockingStatuses lists the statuses that count toward availability conflicts.
func BlockingStatuses() []ProductionStatus {
	var out []ProductionStatus
	for _, s := range productionStatuses {
		if s.BlocksStaff() {
			out = append(out, s)
		}
	}
	return out
}

// Production is the aggregate for a booked studio or outside-broadcast job.
type Production struct {
	ID                 string
	Name               string
	Date               time.Time
	CallTime           time.Time
	StartTime          time.Time
	EndTime            time.Time
	ActualEndTime      *time.Time
	Venue              string
	OutsideBroadcast   bool
	Location           string
	Status             ProductionStatus
	AssignedStaff      AssignedStaff
	RequestedByID      string
	ProcessedByID      *string
	OvertimeReported   bool
	OvertimeReason     string
	CancellationReason string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Interval returns the on-air window used for conflict checks.
func (p *Production) Interval() Interval {
	return Interval{Start: p.StartTime, End: p.EndTime}
}

// AssignedStaff maps roster slots to staff ids. Multi slots hold sets, all
// other slots hold at most one id.
type AssignedStaff map[RoleSlot][]string

// Validate checks slot keys and scalar cardinality.
func (a AssignedStaff) Validate() error {
	for slot, ids := range a {
		if !slot.Valid() {
			return fmt.Errorf("unknown role slot %q", slot)
		}
		if !slot.IsMulti() && len(ids) > 1 {
			return fmt.Errorf("role slot %q holds at most one staff member", slot)
		}
	}
	return nil
}

// Normalize trims empty ids, removes duplicates and drops empty slots.
func (a AssignedStaff) Normalize() AssignedStaff {
	out := AssignedStaff{}
	for slot, ids := range a {
		seen := make(map[string]struct{}, len(ids))
		clean := make([]string, 0, len(ids))
		for _, id := range ids {
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			clean = append(clean, id)
		}
		if len(clean) > 0 {
			out[slot] = clean
		}
	}
	return out
}

// StaffIDs returns every distinct staff id across all slots, sorted.
func (a AssignedStaff) StaffIDs() []string {
	set := map[string]struct{}{}
	for _, ids := range a {
		for _, id := range ids {
			if id != "" {
				set[id] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Holds reports whether staffID occupies any slot.
func (a AssignedStaff) Holds(staffID string) bool {
	for _, ids := range a {
		for _, id := range ids {
			if id == staffID {
				return true
			}
		}
	}
	return false
}

// SlotsOf returns the slots staffID occupies, in roster order.
func (a AssignedStaff) SlotsOf(staffID string) []RoleSlot {
	var slots []RoleSlot
	for _, def := range roleSlots {
		for _, id := range a[def.Slot] {
			if id == staffID {
				slots = append(slots, def.Slot)
				break
			}
		}
	}
	return slots
}

// Single returns the staff id in a scalar slot.
func (a AssignedStaff) Single(slot RoleSlot) (string, bool) {
	ids := a[slot]
	if len(ids) == 0 {
		return "", false
	}
	return ids[0], true
}

// MarshalJSON emits multi slots as arrays (empty when unassigned) and scalar
// slots as strings, omitted when unassigned.
func (a AssignedStaff) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, def := range roleSlots {
		ids := a[def.Slot]
		var value any
		switch {
		case def.Multi:
			if ids == nil {
				ids = []string{}
			}
			value = ids
		case len(ids) == 0:
			continue
		default:
			value = ids[0]
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		fmt.Fprintf(&buf, "%q:", def.Slot)
		buf.Write(encoded)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts arrays or strings per slot; null clears a slot.
func (a *AssignedStaff) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := AssignedStaff{}
	for key, value := range raw {
		slot := RoleSlot(key)
		if !slot.Valid() {
			return fmt.Errorf("unknown role slot %q", key)
		}
		trimmed := bytes.TrimSpace(value)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			continue
		}
		if trimmed[0] == '[' {
			var ids []string
			if err := json.Unmarshal(trimmed, &ids); err != nil {
				return fmt.Errorf("role slot %q: %w", key, err)
			}
			out[slot] = ids
			continue
		}
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return fmt.Errorf("role slot %q: %w", key, err)
		}
		if id != "" {
			out[slot] = []string{id}
		}
	}
	*a = out
	return nil
}

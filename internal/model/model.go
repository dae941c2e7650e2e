// Package model defines the domain types used across the application.
package model

import "time"

// Area classifies an operation by the part of the unit it exercises.
type Area string

// Known areas. AreaOperation doubles as the default for operations whose
// description matches no specific keyword.
const (
	AreaOperation  Area = "operation"
	AreaInfantry   Area = "infantry"
	AreaLeadership Area = "leadership"
	AreaMedical    Area = "medical"
	AreaAT         Area = "at"
	AreaMarksman   Area = "marksman"
	AreaComms      Area = "comms"
	AreaSupport    Area = "support"
	AreaMission    Area = "mission"
	AreaCavalry    Area = "cavalry"
	AreaHeli       Area = "heli"
	AreaPlane      Area = "plane"
	AreaSpecial    Area = "special"
)

// Areas lists every area in a stable display order.
var Areas = []Area{
	AreaOperation,
	AreaInfantry,
	AreaLeadership,
	AreaMedical,
	AreaAT,
	AreaMarksman,
	AreaComms,
	AreaSupport,
	AreaMission,
	AreaCavalry,
	AreaHeli,
	AreaPlane,
	AreaSpecial,
}

// ParseArea returns the area named by s, or false if s is not a known area.
func ParseArea(s string) (Area, bool) {
	for _, a := range Areas {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

// Operation is one scheduled event from the remote listing.
// Release and Start are nil when the listing page does not carry the
// corresponding embedded timestamp.
type Operation struct {
	ID          string
	Name        string
	Description string
	Area        Area
	Release     *time.Time
	Start       *time.Time
}

// Group is a named cluster of slots within an operation's roster.
type Group struct {
	Name  string
	Slots []*Slot
}

// Slot is one assignable position. Occupant is nil while the slot is
// vacant. Group is a non-owning back-reference to the containing group.
type Slot struct {
	ID       string
	Name     string
	Occupant *string
	Group    *Group
}

// IsOpen reports whether the slot is vacant. Openness is always derived
// from occupant absence, never stored separately.
func (s *Slot) IsOpen() bool {
	return s.Occupant == nil
}

// ExtendedOperation is an operation together with its parsed roster.
// Slots is the flattened slot list in page row order.
type ExtendedOperation struct {
	Operation
	Groups []*Group
	Slots  []*Slot
}

// SlotState is the persisted open/closed state of one slot as of the last
// completed poll.
type SlotState struct {
	SlotID string
	IsOpen bool
}

// PingMessage ties one sent ping message to the slot whose opening
// triggered it.
type PingMessage struct {
	MessageID int
	SlotID    string
}

// NotificationState is the durable per-operation tracking record.
// MainMessageID stays nil until the dispatcher creates the status message.
type NotificationState struct {
	OperationID   string
	MainMessageID *int
	Pings         []PingMessage
	Subscribers   []int64
	Snapshot      []SlotState
}

// ReminderKind selects which operation timestamp a reminder is anchored to.
type ReminderKind string

// Supported reminder kinds.
const (
	RemindRelease ReminderKind = "release"
	RemindStart   ReminderKind = "start"
)

// ParseReminderKind returns the kind named by s, or false.
func ParseReminderKind(s string) (ReminderKind, bool) {
	switch ReminderKind(s) {
	case RemindRelease, RemindStart:
		return ReminderKind(s), true
	}
	return "", false
}

// ReminderRegistration is a user's standing request to be pinged
// AdvanceMinutes before an operation's release or start. The uniqueness
// key is (Kind, Area, UserID); re-registering replaces the advance.
type ReminderRegistration struct {
	Kind           ReminderKind
	Area           Area
	UserID         int64
	AdvanceMinutes int
}

// GameNames is the fixed list of games with a subscription role.
var GameNames = []string{"Arma 3", "Squad", "Ready or not", "Escape from Tarkov"}

// IsKnownGame reports whether name is one of the managed games.
func IsKnownGame(name string) bool {
	for _, g := range GameNames {
		if g == name {
			return true
		}
	}
	return false
}

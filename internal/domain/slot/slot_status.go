package slot

import "fmt"

// SlotStatus is the availability state of a physical bay.
type SlotStatus string

const (
	StatusAvailable   SlotStatus = "available"
	StatusBooked      SlotStatus = "booked"
	StatusMaintenance SlotStatus = "maintenance"
)

// IsValid returns true if the status is recognized.
func (s SlotStatus) IsValid() bool {
	switch s {
	case StatusAvailable, StatusBooked, StatusMaintenance:
		return true
	}
	return false
}

// String returns the string representation of the status.
func (s SlotStatus) String() string { return string(s) }

// ParseSlotStatus converts a string to a SlotStatus, returning an error if invalid.
func ParseSlotStatus(s string) (SlotStatus, error) {
	status := SlotStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid slot status: %s", s)
	}
	return status, nil
}

// AvailabilityDelta is the change to a location's available counter when a slot moves from -> to.
func AvailabilityDelta(from, to SlotStatus) int {
	switch {
	case from == to:
		return 0
	case to == StatusAvailable:
		return 1
	case from == StatusAvailable:
		return -1
	default:
		return 0
	}
}

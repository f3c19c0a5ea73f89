package vehicle

import (
	"fmt"
	"strings"
)

// Type is a vehicle class. Bookings always carry a concrete type; slots may accept All.
type Type string

const (
	Car   Type = "car"
	Bike  Type = "bike"
	Bus   Type = "bus"
	Van   Type = "van"
	Truck Type = "truck"
	All   Type = "all"
)

// Bookable lists the concrete vehicle types in display order.
var Bookable = []Type{Car, Bike, Bus, Van, Truck}

// IsBookable returns true if t is a concrete vehicle type.
func (t Type) IsBookable() bool {
	switch t {
	case Car, Bike, Bus, Van, Truck:
		return true
	}
	return false
}

// IsValidForSlot returns true if a slot may declare t.
func (t Type) IsValidForSlot() bool {
	return t == All || t.IsBookable()
}

// String returns the string representation of the type.
func (t Type) String() string { return string(t) }

// Parse normalizes s and returns the bookable type it names.
func Parse(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsBookable() {
		return "", fmt.Errorf("unsupported vehicle type: %q", s)
	}
	return t, nil
}

// ParseForSlot normalizes s and returns the slot type it names, defaulting to Car when empty.
func ParseForSlot(s string) (Type, error) {
	if strings.TrimSpace(s) == "" {
		return Car, nil
	}
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValidForSlot() {
		return "", fmt.Errorf("unsupported slot vehicle type: %q", s)
	}
	return t, nil
}

// NormalizeNumber trims and uppercases a registration number.
func NormalizeNumber(number string) string {
	return strings.ToUpper(strings.TrimSpace(number))
}

// Package units provides shared constants and validation for height units
package units

// Unit constants
const (
	UM = "um"
	NM = "nm"
	MM = "mm"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{UM, NM, MM}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "um, nm, mm"
}

// ConvertHeight converts a height from micrometres to the target units.
// All grids and stored results keep heights in micrometres.
func ConvertHeight(heightUM float64, targetUnits string) float64 {
	switch targetUnits {
	case NM:
		return heightUM * 1000 // um to nm
	case MM:
		return heightUM / 1000 // um to mm
	case UM:
		return heightUM // no conversion needed
	default:
		return heightUM // default to um if unknown unit
	}
}

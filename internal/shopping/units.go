package shopping

import "strings"

const unitThreshold = 1000

// NormalizeUnit rescales grams to kilograms and milliliters to liters once
// the quantity reaches 1000. Every other unit is returned untouched.
func NormalizeUnit(quantity float64, unit string) (float64, string) {
	switch strings.ToLower(unit) {
	case "g":
		if quantity >= unitThreshold {
			return quantity / unitThreshold, "kg"
		}
	case "ml":
		if quantity >= unitThreshold {
			return quantity / unitThreshold, "L"
		}
	}
	return quantity, unit
}

// Package units converts the m/s speeds used internally into the units
// drivers actually read on their dash.
package units

// Speed unit identifiers accepted by the API.
const (
	MPS = "mps"
	MPH = "mph"
	KPH = "kph"
)

// ValidUnits lists the accepted speed unit identifiers.
var ValidUnits = []string{MPS, MPH, KPH}

// IsValid reports whether unit names a supported speed unit.
func IsValid(unit string) bool {
	for _, v := range ValidUnits {
		if unit == v {
			return true
		}
	}
	return false
}

// ConvertSpeed converts a speed from m/s, the unit telemetry and storage
// use throughout, into the target unit.
func ConvertSpeed(speedMPS float64, targetUnit string) float64 {
	switch targetUnit {
	case MPH:
		return speedMPS * 2.2369362920544
	case KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

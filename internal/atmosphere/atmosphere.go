// Package atmosphere converts barometric pressure to altitude using the
// International Standard Atmosphere troposphere model, and manages the
// altimeter reference (sea level) pressure setting.
//
// See http://psas.pdx.edu/RocketScience/PressureAltitude_Derived.pdf for the
// derivation of the pressure-altitude relation.
package atmosphere

import (
	"errors"
	"fmt"
	"math"
)

// Standard atmosphere constants, US Standard Atmosphere edition.
const (
	seaLevelTempK      = 288.15  // sea level temperature
	lapseRateKPerM     = -0.0065 // linear temperature lapse rate
	gravityMPerS2      = 9.80665 // acceleration from gravity
	gasConstantJPerKgK = 287.052 // specific gas constant for air
)

// Unit conversion constants.
const (
	pascalsPerInHg = 3386.0
	pascalsPerHPa  = 100.0
	feetPerMeter   = 3.2808399
)

// ErrNonPositivePressure is returned when a pressure at or below zero is fed
// into the conversion; the power law is undefined there.
var ErrNonPositivePressure = errors.New("pressure must be positive")

// Altitude returns the ISA altitude in meters for a measured pressure against
// a reference (sea level) pressure. Both arguments are in Pascals. The result
// is strictly decreasing in the measured pressure and zero when the two
// pressures are equal.
func Altitude(referencePa, measuredPa float64) (float64, error) {
	if referencePa <= 0 {
		return 0, fmt.Errorf("%w: reference %g Pa", ErrNonPositivePressure, referencePa)
	}
	if measuredPa <= 0 {
		return 0, fmt.Errorf("%w: measured %g Pa", ErrNonPositivePressure, measuredPa)
	}

	factor := seaLevelTempK / lapseRateKPerM
	exponent := -lapseRateKPerM * gasConstantJPerKgK / gravityMPerS2
	return factor * (math.Pow(measuredPa/referencePa, exponent) - 1), nil
}

// AltitudeFeet is Altitude converted to feet.
func AltitudeFeet(referencePa, measuredPa float64) (float64, error) {
	meters, err := Altitude(referencePa, measuredPa)
	if err != nil {
		return 0, err
	}
	return meters * feetPerMeter, nil
}

// InHgToPascals converts inches of mercury to Pascals.
func InHgToPascals(inHg float64) float64 {
	return inHg * pascalsPerInHg
}

// HPaToPascals converts hectopascals (millibars) to Pascals.
func HPaToPascals(hPa float64) float64 {
	return hPa * pascalsPerHPa
}

package atmosphere

import (
	"errors"
	"fmt"
	"math"
)

// Standard gravitational acceleration (ft/s^2)
const G0 = 32.2

// Band boundaries and fitted constants for the standard atmosphere,
// altitudes in feet, temperatures in degrees Rankine.
const (
	tropopauseFt    = 36089.0
	isothermalTopFt = 65617.0
	// MaxAltitudeFt is the highest altitude the model is valid for.
	MaxAltitudeFt = 104987.0

	tropoLapseDivisor = 145442.0
	tropoDensityExp   = 4.255876

	isothermalDensityRatio = 0.297076
	isothermalDecayFt      = 20806.0
	isothermalTempRatio    = 0.751865

	stratoDensityBase    = 0.978261
	stratoDensityDivisor = 659515.0
	stratoDensityExp     = -35.16319
	stratoTempBase       = 0.682457
	stratoTempDivisor    = 945374.0

	rankineOffset = 459.67
)

// ErrAltitudeRange is returned for altitudes above the model ceiling.
var ErrAltitudeRange = errors.New("altitude outside atmosphere model range")

// Atmosphere computes standard-atmosphere properties from sea level
// conditions. The zero value is not usable; use New or NewStandard.
type Atmosphere struct {
	densitySL     float64 // slugs/ft^3
	temperatureSL float64 // degrees Fahrenheit
}

// NewStandard returns an atmosphere with standard sea level conditions
// (0.002378 slugs/ft^3, 59F).
func NewStandard() *Atmosphere {
	return New(0.002378, 59.0)
}

// New returns an atmosphere with the given sea level density (slugs/ft^3)
// and temperature (degrees Fahrenheit).
func New(densitySL, temperatureSL float64) *Atmosphere {
	return &Atmosphere{densitySL: densitySL, temperatureSL: temperatureSL}
}

// DensitySL returns the sea level density in slugs/ft^3.
func (a *Atmosphere) DensitySL() float64 { return a.densitySL }

// TemperatureSLRankine returns the sea level temperature in degrees Rankine.
func (a *Atmosphere) TemperatureSLRankine() float64 {
	return a.temperatureSL + rankineOffset
}

// Density returns the air density in slugs/ft^3 at the given altitude in feet.
func (a *Atmosphere) Density(altitude float64) (float64, error) {
	switch {
	case altitude < tropopauseFt:
		return a.densitySL * math.Pow(1-altitude/tropoLapseDivisor, tropoDensityExp), nil
	case altitude < isothermalTopFt:
		return a.densitySL * isothermalDensityRatio * math.Exp((tropopauseFt-altitude)/isothermalDecayFt), nil
	case altitude <= MaxAltitudeFt:
		return a.densitySL * math.Pow(stratoDensityBase+altitude/stratoDensityDivisor, stratoDensityExp), nil
	}
	return 0, fmt.Errorf("%w: %.1f ft exceeds maximum of %.0f ft", ErrAltitudeRange, altitude, MaxAltitudeFt)
}

// Temperature returns the air temperature in degrees Rankine at the given
// altitude in feet.
func (a *Atmosphere) Temperature(altitude float64) (float64, error) {
	tSL := a.TemperatureSLRankine()
	switch {
	case altitude < tropopauseFt:
		return tSL * (1 - altitude/tropoLapseDivisor), nil
	case altitude < isothermalTopFt:
		return tSL * isothermalTempRatio, nil
	case altitude <= MaxAltitudeFt:
		return tSL * (stratoTempBase + altitude/stratoTempDivisor), nil
	}
	return 0, fmt.Errorf("%w: %.1f ft exceeds maximum of %.0f ft", ErrAltitudeRange, altitude, MaxAltitudeFt)
}

// SpeedOfSound returns the local speed of sound in ft/s at the given
// altitude in feet.
func (a *Atmosphere) SpeedOfSound(altitude float64) (float64, error) {
	t, err := a.Temperature(altitude)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(1.4 * 1716.56 * t), nil
}

// DensityRatio returns local density divided by sea level density.
func (a *Atmosphere) DensityRatio(altitude float64) (float64, error) {
	rho, err := a.Density(altitude)
	if err != nil {
		return 0, err
	}
	return rho / a.densitySL, nil
}

// TemperatureRatio returns local temperature divided by sea level static
// temperature (theta).
func (a *Atmosphere) TemperatureRatio(altitude float64) (float64, error) {
	t, err := a.Temperature(altitude)
	if err != nil {
		return 0, err
	}
	return t / a.TemperatureSLRankine(), nil
}

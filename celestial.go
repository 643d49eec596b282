package cse

import (
	"errors"
	"math"
	"strings"
)

// CelestialObject holds the physical constants of a primary body. All values
// are SI: radii in metres, gravitational parameters in m³/s².
type CelestialObject struct {
	Name   string
	Radius float64
	μ      float64
}

// GM returns μ (which is unexported because it's a Greek letter).
func (c CelestialObject) GM() float64 {
	return c.μ
}

// String implements the Stringer interface.
func (c CelestialObject) String() string {
	return c.Name
}

// Equals returns whether the provided celestial object is the same.
func (c CelestialObject) Equals(b CelestialObject) bool {
	return c.Name == b.Name && c.Radius == b.Radius && c.μ == b.μ
}

// CelestialObjectFromString returns the object associated to the given name.
func CelestialObjectFromString(name string) (CelestialObject, error) {
	switch strings.ToLower(name) {
	case "sun":
		return Sun, nil
	case "earth":
		return Earth, nil
	case "mars":
		return Mars, nil
	case "jupiter":
		return Jupiter, nil
	}
	return CelestialObject{}, errors.New("undefined body")
}

/* Definitions, DE430/IAU values. */

// Sun is our closest star.
var Sun = CelestialObject{"Sun", 695700e3, 1.32712440018e20}

// Earth is home.
var Earth = CelestialObject{"Earth", 6378136.3, 3.986004418e14}

// Mars is the vacation place.
var Mars = CelestialObject{"Mars", 3396190, 4.282837e13}

// Jupiter is big.
var Jupiter = CelestialObject{"Jupiter", 71492e3, 1.26686534e17}

// EarthRotationRate is the average Earth rotation rate in radians per second.
const EarthRotationRate = 7.2921158553e-5

// μFromPeriod derives the gravitational parameter from an elliptic period
// and semi-major axis by Kepler's third law.
func μFromPeriod(period, a float64) float64 {
	n := 2 * math.Pi / period
	return n * n * a * a * a
}

// periodFromμ is the inverse of μFromPeriod.
func periodFromμ(μ, a float64) float64 {
	return 2 * math.Pi * math.Sqrt(a*a*a/μ)
}

// Package cse is a Go implementation of the CSpaceEngine computational core:
// orbital element sets, Kepler's equation and its inverses, a Keplerian
// satellite tracker, an Izzo Lambert solver (in tools), and the TLE and CCSDS
// OEM codecs. The numerical machinery lives in the scimath subpackage.
package cse

import "math"

// Unit scale factors relative to the stored representation (degrees).
const (
	unitTurns    = 360.
	unitDegrees  = 1.
	unitRadians  = 57.29577951308232
	unitGradians = 0.9
)

// NoDataDbl is the "unset" sentinel carried by catalog fields.
var NoDataDbl = math.NaN()

// IsNoData reports whether a value is the unset sentinel.
func IsNoData(x float64) bool { return math.IsNaN(x) }

// Angle is a scalar angle; whatever unit it is constructed from, the
// internal representation is degrees. The zero value is 0°, an unset angle is NoData.
type Angle struct {
	Data float64 // degrees
}

// NoDataAngle returns the unset angle.
func NoDataAngle() Angle { return Angle{NoDataDbl} }

// IsNoData reports whether the angle is unset.
func (a Angle) IsNoData() bool { return IsNoData(a.Data) }

// FromTurns constructs an angle from full turns.
func FromTurns(t float64) Angle { return Angle{t * unitTurns} }

// FromDegrees constructs an angle from degrees.
func FromDegrees(d float64) Angle { return Angle{d * unitDegrees} }

// FromRadians constructs an angle from radians.
func FromRadians(r float64) Angle { return Angle{r * unitRadians} }

// FromGradians constructs an angle from gradians.
func FromGradians(g float64) Angle { return Angle{g * unitGradians} }

// ToTurns returns the angle in full turns.
func (a Angle) ToTurns() float64 { return a.Data / unitTurns }

// ToDegrees returns the angle in degrees.
func (a Angle) ToDegrees() float64 { return a.Data / unitDegrees }

// ToRadians returns the angle in radians.
func (a Angle) ToRadians() float64 { return a.Data / unitRadians }

// ToGradians returns the angle in gradians.
func (a Angle) ToGradians() float64 { return a.Data / unitGradians }

// Add returns a + b.
func (a Angle) Add(b Angle) Angle { return Angle{a.Data + b.Data} }

// Sub returns a - b.
func (a Angle) Sub(b Angle) Angle { return Angle{a.Data - b.Data} }

// Scale returns k·a.
func (a Angle) Scale(k float64) Angle { return Angle{a.Data * k} }

// Mod360 reduces the angle into [0°, 360°).
func (a Angle) Mod360() Angle {
	d := math.Mod(a.Data, 360)
	if d < 0 {
		d += 360
	}
	return Angle{d}
}

// Sin returns the sine of the angle.
func (a Angle) Sin() float64 { return math.Sin(a.ToRadians()) }

// Cos returns the cosine of the angle.
func (a Angle) Cos() float64 { return math.Cos(a.ToRadians()) }

// Tan returns the tangent of the angle.
func (a Angle) Tan() float64 { return math.Tan(a.ToRadians()) }

// Quadrant classifies the angle: 0 = +x axis, 1 = first quadrant, 2 = +y
// axis, 3 = second quadrant, 4 = -x axis, 5 = third quadrant, 6 = -y axis,
// 7 = fourth quadrant.
func (a Angle) Quadrant() int {
	d := a.Mod360().Data
	switch {
	case d == 0:
		return 0
	case d < 90:
		return 1
	case d == 90:
		return 2
	case d < 180:
		return 3
	case d == 180:
		return 4
	case d < 270:
		return 5
	case d == 270:
		return 6
	}
	return 7
}

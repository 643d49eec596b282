package cse

import (
	"math"
	"time"

	"github.com/go-kit/log"
	"github.com/soniakeys/meeus/v3/julian"
	"gonum.org/v1/gonum/mat"
)

/* Keplerian satellite tracker. State is the element set at epoch plus the
current element set; time advancement only moves the mean anomaly by the
mean angular velocity, every other element is held constant (two-body
motion, no perturbations). */

// KeplerianSatelliteTracker propagates a body along a fixed conic. One
// tracker instance is not safe for concurrent use: it carries its current
// element set between calls.
type KeplerianSatelliteTracker struct {
	initial KeplerianOrbitElems
	current KeplerianOrbitElems
	n       float64 // mean motion, rad/s

	logger log.Logger
}

// NewKeplerianSatelliteTracker validates the element set and derives the
// mean motion. The tracker logs nothing unless SetLogger is called.
func NewKeplerianSatelliteTracker(elems KeplerianOrbitElems) (*KeplerianSatelliteTracker, error) {
	checked, err := elems.Validate()
	if err != nil {
		return nil, err
	}
	return &KeplerianSatelliteTracker{
		initial: checked,
		current: checked,
		n:       checked.MeanMotion(),
		logger:  log.NewNopLogger(),
	}, nil
}

// NewTrackerFromStateVectors derives the element set from an instantaneous
// state first.
func NewTrackerFromStateVectors(sv OrbitStateVectors, axisMapper *mat.Dense) (*KeplerianSatelliteTracker, error) {
	elems, err := sv.KeplerianElems(axisMapper)
	if err != nil {
		return nil, err
	}
	return NewKeplerianSatelliteTracker(elems)
}

// SetLogger attaches a logger for propagation tracing.
func (t *KeplerianSatelliteTracker) SetLogger(l log.Logger) {
	if l == nil {
		l = log.NewNopLogger()
	}
	t.logger = l
}

// Move advances the body along its orbit by a mean-anomaly offset. Elliptic
// orbits wrap modulo one turn; open orbits accumulate.
func (t *KeplerianSatelliteTracker) Move(offset Angle) {
	m := t.current.MeanAnomaly.Add(offset)
	if t.current.Type() == Elliptic {
		m = m.Mod360()
	}
	t.current.MeanAnomaly = m
	t.logger.Log("tracker", "move", "M", m.ToDegrees())
}

// AddSeconds advances the epoch by fractional seconds.
func (t *KeplerianSatelliteTracker) AddSeconds(sec float64) {
	t.current.Epoch += sec / 86400
	t.Move(FromRadians(t.n * sec))
}

// AddMsecs advances the epoch by milliseconds.
func (t *KeplerianSatelliteTracker) AddMsecs(ms int64) { t.AddSeconds(float64(ms) / 1e3) }

// AddHours advances the epoch by hours.
func (t *KeplerianSatelliteTracker) AddHours(hrs int64) { t.AddSeconds(float64(hrs) * 3600) }

// AddDays advances the epoch by days.
func (t *KeplerianSatelliteTracker) AddDays(days int64) { t.AddSeconds(float64(days) * 86400) }

// AddYears advances the epoch by Julian years.
func (t *KeplerianSatelliteTracker) AddYears(years int64) {
	t.AddSeconds(float64(years) * 365.25 * 86400)
}

// AddCenturies advances the epoch by Julian centuries.
func (t *KeplerianSatelliteTracker) AddCenturies(c int64) { t.AddYears(c * 100) }

// SetDate jumps to the given civil time.
func (t *KeplerianSatelliteTracker) SetDate(dt time.Time) {
	t.SetDateJD(julian.TimeToJD(dt))
}

// SetDateJD jumps to the given Julian date.
func (t *KeplerianSatelliteTracker) SetDateJD(jd float64) {
	Δt := (jd - t.current.Epoch) * 86400
	t.AddSeconds(Δt)
}

// ToCurrentDate jumps to the wall clock.
func (t *KeplerianSatelliteTracker) ToCurrentDate() {
	t.SetDate(time.Now().UTC())
}

// Reset restores the element set at epoch.
func (t *KeplerianSatelliteTracker) Reset() {
	t.current = t.initial
}

// KeplerianElems returns the current element set.
func (t *KeplerianSatelliteTracker) KeplerianElems() KeplerianOrbitElems {
	return t.current
}

// EquinoctialElems returns the current elements in equinoctial form.
func (t *KeplerianSatelliteTracker) EquinoctialElems() EquinoctialOrbitElems {
	return t.current.Equinoctial()
}

// StateVectors returns the instantaneous position and velocity under the
// given axis mapper (the SpaceEngine convention when nil).
func (t *KeplerianSatelliteTracker) StateVectors(axisMapper *mat.Dense) (OrbitStateVectors, error) {
	return t.current.StateVectors(axisMapper)
}

// MeanMotion returns the mean angular velocity in rad/s.
func (t *KeplerianSatelliteTracker) MeanMotion() float64 { return t.n }

// PeriodDuration returns the orbital period as a time.Duration; the zero
// duration on open orbits.
func (t *KeplerianSatelliteTracker) PeriodDuration() time.Duration {
	if math.IsInf(t.current.Period, 1) {
		return 0
	}
	return time.Duration(t.current.Period * float64(time.Second))
}

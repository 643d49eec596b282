package cse

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

const (
	eccentricityε = 5e-5                         // 0.00005
	angleε        = (5e-3 / 360) * (2 * math.Pi) // 0.005 degrees
)

// OrbitType partitions the conics by eccentricity.
type OrbitType uint8

// Conic classes.
const (
	Elliptic OrbitType = iota
	Parabolic
	Hyperbolic
)

// TypeFromEccentricity classifies a conic, treating |e-1| below the
// eccentricity tolerance as parabolic.
func TypeFromEccentricity(e float64) OrbitType {
	switch {
	case math.Abs(e-1) <= eccentricityε:
		return Parabolic
	case e > 1:
		return Hyperbolic
	}
	return Elliptic
}

// KeplerianOrbitElems is the Keplerian element set of a body around a
// primary. Distances are metres, the epoch is a Julian date, the period is
// seconds (infinite on hyperbolic orbits). The pericentre distance stands in
// for the semi-major axis so that parabolic orbits stay finite.
type KeplerianOrbitElems struct {
	RefPlane        string
	Epoch           float64 // JD
	GravParam       float64 // μ = GM of the primary
	PericenterDist  float64 // q
	Period          float64
	Eccentricity    float64
	Inclination     Angle
	AscendingNode   Angle
	ArgOfPericenter Angle
	MeanAnomaly     Angle
}

// NewKeplerianOrbitElems returns an element set with every field unset.
func NewKeplerianOrbitElems() KeplerianOrbitElems {
	return KeplerianOrbitElems{
		Epoch:           NoDataDbl,
		GravParam:       NoDataDbl,
		PericenterDist:  NoDataDbl,
		Period:          NoDataDbl,
		Eccentricity:    NoDataDbl,
		Inclination:     NoDataAngle(),
		AscendingNode:   NoDataAngle(),
		ArgOfPericenter: NoDataAngle(),
		MeanAnomaly:     NoDataAngle(),
	}
}

// Type returns the conic class.
func (k KeplerianOrbitElems) Type() OrbitType {
	return TypeFromEccentricity(k.Eccentricity)
}

// SemiMajorAxis returns a = q/(1-e); infinite for parabolic orbits.
func (k KeplerianOrbitElems) SemiMajorAxis() float64 {
	if k.Type() == Parabolic {
		return math.Inf(1)
	}
	return k.PericenterDist / (1 - k.Eccentricity)
}

// Validate fills the derivable fields and enforces the element invariants:
// e ≥ 0, q > 0, μ derived from the period (or the period from μ) via
// Kepler's third law, infinite period on hyperbolic orbits.
func (k KeplerianOrbitElems) Validate() (KeplerianOrbitElems, error) {
	if IsNoData(k.Eccentricity) {
		k.Eccentricity = 0
	}
	if k.Eccentricity < 0 {
		return k, errors.New("cse: eccentricity must be non-negative")
	}
	if IsNoData(k.PericenterDist) || k.PericenterDist <= 0 {
		return k, errors.New("cse: pericentre distance must be positive")
	}
	switch k.Type() {
	case Hyperbolic:
		k.Period = math.Inf(1)
		if IsNoData(k.GravParam) {
			return k, errors.New("cse: hyperbolic orbits need a gravitational parameter")
		}
	case Parabolic:
		k.Period = math.Inf(1)
		if IsNoData(k.GravParam) {
			return k, errors.New("cse: parabolic orbits need a gravitational parameter")
		}
	default:
		a := k.SemiMajorAxis()
		switch {
		case IsNoData(k.GravParam) && IsNoData(k.Period):
			return k, errors.New("cse: either μ or the period is required")
		case IsNoData(k.GravParam):
			k.GravParam = μFromPeriod(k.Period, a)
		case IsNoData(k.Period):
			k.Period = periodFromμ(k.GravParam, a)
		}
	}
	if k.Inclination.IsNoData() {
		k.Inclination = FromDegrees(0)
	}
	if k.AscendingNode.IsNoData() {
		k.AscendingNode = FromDegrees(0)
	}
	if k.ArgOfPericenter.IsNoData() {
		k.ArgOfPericenter = FromDegrees(0)
	}
	if k.MeanAnomaly.IsNoData() {
		k.MeanAnomaly = FromDegrees(0)
	}
	return k, nil
}

// MeanMotion returns the mean angular velocity n in rad/s: sqrt(μ/|a|³) for
// the non-degenerate conics, sqrt(μ/q³)/2 for parabolas.
func (k KeplerianOrbitElems) MeanMotion() float64 {
	if k.Type() == Parabolic {
		q := k.PericenterDist
		return math.Sqrt(k.GravParam/(q*q*q)) / 2
	}
	a := math.Abs(k.SemiMajorAxis())
	return math.Sqrt(k.GravParam / (a * a * a))
}

// Equinoctial converts to the equinoctial form, the non-singular choice when
// the inclination or the eccentricity is near zero. The mapping is
// f = e·cosϖ, g = e·sinϖ, h = tan(i/2)·cosΩ, k = tan(i/2)·sinΩ, L = M + ϖ
// with ϖ = ω + Ω; it is bijective away from i = 180°.
func (k KeplerianOrbitElems) Equinoctial() EquinoctialOrbitElems {
	ϖ := k.ArgOfPericenter.Add(k.AscendingNode)
	ti2 := math.Tan(k.Inclination.ToRadians() / 2)
	Ω := k.AscendingNode.ToRadians()
	return EquinoctialOrbitElems{
		RefPlane:       k.RefPlane,
		Epoch:          k.Epoch,
		GravParam:      k.GravParam,
		PericenterDist: k.PericenterDist,
		Period:         k.Period,
		EccentricityF:  k.Eccentricity * ϖ.Cos(),
		EccentricityG:  k.Eccentricity * ϖ.Sin(),
		InclinationH:   ti2 * math.Cos(Ω),
		InclinationK:   ti2 * math.Sin(Ω),
		MeanLongitude:  k.MeanAnomaly.Add(ϖ),
	}
}

func (k KeplerianOrbitElems) String() string {
	return fmt.Sprintf("q=%.1f e=%.4f i=%.3f Ω=%.3f ω=%.3f M=%.3f",
		k.PericenterDist, k.Eccentricity, k.Inclination.ToDegrees(),
		k.AscendingNode.ToDegrees(), k.ArgOfPericenter.ToDegrees(),
		k.MeanAnomaly.ToDegrees())
}

// Equals returns whether two element sets describe the same orbit, with fixed
// per-element tolerances: relative 1e-8 on the pericentre distance,
// eccentricityε on e and angleε on the angles. The argument of pericentre is
// skipped on circular orbits and the mean anomaly is not compared.
func (k KeplerianOrbitElems) Equals(o KeplerianOrbitElems) (bool, error) {
	if !scalar.EqualWithinRel(k.PericenterDist, o.PericenterDist, 1e-8) {
		return false, errors.New("pericentre distance invalid")
	}
	if !scalar.EqualWithinAbs(k.Eccentricity, o.Eccentricity, eccentricityε) {
		return false, errors.New("eccentricity invalid")
	}
	if !scalar.EqualWithinAbs(k.Inclination.ToRadians(), o.Inclination.ToRadians(), angleε) {
		return false, errors.New("inclination invalid")
	}
	if !scalar.EqualWithinAbs(math.Mod(k.AscendingNode.ToRadians(), 2*math.Pi),
		math.Mod(o.AscendingNode.ToRadians(), 2*math.Pi), angleε) {
		return false, errors.New("RAAN invalid")
	}
	if k.Eccentricity > eccentricityε &&
		!scalar.EqualWithinAbs(math.Mod(k.ArgOfPericenter.ToRadians(), 2*math.Pi),
			math.Mod(o.ArgOfPericenter.ToRadians(), 2*math.Pi), angleε) {
		return false, errors.New("argument of pericentre invalid")
	}
	return true, nil
}

// EquinoctialOrbitElems is the equinoctial element set.
type EquinoctialOrbitElems struct {
	RefPlane       string
	Epoch          float64
	GravParam      float64
	PericenterDist float64
	Period         float64
	EccentricityF  float64 // e·cos(ω+Ω)
	EccentricityG  float64 // e·sin(ω+Ω)
	InclinationH   float64 // tan(i/2)·cos(Ω)
	InclinationK   float64 // tan(i/2)·sin(Ω)
	MeanLongitude  Angle
}

// Keplerian converts back to the Keplerian form.
func (q EquinoctialOrbitElems) Keplerian() KeplerianOrbitElems {
	e := math.Hypot(q.EccentricityF, q.EccentricityG)
	ϖ := math.Atan2(q.EccentricityG, q.EccentricityF)
	Ω := math.Atan2(q.InclinationK, q.InclinationH)
	i := 2 * math.Atan(math.Hypot(q.InclinationH, q.InclinationK))
	return KeplerianOrbitElems{
		RefPlane:        q.RefPlane,
		Epoch:           q.Epoch,
		GravParam:       q.GravParam,
		PericenterDist:  q.PericenterDist,
		Period:          q.Period,
		Eccentricity:    e,
		Inclination:     FromRadians(i),
		AscendingNode:   FromRadians(Ω).Mod360(),
		ArgOfPericenter: FromRadians(ϖ - Ω).Mod360(),
		MeanAnomaly:     q.MeanLongitude.Sub(FromRadians(ϖ)),
	}
}

// OrbitStateVectors is the instantaneous state of a body: position in metres
// and velocity in metres per second at the given Julian date, in the frame
// named by RefPlane.
type OrbitStateVectors struct {
	RefPlane  string
	GravParam float64
	Time      float64 // JD
	Position  [3]float64
	Velocity  [3]float64
}

// StateVectors computes position and velocity from an element set. The
// eccentric anomaly comes from the inverse Kepler solver of the conic class,
// the perifocal state is rotated by Rz(Ω)·Rx(i)·Rz(ω) and finally by the
// axis mapper (DefaultAxisMapper when nil).
func (k KeplerianOrbitElems) StateVectors(axisMapper *mat.Dense) (OrbitStateVectors, error) {
	if axisMapper == nil {
		axisMapper = DefaultAxisMapper
	}
	μ := k.GravParam
	e := k.Eccentricity
	q := k.PericenterDist
	E, err := InverseKepler(e, k.MeanAnomaly)
	if err != nil {
		return OrbitStateVectors{}, err
	}
	ERad := E.ToRadians()

	var ν, r, p float64
	switch k.Type() {
	case Parabolic:
		ν = 2 * math.Atan(ERad)
		p = 2 * q
		r = p / (1 + math.Cos(ν))
	case Hyperbolic:
		a := k.SemiMajorAxis() // negative
		ν = 2 * math.Atan(math.Sqrt((e+1)/(e-1))*math.Tanh(ERad/2))
		r = a * (1 - e*math.Cosh(ERad))
		p = a * (1 - e*e)
	default:
		a := k.SemiMajorAxis()
		sinν := math.Sqrt(1-e*e) * math.Sin(ERad) / (1 - e*math.Cos(ERad))
		cosν := (math.Cos(ERad) - e) / (1 - e*math.Cos(ERad))
		ν = math.Atan2(sinν, cosν)
		r = a * (1 - e*math.Cos(ERad))
		p = a * (1 - e*e)
	}

	sinν, cosν := math.Sincos(ν)
	h := math.Sqrt(μ * p)
	R := []float64{r * cosν, r * sinν, 0}
	V := []float64{-μ / h * sinν, μ / h * (e + cosν), 0}

	i := k.Inclination.ToRadians()
	ω := k.ArgOfPericenter.ToRadians()
	Ω := k.AscendingNode.ToRadians()
	R = PQW2ECI(i, ω, Ω, R)
	V = PQW2ECI(i, ω, Ω, V)
	R = MxV33(axisMapper, R)
	V = MxV33(axisMapper, V)

	sv := OrbitStateVectors{
		RefPlane:  k.RefPlane,
		GravParam: μ,
		Time:      k.Epoch,
	}
	copy(sv.Position[:], R)
	copy(sv.Velocity[:], V)
	return sv, nil
}

// KeplerianElems recovers the element set from a state vector, inverting the
// axis mapper first. From Vallado's RV2COE, adapted to pericentre distance.
func (sv OrbitStateVectors) KeplerianElems(axisMapper *mat.Dense) (KeplerianOrbitElems, error) {
	if axisMapper == nil {
		axisMapper = InverseAxisMapper
	}
	μ := sv.GravParam
	if IsNoData(μ) || μ <= 0 {
		return KeplerianOrbitElems{}, errors.New("cse: state vectors need a positive gravitational parameter")
	}
	R := MxV33(axisMapper, sv.Position[:])
	V := MxV33(axisMapper, sv.Velocity[:])

	hVec := cross(R, V)
	n := cross([]float64{0, 0, 1}, hVec)
	v := norm(V)
	r := norm(R)
	if r == 0 {
		return KeplerianOrbitElems{}, errors.New("cse: zero radius vector")
	}
	ξ := v*v/2 - μ/r
	eVec := make([]float64, 3)
	for j := 0; j < 3; j++ {
		eVec[j] = ((v*v-μ/r)*R[j] - dot(R, V)*V[j]) / μ
	}
	e := norm(eVec)

	i := math.Acos(hVec[2] / norm(hVec))
	Ω := math.Acos(n[0] / norm(n))
	if math.IsNaN(Ω) {
		Ω = 0
	}
	if n[1] < 0 {
		Ω = 2*math.Pi - Ω
	}
	ω := math.Acos(dot(n, eVec) / (norm(n) * e))
	if math.IsNaN(ω) {
		ω = 0
	}
	if eVec[2] < 0 {
		ω = 2*math.Pi - ω
	}
	cosν := dot(eVec, R) / (e * r)
	if abscosν := math.Abs(cosν); abscosν > 1 && scalar.EqualWithinAbs(abscosν, 1, 1e-12) {
		cosν = sign(cosν) // GTFO NaN!
	}
	ν := math.Acos(cosν)
	if dot(R, V) < 0 {
		ν = 2*math.Pi - ν
	}

	out := NewKeplerianOrbitElems()
	out.RefPlane = sv.RefPlane
	out.Epoch = sv.Time
	out.GravParam = μ
	out.Eccentricity = e
	out.Inclination = FromRadians(math.Mod(i, 2*math.Pi))
	out.AscendingNode = FromRadians(math.Mod(Ω, 2*math.Pi))
	out.ArgOfPericenter = FromRadians(math.Mod(ω, 2*math.Pi))

	var E, M float64
	switch TypeFromEccentricity(e) {
	case Parabolic:
		q := norm(hVec) * norm(hVec) / (2 * μ)
		out.PericenterDist = q
		out.Period = math.Inf(1)
		E = math.Tan(ν / 2)
		M = E/2 + E*E*E/6
	case Hyperbolic:
		a := -μ / (2 * ξ) // negative
		out.PericenterDist = a * (1 - e)
		out.Period = math.Inf(1)
		E = 2 * math.Atanh(math.Sqrt((e-1)/(e+1))*math.Tan(ν/2))
		M = e*math.Sinh(E) - E
	default:
		a := -μ / (2 * ξ)
		out.PericenterDist = a * (1 - e)
		out.Period = periodFromμ(μ, a)
		sinE := math.Sqrt(1-e*e) * math.Sin(ν) / (1 + e*math.Cos(ν))
		cosE := (e + math.Cos(ν)) / (1 + e*math.Cos(ν))
		E = math.Atan2(sinE, cosE)
		M = E - e*math.Sin(E)
		M = math.Mod(M, 2*math.Pi)
		if M < 0 {
			M += 2 * math.Pi
		}
	}
	out.MeanAnomaly = FromRadians(M)
	return out, nil
}

// OrbitParams is the orbital sub-structure of a SpaceEngine catalog object.
// Only the fields the tracker consumes are modelled; NoData sentinels are
// preserved in both directions.
type OrbitParams struct {
	RefPlane        string
	Epoch           float64
	Period          float64
	PericenterDist  float64
	GravParam       float64
	Eccentricity    float64
	Inclination     float64 // degrees
	AscendingNode   float64 // degrees
	ArgOfPericenter float64 // degrees
	MeanAnomaly     float64 // degrees
}

// Elems converts the catalog view to the internal element set.
func (p OrbitParams) Elems() KeplerianOrbitElems {
	return KeplerianOrbitElems{
		RefPlane:        p.RefPlane,
		Epoch:           p.Epoch,
		GravParam:       p.GravParam,
		PericenterDist:  p.PericenterDist,
		Period:          p.Period,
		Eccentricity:    p.Eccentricity,
		Inclination:     FromDegrees(p.Inclination),
		AscendingNode:   FromDegrees(p.AscendingNode),
		ArgOfPericenter: FromDegrees(p.ArgOfPericenter),
		MeanAnomaly:     FromDegrees(p.MeanAnomaly),
	}
}

// Params converts the internal element set back to the catalog view.
func (k KeplerianOrbitElems) Params() OrbitParams {
	return OrbitParams{
		RefPlane:        k.RefPlane,
		Epoch:           k.Epoch,
		Period:          k.Period,
		PericenterDist:  k.PericenterDist,
		GravParam:       k.GravParam,
		Eccentricity:    k.Eccentricity,
		Inclination:     k.Inclination.ToDegrees(),
		AscendingNode:   k.AscendingNode.ToDegrees(),
		ArgOfPericenter: k.ArgOfPericenter.ToDegrees(),
		MeanAnomaly:     k.MeanAnomaly.ToDegrees(),
	}
}

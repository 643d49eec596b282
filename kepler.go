package cse

import (
	"errors"
	"math"

	"github.com/StellarDX/cse-go/scimath"
)

/* Kepler's equation in its three regimes and the matching inverse solvers.

The elliptic inverse follows Tommasini & Olivieri (2022): a Newton solver
seeded by Markley's estimate, the loop-free Markley variant, and a
piecewise-quintic fit, all of which hand off to bisection in the
near-parabolic corner (e > 0.99, |M| < 0.0045) where the derivative of the
equation vanishes. The hyperbolic inverse is the HKE-SDG scheme of
Raposo-Pulido & Peláez (2018): a segmented initial-guess table followed by a
handful of Newton steps. The parabolic case is Barker's equation, solved
exactly by the cubic formula. */

// ErrKeplerDiverged reports that an inverse-Kepler iteration hit its cap;
// the best iterate is still returned.
var ErrKeplerDiverged = errors.New("cse: inverse Kepler iteration cap reached")

const (
	keplerAbsTol = 3e-15
	keplerRelTol = 2.2e-16

	// Near-parabolic corner where all elliptic solvers fall back to
	// bisection.
	eBoundary = 0.99
	mBoundary = 0.0045
)

// KeplerElliptic evaluates M = E - e·sin(E).
func KeplerElliptic(e float64, E Angle) Angle {
	ERad := E.ToRadians()
	return FromRadians(ERad - e*math.Sin(ERad))
}

// KeplerParabolic evaluates Barker's equation M = E/2 + E³/6 where E is the
// parabolic anomaly tan(ν/2).
func KeplerParabolic(E Angle) Angle {
	D := E.ToRadians()
	return FromRadians(D/2 + D*D*D/6)
}

// KeplerHyperbolic evaluates M = e·sinh(H) - H.
func KeplerHyperbolic(e float64, E Angle) Angle {
	H := E.ToRadians()
	return FromRadians(e*math.Sinh(H) - H)
}

// Kepler dispatches the forward equation on the conic class of e.
func Kepler(e float64, E Angle) Angle {
	switch TypeFromEccentricity(e) {
	case Parabolic:
		return KeplerParabolic(E)
	case Hyperbolic:
		return KeplerHyperbolic(e, E)
	}
	return KeplerElliptic(e, E)
}

// InverseKepler dispatches the default inverse solver on the conic class:
// Newton for ellipses, the cubic formula for parabolas, HKE-SDG for
// hyperbolas.
func InverseKepler(e float64, M Angle) (Angle, error) {
	switch TypeFromEccentricity(e) {
	case Parabolic:
		return NewParabolicIKE().Solve(M)
	case Hyperbolic:
		return NewHyperbolicIKE(e).Solve(M)
	}
	return NewNewtonIKE(e).Solve(M)
}

// InverseKeplerSolver is the shared contract of the inverse solvers.
type InverseKeplerSolver interface {
	Solve(M Angle) (Angle, error)
}

// ellipticCommon carries the tolerances and the near-parabolic fallback
// shared by the elliptic solvers.
type ellipticCommon struct {
	Eccentricity float64
	AbsTol       float64
	RelTol       float64
	MaxIter      int
}

func newEllipticCommon(e float64) ellipticCommon {
	return ellipticCommon{
		Eccentricity: e,
		AbsTol:       getConfig().KeplerTolerance,
		RelTol:       keplerRelTol,
		MaxIter:      50,
	}
}

// reduce maps M into [-π, π] and returns the recentring offset so that
// E(M + 2kπ) = E(M) + 2kπ.
func reduce(mRad float64) (m, offset float64) {
	m = math.Mod(mRad, 2*math.Pi)
	if m > math.Pi {
		m -= 2 * math.Pi
	} else if m < -math.Pi {
		m += 2 * math.Pi
	}
	return m, mRad - m
}

func (c ellipticCommon) nearCorner(mRad float64) bool {
	return c.Eccentricity > eBoundary && math.Abs(mRad) < mBoundary
}

// boundaryHandler bisects E - e·sinE = M over [0, π]; the corner has a
// vanishing derivative, where the polynomial solvers lose their footing.
func (c ellipticCommon) boundaryHandler(mRad float64) float64 {
	neg := mRad < 0
	m := math.Abs(mRad)
	lo, hi := 0.0, math.Pi
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		if hi-lo <= c.AbsTol+c.RelTol*math.Abs(mid) {
			break
		}
		if mid-c.Eccentricity*math.Sin(mid)-m < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	E := (lo + hi) / 2
	if neg {
		E = -E
	}
	return E
}

// markleyEstimate is the third-order rational starter of Markley (1995).
func markleyEstimate(e, m float64) float64 {
	absM := math.Abs(m)
	α := (3*math.Pi*math.Pi + 1.6*math.Pi*(math.Pi-absM)/(1+e)) / (math.Pi*math.Pi - 6)
	d := 3*(1-e) + α*e
	q := 2*α*d*(1-e) - m*m
	r := 3*α*d*(d-1+e)*m + m*m*m
	w := math.Pow(math.Abs(r)+math.Sqrt(q*q*q+r*r), 2./3)
	return (2*r*w/(w*w+w*q+q*q) + m) / d
}

// markleyRefine applies the fifth-order correction step of the same paper.
func markleyRefine(e, m, E float64) float64 {
	sE, cE := math.Sincos(E)
	f0 := E - e*sE - m
	f1 := 1 - e*cE
	f2 := e * sE
	f3 := e * cE
	f4 := -f2
	δ3 := -f0 / (f1 - f0*f2/(2*f1))
	δ4 := -f0 / (f1 + δ3*f2/2 + δ3*δ3*f3/6)
	δ5 := -f0 / (f1 + δ4*f2/2 + δ4*δ4*f3/6 + δ4*δ4*δ4*f4/24)
	return E + δ5
}

// NewtonIKE solves the elliptic equation by Newton iteration from Markley's
// starter; the default elliptic solver.
type NewtonIKE struct {
	ellipticCommon
}

// NewNewtonIKE returns a Newton solver for eccentricity e.
func NewNewtonIKE(e float64) *NewtonIKE {
	return &NewtonIKE{newEllipticCommon(e)}
}

// Solve returns the eccentric anomaly for the given mean anomaly.
func (s *NewtonIKE) Solve(M Angle) (Angle, error) {
	m, off := reduce(M.ToRadians())
	if s.nearCorner(m) {
		return FromRadians(s.boundaryHandler(m) + off), nil
	}
	e := s.Eccentricity
	x := markleyEstimate(e, m)
	for i := 0; i < s.MaxIter; i++ {
		f := x - e*math.Sin(x) - m
		df := 1 - e*math.Cos(x)
		dx := f / df
		x -= dx
		if math.Abs(dx) <= s.AbsTol+s.RelTol*math.Abs(x) {
			return FromRadians(x + off), nil
		}
	}
	return FromRadians(x + off), ErrKeplerDiverged
}

// MarkleyIKE is the loop-free variant: the rational starter plus one
// fifth-order correction.
type MarkleyIKE struct {
	ellipticCommon
}

// NewMarkleyIKE returns a Markley solver for eccentricity e.
func NewMarkleyIKE(e float64) *MarkleyIKE {
	return &MarkleyIKE{newEllipticCommon(e)}
}

// Solve returns the eccentric anomaly without iterating.
func (s *MarkleyIKE) Solve(M Angle) (Angle, error) {
	m, off := reduce(M.ToRadians())
	if s.nearCorner(m) {
		return FromRadians(s.boundaryHandler(m) + off), nil
	}
	E := markleyRefine(s.Eccentricity, m, markleyEstimate(s.Eccentricity, m))
	return FromRadians(E + off), nil
}

// ParabolicIKE inverts Barker's equation by the cubic formula; exactly one
// real root exists.
type ParabolicIKE struct{}

// NewParabolicIKE returns the parabolic solver.
func NewParabolicIKE() *ParabolicIKE { return &ParabolicIKE{} }

// Solve returns the parabolic anomaly D = tan(ν/2).
func (s *ParabolicIKE) Solve(M Angle) (Angle, error) {
	m := M.ToRadians()
	// E³/6 + E/2 - M = 0
	D, err := realCubicRoot(1./6, 0, 0.5, -m)
	if err != nil {
		return NoDataAngle(), err
	}
	return FromRadians(D), nil
}

// HyperbolicIKE is the HKE-SDG solver: a 51-entry segmentation of the mean
// anomaly axis parameterised by the eccentricity, one quintic initial-guess
// polynomial per segment, and a short Newton polish.
type HyperbolicIKE struct {
	Eccentricity float64
	AbsTol       float64
	RelTol       float64
	MaxIter      int

	segments [hkeSegments + 1]float64 // M at the segment boundaries for this e
}

// Base grid of the segmentation in hyperbolic anomaly, exponential so the
// segments stay balanced in M across many decades.
const hkeSegments = 50

var hkeHBoundaries = func() [hkeSegments + 1]float64 {
	var h [hkeSegments + 1]float64
	// H_i spans [0, 25] with exponential growth.
	for i := 1; i <= hkeSegments; i++ {
		h[i] = (math.Exp(float64(i)*math.Log(26)/hkeSegments) - 1)
	}
	return h
}()

// NewHyperbolicIKE builds the solver for eccentricity e > 1, deriving the
// per-eccentricity segment table from the base grid.
func NewHyperbolicIKE(e float64) *HyperbolicIKE {
	s := &HyperbolicIKE{
		Eccentricity: e,
		AbsTol:       keplerRelTol,
		RelTol:       keplerRelTol,
		MaxIter:      50,
	}
	for i, h := range hkeHBoundaries {
		s.segments[i] = e*math.Sinh(h) - h
	}
	return s
}

// initialGuess evaluates the quintic inverse expansion of the segment
// containing m, or the singular-corner cubic when m sits under the first
// boundary.
func (s *HyperbolicIKE) initialGuess(m float64) float64 {
	e := s.Eccentricity
	if m <= s.segments[1] {
		// Singular corner: M ≈ (e-1)·H + e·H³/6, solved by the cubic
		// formula. Dominant near the parabolic limit where e·coshH - 1
		// vanishes at H = 0.
		if h, err := realCubicRoot(e/6, 0, e-1, -m); err == nil {
			return h
		}
		return math.Asinh(m / e)
	}
	// Binary search the segment, expand the inverse around its lower edge.
	lo, hi := 1, hkeSegments
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if s.segments[mid] <= m {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	h0 := hkeHBoundaries[lo]
	m0 := s.segments[lo]
	sh, ch := math.Sinh(h0), math.Cosh(h0)
	f1 := e*ch - 1
	f2 := e * sh
	f3 := e * ch
	f4 := f2
	f5 := f3
	// Derivatives of the inverse function by the Lagrange reversion chain.
	g1 := 1 / f1
	g2 := -f2 / (f1 * f1 * f1)
	g3 := (3*f2*f2 - f1*f3) / math.Pow(f1, 5)
	g4 := (-15*f2*f2*f2 + 10*f1*f2*f3 - f1*f1*f4) / math.Pow(f1, 7)
	g5 := (105*math.Pow(f2, 4) - 105*f1*f2*f2*f3 + 10*f1*f1*f3*f3 +
		15*f1*f1*f2*f4 - f1*f1*f1*f5) / math.Pow(f1, 9)
	d := m - m0
	return h0 + d*(g1+d*(g2/2+d*(g3/6+d*(g4/24+d*g5/120))))
}

// Solve returns the hyperbolic anomaly; two to four Newton steps suffice
// from the table seed.
func (s *HyperbolicIKE) Solve(M Angle) (Angle, error) {
	m := M.ToRadians()
	neg := m < 0
	if neg {
		m = -m
	}
	e := s.Eccentricity
	var h float64
	if m > s.segments[hkeSegments] {
		// Beyond the table: sinh dominates, seed from its inverse.
		h = math.Asinh((m + hkeHBoundaries[hkeSegments]) / e)
	} else {
		h = s.initialGuess(m)
	}
	var err error = ErrKeplerDiverged
	for i := 0; i < s.MaxIter; i++ {
		f := e*math.Sinh(h) - h - m
		df := e*math.Cosh(h) - 1
		dh := f / df
		h -= dh
		if math.Abs(dh) <= s.AbsTol+s.RelTol*math.Abs(h) {
			err = nil
			break
		}
	}
	if neg {
		h = -h
	}
	return FromRadians(h), err
}

// realCubicRoot returns the real root of a·x³ + b·x² + c·x + d closest to
// the real axis.
func realCubicRoot(a, b, c, d float64) (float64, error) {
	roots, err := scimath.SolveCubic([]float64{a, b, c, d}, 12)
	if err != nil {
		return math.NaN(), err
	}
	best := roots[0]
	for _, z := range roots[1:] {
		if math.Abs(imag(z)) < math.Abs(imag(best)) {
			best = z
		}
	}
	return real(best), nil
}

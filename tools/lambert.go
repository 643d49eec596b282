// Package tools hosts the mission-design helpers built on top of the cse
// core, chiefly the Lambert boundary-value solver.
package tools

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	cse "github.com/StellarDX/cse-go"
)

/* Izzo-style Lambert solver (Izzo 2015, Revisiting Lambert's problem).
Given the boundary radii and the time of flight, every zero- and
multi-revolution transfer is recovered from a single scalar iteration in the
universal variable x, seeded by the Lancaster-Gooding interpolation and
polished by a third-order Householder step. */

// ε of the Householder iteration on the time equation.
const lambertTol = 1e-8

// lambertMaxIter bounds the Householder loop; convergence takes well under
// 15 iterations in practice.
const lambertMaxIter = 15

// ErrLambertGeometry is returned for degenerate boundary conditions.
var ErrLambertGeometry = errors.New("tools: degenerate Lambert geometry")

// ErrLambertTime is returned for a non-positive transfer time.
var ErrLambertTime = errors.New("tools: transfer time must be positive")

// LambertDirection selects the sense of motion around the primary.
type LambertDirection uint8

// Directions of motion.
const (
	Prograde LambertDirection = iota
	Retrograde
)

// LambertSolution is one transfer: the velocity pair at departure and
// arrival, the revolution count it belongs to, and the Keplerian elements
// of the transfer conic.
type LambertSolution struct {
	V1, V2      [3]float64
	Revolutions int
	LowPath     bool
	Elems       cse.KeplerianOrbitElems
}

var identityMapper = mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})

// Lambert returns every transfer from r1 to r2 (metres from the primary)
// in time tof (seconds) around a primary with gravitational parameter μ:
// one zero-revolution solution plus a left/right pair per feasible
// revolution count up to maxRevs (the configured default when negative).
// Which revolution count is "best" is deliberately left to the caller.
func Lambert(r1, r2 [3]float64, tof, μ float64, dir LambertDirection, maxRevs int) ([]LambertSolution, error) {
	if tof <= 0 {
		return nil, ErrLambertTime
	}
	if μ <= 0 {
		return nil, errors.New("tools: gravitational parameter must be positive")
	}
	if maxRevs < 0 {
		maxRevs = cse.LambertRevsCap()
	}

	c := [3]float64{r2[0] - r1[0], r2[1] - r1[1], r2[2] - r1[2]}
	cNorm := norm(c[:])
	r1n, r2n := norm(r1[:]), norm(r2[:])
	if cNorm == 0 || r1n == 0 || r2n == 0 {
		return nil, ErrLambertGeometry
	}
	s := (r1n + r2n + cNorm) / 2

	ir1 := scale(r1[:], 1/r1n)
	ir2 := scale(r2[:], 1/r2n)
	ih := cross(ir1, ir2)
	ihn := norm(ih)
	if ihn < 1e-14 {
		return nil, ErrLambertGeometry // collinear radii, the plane is undefined
	}
	ih = scale(ih, 1/ihn)

	λ := math.Sqrt(1 - math.Min(1, cNorm/s))
	var it1, it2 []float64
	if ih[2] < 0 {
		// Transfer angle beyond π: flip the plane normal.
		λ = -λ
		ih = scale(ih, -1)
	}
	it1 = cross(ih, ir1)
	it2 = cross(ih, ir2)
	if dir == Retrograde {
		λ = -λ
		it1 = scale(it1, -1)
		it2 = scale(it2, -1)
	}

	// Non-dimensional time of flight.
	T := tof * math.Sqrt(2*μ/(s*s*s))

	xs, ns, lows := findAllX(λ, T, maxRevs)

	γ := math.Sqrt(μ * s / 2)
	ρ := (r1n - r2n) / cNorm
	σ := math.Sqrt(1 - ρ*ρ)

	out := make([]LambertSolution, 0, len(xs))
	for i, x := range xs {
		y := math.Sqrt(1 - λ*λ*(1-x*x))
		vr1 := γ * ((λ*y - x) - ρ*(λ*y+x)) / r1n
		vr2 := -γ * ((λ*y - x) + ρ*(λ*y+x)) / r2n
		vt1 := γ * σ * (y + λ*x) / r1n
		vt2 := γ * σ * (y + λ*x) / r2n
		var sol LambertSolution
		for k := 0; k < 3; k++ {
			sol.V1[k] = vr1*ir1[k] + vt1*it1[k]
			sol.V2[k] = vr2*ir2[k] + vt2*it2[k]
		}
		sol.Revolutions = ns[i]
		sol.LowPath = lows[i]
		sv := cse.OrbitStateVectors{
			RefPlane:  "Lambert",
			GravParam: μ,
			Time:      cse.NoDataDbl,
			Position:  r1,
			Velocity:  sol.V1,
		}
		elems, err := sv.KeplerianElems(identityMapper)
		if err == nil {
			sol.Elems = elems
		}
		out = append(out, sol)
	}
	return out, nil
}

// findAllX locates every root of the time equation: one for N = 0 and a
// left/right pair per feasible revolution count.
func findAllX(λ, T float64, maxRevs int) (xs []float64, ns []int, lows []bool) {
	// Feasibility ceiling: M_max from the minimum of the T(x) curve,
	// found by inverting dT/dx = 0 with a Halley iteration (12 steps
	// suffice at quad precision, cf. pykep).
	mMax := int(math.Floor(T / math.Pi))
	t00 := math.Acos(λ) + λ*math.Sqrt(1-λ*λ)
	if mMax > 0 {
		tMin := tofMin(λ, mMax)
		if T < tMin {
			mMax--
		}
	}
	if mMax > maxRevs {
		mMax = maxRevs
	}

	// Zero revolutions: Lancaster-Gooding linear interpolation start.
	t1 := 2 * (1 - λ*λ*λ) / 3
	var x0 float64
	switch {
	case T >= t00:
		x0 = math.Pow(t00/T, 2./3) - 1
	case T < t1:
		x0 = 5*t1*(t1-T)/(2*T*(1-math.Pow(λ, 5))) + 1
	default:
		x0 = math.Pow(t00/T, math.Log2(t1/t00)) - 1
	}
	if x, ok := householder(x0, T, λ, 0); ok {
		xs = append(xs, x)
		ns = append(ns, 0)
		lows = append(lows, T >= t00)
	}

	for m := 1; m <= mMax; m++ {
		// Left branch.
		v := math.Pow((float64(m)*math.Pi+math.Pi)/(8*T), 2./3)
		xl := (v - 1) / (v + 1)
		if x, ok := householder(xl, T, λ, m); ok {
			xs = append(xs, x)
			ns = append(ns, m)
			lows = append(lows, true)
		}
		// Right branch.
		v = math.Pow(8*T/(float64(m)*math.Pi), 2./3)
		xr := (v - 1) / (v + 1)
		if x, ok := householder(xr, T, λ, m); ok {
			xs = append(xs, x)
			ns = append(ns, m)
			lows = append(lows, false)
		}
	}
	return xs, ns, lows
}

// tof evaluates the non-dimensional time equation by one of three branches:
// Battin's hypergeometric series for zero revolutions with √0.6 < x < √1.4,
// Lancaster's closed form otherwise, and the parabolic-limit value when x is
// within 1e-13 of 1. There is no Lagrange-form branch.
func tof(x, λ float64, m int) float64 {
	y := math.Sqrt(1 - λ*λ*(1-x*x))
	dist := math.Abs(x - 1)
	if m == 0 && x > math.Sqrt(0.6) && x < math.Sqrt(1.4) {
		// Battin series.
		η := y - λ*x
		s1 := (1 - λ - x*η) / 2
		q := 4. / 3 * hyp2f1b(s1)
		return (η*η*η*q + 4*λ*η) / 2
	}
	if dist > 1e-13 {
		// Lancaster closed form.
		ψ := computeψ(x, y, λ)
		omx2 := 1 - x*x
		return ((ψ+float64(m)*math.Pi)/math.Sqrt(math.Abs(omx2)) - x + λ*y) / omx2
	}
	// Parabolic limit.
	return 2./3*(1-λ*λ*λ) + float64(m)*math.Pi
}

// computeψ returns the auxiliary angle of the Lancaster form.
func computeψ(x, y, λ float64) float64 {
	switch {
	case x >= -1 && x < 1:
		return math.Acos(x*y + λ*(1-x*x))
	case x > 1:
		return math.Asinh((y - x*λ) * math.Sqrt(x*x-1))
	}
	return 0
}

// hyp2f1b is the Gauss hypergeometric series 2F1(3, 1, 5/2, x) for |x| < 1.
func hyp2f1b(x float64) float64 {
	if x >= 1 {
		return math.Inf(1)
	}
	res, term := 1.0, 1.0
	for i := 0; i < 200; i++ {
		fi := float64(i)
		term *= (3 + fi) * (1 + fi) / (2.5 + fi) * x / (fi + 1)
		res += term
		if math.Abs(term) <= 1e-16*math.Abs(res) {
			break
		}
	}
	return res
}

// tofDerivatives returns dT/dx, d²T/dx² and d³T/dx³ at (x, T).
func tofDerivatives(x, t, λ float64) (dt, ddt, dddt float64) {
	y := math.Sqrt(1 - λ*λ*(1-x*x))
	omx2 := 1 - x*x
	dt = (3*t*x - 2 + 2*λ*λ*λ*x/y) / omx2
	ddt = (3*t + 5*x*dt + 2*(1-λ*λ)*λ*λ*λ/(y*y*y)) / omx2
	dddt = (7*x*ddt + 8*dt - 6*(1-λ*λ)*math.Pow(λ, 5)*x/math.Pow(y, 5)) / omx2
	return
}

// householder performs the third-order Householder iteration on the
// residual T(x) - T₀.
func householder(x0, T, λ float64, m int) (float64, bool) {
	x := x0
	for i := 0; i < lambertMaxIter; i++ {
		fval := tof(x, λ, m) - T
		t := fval + T
		dt, ddt, dddt := tofDerivatives(x, t, λ)
		xNew := x - fval*(dt*dt-fval*ddt/2)/
			(dt*(dt*dt-fval*ddt)+dddt*fval*fval/6)
		if math.Abs(xNew-x) < lambertTol {
			return xNew, true
		}
		x = xNew
	}
	return x, false
}

// tofMin returns the minimum of the m-revolution time curve, found by a
// Halley iteration on dT/dx = 0 from x = 0; a dozen steps pin it down.
func tofMin(λ float64, m int) float64 {
	if λ == 1 {
		return tof(0, λ, m)
	}
	x := 0.0
	for i := 0; i < 12; i++ {
		t := tof(x, λ, m)
		dt, ddt, dddt := tofDerivatives(x, t, λ)
		if dt == 0 {
			break
		}
		den := 2*ddt*ddt - dt*dddt
		if den == 0 {
			break
		}
		xNew := x - 2*dt*ddt/den
		if math.Abs(xNew-x) < 1e-13 {
			x = xNew
			break
		}
		x = xNew
	}
	return tof(x, λ, m)
}

func norm(v []float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func cross(a, b []float64) []float64 {
	return []float64{a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0]}
}

func scale(v []float64, k float64) []float64 {
	return []float64{v[0] * k, v[1] * k, v[2] * k}
}

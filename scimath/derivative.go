package scimath

import (
	"errors"
	"math"
)

// Function1D is a univariate scalar function.
type Function1D func(float64) float64

// Direction selects the finite-difference stencil orientation.
type Direction int

// Stencil directions.
const (
	Center Direction = iota
	Forward
	Backward
)

// ErrErrorIncrease reports that the finite-difference error estimate started
// growing before the tolerance was met; the returned value is the last
// successful iterate.
var ErrErrorIncrease = errors.New("scimath: derivative error estimate increased")

// ErrNoConvergence reports that an iteration cap was reached; the returned
// value is the best estimate so far.
var ErrNoConvergence = errors.New("scimath: iteration cap reached before convergence")

// Derivative computes adaptive first-order finite-difference derivatives.
// The scheme follows the SciPy derivative routine: sample at x ± j·h,
// combine with weights from the inverse Vandermonde of the stencil, contract
// h until two successive estimates agree within tolerance.
type Derivative struct {
	F           Function1D
	AbsTol      float64   // absolute tolerance on successive iterates
	RelTol      float64   // relative tolerance on successive iterates
	Order       int       // number of one-sided stencil terms, must be even
	InitialStep float64   // first step size h₀
	StepFactor  float64   // h contraction per iteration
	MaxIter     int       // iteration cap
	Direction   Direction // stencil orientation

	weights []float64 // cached for the current (Order, Direction)
	offsets []float64
}

// NewDerivative returns a derivative evaluator with the library defaults
// (centered 8-term stencil, h₀ = 0.5, contraction 2).
func NewDerivative(f Function1D) *Derivative {
	return &Derivative{
		F:           f,
		AbsTol:      0x1p-1022, // effectively zero: rely on the relative test
		RelTol:      math.Sqrt(0x1p-52),
		Order:       8,
		InitialStep: 0.5,
		StepFactor:  2,
		MaxIter:     10,
		Direction:   Center,
	}
}

// stencil returns the offsets and weights such that
// f'(x) ≈ (1/h)·Σ w_j·f(x + s_j·h).
// The weight vector is column 1 of the inverse Vandermonde built on the
// offsets: Σ_j w_j·s_j^p = δ_{p,1}.
func (d *Derivative) stencil() ([]float64, []float64, error) {
	if d.weights != nil {
		return d.offsets, d.weights, nil
	}
	m := d.Order
	if m < 2 {
		m = 2
	}
	if m%2 != 0 {
		m++
	}
	var s []float64
	switch d.Direction {
	case Forward:
		for j := 0; j <= m/2; j++ {
			s = append(s, float64(j))
		}
	case Backward:
		for j := 0; j <= m/2; j++ {
			s = append(s, -float64(j))
		}
	default:
		for j := -m / 2; j <= m/2; j++ {
			s = append(s, float64(j))
		}
	}
	inv, err := InverseVandermonde(s)
	if err != nil {
		return nil, nil, err
	}
	w := make([]float64, len(s))
	for q := range w {
		w[q] = inv.At(q, 1)
	}
	d.offsets, d.weights = s, w
	return s, w, nil
}

// At returns df/dx at x, or NaN if the stencil cannot be built.
func (d *Derivative) At(x float64) float64 {
	v, _, _ := d.AtErr(x)
	return v
}

// AtErr returns the derivative estimate, the final error proxy and the
// termination state (nil, ErrErrorIncrease or ErrNoConvergence).
func (d *Derivative) AtErr(x float64) (float64, float64, error) {
	s, w, err := d.stencil()
	if err != nil {
		return math.NaN(), math.NaN(), err
	}
	eval := func(h float64) float64 {
		var sum float64
		for j, off := range s {
			if w[j] == 0 {
				continue
			}
			sum += w[j] * d.F(x+off*h)
		}
		return sum / h
	}

	h := d.InitialStep
	last := eval(h)
	lastErr := math.Inf(1)
	for i := 0; i < d.MaxIter; i++ {
		h /= d.StepFactor
		cur := eval(h)
		curErr := math.Abs(cur - last)
		if curErr <= math.Max(d.AbsTol, d.RelTol*math.Abs(cur)) {
			return cur, curErr, nil
		}
		if curErr > lastErr {
			return last, lastErr, ErrErrorIncrease
		}
		last, lastErr = cur, curErr
	}
	return last, lastErr, ErrNoConvergence
}

// FractionalDerivative evaluates integer- and fractional-order derivatives by
// binomial finite differences combined with the Riemann-Liouville or Caputo
// constructions. Both fractional variants compose a fractional integral of
// order n-α (n = ⌈α⌉) with an n-th order derivative; Riemann-Liouville
// integrates first, Caputo differentiates first.
type FractionalDerivative struct {
	F      Function1D
	Order  float64 // derivative order α ≥ 0, non-integers allowed
	Base   float64 // lower terminal of the fractional integral
	Engine Integrator

	AbsTol      float64
	RelTol      float64
	InitialStep float64
	StepFactor  float64
	MaxIter     int
}

// NewFractionalDerivative returns an evaluator for d^α f/dx^α anchored at
// base point a, using the default Gauss-Kronrod engine.
func NewFractionalDerivative(f Function1D, order, a float64) *FractionalDerivative {
	return &FractionalDerivative{
		F:           f,
		Order:       order,
		Base:        a,
		Engine:      NewGaussKronrod(),
		AbsTol:      0x1p-1022,
		RelTol:      math.Sqrt(0x1p-52),
		InitialStep: 1e-3,
		StepFactor:  10,
		MaxIter:     12,
	}
}

// Binomial computes the integer-order derivative of f at x by the backward
// binomial difference
//
//	f⁽ⁿ⁾(x) = lim_{h→0} h⁻ⁿ Σ_{j=0..n} (-1)^j C(n,j) f(x - j·h)
//
// with the same adaptive step contraction as Derivative.
func (d *FractionalDerivative) Binomial(x float64) float64 {
	return d.binomial(d.F, x, uint64(math.Ceil(d.Order)))
}

func (d *FractionalDerivative) binomial(f Function1D, x float64, n uint64) float64 {
	eval := func(h float64) float64 {
		var sum float64
		for j := uint64(0); j <= n; j++ {
			term := float64(Comb(n, j)) * f(x-float64(j)*h)
			if j%2 != 0 {
				term = -term
			}
			sum += term
		}
		return sum / math.Pow(h, float64(n))
	}
	h := d.InitialStep
	last := eval(h)
	lastErr := math.Inf(1)
	for i := 0; i < d.MaxIter; i++ {
		h /= d.StepFactor
		cur := eval(h)
		curErr := math.Abs(cur - last)
		if curErr <= math.Max(d.AbsTol, d.RelTol*math.Abs(cur)) {
			return cur
		}
		if curErr > lastErr {
			return last
		}
		last, lastErr = cur, curErr
	}
	return last
}

// RiemannLiouville evaluates the Riemann-Liouville derivative
//
//	D^α f(x) = dⁿ/dxⁿ [ I^(n-α) f ](x),  n = ⌈α⌉.
func (d *FractionalDerivative) RiemannLiouville(x float64) float64 {
	n := uint64(math.Ceil(d.Order))
	frac := d.Order - math.Floor(d.Order)
	if frac == 0 {
		return d.Binomial(x)
	}
	inner := &RiemannLiouvilleIntegral{
		F:      d.F,
		Order:  float64(n) - d.Order,
		Base:   d.Base,
		Engine: d.Engine,
	}
	return d.binomial(inner.At, x, n)
}

// Caputo evaluates the Caputo derivative
//
//	D^α f(x) = I^(n-α) [ f⁽ⁿ⁾ ](x),  n = ⌈α⌉.
func (d *FractionalDerivative) Caputo(x float64) float64 {
	n := uint64(math.Ceil(d.Order))
	frac := d.Order - math.Floor(d.Order)
	if frac == 0 {
		return d.Binomial(x)
	}
	dn := func(t float64) float64 { return d.binomial(d.F, t, n) }
	inner := &RiemannLiouvilleIntegral{
		F:      dn,
		Order:  float64(n) - d.Order,
		Base:   d.Base,
		Engine: d.Engine,
	}
	return inner.At(x)
}

// At dispatches on the order: integer orders use the binomial difference,
// fractional orders the Riemann-Liouville construction.
func (d *FractionalDerivative) At(x float64) float64 {
	if d.Order == math.Floor(d.Order) {
		return d.Binomial(x)
	}
	return d.RiemannLiouville(x)
}

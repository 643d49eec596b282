package scimath

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ODEFunc is the right-hand side f(t, y) of the system y' = f(t, y).
type ODEFunc func(t float64, y []float64) []float64

// ODEState is the driver state, checked between steps.
type ODEState int

// Driver states.
const (
	Processing ODEState = iota - 1
	Succeeded
	Failed
)

// ErrODEFailed reports that the step controller could not keep the local
// error within tolerance at the smallest representable step.
var ErrODEFailed = errors.New("scimath: ODE step size underflow")

const (
	odeMinFactor  = 0.2
	odeMaxFactor  = 10.
	odeFactorSafe = 0.9
)

// rkTableau bundles the Butcher coefficients of one explicit embedded
// Runge-Kutta pair with its dense-output interpolation matrix.
type rkTableau struct {
	errorOrder int // q, order of the error estimator
	stepOrder  int // p, order of the propagated solution
	stages     int // s
	denseOrder int // p_d, columns of P
	c, b, e    []float64
	a          [][]float64
	p          [][]float64 // (s+1) × p_d interpolation coefficients
}

// Bogacki-Shampine 3(2) pair, dense output of order 3.
var rk23 = rkTableau{
	errorOrder: 2, stepOrder: 3, stages: 3, denseOrder: 3,
	c: []float64{0, 1. / 2, 3. / 4},
	a: [][]float64{
		{},
		{1. / 2},
		{0, 3. / 4},
	},
	b: []float64{2. / 9, 1. / 3, 4. / 9},
	e: []float64{5. / 72, -1. / 12, -1. / 9, 1. / 8},
	p: [][]float64{
		{1, -4. / 3, 5. / 9},
		{0, 1, -2. / 3},
		{0, 4. / 3, -8. / 9},
		{0, -1, 1},
	},
}

// Dormand-Prince 5(4) pair, dense output of order 4.
var rk45 = rkTableau{
	errorOrder: 4, stepOrder: 5, stages: 6, denseOrder: 4,
	c: []float64{0, 1. / 5, 3. / 10, 4. / 5, 8. / 9, 1},
	a: [][]float64{
		{},
		{1. / 5},
		{3. / 40, 9. / 40},
		{44. / 45, -56. / 15, 32. / 9},
		{19372. / 6561, -25360. / 2187, 64448. / 6561, -212. / 729},
		{9017. / 3168, -355. / 33, 46732. / 5247, 49. / 176, -5103. / 18656},
	},
	b: []float64{35. / 384, 0, 500. / 1113, 125. / 192, -2187. / 6784, 11. / 84},
	e: []float64{71. / 57600, 0, -71. / 16695, 71. / 1920, -17253. / 339200, 22. / 525, -1. / 40},
	p: [][]float64{
		{1, -8048581381. / 2820520608, 8663915743. / 2820520608, -12715105075. / 11282082432},
		{0, 0, 0, 0},
		{0, 131558114200. / 32700410799, -68118460800. / 10900136933, 87487479700. / 32700410799},
		{0, -1754552775. / 470086768, 14199869525. / 1410260304, -10690763975. / 1880347072},
		{0, 127303824393. / 49829197408, -318862633887. / 49829197408, 701980252875. / 199316789632},
		{0, -282668133. / 205662961, 2019193451. / 616988883, -1453857185. / 822651844},
		{0, 40617522. / 29380423, -110615467. / 29380423, 69997945. / 29380423},
	},
}

// DenseSegment is one polynomial patch of the continuous solution on
// [First, Last], y(t) = y₀ + h·Σ_k Q[k,:]·τ^(i+1) with τ = (t-First)/h.
type DenseSegment struct {
	First, Last float64
	Base        []float64 // y(First)
	Q           *mat.Dense
}

// At interpolates the segment at t.
func (s DenseSegment) At(t float64) []float64 {
	h := s.Last - s.First
	τ := (t - s.First) / h
	rows, cols := s.Q.Dims()
	// powers τ, τ², ..., τ^cols
	p := make([]float64, cols)
	acc := τ
	for i := range p {
		p[i] = acc
		acc *= τ
	}
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		var sum float64
		for j := 0; j < cols; j++ {
			sum += s.Q.At(i, j) * p[j]
		}
		out[i] = s.Base[i] + h*sum
	}
	return out
}

// RungeKutta is an explicit embedded Runge-Kutta driver with adaptive step
// control and polynomial dense output, after the SciPy solve_ivp engines.
// A driver instance is single-goroutine: it owns iteration state.
type RungeKutta struct {
	F       ODEFunc
	RelTol  float64
	AbsTol  float64
	MaxStep float64

	tbl   rkTableau
	n     int // equation count
	state ODEState

	t, tEnd float64
	y       []float64
	fCur    []float64
	h       float64
	dir     float64

	segments []DenseSegment // sorted by First
}

// NewRK23 returns a Bogacki-Shampine 3(2) driver.
func NewRK23(f ODEFunc) *RungeKutta {
	return &RungeKutta{F: f, RelTol: 1e-3, AbsTol: 1e-6, MaxStep: math.Inf(1), tbl: rk23}
}

// NewRK45 returns a Dormand-Prince 5(4) driver, the default engine.
func NewRK45(f ODEFunc) *RungeKutta {
	return &RungeKutta{F: f, RelTol: 1e-3, AbsTol: 1e-6, MaxStep: math.Inf(1), tbl: rk45}
}

// Init arms the driver with the initial state and the integration interval.
// The first step size follows the SciPy heuristic comparing the weighted
// norms of y₀ and f(t₀, y₀).
func (rk *RungeKutta) Init(y0 []float64, first, last float64) {
	rk.n = len(y0)
	rk.t, rk.tEnd = first, last
	rk.y = append([]float64(nil), y0...)
	rk.fCur = rk.F(first, rk.y)
	rk.dir = 1
	if last < first {
		rk.dir = -1
	}
	rk.h = rk.initialStep()
	rk.state = Processing
	rk.segments = rk.segments[:0]
}

func (rk *RungeKutta) scaled(v, y, yNew []float64) float64 {
	// RMS of v_i / (atol + rtol·max(|y_i|, |yNew_i|))
	var sum float64
	for i, e := range v {
		s := rk.AbsTol + rk.RelTol*math.Max(math.Abs(y[i]), math.Abs(yNew[i]))
		sum += (e / s) * (e / s)
	}
	return math.Sqrt(sum / float64(len(v)))
}

func (rk *RungeKutta) initialStep() float64 {
	// SciPy select_initial_step: compare d0 and d1 from weighted norms,
	// probe an Euler step, then bound by both candidates.
	scale := make([]float64, rk.n)
	for i := range scale {
		scale[i] = rk.AbsTol + rk.RelTol*math.Abs(rk.y[i])
	}
	rms := func(v []float64) float64 {
		var sum float64
		for i, x := range v {
			sum += (x / scale[i]) * (x / scale[i])
		}
		return math.Sqrt(sum / float64(len(v)))
	}
	d0 := rms(rk.y)
	d1 := rms(rk.fCur)
	var h0 float64
	if d0 < 1e-5 || d1 < 1e-5 {
		h0 = 1e-6
	} else {
		h0 = 0.01 * d0 / d1
	}
	y1 := make([]float64, rk.n)
	for i := range y1 {
		y1[i] = rk.y[i] + h0*rk.dir*rk.fCur[i]
	}
	f1 := rk.F(rk.t+h0*rk.dir, y1)
	diff := make([]float64, rk.n)
	for i := range diff {
		diff[i] = f1[i] - rk.fCur[i]
	}
	d2 := rms(diff) / h0
	var h1 float64
	if d1 <= 1e-15 && d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1/float64(rk.tbl.stepOrder+1))
	}
	return math.Min(math.Min(100*h0, h1), math.Min(rk.MaxStep, math.Abs(rk.tEnd-rk.t)))
}

// State returns the driver state; callers may set Failed to cancel.
func (rk *RungeKutta) State() ODEState { return rk.state }

// Cancel marks the driver Failed so the next Step returns immediately.
func (rk *RungeKutta) Cancel() { rk.state = Failed }

// Step advances the solution by one accepted step, appending the dense
// output segment. Transitions to Succeeded at tEnd or Failed on step
// underflow.
func (rk *RungeKutta) Step() error {
	if rk.state != Processing {
		if rk.state == Failed {
			return ErrODEFailed
		}
		return nil
	}
	minStep := 10 * math.Abs(math.Nextafter(rk.t, rk.dir*math.Inf(1))-rk.t)
	h := rk.h
	tb := rk.tbl
	k := make([][]float64, tb.stages+1)
	yNew := make([]float64, rk.n)
	errVec := make([]float64, rk.n)

	for {
		if h < minStep {
			rk.state = Failed
			return ErrODEFailed
		}
		if rk.dir*(rk.t+rk.dir*h-rk.tEnd) > 0 {
			h = math.Abs(rk.tEnd - rk.t)
		}

		k[0] = rk.fCur
		for s := 1; s < tb.stages; s++ {
			ys := make([]float64, rk.n)
			for i := 0; i < rk.n; i++ {
				var acc float64
				for j := 0; j < s; j++ {
					acc += tb.a[s][j] * k[j][i]
				}
				ys[i] = rk.y[i] + rk.dir*h*acc
			}
			k[s] = rk.F(rk.t+rk.dir*h*tb.c[s], ys)
		}
		for i := 0; i < rk.n; i++ {
			var acc float64
			for s := 0; s < tb.stages; s++ {
				acc += tb.b[s] * k[s][i]
			}
			yNew[i] = rk.y[i] + rk.dir*h*acc
		}
		k[tb.stages] = rk.F(rk.t+rk.dir*h, yNew)
		for i := 0; i < rk.n; i++ {
			var acc float64
			for s := 0; s <= tb.stages; s++ {
				acc += tb.e[s] * k[s][i]
			}
			errVec[i] = h * acc
		}
		norm := rk.scaled(errVec, rk.y, yNew)
		if norm <= 1 {
			factor := odeMaxFactor
			if norm > 0 {
				factor = math.Min(odeMaxFactor,
					odeFactorSafe*math.Pow(norm, -1/float64(tb.errorOrder+1)))
			}
			tNew := rk.t + rk.dir*h
			rk.appendSegment(h, k)
			rk.t, rk.y, rk.fCur = tNew, append([]float64(nil), yNew...), k[tb.stages]
			rk.h = math.Min(h*factor, rk.MaxStep)
			if rk.dir*(rk.tEnd-rk.t) <= 0 {
				rk.state = Succeeded
			}
			return nil
		}
		h *= math.Max(odeMinFactor,
			odeFactorSafe*math.Pow(norm, -1/float64(tb.errorOrder+1)))
	}
}

// appendSegment stores the dense-output patch Q = Kᵀ·P for the step just
// taken.
func (rk *RungeKutta) appendSegment(h float64, k [][]float64) {
	tb := rk.tbl
	q := mat.NewDense(rk.n, tb.denseOrder, nil)
	for i := 0; i < rk.n; i++ {
		for j := 0; j < tb.denseOrder; j++ {
			var acc float64
			for s := 0; s <= tb.stages; s++ {
				acc += k[s][i] * tb.p[s][j]
			}
			q.Set(i, j, acc)
		}
	}
	first := rk.t
	last := rk.t + rk.dir*h
	rk.segments = append(rk.segments, DenseSegment{
		First: first, Last: last,
		Base: append([]float64(nil), rk.y...),
		Q:    q,
	})
}

// Solve runs the driver to completion.
func (rk *RungeKutta) Solve(y0 []float64, first, last float64) error {
	rk.Init(y0, first, last)
	for rk.state == Processing {
		if err := rk.Step(); err != nil {
			return err
		}
	}
	return nil
}

// At evaluates the continuous solution at t by binary search over the
// dense-output segments. Outside the integrated span the nearest segment
// extrapolates.
func (rk *RungeKutta) At(t float64) []float64 {
	if len(rk.segments) == 0 {
		return append([]float64(nil), rk.y...)
	}
	if rk.dir > 0 {
		i := sort.Search(len(rk.segments), func(i int) bool { return rk.segments[i].Last >= t })
		if i == len(rk.segments) {
			i--
		}
		return rk.segments[i].At(t)
	}
	i := sort.Search(len(rk.segments), func(i int) bool { return rk.segments[i].Last <= t })
	if i == len(rk.segments) {
		i--
	}
	return rk.segments[i].At(t)
}

// Current returns the discrete solution point the driver sits on.
func (rk *RungeKutta) Current() (float64, []float64) {
	return rk.t, append([]float64(nil), rk.y...)
}

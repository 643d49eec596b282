package scimath

import (
	"errors"
	"math"
)

// ErrNoSignChange is returned when bisection is started on an interval whose
// endpoints do not straddle the target value.
var ErrNoSignChange = errors.New("scimath: no sign change on the bisection interval")

// Bisection inverts f on [First, Last]: At(y) returns the x with f(x) = y.
type Bisection struct {
	F           Function1D
	First, Last float64
	AbsTol      float64 // 2^-39 by default
	RelTol      float64 // 2^-50 by default
	MaxIter     int
}

// NewBisection returns a bisection engine on the given interval; the bounds
// are reordered if needed.
func NewBisection(f Function1D, a, b float64) *Bisection {
	if a > b {
		a, b = b, a
	}
	return &Bisection{
		F:     f,
		First: a, Last: b,
		AbsTol:  0x1p-39,
		RelTol:  0x1p-50,
		MaxIter: 100,
	}
}

// At returns the x in [First, Last] with f(x) = y, halving until
// |b-a| ≤ atol + rtol·|mid|. NaN when no sign change brackets y.
func (bi *Bisection) At(y float64) float64 {
	x, err := bi.Run(y)
	if err != nil {
		return math.NaN()
	}
	return x
}

// Run is At with the error surfaced.
func (bi *Bisection) Run(y float64) (float64, error) {
	a, b := bi.First, bi.Last
	fa, fb := bi.F(a)-y, bi.F(b)-y
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if fa*fb > 0 {
		return math.NaN(), ErrNoSignChange
	}
	mid := (a + b) / 2
	for i := 0; i < bi.MaxIter; i++ {
		mid = (a + b) / 2
		if b-a <= bi.AbsTol+bi.RelTol*math.Abs(mid) {
			return mid, nil
		}
		fm := bi.F(mid) - y
		if fm == 0 {
			return mid, nil
		}
		if fa*fm < 0 {
			b = mid
		} else {
			a, fa = mid, fm
		}
	}
	return mid, ErrNoConvergence
}

// Householder inverts f by the Householder iteration family
//
//	x_{n+1} = x_n + d·(g^(d-1)/g^(d))(x_n),  g = 1/(f - y),
//
// where d+1 functions (f and its first d derivatives) give an iteration of
// order d+1: d = 1 is Newton, d = 2 is Halley. The derivatives of g are
// assembled by Faà di Bruno over the Bell polynomial table:
//
//	g^(n) = Σ_{k=1..n} (-1)^k k!/(f-y)^(k+1) · B_{n,k}(f', ..., f^(n-k+1)).
type Householder struct {
	Funcs   []Function1D // f, f', f'', ... (at least two entries)
	RefX    float64      // iteration start
	AbsTol  float64
	RelTol  float64
	MaxIter int
}

// NewHouseholder builds an iterator from f and its derivatives.
func NewHouseholder(funcs []Function1D, refX float64) (*Householder, error) {
	if len(funcs) < 2 {
		return nil, errors.New("scimath: Householder needs the function and at least one derivative")
	}
	return &Householder{
		Funcs:   funcs,
		RefX:    refX,
		AbsTol:  1.48e-8,
		RelTol:  0,
		MaxIter: 50,
	}, nil
}

// Order returns d, the number of derivatives supplied.
func (ho *Householder) Order() int { return len(ho.Funcs) - 1 }

// At returns the x with f(x) = y, iterating from RefX.
func (ho *Householder) At(y float64) float64 {
	x, err := ho.Run(y)
	if err != nil && math.IsNaN(x) {
		return math.NaN()
	}
	return x
}

// Run is At with the convergence state surfaced; on cap exhaustion the best
// iterate is returned alongside ErrNoConvergence.
func (ho *Householder) Run(y float64) (float64, error) {
	d := ho.Order()
	x := ho.RefX
	fder := make([]float64, d)
	for iter := 0; iter < ho.MaxIter; iter++ {
		fx := ho.Funcs[0](x) - y
		if fx == 0 {
			return x, nil
		}
		for j := 1; j <= d; j++ {
			fder[j-1] = ho.Funcs[j](x)
		}
		bell := BellPolynomialsTriangularArray(fder)
		gd := func(n int) float64 {
			if n == 0 {
				return 1 / fx
			}
			var sum float64
			kfact := 1.0
			pow := fx * fx // fx^(k+1) for k = 1
			for k := 1; k <= n; k++ {
				kfact *= float64(k)
				term := kfact / pow * bell.At(n, k)
				if k%2 != 0 {
					term = -term
				}
				sum += term
				pow *= fx
			}
			return sum
		}
		den := gd(d)
		if den == 0 {
			return x, ErrNoConvergence
		}
		dx := float64(d) * gd(d-1) / den
		x += dx
		if math.Abs(dx) <= ho.AbsTol+ho.RelTol*math.Abs(x) {
			return x, nil
		}
	}
	return x, ErrNoConvergence
}

// Newton runs the first-order Householder iteration (classic Newton) for
// f(x) = y from x0.
func Newton(f, df Function1D, y, x0 float64) (float64, error) {
	ho, err := NewHouseholder([]Function1D{f, df}, x0)
	if err != nil {
		return math.NaN(), err
	}
	return ho.Run(y)
}

// Halley runs the second-order Householder iteration for f(x) = y from x0.
func Halley(f, df, d2f Function1D, y, x0 float64) (float64, error) {
	ho, err := NewHouseholder([]Function1D{f, df, d2f}, x0)
	if err != nil {
		return math.NaN(), err
	}
	return ho.Run(y)
}

// BrentInverse inverts f by minimizing the squared loss L(x) = (f(x)-y)²
// with the Brent minimizer, after pynverse. Domain endpoints may be open;
// values outside the recorded range return NaN.
type BrentInverse struct {
	F          Function1D
	Domain     [2]float64
	OpenDomain [2]bool
	Range      [2]float64

	minimizer *BrentMinimizer
}

// NewBrentInverse builds an inverse over the whole line with unbounded range.
func NewBrentInverse(f Function1D) *BrentInverse {
	return &BrentInverse{
		F:         f,
		Domain:    [2]float64{math.Inf(-1), math.Inf(1)},
		Range:     [2]float64{math.Inf(-1), math.Inf(1)},
		minimizer: NewBrentMinimizer(),
	}
}

// At returns the x with f(x) = y.
func (br *BrentInverse) At(y float64) float64 {
	if y < br.Range[0] || y > br.Range[1] {
		return math.NaN()
	}
	lo, hi := br.Domain[0], br.Domain[1]
	// Nudge open endpoints inward so the loss never samples the boundary.
	if br.OpenDomain[0] && !math.IsInf(lo, 0) {
		lo += math.Max(1e-12, math.Abs(lo)*1e-12)
	}
	if br.OpenDomain[1] && !math.IsInf(hi, 0) {
		hi -= math.Max(1e-12, math.Abs(hi)*1e-12)
	}
	clamp := func(x float64) float64 {
		if x < lo {
			return lo
		}
		if x > hi {
			return hi
		}
		return x
	}
	loss := func(x float64) float64 {
		xc := clamp(x)
		d := br.F(xc) - y
		// A linear wall outside the domain keeps the bracket from escaping.
		return d*d + math.Abs(x-xc)
	}
	var seeds []float64
	switch {
	case !math.IsInf(lo, 0) && !math.IsInf(hi, 0):
		seeds = []float64{lo + (hi-lo)/4, hi - (hi-lo)/4}
	case !math.IsInf(lo, 0):
		seeds = []float64{lo + 1, lo + 2}
	case !math.IsInf(hi, 0):
		seeds = []float64{hi - 2, hi - 1}
	default:
		seeds = []float64{0, 1}
	}
	x, _, err := br.minimizer.Minimize(loss, seeds...)
	if err != nil {
		return math.NaN()
	}
	return clamp(x)
}

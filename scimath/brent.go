package scimath

import (
	"errors"
	"math"
)

// ErrBracket reports that no valid minimum bracket could be grown.
var ErrBracket = errors.New("scimath: bracketing failed, function may be monotone")

const (
	goldenRatio = 1.618033988749895  // bracket growth factor
	cgold       = 0.3819660112501051 // golden-section step fraction
)

// Bracket is a triple x_a < x_b < x_c with f(x_b) below both neighbours.
type Bracket struct {
	XA, XB, XC float64
	FA, FB, FC float64
}

// CreateBracket grows a minimum bracket from two seed points by golden-ratio
// expansion with parabolic probing, capped by growLimit per step. Fails when
// the function keeps descending past the iteration budget.
func CreateBracket(f Function1D, xa, xb float64, growLimit float64, maxIter int) (Bracket, error) {
	fa, fb := f(xa), f(xb)
	if fa < fb {
		xa, xb = xb, xa
		fa, fb = fb, fa
	}
	xc := xb + goldenRatio*(xb-xa)
	fc := f(xc)
	const verySmall = 1e-21
	for iter := 0; fc < fb; iter++ {
		if iter >= maxIter {
			return Bracket{}, ErrBracket
		}
		tmp1 := (xb - xa) * (fb - fc)
		tmp2 := (xb - xc) * (fb - fa)
		val := tmp2 - tmp1
		var denom float64
		if math.Abs(val) < verySmall {
			denom = 2 * verySmall
		} else {
			denom = 2 * val
		}
		w := xb - ((xb-xc)*tmp2-(xb-xa)*tmp1)/denom
		wlim := xb + growLimit*(xc-xb)
		var fw float64
		switch {
		case (w-xc)*(xb-w) > 0:
			fw = f(w)
			if fw < fc {
				return ordered(xb, w, xc, fb, fw, fc), nil
			}
			if fw > fb {
				return ordered(xa, xb, w, fa, fb, fw), nil
			}
			w = xc + goldenRatio*(xc-xb)
			fw = f(w)
		case (w-wlim)*(wlim-xc) >= 0:
			w = wlim
			fw = f(w)
		case (w-wlim)*(xc-w) > 0:
			fw = f(w)
			if fw < fc {
				xb, xc = xc, w
				w = xc + goldenRatio*(xc-xb)
				fb, fc = fc, fw
				fw = f(w)
			}
		default:
			w = xc + goldenRatio*(xc-xb)
			fw = f(w)
		}
		xa, xb, xc = xb, xc, w
		fa, fb, fc = fb, fc, fw
	}
	return ordered(xa, xb, xc, fa, fb, fc), nil
}

func ordered(xa, xb, xc, fa, fb, fc float64) Bracket {
	if xa > xc {
		xa, xc = xc, xa
		fa, fc = fc, fa
	}
	return Bracket{XA: xa, XB: xb, XC: xc, FA: fa, FB: fb, FC: fc}
}

// BracketFromPoints builds a bracket from explicit seed points: two points
// start the growth procedure, three are validated as-is.
func BracketFromPoints(f Function1D, points []float64) (Bracket, error) {
	switch len(points) {
	case 0:
		return CreateBracket(f, 0, 1, 110, 1000)
	case 2:
		return CreateBracket(f, points[0], points[1], 110, 1000)
	case 3:
		xa, xb, xc := points[0], points[1], points[2]
		if xa > xc {
			xa, xc = xc, xa
		}
		if !(xa < xb && xb < xc) {
			return Bracket{}, errors.New("scimath: bracket points not ordered")
		}
		fa, fb, fc := f(xa), f(xb), f(xc)
		if !(fb < fa && fb < fc) {
			return Bracket{}, errors.New("scimath: middle point is not a minimum")
		}
		return Bracket{xa, xb, xc, fa, fb, fc}, nil
	}
	return Bracket{}, errors.New("scimath: bracket needs 0, 2 or 3 seed points")
}

// BrentMinimizer locates a local minimum of a univariate function by Brent's
// method: parabolic interpolation through the three best points, with
// golden-section fallback when the parabola leaves the bracket or stalls.
type BrentMinimizer struct {
	Tol     float64 // convergence tolerance (relative term)
	MinTol  float64 // floor on the step tolerance
	MaxIter int
}

// NewBrentMinimizer returns a minimizer with the SciPy defaults.
func NewBrentMinimizer() *BrentMinimizer {
	return &BrentMinimizer{Tol: 1.48e-8, MinTol: 1e-11, MaxIter: 500}
}

// Minimize returns (x, f(x)) of the located minimum, bracketing with the
// optional seed points first.
func (bm *BrentMinimizer) Minimize(f Function1D, points ...float64) (float64, float64, error) {
	br, err := BracketFromPoints(f, points)
	if err != nil {
		return math.NaN(), math.NaN(), err
	}
	x, w, v := br.XB, br.XB, br.XB
	fx, fw, fv := br.FB, br.FB, br.FB
	var a, b float64
	if br.XA < br.XC {
		a, b = br.XA, br.XC
	} else {
		a, b = br.XC, br.XA
	}
	deltax := 0.0
	rat := 0.0
	for iter := 0; iter < bm.MaxIter; iter++ {
		tol1 := bm.Tol*math.Abs(x) + bm.MinTol
		tol2 := 2 * tol1
		xmid := (a + b) / 2
		if math.Abs(x-xmid) <= tol2-(b-a)/2 {
			return x, fx, nil
		}
		doGolden := true
		if math.Abs(deltax) > tol1 {
			// Parabolic fit through (x, w, v).
			tmp1 := (x - w) * (fx - fv)
			tmp2 := (x - v) * (fx - fw)
			p := (x-v)*tmp2 - (x-w)*tmp1
			tmp2 = 2 * (tmp2 - tmp1)
			if tmp2 > 0 {
				p = -p
			}
			tmp2 = math.Abs(tmp2)
			dxTemp := deltax
			deltax = rat
			// Accept only inside (a, b) and under half the step before last.
			if p > tmp2*(a-x) && p < tmp2*(b-x) && math.Abs(p) < math.Abs(0.5*tmp2*dxTemp) {
				rat = p / tmp2
				u := x + rat
				if u-a < tol2 || b-u < tol2 {
					rat = tol1
					if xmid < x {
						rat = -tol1
					}
				}
				doGolden = false
			}
		}
		if doGolden {
			if x >= xmid {
				deltax = a - x
			} else {
				deltax = b - x
			}
			rat = cgold * deltax
		}
		var u float64
		if math.Abs(rat) >= tol1 {
			u = x + rat
		} else if rat >= 0 {
			u = x + tol1
		} else {
			u = x - tol1
		}
		fu := f(u)
		if fu <= fx {
			if u >= x {
				a = x
			} else {
				b = x
			}
			v, w, x = w, x, u
			fv, fw, fx = fw, fx, fu
		} else {
			if u < x {
				a = u
			} else {
				b = u
			}
			if fu <= fw || w == x {
				v, w = w, u
				fv, fw = fw, fu
			} else if fu <= fv || v == x || v == w {
				v, fv = u, fu
			}
		}
	}
	return x, fx, ErrNoConvergence
}

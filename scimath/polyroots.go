package scimath

import (
	"errors"
	"math"
	"math/cmplx"
)

// ErrZeroLeadingCoeff is returned when the leading coefficient of a solver
// that requires full degree is zero.
var ErrZeroLeadingCoeff = errors.New("scimath: zero leading coefficient")

// SolveLinear solves a·x + b = 0. Returns the single root.
func SolveLinear(coeffs []float64) ([]complex128, error) {
	if len(coeffs) != 2 {
		return nil, errors.New("scimath: linear solver takes [a, b]")
	}
	a, b := coeffs[0], coeffs[1]
	if a == 0 {
		return nil, ErrZeroLeadingCoeff
	}
	return []complex128{complex(-b/a, 0)}, nil
}

// SolveQuadratic solves a·x² + b·x + c = 0 by the discriminant branches.
func SolveQuadratic(coeffs []float64) ([]complex128, error) {
	if len(coeffs) != 3 {
		return nil, errors.New("scimath: quadratic solver takes [a, b, c]")
	}
	a, b, c := coeffs[0], coeffs[1], coeffs[2]
	if a == 0 {
		return nil, ErrZeroLeadingCoeff
	}
	del := b*b - 4*a*c
	switch {
	case del > 0:
		sq := math.Sqrt(del)
		return []complex128{
			complex((-b+sq)/(2*a), 0),
			complex((-b-sq)/(2*a), 0),
		}, nil
	case del == 0:
		r := complex(-b/(2*a), 0)
		return []complex128{r, r}, nil
	}
	sq := math.Sqrt(-del)
	return []complex128{
		complex(-b/(2*a), sq/(2*a)),
		complex(-b/(2*a), -sq/(2*a)),
	}, nil
}

// SolveCubic solves a·x³ + b·x² + c·x + d = 0 by the Fan Shengjin
// discriminant chain. tolerance is a negative decimal log: discriminants
// with magnitude under 10^-tolerance of the coefficient scale collapse to
// the nearest degenerate branch. Real roots come first in each branch.
func SolveCubic(coeffs []float64, tolerance float64) ([]complex128, error) {
	if len(coeffs) != 4 {
		return nil, errors.New("scimath: cubic solver takes [a, b, c, d]")
	}
	a, b, c, d := coeffs[0], coeffs[1], coeffs[2], coeffs[3]
	if a == 0 {
		return nil, ErrZeroLeadingCoeff
	}
	tol := math.Pow(10, -tolerance)
	scale := math.Max(math.Max(math.Abs(a), math.Abs(b)), math.Max(math.Abs(c), math.Abs(d)))
	near := func(x float64) bool { return math.Abs(x) <= tol*scale*scale }

	A := b*b - 3*a*c
	B := b*c - 9*a*d
	C := c*c - 3*b*d
	del := B*B - 4*A*C

	if near(A) && near(B) {
		// Triple root.
		r := complex(-b/(3*a), 0)
		return []complex128{r, r, r}, nil
	}
	if near(del) {
		// Three real roots, two equal.
		k := B / A
		return []complex128{
			complex(-b/a+k, 0),
			complex(-k/2, 0),
			complex(-k/2, 0),
		}, nil
	}
	if del > 0 {
		// One real root, one conjugate pair.
		y1 := A*b + 3*a*(-B+math.Sqrt(del))/2
		y2 := A*b + 3*a*(-B-math.Sqrt(del))/2
		cb := math.Cbrt(y1) + math.Cbrt(y2)
		diff := math.Cbrt(y1) - math.Cbrt(y2)
		re := (-2*b + cb) / (6 * a)
		im := math.Sqrt(3) * diff / (6 * a)
		return []complex128{
			complex((-b-cb)/(3*a), 0),
			complex(re, im),
			complex(re, -im),
		}, nil
	}
	// del < 0: three distinct real roots, trigonometric form.
	t := (2*A*b - 3*a*B) / (2 * A * math.Sqrt(A))
	if t > 1 {
		t = 1
	} else if t < -1 {
		t = -1
	}
	θ := math.Acos(t)
	sq := math.Sqrt(A)
	s3, c3 := math.Sincos(θ / 3)
	return []complex128{
		complex((-b-2*sq*c3)/(3*a), 0),
		complex((-b+sq*(c3+math.Sqrt(3)*s3))/(3*a), 0),
		complex((-b+sq*(c3-math.Sqrt(3)*s3))/(3*a), 0),
	}, nil
}

// SolveQuartic solves a·x⁴ + b·x³ + c·x² + d·x + e = 0 by the Shen Tianheng
// scheme: depress with y = x + b/(4a), split the depressed quartic into two
// real quadratics through a real root of the resolvent cubic, and branch on
// the degenerate cases. The resolvent split takes only real square roots;
// the biquadratic branch (q ≈ 0) takes complex square roots of the two
// roots in y². tolerance is a negative decimal log as in SolveCubic.
func SolveQuartic(coeffs []float64, tolerance float64) ([]complex128, error) {
	if len(coeffs) != 5 {
		return nil, errors.New("scimath: quartic solver takes [a, b, c, d, e]")
	}
	a := coeffs[0]
	if a == 0 {
		return nil, ErrZeroLeadingCoeff
	}
	b := coeffs[1] / a
	c := coeffs[2] / a
	d := coeffs[3] / a
	e := coeffs[4] / a
	tol := math.Pow(10, -tolerance)
	scale := math.Max(1, math.Max(math.Max(math.Abs(b), math.Abs(c)), math.Max(math.Abs(d), math.Abs(e))))
	near := func(x float64) bool { return math.Abs(x) <= tol*scale }

	// Depressed form y⁴ + p·y² + q·y + r with x = y - b/4.
	shift := b / 4
	p := c - 3*b*b/8
	q := d - b*c/2 + b*b*b/8
	r := e - b*d/4 + b*b*c/16 - 3*b*b*b*b/256

	back := func(y complex128) complex128 { return y - complex(shift, 0) }

	if near(p) && near(q) && near(r) {
		// Four equal roots.
		root := back(0)
		return []complex128{root, root, root, root}, nil
	}
	if near(q) {
		// Biquadratic: two quadratics in y², covers the double-pair cases.
		zs, err := SolveQuadratic([]float64{1, p, r})
		if err != nil {
			return nil, err
		}
		out := make([]complex128, 0, 4)
		for _, z := range zs {
			s := cmplx.Sqrt(z)
			out = append(out, back(s), back(-s))
		}
		return sortRealFirst(out), nil
	}
	// Resolvent cubic in z = s²: z³ + 2p·z² + (p²-4r)·z - q² = 0. A real
	// root z > 0 always exists (value at 0 is -q² ≤ 0).
	zs, err := SolveCubic([]float64{1, 2 * p, p*p - 4*r, -q * q}, tolerance)
	if err != nil {
		return nil, err
	}
	z := math.Inf(-1)
	for _, zc := range zs {
		if imag(zc) == 0 && real(zc) > z {
			z = real(zc)
		}
	}
	if z <= 0 {
		return nil, errors.New("scimath: quartic resolvent produced no positive real root")
	}
	s := math.Sqrt(z)
	// y⁴+p·y²+q·y+r = (y²+s·y+A)(y²-s·y+B)
	A := (p + z - q/s) / 2
	B := (p + z + q/s) / 2
	r1, err := SolveQuadratic([]float64{1, s, A})
	if err != nil {
		return nil, err
	}
	r2, err := SolveQuadratic([]float64{1, -s, B})
	if err != nil {
		return nil, err
	}
	out := make([]complex128, 0, 4)
	for _, y := range r1 {
		out = append(out, back(y))
	}
	for _, y := range r2 {
		out = append(out, back(y))
	}
	return sortRealFirst(out), nil
}

func sortRealFirst(roots []complex128) []complex128 {
	out := make([]complex128, 0, len(roots))
	for _, z := range roots {
		if imag(z) == 0 {
			out = append(out, z)
		}
	}
	for _, z := range roots {
		if imag(z) != 0 {
			out = append(out, z)
		}
	}
	return out
}

// DurandKerner finds all roots of a polynomial of any degree by simultaneous
// iteration. NewDurandKerner sets the tolerances and the iteration cap; with
// the zero value MaxIter is 0 and Solve returns the seeds unrefined with
// ErrNoConvergence. Seeds default to the power sequence of 0.4+0.9i.
type DurandKerner struct {
	InitValues []complex128 // optional explicit seeds
	AbsTol     float64
	RelTol     float64
	MaxIter    int
}

// NewDurandKerner returns a solver with the library defaults.
func NewDurandKerner() *DurandKerner {
	return &DurandKerner{AbsTol: 1e-14, RelTol: 1e-14, MaxIter: 1000}
}

// SeedsPower returns the classic exponential seeds c, c², ..., cⁿ with
// c = 0.4+0.9i, which is neither real nor a root of unity.
func SeedsPower(n int) []complex128 {
	c := complex(0.4, 0.9)
	out := make([]complex128, n)
	z := complex(1, 0)
	for i := range out {
		z *= c
		out[i] = z
	}
	return out
}

// SeedsCircle distributes the seeds on the Cauchy root-bound circle
// R = 1 + max|a_i/a_0|.
func SeedsCircle(coeffs []float64) []complex128 {
	n := len(coeffs) - 1
	bound := 0.0
	for _, c := range coeffs[1:] {
		if v := math.Abs(c / coeffs[0]); v > bound {
			bound = v
		}
	}
	radius := 1 + bound
	out := make([]complex128, n)
	for i := range out {
		// Offset by half a slot so no seed starts on the real axis.
		θ := 2 * math.Pi * (float64(i) + 0.5) / float64(n)
		out[i] = cmplx.Rect(radius, θ)
	}
	return out
}

// SeedsHomotopy picks the roots of the homotopic start polynomial
// a·(xⁿ - c) with c from the trailing coefficient, deforming the simple
// problem toward the target one.
func SeedsHomotopy(coeffs []float64, a float64) []complex128 {
	n := len(coeffs) - 1
	cn := coeffs[len(coeffs)-1] / coeffs[0]
	radius := math.Pow(math.Abs(1-a)*math.Abs(cn)+a, 1/float64(n))
	if radius == 0 {
		radius = 1
	}
	phase := 0.0
	if cn > 0 {
		phase = math.Pi / float64(n)
	}
	out := make([]complex128, n)
	for i := range out {
		θ := phase + 2*math.Pi*float64(i)/float64(n)
		out[i] = cmplx.Rect(radius, θ)
	}
	return out
}

// Solve runs the simultaneous iteration
//
//	z_i ← z_i - p(z_i)/Π_{j≠i}(z_i - z_j)
//
// until max|Δz| ≤ atol + rtol·max|z| or the cap. On cap exhaustion the
// current estimates are returned with ErrNoConvergence; the caller decides
// whether to retry from another seeding.
func (dk *DurandKerner) Solve(coeffs []float64) ([]complex128, error) {
	if len(coeffs) < 2 {
		return nil, errors.New("scimath: polynomial must have degree at least 1")
	}
	if coeffs[0] == 0 {
		return nil, ErrZeroLeadingCoeff
	}
	n := len(coeffs) - 1
	z := dk.InitValues
	if len(z) != n {
		z = SeedsPower(n)
	} else {
		z = append([]complex128(nil), z...)
	}
	poly := Polynomial{Coefficients: coeffs}
	lead := complex(coeffs[0], 0)
	for iter := 0; iter < dk.MaxIter; iter++ {
		maxStep, maxMag := 0.0, 0.0
		for i := range z {
			den := lead
			for j := range z {
				if j != i {
					den *= z[i] - z[j]
				}
			}
			if den == 0 {
				// Coincident estimates: nudge apart instead of dividing by zero.
				z[i] += complex(1e-8, 1e-8)
				continue
			}
			dz := poly.AtC(z[i]) / den
			z[i] -= dz
			if s := cmplx.Abs(dz); s > maxStep {
				maxStep = s
			}
			if m := cmplx.Abs(z[i]); m > maxMag {
				maxMag = m
			}
		}
		if maxStep <= dk.AbsTol+dk.RelTol*maxMag {
			return z, nil
		}
	}
	return z, ErrNoConvergence
}

// SolvePoly dispatches on the degree: closed forms through the quartic,
// Durand-Kerner beyond, retrying from the circular and homotopic seedings
// when the default seeds stall.
func SolvePoly(coeffs []float64) ([]complex128, error) {
	switch len(coeffs) {
	case 0, 1:
		return nil, errors.New("scimath: polynomial must have degree at least 1")
	case 2:
		return SolveLinear(coeffs)
	case 3:
		return SolveQuadratic(coeffs)
	case 4:
		return SolveCubic(coeffs, 10)
	case 5:
		return SolveQuartic(coeffs, 10)
	}
	dk := NewDurandKerner()
	roots, err := dk.Solve(coeffs)
	if err == nil {
		return roots, nil
	}
	dk.InitValues = SeedsCircle(coeffs)
	if roots, err = dk.Solve(coeffs); err == nil {
		return roots, nil
	}
	dk.InitValues = SeedsHomotopy(coeffs, 0.5)
	roots, err = dk.Solve(coeffs)
	return roots, err
}

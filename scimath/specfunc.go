// Package scimath implements the numerical toolbox of the CSpaceEngine core:
// special functions, adaptive differentiation, quadrature, Runge-Kutta ODE
// integration, Brent minimization, inverse-function evaluation and polynomial
// root finding. All solvers are stateless per call; the coefficient tables in
// this package are immutable after initialization and safe to share.
package scimath

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrDuplicateNodes is returned when a Vandermonde system is built from
// coinciding nodes and therefore cannot be inverted.
var ErrDuplicateNodes = errors.New("scimath: duplicate nodes in Vandermonde system")

// ErrSingular is returned when a linear solve meets a singular matrix.
var ErrSingular = errors.New("scimath: singular system")

const nodeε = 1e-14

// ElementarySymmetricPolynomial returns (e_0, e_1, ..., e_n) for the inputs
// x_1..x_n, with e_0 = 1. Dynamic programming over the recurrence
// e_k(x_1..x_j) = e_k(x_1..x_{j-1}) + x_j*e_{k-1}(x_1..x_{j-1}), so the whole
// table costs O(n²).
func ElementarySymmetricPolynomial(v []float64) []float64 {
	e := make([]float64, len(v)+1)
	e[0] = 1
	for j, x := range v {
		for k := j + 1; k > 0; k-- {
			e[k] += x * e[k-1]
		}
	}
	return e
}

// Vandermonde returns the n×n matrix V with V[p][q] = x_q^p for the given
// nodes x_0..x_{n-1}.
func Vandermonde(v []float64) *mat.Dense {
	n := len(v)
	m := mat.NewDense(n, n, nil)
	for q, x := range v {
		pow := 1.0
		for p := 0; p < n; p++ {
			m.Set(p, q, pow)
			pow *= x
		}
	}
	return m
}

// InverseVandermonde builds the inverse of Vandermonde(v) in closed form from
// elementary symmetric polynomials over the node subsets; row p is
// (-1)^(n-1-q)·e_{n-1-q}(v \ {x_p}) / Π_{i≠p}(x_p - x_i). This avoids the
// notorious conditioning of a generic LU solve on Vandermonde systems.
// Returns ErrDuplicateNodes if two nodes coincide.
func InverseVandermonde(v []float64) (*mat.Dense, error) {
	n := len(v)
	inv := mat.NewDense(n, n, nil)
	sub := make([]float64, 0, n-1)
	for p := 0; p < n; p++ {
		sub = sub[:0]
		denom := 1.0
		for i, x := range v {
			if i == p {
				continue
			}
			d := v[p] - x
			if math.Abs(d) < nodeε {
				return nil, ErrDuplicateNodes
			}
			denom *= d
			sub = append(sub, x)
		}
		e := ElementarySymmetricPolynomial(sub)
		for q := 0; q < n; q++ {
			num := e[n-1-q]
			if (n-1-q)%2 != 0 {
				num = -num
			}
			inv.Set(p, q, num/denom)
		}
	}
	return inv, nil
}

// SolveLU solves a·x = b by LU factorization with partial pivoting.
// Returns ErrSingular when the factorization detects an (effectively)
// singular matrix.
func SolveLU(a *mat.Dense, b []float64) ([]float64, error) {
	var lu mat.LU
	lu.Factorize(a)
	n := len(b)
	x := mat.NewVecDense(n, nil)
	if err := lu.SolveVecTo(x, false, mat.NewVecDense(n, b)); err != nil {
		return nil, ErrSingular
	}
	out := make([]float64, n)
	copy(out, x.RawVector().Data)
	return out, nil
}

// Comb returns the binomial coefficient C(n, k).
func Comb(n, k uint64) uint64 {
	if k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	c := uint64(1)
	for i := uint64(0); i < k; i++ {
		c = c * (n - i) / (i + 1)
	}
	return c
}

// LegendrePolynomialCoefficients returns the coefficients of the degree-n
// Legendre polynomial of the first kind, descending order, zeros for the
// missing parities. Closed form from the Rodrigues expansion:
//
//	P_n(x) = Σ_{k=0..⌊n/2⌋} (-1)^k (2n-2k)! / (2^n k! (n-k)! (n-2k)!) x^(n-2k)
func LegendrePolynomialCoefficients(n uint64) []float64 {
	coeffs := make([]float64, n+1)
	for k := uint64(0); k <= n/2; k++ {
		num := factorial(2*n - 2*k)
		den := math.Exp2(float64(n)) * factorial(k) * factorial(n-k) * factorial(n-2*k)
		c := num / den
		if k%2 != 0 {
			c = -c
		}
		coeffs[2*k] = c // index 2k holds the x^(n-2k) term in descending order
	}
	return coeffs
}

func factorial(n uint64) float64 {
	f := 1.0
	for i := uint64(2); i <= n; i++ {
		f *= float64(i)
	}
	return f
}

// StieltjesPolynomialCoefficients returns the monomial coefficients of the
// Stieltjes polynomial E_{n+1} (descending order, n+2 entries), the unique
// polynomial of degree n+1 with the same leading coefficient as P_{n+1}
// satisfying Patterson's orthogonality conditions
//
//	∫_{-1}^{1} E_{n+1}(x) P_n(x) x^k dx = 0,  k = 0..n.
//
// E_{n+1} has the parity of n+1; the conditions of matching parity are
// trivially satisfied, the remaining ones form a square linear system in the
// non-zero coefficients which is solved by LU.
func StieltjesPolynomialCoefficients(n uint64) ([]float64, error) {
	deg := n + 1
	pn := LegendrePolynomialCoefficients(n)
	lead := LegendrePolynomialCoefficients(deg)[0]

	// Unknown coefficients sit at descending indices deg-2j (same parity as
	// deg); the leading one is pinned to match P_{n+1}.
	idx := make([]int, 0, deg/2+1)
	for j := 0; int(deg)-2*j >= 0; j++ {
		idx = append(idx, 2*j)
	}
	u := len(idx) - 1 // unknowns beyond the pinned leading coefficient
	if u == 0 {
		out := make([]float64, deg+1)
		out[0] = lead
		return out, nil
	}

	// Condition k and coefficient index have matched parities; enumerate the
	// non-trivial conditions only.
	a := mat.NewDense(u, u, nil)
	b := make([]float64, u)
	row := 0
	for k := uint64(0); k <= n && row < u; k++ {
		// ∫ x^(deg-2j) P_n(x) x^k dx: non-zero only when deg-2j+k+n is even.
		if (deg+k+n)%2 != 0 {
			continue
		}
		for col := 1; col < len(idx); col++ {
			a.Set(row, col-1, momentLegendre(pn, int(deg)-idx[col], int(k)))
		}
		b[row] = -lead * momentLegendre(pn, int(deg), int(k))
		row++
	}
	sol, err := SolveLU(a, b)
	if err != nil {
		return nil, err
	}
	out := make([]float64, deg+1)
	out[0] = lead
	for col := 1; col < len(idx); col++ {
		out[idx[col]] = sol[col-1]
	}
	return out, nil
}

// momentLegendre computes ∫_{-1}^{1} x^p · P(x) · x^k dx for P given by its
// descending coefficients.
func momentLegendre(p []float64, xp, k int) float64 {
	deg := len(p) - 1
	sum := 0.0
	for i, c := range p {
		if c == 0 {
			continue
		}
		m := (deg - i) + xp + k
		if m%2 == 0 {
			sum += c * 2 / float64(m+1)
		}
	}
	return sum
}

// BellPolynomialsTriangularArray fills the triangular table of incomplete
// Bell polynomials B_{n,k}(x_1..x_{n-k+1}) for n,k = 0..m where m = len(x),
// by the recurrence
//
//	B_{n+1,k+1} = Σ_{i=0..n-k} C(n,i)·x_{i+1}·B_{n-i,k}
//
// Entry (n,k) of the returned matrix is B_{n,k}; positions outside the
// triangle are NaN.
func BellPolynomialsTriangularArray(x []float64) *mat.Dense {
	m := len(x)
	tbl := mat.NewDense(m+1, m+1, nil)
	for i := 0; i <= m; i++ {
		for j := 0; j <= m; j++ {
			tbl.Set(i, j, math.NaN())
		}
	}
	tbl.Set(0, 0, 1)
	for n := 1; n <= m; n++ {
		tbl.Set(n, 0, 0)
	}
	for n := 0; n < m; n++ {
		for k := 0; k <= n; k++ {
			var sum float64
			for i := 0; i <= n-k; i++ {
				sum += float64(Comb(uint64(n), uint64(i))) * x[i] * tbl.At(n-i, k)
			}
			tbl.Set(n+1, k+1, sum)
		}
	}
	return tbl
}

package cse

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// PiecewiseQuinticIKE solves the elliptic Kepler equation by a precomputed
// piecewise-quintic fit of E(M) over [0, π]: no loop at evaluation time,
// only a bin lookup and a Horner pass. Building the table costs O(n) once
// per eccentricity; the fit degrades near the parabolic corner, where the
// shared bisection fallback takes over.
type PiecewiseQuinticIKE struct {
	ellipticCommon

	breakpoints []float64  // M at the interval edges, ascending
	coeffs      *mat.Dense // one row of six Taylor coefficients per interval
	kvec        []int      // uniform-M bins → first candidate interval
}

const (
	pqIntervals = 256
	pqBins      = 128
)

// NewPiecewiseQuinticIKE builds the table for eccentricity e.
func NewPiecewiseQuinticIKE(e float64) *PiecewiseQuinticIKE {
	s := &PiecewiseQuinticIKE{ellipticCommon: newEllipticCommon(e)}
	s.buildTable()
	return s
}

// buildTable lays a uniform grid in E, records the matching breakpoints in
// M, and stores the quintic Taylor expansion of the inverse at the lower
// edge of every interval. The inverse derivatives follow from the Lagrange
// reversion chain on f(E) = E - e·sinE.
func (s *PiecewiseQuinticIKE) buildTable() {
	e := s.Eccentricity
	n := pqIntervals
	s.breakpoints = make([]float64, n+1)
	s.coeffs = mat.NewDense(n, 6, nil)
	for i := 0; i <= n; i++ {
		E := math.Pi * float64(i) / float64(n)
		s.breakpoints[i] = E - e*math.Sin(E)
	}
	for i := 0; i < n; i++ {
		E := math.Pi * float64(i) / float64(n)
		sE, cE := math.Sincos(E)
		f1 := 1 - e*cE
		f2 := e * sE
		f3 := e * cE
		f4 := -f2
		f5 := -f3
		g1 := 1 / f1
		g2 := -f2 / (f1 * f1 * f1)
		g3 := (3*f2*f2 - f1*f3) / math.Pow(f1, 5)
		g4 := (-15*f2*f2*f2 + 10*f1*f2*f3 - f1*f1*f4) / math.Pow(f1, 7)
		g5 := (105*math.Pow(f2, 4) - 105*f1*f2*f2*f3 + 10*f1*f1*f3*f3 +
			15*f1*f1*f2*f4 - f1*f1*f1*f5) / math.Pow(f1, 9)
		s.coeffs.SetRow(i, []float64{E, g1, g2 / 2, g3 / 6, g4 / 24, g5 / 120})
	}
	// Bin the breakpoints on a uniform M grid so FindInterval starts its
	// scan next to the answer; the bin pattern tracks where dE/dM steepens.
	s.kvec = make([]int, pqBins+1)
	idx := 0
	for b := 0; b <= pqBins; b++ {
		m := math.Pi * float64(b) / float64(pqBins)
		for idx < n && s.breakpoints[idx+1] < m {
			idx++
		}
		s.kvec[b] = idx
	}
}

// findInterval returns the interval index holding m ∈ [0, π].
func (s *PiecewiseQuinticIKE) findInterval(m float64) int {
	b := int(m / math.Pi * pqBins)
	if b < 0 {
		b = 0
	} else if b >= pqBins {
		b = pqBins - 1
	}
	lo, hi := s.kvec[b], s.kvec[b+1]+1
	if hi > len(s.breakpoints)-1 {
		hi = len(s.breakpoints) - 1
	}
	i := lo + sort.SearchFloat64s(s.breakpoints[lo:hi+1], m) - 1
	if i < lo {
		i = lo
	}
	if i > len(s.breakpoints)-2 {
		i = len(s.breakpoints) - 2
	}
	return i
}

// Solve evaluates the fit; no iteration is involved.
func (s *PiecewiseQuinticIKE) Solve(M Angle) (Angle, error) {
	m, off := reduce(M.ToRadians())
	if s.nearCorner(m) {
		return FromRadians(s.boundaryHandler(m) + off), nil
	}
	neg := m < 0
	if neg {
		m = -m
	}
	i := s.findInterval(m)
	row := s.coeffs.RawRowView(i)
	d := m - s.breakpoints[i]
	E := row[0] + d*(row[1]+d*(row[2]+d*(row[3]+d*(row[4]+d*row[5]))))
	if neg {
		E = -E
	}
	return FromRadians(E + off), nil
}

package scimath

import (
	"math"
	"math/cmplx"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func maxResidual(coeffs []float64, roots []complex128) float64 {
	p := Polynomial{Coefficients: coeffs}
	worst := 0.0
	for _, z := range roots {
		if r := cmplx.Abs(p.AtC(z)); r > worst {
			worst = r
		}
	}
	return worst
}

func TestSolveLinear(t *testing.T) {
	roots, err := SolveLinear([]float64{2, -8})
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(real(roots[0]), 4, 1e-14) {
		t.Fatalf("2x-8=0 solved as %v", roots[0])
	}
	if _, err := SolveLinear([]float64{0, 1}); err == nil {
		t.Fatal("degenerate leading coefficient must fail")
	}
}

func TestSolveQuadratic(t *testing.T) {
	roots, err := SolveQuadratic([]float64{1, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if imag(roots[0]) == 0 {
		t.Fatal("x²+1=0 must have complex roots")
	}
	if maxResidual([]float64{1, 0, 1}, roots) > 1e-12 {
		t.Fatal("residual too large")
	}
}

func TestSolveCubicDistinctReals(t *testing.T) {
	coeffs := []float64{1, -6, 11, -6}
	roots, err := SolveCubic(coeffs, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got := maxResidual(coeffs, roots); got > 1e-12 {
		t.Fatalf("max residual %g", got)
	}
	found := map[int]bool{}
	for _, z := range roots {
		for _, exp := range []float64{1, 2, 3} {
			if scalar.EqualWithinAbs(real(z), exp, 1e-9) && imag(z) == 0 {
				found[int(exp)] = true
			}
		}
	}
	if len(found) != 3 {
		t.Fatalf("expected roots {1,2,3}, got %v", roots)
	}
}

func TestSolveCubicTripleRoot(t *testing.T) {
	// (x-2)³ = x³ - 6x² + 12x - 8
	roots, err := SolveCubic([]float64{1, -6, 12, -8}, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, z := range roots {
		if !scalar.EqualWithinAbs(real(z), 2, 1e-8) || imag(z) != 0 {
			t.Fatalf("triple root branch returned %v", roots)
		}
	}
}

func TestSolveCubicComplexPair(t *testing.T) {
	// x³ - 1 has one real and one conjugate pair; real root listed first.
	coeffs := []float64{1, 0, 0, -1}
	roots, err := SolveCubic(coeffs, 10)
	if err != nil {
		t.Fatal(err)
	}
	if imag(roots[0]) != 0 || !scalar.EqualWithinAbs(real(roots[0]), 1, 1e-12) {
		t.Fatalf("real root %v", roots[0])
	}
	if maxResidual(coeffs, roots) > 1e-12 {
		t.Fatal("residual too large")
	}
}

func TestSolveQuarticFourEqualRoots(t *testing.T) {
	coeffs := []float64{1, -4, 6, -4, 1}
	roots, err := SolveQuartic(coeffs, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, z := range roots {
		if !scalar.EqualWithinAbs(real(z), 1, 1e-10) || imag(z) != 0 {
			t.Fatalf("quadruple root branch returned %v", roots)
		}
	}
}

func TestSolveQuarticDistinctReals(t *testing.T) {
	// (x-1)(x-2)(x-3)(x-4) = x⁴ - 10x³ + 35x² - 50x + 24
	coeffs := []float64{1, -10, 35, -50, 24}
	roots, err := SolveQuartic(coeffs, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got := maxResidual(coeffs, roots); got > 1e-8 {
		t.Fatalf("max residual %g", got)
	}
	for _, z := range roots {
		if imag(z) != 0 {
			t.Fatalf("expected all real roots, got %v", roots)
		}
	}
}

func TestSolveQuarticComplexPairs(t *testing.T) {
	// (x²+1)(x²+4) = x⁴ + 5x² + 4
	coeffs := []float64{1, 0, 5, 0, 4}
	roots, err := SolveQuartic(coeffs, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got := maxResidual(coeffs, roots); got > 1e-10 {
		t.Fatalf("max residual %g", got)
	}
	reals := 0
	for _, z := range roots {
		if imag(z) == 0 {
			reals++
		}
	}
	if reals != 0 {
		t.Fatalf("expected two conjugate pairs, got %v", roots)
	}
}

func TestSolveQuarticMixedRoots(t *testing.T) {
	// (x-1)(x-2)(x²+1): a double dose of reals and one conjugate pair,
	// through the resolvent-cubic path.
	coeffs := []float64{1, -3, 3, -3, 2}
	roots, err := SolveQuartic(coeffs, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got := maxResidual(coeffs, roots); got > 1e-8 {
		t.Fatalf("max residual %g", got)
	}
	reals := 0
	for _, z := range roots {
		if imag(z) == 0 {
			reals++
		}
	}
	if reals != 2 {
		t.Fatalf("expected two real roots, got %v", roots)
	}
}

func TestDurandKernerQuintic(t *testing.T) {
	// x⁵ - 1: the five fifth roots of unity.
	coeffs := []float64{1, 0, 0, 0, 0, -1}
	roots, err := SolvePoly(coeffs)
	if err != nil {
		t.Fatal(err)
	}
	if len(roots) != 5 {
		t.Fatalf("expected 5 roots, got %d", len(roots))
	}
	for _, z := range roots {
		if r := cmplx.Abs(cmplx.Pow(z, 5) - 1); r > 1e-10 {
			t.Fatalf("|z⁵-1| = %g for root %v", r, z)
		}
	}
}

func TestDurandKernerSeedings(t *testing.T) {
	coeffs := []float64{2, -3, 0, 0, 7, -1, 5}
	for name, seeds := range map[string][]complex128{
		"power":    SeedsPower(6),
		"circle":   SeedsCircle(coeffs),
		"homotopy": SeedsHomotopy(coeffs, 0.5),
	} {
		dk := NewDurandKerner()
		dk.InitValues = seeds
		roots, err := dk.Solve(coeffs)
		if err != nil {
			t.Fatalf("%s seeding: %v", name, err)
		}
		norm := 0.0
		for _, c := range coeffs {
			norm += math.Abs(c)
		}
		if got := maxResidual(coeffs, roots); got > 1e-8*norm {
			t.Fatalf("%s seeding: residual %g", name, got)
		}
	}
}

func TestSolvePolyDispatch(t *testing.T) {
	for _, tc := range [][]float64{
		{3, 1},
		{1, -1, -6},
		{1, -6, 11, -6},
		{1, -10, 35, -50, 24},
		{1, 0, 0, 0, 0, 0, -64},
	} {
		roots, err := SolvePoly(tc)
		if err != nil {
			t.Fatalf("%v: %v", tc, err)
		}
		if len(roots) != len(tc)-1 {
			t.Fatalf("%v: %d roots", tc, len(roots))
		}
		if got := maxResidual(tc, roots); got > 1e-7 {
			t.Fatalf("%v: residual %g", tc, got)
		}
	}
}

package scimath

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

func TestGaussKronrodSin(t *testing.T) {
	gk := NewGaussKronrod()
	got := gk.Integrate(math.Sin, 0, math.Pi)
	if !scalar.EqualWithinAbs(got, 2, 1e-12) {
		t.Fatalf("∫sin over [0,π] = %.15f", got)
	}
}

func TestGaussKronrodGaussian(t *testing.T) {
	gk := NewGaussKronrod()
	got := gk.Integrate(func(x float64) float64 { return math.Exp(-x * x) }, 0, math.Inf(1))
	if !scalar.EqualWithinAbs(got, math.Sqrt(math.Pi)/2, 1e-10) {
		t.Fatalf("∫exp(-x²) over [0,∞) = %.15f", got)
	}
}

func TestGaussKronrodReversedAndNegativeInfinity(t *testing.T) {
	gk := NewGaussKronrod()
	if got := gk.Integrate(math.Sin, math.Pi, 0); !scalar.EqualWithinAbs(got, -2, 1e-12) {
		t.Fatalf("reversed bounds: %f", got)
	}
	got := gk.Integrate(func(x float64) float64 { return math.Exp(x) }, math.Inf(-1), 0)
	if !scalar.EqualWithinAbs(got, 1, 1e-10) {
		t.Fatalf("∫exp over (-∞,0] = %.15f", got)
	}
}

func TestGaussKronrod15(t *testing.T) {
	gk, err := NewGaussKronrodN(15)
	if err != nil {
		t.Fatal(err)
	}
	got := gk.Integrate(func(x float64) float64 { return x * x * math.Exp(-x) }, 0, 10)
	exp := 2 - 122*math.Exp(-10) // ∫x²e⁻ˣ = -(x²+2x+2)e⁻ˣ
	if !scalar.EqualWithinAbs(got, exp, 1e-10) {
		t.Fatalf("K15 = %.15f instead of %.15f", got, exp)
	}
}

func TestGaussOnly(t *testing.T) {
	gk := NewGaussKronrod()
	gk.GaussOnly = true
	got := gk.Integrate(math.Cos, 0, 1)
	if !scalar.EqualWithinAbs(got, math.Sin(1), 1e-10) {
		t.Fatalf("Gauss-only ∫cos = %.15f", got)
	}
}

func TestRiemannLiouvilleIntegral(t *testing.T) {
	// First integral of x anchored at F(0)=0 is x²/2.
	r := NewRiemannLiouvilleIntegral(func(x float64) float64 { return x }, 1)
	if got := r.At(2); !scalar.EqualWithinAbs(got, 2, 1e-10) {
		t.Fatalf("I¹x at 2 = %f", got)
	}
	// Half integral of 1 is 2·sqrt(x/π).
	rh := NewRiemannLiouvilleIntegral(func(x float64) float64 { return 1 }, 0.5)
	exp := 2 * math.Sqrt(1/math.Pi)
	if got := rh.At(1); !scalar.EqualWithinAbs(got, exp, 1e-4) {
		t.Fatalf("I^½ 1 at 1 = %f instead of %f", got, exp)
	}
	if !math.IsNaN((&RiemannLiouvilleIntegral{F: math.Sin, Order: 0}).At(1)) {
		t.Fatal("non-positive order must return NaN")
	}
}

func TestNewtonCotesSingle(t *testing.T) {
	f := func(x float64) float64 { return x * x }
	for level := 2; level <= 8; level++ {
		nc := NewtonCotes{Level: level}
		got, err := nc.SingleIntegrate(EvenlySpacedSamples(f, 0, 1, level))
		if err != nil {
			t.Fatal(err)
		}
		if !scalar.EqualWithinAbs(got, 1./3, 1e-12) {
			t.Fatalf("level %d: ∫x² = %.15f", level, got)
		}
	}
}

func TestNewtonCotesComposite(t *testing.T) {
	nc := NewtonCotes{Level: 4}
	got, err := nc.CompositeIntegrate(EvenlySpacedSamples(math.Sin, 0, math.Pi, 64))
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(got, 2, 1e-8) {
		t.Fatalf("composite ∫sin = %.15f", got)
	}
}

func TestTrapezoidalUneven(t *testing.T) {
	samples := []Sample{{0, 0}, {0.5, 0.5}, {2, 2}, {3, 3}}
	got, err := Trapezoidal(samples)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(got, 4.5, 1e-12) {
		t.Fatalf("trapezoid over y=x = %f", got)
	}
}

func TestSimpsonEvenCount(t *testing.T) {
	// Six samples (five intervals) trigger the corrected tail.
	samples := EvenlySpacedSamples(func(x float64) float64 { return x * x }, 0, 1, 5)
	got, err := Simpson(samples)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(got, 1./3, 1e-12) {
		t.Fatalf("Simpson with even sample count = %.15f", got)
	}
}

func TestRomberg(t *testing.T) {
	samples := EvenlySpacedSamples(math.Sin, 0, math.Pi, 16)
	var tbl mat.Dense
	got, err := Romberg(samples, &tbl)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(got, 2, 1e-8) {
		t.Fatalf("Romberg ∫sin = %.15f", got)
	}
	if r, c := tbl.Dims(); r != 5 || c != 5 {
		t.Fatalf("extrapolation table is %dx%d", r, c)
	}
	if _, err := Romberg(EvenlySpacedSamples(math.Sin, 0, 1, 6), nil); err == nil {
		t.Fatal("sample count 7 is not 2^N+1 and must fail")
	}
}

package scimath

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestBisection(t *testing.T) {
	cube := func(x float64) float64 { return x * x * x }
	bi := NewBisection(cube, 0, 3)
	if got := bi.At(8); !scalar.EqualWithinAbs(got, 2, 1e-9) {
		t.Fatalf("cube root of 8 = %.12f", got)
	}
	if !math.IsNaN(bi.At(100)) {
		t.Fatal("target outside the interval image must return NaN")
	}
}

func TestNewtonAndHalley(t *testing.T) {
	f := func(x float64) float64 { return x*x*x - 2*x }
	df := func(x float64) float64 { return 3*x*x - 2 }
	d2f := func(x float64) float64 { return 6 * x }
	// x³ - 2x = 5 has the real solution near 2.09455148.
	xn, err := Newton(f, df, 5, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(f(xn), 5, 1e-9) {
		t.Fatalf("Newton residual %g", f(xn)-5)
	}
	xh, err := Halley(f, df, d2f, 5, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(xh, xn, 1e-8) {
		t.Fatalf("Halley %f disagrees with Newton %f", xh, xn)
	}
}

func TestHouseholderThirdOrder(t *testing.T) {
	f := func(x float64) float64 { return math.Exp(x) }
	ho, err := NewHouseholder([]Function1D{f, f, f}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := ho.At(10); !scalar.EqualWithinAbs(got, math.Log(10), 1e-9) {
		t.Fatalf("exp⁻¹(10) = %.12f instead of %.12f", got, math.Log(10))
	}
	if _, err := NewHouseholder([]Function1D{f}, 0); err == nil {
		t.Fatal("a derivative is required")
	}
}

func TestBrentInverseExp(t *testing.T) {
	inv := NewBrentInverse(math.Exp)
	inv.Range = [2]float64{0, math.Inf(1)}
	if got := inv.At(10); !scalar.EqualWithinAbs(got, math.Log(10), 1e-6) {
		t.Fatalf("Brent inverse of exp at 10 = %.9f", got)
	}
	if !math.IsNaN(inv.At(-1)) {
		t.Fatal("values outside the range must return NaN")
	}
}

func TestBrentInverseBoundedDomain(t *testing.T) {
	inv := NewBrentInverse(math.Cos)
	inv.Domain = [2]float64{0, math.Pi}
	inv.Range = [2]float64{-1, 1}
	if got := inv.At(0); !scalar.EqualWithinAbs(got, math.Pi/2, 1e-6) {
		t.Fatalf("arccos(0) = %.9f", got)
	}
}

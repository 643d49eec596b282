package scimath

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestBrentParabola(t *testing.T) {
	f := func(x float64) float64 { return (x-2)*(x-2) + 1 }
	bm := NewBrentMinimizer()
	x, fx, err := bm.Minimize(f)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(x, 2, 1e-7) {
		t.Fatalf("minimum at %f instead of 2", x)
	}
	if !scalar.EqualWithinAbs(fx, 1, 1e-10) {
		t.Fatalf("minimum value %f instead of 1", fx)
	}
}

func TestBrentWithSeedTriple(t *testing.T) {
	f := math.Cos // minimum at π on (0, 2π)
	bm := NewBrentMinimizer()
	x, _, err := bm.Minimize(f, 2, 3, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(x, math.Pi, 1e-7) {
		t.Fatalf("cos minimum at %f instead of π", x)
	}
}

func TestBracketRejectsMonotone(t *testing.T) {
	if _, err := CreateBracket(func(x float64) float64 { return x }, 0, 1, 110, 50); err == nil {
		t.Fatal("a monotone function has no bracket")
	}
}

func TestBracketValidTriple(t *testing.T) {
	f := func(x float64) float64 { return x * x }
	br, err := BracketFromPoints(f, []float64{-2, 0.5, 2})
	if err != nil {
		t.Fatal(err)
	}
	if !(br.XA < br.XB && br.XB < br.XC) || !(br.FB < br.FA && br.FB < br.FC) {
		t.Fatalf("invalid bracket %+v", br)
	}
	if _, err := BracketFromPoints(f, []float64{0.5, 1.5, 2}); err == nil {
		t.Fatal("f is increasing on the triple, bracket must fail")
	}
}

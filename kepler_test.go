package cse

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

// Forward and inverse Kepler are mutual inverses across the elliptic
// eccentricity range.
func TestInverseKeplerRoundTrip(t *testing.T) {
	for _, e := range []float64{0, 0.1, 0.3, 0.5, 0.7, 0.9, 0.95, 0.99} {
		for m := -math.Pi; m <= math.Pi; m += math.Pi / 16 {
			M := FromRadians(m)
			E, err := InverseKepler(e, M)
			if err != nil {
				t.Fatalf("e=%f M=%f: %v", e, m, err)
			}
			back := KeplerElliptic(e, E)
			if math.Abs(back.ToRadians()-m) > 1e-12 {
				t.Fatalf("e=%f M=%.15f round-trips to %.15f", e, m, back.ToRadians())
			}
		}
	}
}

func TestInverseKeplerHighEccentricity(t *testing.T) {
	// e = 0.95, M = 0.1 rad.
	E, err := InverseKepler(0.95, FromRadians(0.1))
	if err != nil {
		t.Fatal(err)
	}
	ERad := E.ToRadians()
	if res := math.Abs(ERad - 0.95*math.Sin(ERad) - 0.1); res > 1e-12 {
		t.Fatalf("residual %g", res)
	}
}

func TestInverseKeplerNearParabolicCorner(t *testing.T) {
	// The corner e > 0.99, |M| < 0.0045 goes through bisection.
	for _, m := range []float64{0.004, -0.004, 0.0001} {
		E, err := InverseKepler(0.995, FromRadians(m))
		if err != nil {
			t.Fatal(err)
		}
		ERad := E.ToRadians()
		if res := math.Abs(ERad - 0.995*math.Sin(ERad) - m); res > 1e-11 {
			t.Fatalf("M=%f: residual %g", m, res)
		}
	}
}

func TestMarkleySolver(t *testing.T) {
	s := NewMarkleyIKE(0.7)
	for m := -3.0; m <= 3.0; m += 0.25 {
		E, err := s.Solve(FromRadians(m))
		if err != nil {
			t.Fatal(err)
		}
		ERad := E.ToRadians()
		if res := math.Abs(ERad - 0.7*math.Sin(ERad) - m); res > 1e-10 {
			t.Fatalf("M=%f: residual %g", m, res)
		}
	}
}

func TestPiecewiseQuinticSolver(t *testing.T) {
	for _, e := range []float64{0.1, 0.5, 0.9} {
		s := NewPiecewiseQuinticIKE(e)
		for m := -3.0; m <= 3.0; m += 0.137 {
			E, err := s.Solve(FromRadians(m))
			if err != nil {
				t.Fatal(err)
			}
			ERad := E.ToRadians()
			if res := math.Abs(ERad - e*math.Sin(ERad) - m); res > 1e-8 {
				t.Fatalf("e=%f M=%f: residual %g", e, m, res)
			}
		}
	}
}

func TestInverseKeplerOutsidePrincipalRange(t *testing.T) {
	// E(M + 2kπ) = E(M) + 2kπ.
	e := 0.4
	E0, _ := InverseKepler(e, FromRadians(1))
	E1, _ := InverseKepler(e, FromRadians(1+4*math.Pi))
	if !scalar.EqualWithinAbs(E1.ToRadians()-E0.ToRadians(), 4*math.Pi, 1e-10) {
		t.Fatalf("recentring broken: %f vs %f", E0.ToRadians(), E1.ToRadians())
	}
}

func TestParabolicKepler(t *testing.T) {
	for _, m := range []float64{-2, -0.5, 0, 0.5, 2, 10} {
		E, err := NewParabolicIKE().Solve(FromRadians(m))
		if err != nil {
			t.Fatal(err)
		}
		back := KeplerParabolic(E)
		if !scalar.EqualWithinAbs(back.ToRadians(), m, 1e-10) {
			t.Fatalf("M=%f round-trips to %f", m, back.ToRadians())
		}
	}
}

func TestHyperbolicKepler(t *testing.T) {
	for _, e := range []float64{1.05, 1.2, 2, 5, 10} {
		s := NewHyperbolicIKE(e)
		for _, m := range []float64{-50, -1, -1e-3, 0, 1e-3, 0.1, 1, 10, 100, 1e4} {
			H, err := s.Solve(FromRadians(m))
			if err != nil {
				t.Fatalf("e=%f M=%g: %v", e, m, err)
			}
			HRad := H.ToRadians()
			res := math.Abs(e*math.Sinh(HRad) - HRad - m)
			tol := 1e-11 * math.Max(1, math.Abs(m))
			if res > tol {
				t.Fatalf("e=%f M=%g: residual %g", e, m, res)
			}
		}
	}
}

func TestKeplerDispatch(t *testing.T) {
	if TypeFromEccentricity(0.5) != Elliptic ||
		TypeFromEccentricity(1) != Parabolic ||
		TypeFromEccentricity(1.5) != Hyperbolic {
		t.Fatal("conic classification broken")
	}
	// The forward dispatch must agree with the regime functions.
	E := FromRadians(0.7)
	if !anglesEqual(Kepler(0.3, E), KeplerElliptic(0.3, E)) {
		t.Fatal("elliptic dispatch")
	}
	if !anglesEqual(Kepler(1, E), KeplerParabolic(E)) {
		t.Fatal("parabolic dispatch")
	}
	if !anglesEqual(Kepler(2, E), KeplerHyperbolic(2, E)) {
		t.Fatal("hyperbolic dispatch")
	}
}

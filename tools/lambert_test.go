package tools

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"

	cse "github.com/StellarDX/cse-go"
)

const sunμ = 1.327e20

// Quarter-turn heliocentric transfer in 90 days.
func TestLambertZeroRev(t *testing.T) {
	r1 := [3]float64{1.5e11, 0, 0}
	r2 := [3]float64{0, 1.5e11, 0}
	tof := 90. * 86400
	sols, err := Lambert(r1, r2, tof, sunμ, Prograde, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(sols) != 1 {
		t.Fatalf("expected the single zero-revolution solution, got %d", len(sols))
	}
	sol := sols[0]
	if sol.Revolutions != 0 {
		t.Fatalf("revolutions = %d", sol.Revolutions)
	}

	// Both terminal velocities lie in the same orbital plane: the angular
	// momenta are parallel.
	h1 := cross(r1[:], sol.V1[:])
	h2 := cross(r2[:], sol.V2[:])
	h1n, h2n := norm(h1), norm(h2)
	cosAngle := (h1[0]*h2[0] + h1[1]*h2[1] + h1[2]*h2[2]) / (h1n * h2n)
	if !scalar.EqualWithinAbs(cosAngle, 1, 1e-9) {
		t.Fatalf("angular momenta misaligned: cos = %.12f", cosAngle)
	}
	if !scalar.EqualWithinRel(h1n, h2n, 1e-9) {
		t.Fatalf("|h| differs: %g vs %g", h1n, h2n)
	}
	// Same specific energy at both ends.
	ε1 := dot3(sol.V1)/2 - sunμ/norm(r1[:])
	ε2 := dot3(sol.V2)/2 - sunμ/norm(r2[:])
	if !scalar.EqualWithinRel(ε1, ε2, 1e-9) {
		t.Fatalf("energy mismatch: %g vs %g", ε1, ε2)
	}
	// Prograde quarter turn: h points along +z.
	if h1[2] <= 0 {
		t.Fatal("prograde transfer must have +z angular momentum")
	}
}

// The element set of the solution reproduces the time of flight through
// Kepler's equation.
func TestLambertTimeOfFlightConsistency(t *testing.T) {
	r1 := [3]float64{1.5e11, 0, 0}
	r2 := [3]float64{0, 1.5e11, 0}
	tof := 90. * 86400
	sols, err := Lambert(r1, r2, tof, sunμ, Prograde, 0)
	if err != nil {
		t.Fatal(err)
	}
	sol := sols[0]

	id := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	sv1 := cse.OrbitStateVectors{GravParam: sunμ, Position: r1, Velocity: sol.V1}
	sv2 := cse.OrbitStateVectors{GravParam: sunμ, Position: r2, Velocity: sol.V2}
	el1, err := sv1.KeplerianElems(id)
	if err != nil {
		t.Fatal(err)
	}
	el2, err := sv2.KeplerianElems(id)
	if err != nil {
		t.Fatal(err)
	}
	if ok, reason := el1.Equals(el2); !ok {
		t.Fatalf("endpoints disagree on the conic: %v", reason)
	}
	n := el1.MeanMotion()
	dM := el2.MeanAnomaly.ToRadians() - el1.MeanAnomaly.ToRadians()
	dM = math.Mod(dM, 2*math.Pi)
	if dM < 0 {
		dM += 2 * math.Pi
	}
	if !scalar.EqualWithinRel(dM/n, tof, 1e-6) {
		t.Fatalf("time of flight %f s instead of %f s", dM/n, tof)
	}
}

func TestLambertRetrogradeFlipsPlane(t *testing.T) {
	r1 := [3]float64{1.5e11, 0, 0}
	r2 := [3]float64{0, 1.5e11, 0}
	sols, err := Lambert(r1, r2, 90.*86400, sunμ, Retrograde, 0)
	if err != nil {
		t.Fatal(err)
	}
	h := cross(r1[:], sols[0].V1[:])
	if h[2] >= 0 {
		t.Fatal("retrograde transfer must have -z angular momentum")
	}
}

func TestLambertMultiRev(t *testing.T) {
	r1 := [3]float64{1.5e11, 0, 0}
	r2 := [3]float64{0, 1.5e11, 0}
	// Long enough for two revolutions to fit.
	tof := 3. * 365.25 * 86400
	sols, err := Lambert(r1, r2, tof, sunμ, Prograde, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(sols) < 3 {
		t.Fatalf("expected zero-rev plus left/right pairs, got %d solutions", len(sols))
	}
	// Solutions come in 2N+1 counts at most.
	if len(sols) > 2*5+1 {
		t.Fatalf("too many solutions: %d", len(sols))
	}
	seen := map[int]int{}
	for _, s := range sols {
		seen[s.Revolutions]++
		// Every solution still joins the endpoints' plane.
		h1 := cross(r1[:], s.V1[:])
		h2 := cross(r2[:], s.V2[:])
		cosAngle := (h1[0]*h2[0] + h1[1]*h2[1] + h1[2]*h2[2]) / (norm(h1) * norm(h2))
		if !scalar.EqualWithinAbs(cosAngle, 1, 1e-8) {
			t.Fatalf("N=%d: angular momenta misaligned", s.Revolutions)
		}
	}
	if seen[0] != 1 {
		t.Fatalf("zero-revolution solutions: %d", seen[0])
	}
	if seen[1] != 2 {
		t.Fatalf("N=1 has %d solutions instead of a left/right pair", seen[1])
	}
}

func TestLambertRejectsBadInput(t *testing.T) {
	r := [3]float64{1.5e11, 0, 0}
	if _, err := Lambert(r, r, 0, sunμ, Prograde, 0); err == nil {
		t.Fatal("zero transfer time must fail")
	}
	if _, err := Lambert(r, [3]float64{3e11, 0, 0}, 86400, sunμ, Prograde, 0); err == nil {
		t.Fatal("collinear radii must fail")
	}
	if _, err := Lambert(r, [3]float64{0, 1.5e11, 0}, 86400, 0, Prograde, 0); err == nil {
		t.Fatal("zero μ must fail")
	}
}

func dot3(v [3]float64) float64 { return v[0]*v[0] + v[1]*v[1] + v[2]*v[2] }

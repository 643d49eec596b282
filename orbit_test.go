package cse

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func testElems(q, e, i, Ω, ω, M float64) KeplerianOrbitElems {
	el := NewKeplerianOrbitElems()
	el.RefPlane = "Ecliptic"
	el.Epoch = 2451545.0
	el.GravParam = Earth.GM()
	el.PericenterDist = q
	el.Eccentricity = e
	el.Inclination = FromDegrees(i)
	el.AscendingNode = FromDegrees(Ω)
	el.ArgOfPericenter = FromDegrees(ω)
	el.MeanAnomaly = FromDegrees(M)
	checked, err := el.Validate()
	if err != nil {
		panic(err)
	}
	return checked
}

func TestValidateInvariants(t *testing.T) {
	el := NewKeplerianOrbitElems()
	el.PericenterDist = 7e6
	el.Eccentricity = -0.1
	if _, err := el.Validate(); err == nil {
		t.Fatal("negative eccentricity must be rejected")
	}
	el.Eccentricity = 0.2
	if _, err := el.Validate(); err == nil {
		t.Fatal("μ or period is required")
	}
	// μ derived from the period by Kepler III.
	el.Period = 6000
	checked, err := el.Validate()
	if err != nil {
		t.Fatal(err)
	}
	a := checked.SemiMajorAxis()
	n := 2 * math.Pi / 6000
	if !scalar.EqualWithinRel(checked.GravParam, n*n*a*a*a, 1e-12) {
		t.Fatalf("derived μ = %g", checked.GravParam)
	}
	// Hyperbolic orbits carry an infinite period.
	el = NewKeplerianOrbitElems()
	el.PericenterDist = 7e6
	el.Eccentricity = 1.5
	el.GravParam = Earth.GM()
	checked, err = el.Validate()
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(checked.Period, 1) {
		t.Fatal("hyperbolic period must be infinite")
	}
}

func TestElementsStateVectorsRoundTrip(t *testing.T) {
	cases := []KeplerianOrbitElems{
		testElems(7e6, 0.01, 51.6, 120, 45, 30),
		testElems(7e6, 0.3, 28.5, 300, 120, 200),
		testElems(2.4e7, 0.73, 63.4, 270, 270, 10),
		testElems(6.8e6, 0.0016, 97.8, 15, 88, 110),
	}
	for _, el := range cases {
		sv, err := el.StateVectors(nil)
		if err != nil {
			t.Fatal(err)
		}
		back, err := sv.KeplerianElems(nil)
		if err != nil {
			t.Fatal(err)
		}
		if !scalar.EqualWithinRel(back.PericenterDist, el.PericenterDist, 1e-10) {
			t.Fatalf("q: %g != %g", back.PericenterDist, el.PericenterDist)
		}
		if !scalar.EqualWithinAbs(back.Eccentricity, el.Eccentricity, 1e-10) {
			t.Fatalf("e: %g != %g", back.Eccentricity, el.Eccentricity)
		}
		if !scalar.EqualWithinAbs(back.Inclination.ToRadians(), el.Inclination.ToRadians(), 1e-10) {
			t.Fatalf("i: %g != %g", back.Inclination.ToDegrees(), el.Inclination.ToDegrees())
		}
		if !anglesEqual(el.AscendingNode, back.AscendingNode) {
			t.Fatalf("Ω: %g != %g", back.AscendingNode.ToDegrees(), el.AscendingNode.ToDegrees())
		}
		if !anglesEqual(el.ArgOfPericenter, back.ArgOfPericenter) {
			t.Fatalf("ω: %g != %g", back.ArgOfPericenter.ToDegrees(), el.ArgOfPericenter.ToDegrees())
		}
		dM := math.Mod(back.MeanAnomaly.ToRadians()-el.MeanAnomaly.ToRadians(), 2*math.Pi)
		if dM > math.Pi {
			dM -= 2 * math.Pi
		} else if dM < -math.Pi {
			dM += 2 * math.Pi
		}
		if math.Abs(dM) > 1e-8 {
			t.Fatalf("M: %g != %g", back.MeanAnomaly.ToDegrees(), el.MeanAnomaly.ToDegrees())
		}
	}
}

func TestHyperbolicStateVectors(t *testing.T) {
	el := testElems(7e6, 1.5, 30, 60, 90, 20)
	sv, err := el.StateVectors(nil)
	if err != nil {
		t.Fatal(err)
	}
	back, err := sv.KeplerianElems(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinRel(back.PericenterDist, el.PericenterDist, 1e-9) {
		t.Fatalf("hyperbolic q: %g != %g", back.PericenterDist, el.PericenterDist)
	}
	if !scalar.EqualWithinAbs(back.Eccentricity, 1.5, 1e-9) {
		t.Fatalf("hyperbolic e: %g", back.Eccentricity)
	}
	// Vis-viva check: v² = μ(2/r - 1/a).
	r := norm(sv.Position[:])
	v := norm(sv.Velocity[:])
	a := el.SemiMajorAxis()
	if !scalar.EqualWithinRel(v*v, Earth.GM()*(2/r-1/a), 1e-10) {
		t.Fatal("vis-viva violated")
	}
}

func TestEquinoctialRoundTrip(t *testing.T) {
	el := testElems(7e6, 0.2, 20, 80, 250, 120)
	back := el.Equinoctial().Keplerian()
	if !scalar.EqualWithinAbs(back.Eccentricity, el.Eccentricity, 1e-12) {
		t.Fatalf("e: %g", back.Eccentricity)
	}
	if !scalar.EqualWithinAbs(back.Inclination.ToRadians(), el.Inclination.ToRadians(), 1e-12) {
		t.Fatalf("i: %g", back.Inclination.ToDegrees())
	}
	if !anglesEqual(el.AscendingNode, back.AscendingNode) {
		t.Fatalf("Ω: %g", back.AscendingNode.ToDegrees())
	}
	if !anglesEqual(el.ArgOfPericenter, back.ArgOfPericenter) {
		t.Fatalf("ω: %g", back.ArgOfPericenter.ToDegrees())
	}
	if !anglesEqual(el.MeanAnomaly, back.MeanAnomaly) {
		t.Fatalf("M: %g", back.MeanAnomaly.ToDegrees())
	}
}

func TestOrbitParamsPreservesNoData(t *testing.T) {
	p := OrbitParams{
		RefPlane:       "Equator",
		Epoch:          NoDataDbl,
		PericenterDist: 7e6,
		GravParam:      NoDataDbl,
		Eccentricity:   0.1,
		Inclination:    NoDataDbl,
	}
	el := p.Elems()
	if !IsNoData(el.Epoch) || !IsNoData(el.GravParam) || !el.Inclination.IsNoData() {
		t.Fatal("NoData must survive the conversion in")
	}
	back := el.Params()
	if !IsNoData(back.Epoch) || !IsNoData(back.GravParam) || !IsNoData(back.Inclination) {
		t.Fatal("NoData must survive the conversion out")
	}
	if back.PericenterDist != 7e6 || back.Eccentricity != 0.1 {
		t.Fatal("set fields must survive the round trip")
	}
}

package cse

import (
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

const sampleOEM = `CCSDS_OEM_VERS = 3.0
CREATION_DATE = 2023-09-13T10:00:00
ORIGINATOR = CSE

META_START
COMMENT Sample segment
OBJECT_NAME = TIANHE
OBJECT_ID = 2021-035A
CENTER_NAME = EARTH
REF_FRAME = EME2000
TIME_SYSTEM = UTC
START_TIME = 2023-09-13T00:00:00
USEABLE_START_TIME = 2023-09-13T00:10:00
USEABLE_STOP_TIME = 2023-09-13T00:50:00
STOP_TIME = 2023-09-13T01:00:00
INTERPOLATION = LAGRANGE
INTERPOLATION_DEGREE = 7
META_STOP
2023-09-13T00:00:00 6525.834 1861.875 1448.296 -1.901327 5.533756 -1.976341
2023-09-13T00:15:00 4040.917 5260.591 1220.118 -5.311326 3.120816 -1.791221
2023-09-13T00:30:00 738.447 6575.453 210.312 -7.110111 -0.654321 -0.912345
2023-09-13T00:45:00 -2854.351 5831.641 -890.421 -6.123456 -3.987654 0.812345
2023-09-13T01:00:00 -5432.109 3214.987 -1543.219 -3.456789 -6.234567 1.923456
COVARIANCE_START
EPOCH = 2023-09-13T00:00:00
COV_REF_FRAME = RTN
3.331e-04
4.618e-04 6.782e-04
-3.070e-04 -4.221e-04 3.231e-04
-3.349e-07 -4.686e-07 2.484e-07 4.296e-10
-2.211e-07 -2.864e-07 1.798e-07 2.608e-10 1.767e-10
-3.041e-07 -4.989e-07 3.540e-07 1.869e-10 1.008e-10 6.224e-10
COVARIANCE_STOP
`

func TestOEMParse(t *testing.T) {
	oem, err := OEMFromString(sampleOEM)
	if err != nil {
		t.Fatal(err)
	}
	if oem.OEMVersion != "3.0" || oem.Originator != "CSE" {
		t.Fatalf("header %+v", oem)
	}
	if len(oem.Data) != 1 {
		t.Fatalf("expected one segment, got %d", len(oem.Data))
	}
	seg := oem.Data[0]
	if len(seg.Ephemeris) != 5 {
		t.Fatalf("expected 5 state rows, got %d", len(seg.Ephemeris))
	}
	if len(seg.CovarianceMatrices) != 1 {
		t.Fatalf("expected 1 covariance block, got %d", len(seg.CovarianceMatrices))
	}
	md := seg.MetaData
	if md.ObjectName != "TIANHE" || md.ObjectID != "2021-035A" ||
		md.CenterName != "EARTH" || md.RefFrame != "EME2000" || md.TimeSystem != "UTC" {
		t.Fatalf("metadata %+v", md)
	}
	if md.Interpolation != "LAGRANGE" || md.InterpolaDegrees != 7 {
		t.Fatalf("interpolation %+v", md)
	}
	row := seg.Ephemeris[0]
	if !scalar.EqualWithinAbs(row.Position[0], 6525.834, 1e-9) ||
		!scalar.EqualWithinAbs(row.Velocity[2], -1.976341, 1e-9) {
		t.Fatalf("first row %+v", row)
	}
	if row.HasAccel {
		t.Fatal("7-field rows carry no acceleration")
	}
	cov := seg.CovarianceMatrices[0]
	if cov.RefFrame != "RTN" {
		t.Fatalf("covariance frame %q", cov.RefFrame)
	}
	if !scalar.EqualWithinAbs(cov.Data.At(0, 0), 3.331e-4, 1e-12) {
		t.Fatalf("cov[0][0] = %g", cov.Data.At(0, 0))
	}
	// Symmetric storage mirrors the lower triangle.
	if !scalar.EqualWithinAbs(cov.Data.At(0, 5), cov.Data.At(5, 0), 0) {
		t.Fatal("covariance must be symmetric")
	}
	if !scalar.EqualWithinAbs(cov.Data.At(5, 0), -3.041e-7, 1e-15) {
		t.Fatalf("cov[5][0] = %g", cov.Data.At(5, 0))
	}
}

// print ∘ parse is idempotent: re-parsing the printed form reproduces the
// same message byte for byte.
func TestOEMRoundTrip(t *testing.T) {
	oem, err := OEMFromString(sampleOEM)
	if err != nil {
		t.Fatal(err)
	}
	printed := oem.String()
	back, err := OEMFromString(printed)
	if err != nil {
		t.Fatalf("printed form does not re-parse: %v\n%s", err, printed)
	}
	if back.String() != printed {
		t.Fatal("print ∘ parse is not idempotent")
	}
	if len(back.Data) != 1 || len(back.Data[0].Ephemeris) != 5 ||
		len(back.Data[0].CovarianceMatrices) != 1 {
		t.Fatal("round trip lost data")
	}
}

func TestOEMTenFieldRows(t *testing.T) {
	src := strings.Replace(sampleOEM,
		"2023-09-13T00:00:00 6525.834 1861.875 1448.296 -1.901327 5.533756 -1.976341",
		"2023-09-13T00:00:00 6525.834 1861.875 1448.296 -1.901327 5.533756 -1.976341 1e-6 -2e-6 3e-6", 1)
	oem, err := OEMFromString(src)
	if err != nil {
		t.Fatal(err)
	}
	row := oem.Data[0].Ephemeris[0]
	if !row.HasAccel || !scalar.EqualWithinAbs(row.Acceleration[1], -2e-6, 1e-18) {
		t.Fatalf("acceleration row %+v", row)
	}
}

func TestOEMErrors(t *testing.T) {
	if _, err := OEMFromString("ORIGINATOR = X\n"); err == nil {
		t.Fatal("missing version must fail")
	}
	bad := strings.Replace(sampleOEM, "-1.901327", "not-a-number", 1)
	if _, err := OEMFromString(bad); err == nil {
		t.Fatal("bad state number must fail")
	}
	short := strings.Replace(sampleOEM, " 6.224e-10\n", "\n", 1)
	if _, err := OEMFromString(short); err == nil {
		t.Fatal("a 20-element covariance must fail")
	}
	if _, err := OEMFromString(strings.Replace(sampleOEM,
		"2023-09-13T00:30:00 738.447 6575.453 210.312 -7.110111 -0.654321 -0.912345\n", "", 1)); err != nil {
		t.Fatalf("fewer rows are still valid: %v", err)
	}
}

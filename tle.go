package cse

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/soniakeys/meeus/v3/julian"
)

/* NORAD two-line element sets. Fixed-width parsing against the documented
byte positions; everything is 0-indexed here, the comments carry the usual
1-indexed column numbers. */

// TLE field geometry.
const (
	TLETitleLength = 24
	TLEDataLength  = 69
)

// Line 1 field offsets (0-indexed).
const (
	l1LineNumber     = 0
	l1CatalogNumber  = 2
	l1Classification = 7
	l1COSPARIDYD     = 9
	l1COSPARIDP      = 14
	l1EpochI         = 18
	l1EpochF         = 24
	l1D1MeanMotion   = 33
	l1D2MeanMotion   = 44
	l1BSTAR          = 53
	l1EphemerisType  = 62
	l1ElementSet     = 64
	l1Checksum       = 68
)

// Line 2 field offsets (0-indexed).
const (
	l2LineNumber    = 0
	l2CatalogNumber = 2
	l2Inclination   = 8
	l2AscendingNode = 17
	l2Eccentricity  = 26
	l2ArgOfPericen  = 34
	l2MeanAnomaly   = 43
	l2MeanMotion    = 52
	l2Revolutions   = 63
	l2Checksum      = 68
)

// FormatError reports a TLE or OEM syntax failure with the offending
// location when known.
type FormatError struct {
	Line int // 1-based line number, 0 when unknown
	Pos  int // 1-based byte position, 0 when unknown
	Msg  string
}

func (e *FormatError) Error() string {
	switch {
	case e.Line > 0 && e.Pos > 0:
		return fmt.Sprintf("cse: format error at line %d byte %d: %s", e.Line, e.Pos, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("cse: format error at line %d: %s", e.Line, e.Msg)
	}
	return "cse: format error: " + e.Msg
}

// COSPARID is the international designator of a launch piece.
type COSPARID struct {
	LaunchYear   int // last two digits
	LaunchNumber int
	LaunchPiece  string
}

// SpacecraftBasicData is the non-orbital payload of a TLE.
type SpacecraftBasicData struct {
	CatalogNumber  uint32
	Classification byte // 'U', 'C' or 'S'
	IntDesignator  COSPARID
	D1MeanMotion   float64 // rev/day²
	D2MeanMotion   float64 // rev/day³
	BSTAR          float64 // 1/Earth radii
	EphemerisType  uint32
	ElementSet     uint32
	RevolutionNum  uint32
}

// TLE is a parsed two-line element set: the name line with trailing blanks
// trimmed, and the two 69-byte data lines stored verbatim so printing
// round-trips.
type TLE struct {
	title string
	line1 string
	line2 string
}

// TLEChecksum sums digits as themselves and minus signs as 1 over the first
// 68 bytes, mod 10.
func TLEChecksum(line string) int {
	sum := 0
	for i := 0; i < len(line) && i < TLEDataLength-1; i++ {
		switch c := line[i]; {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

// verifyLine checks length, line-number byte and checksum.
func verifyLine(line string, lineNo int, wantNum byte) error {
	if len(line) != TLEDataLength {
		return &FormatError{Line: lineNo, Msg: fmt.Sprintf("line must be %d bytes, got %d", TLEDataLength, len(line))}
	}
	if line[0] != wantNum {
		return &FormatError{Line: lineNo, Pos: 1, Msg: "wrong line number"}
	}
	want := int(line[l1Checksum] - '0')
	if got := TLEChecksum(line); got != want {
		return &FormatError{Line: lineNo, Pos: l1Checksum + 1,
			Msg: fmt.Sprintf("checksum %d does not match %d", want, got)}
	}
	return nil
}

// TLEFromString parses a name line (optional) plus the two data lines.
func TLEFromString(data string) (TLE, error) {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, strings.TrimRight(l, "\r"))
		}
	}
	var t TLE
	switch len(lines) {
	case 2:
		t.line1, t.line2 = lines[0], lines[1]
	case 3:
		t.title = strings.TrimRight(lines[0], " ")
		t.line1, t.line2 = lines[1], lines[2]
	default:
		return TLE{}, &FormatError{Msg: fmt.Sprintf("expected 2 or 3 lines, got %d", len(lines))}
	}
	if err := verifyLine(t.line1, 1, '1'); err != nil {
		return TLE{}, err
	}
	if err := verifyLine(t.line2, 2, '2'); err != nil {
		return TLE{}, err
	}
	return t, nil
}

// NewTLE builds a set from its three components and validates it.
func NewTLE(name, line1, line2 string) (TLE, error) {
	return TLEFromString(name + "\n" + line1 + "\n" + line2)
}

// IsValid reports whether both lines carry their line numbers and checksums.
func (t TLE) IsValid() bool {
	return verifyLine(t.line1, 1, '1') == nil && verifyLine(t.line2, 2, '2') == nil
}

// SatelliteName returns the (trimmed) name line.
func (t TLE) SatelliteName() string { return t.title }

// Lines returns the raw data lines.
func (t TLE) Lines() (string, string) { return t.line1, t.line2 }

// String prints the set, name line included when present.
func (t TLE) String() string {
	if t.title == "" {
		return t.line1 + "\n" + t.line2
	}
	return t.title + "\n" + t.line1 + "\n" + t.line2
}

func tleField(line string, from, to int) string {
	return strings.TrimSpace(line[from:to])
}

func tleFloat(line string, from, to, lineNo int) (float64, error) {
	f := tleField(line, from, to)
	v, err := strconv.ParseFloat(f, 64)
	if err != nil {
		return 0, &FormatError{Line: lineNo, Pos: from + 1, Msg: "bad float " + strconv.Quote(f)}
	}
	return v, nil
}

func tleInt(line string, from, to, lineNo int) (int, error) {
	f := tleField(line, from, to)
	if f == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(f)
	if err != nil {
		return 0, &FormatError{Line: lineNo, Pos: from + 1, Msg: "bad integer " + strconv.Quote(f)}
	}
	return v, nil
}

// tleExpFloat decodes the "±NNNNN±E" assumed-decimal exponent notation of
// the drag fields, e.g. " 12345-4" = 0.12345e-4.
func tleExpFloat(line string, from, to, lineNo int) (float64, error) {
	f := line[from:to]
	mant := strings.TrimSpace(f[:len(f)-2])
	exp := strings.TrimSpace(f[len(f)-2:])
	if mant == "" || mant == "+" || mant == "-" {
		mant += "0"
	}
	m, err := strconv.ParseFloat(mant, 64)
	if err != nil {
		return 0, &FormatError{Line: lineNo, Pos: from + 1, Msg: "bad mantissa " + strconv.Quote(f)}
	}
	e, err := strconv.Atoi(exp)
	if err != nil {
		return 0, &FormatError{Line: lineNo, Pos: from + 1, Msg: "bad exponent " + strconv.Quote(f)}
	}
	digits := len(strings.TrimLeft(mant, "+-"))
	return m * math.Pow10(e-digits), nil
}

// tleFormatExp is the inverse of tleExpFloat, always 8 bytes.
func tleFormatExp(v float64) string {
	if v == 0 {
		return " 00000+0"
	}
	sign := " "
	if v < 0 {
		sign = "-"
		v = -v
	}
	exp := int(math.Floor(math.Log10(v))) + 1
	mant := v / math.Pow10(exp)
	digits := int(math.Round(mant * 1e5))
	if digits >= 1e5 { // rounding pushed the mantissa to 1.0
		digits = 10000
		exp++
	}
	expSign := "+"
	if exp < 0 {
		expSign = "-"
		exp = -exp
	}
	return fmt.Sprintf("%s%05d%s%d", sign, digits, expSign, exp)
}

// BasicData extracts the spacecraft bookkeeping fields.
func (t TLE) BasicData() (SpacecraftBasicData, error) {
	var out SpacecraftBasicData
	cat, err := tleInt(t.line1, l1CatalogNumber, l1Classification, 1)
	if err != nil {
		return out, err
	}
	out.CatalogNumber = uint32(cat)
	out.Classification = t.line1[l1Classification]
	ly, err := tleInt(t.line1, l1COSPARIDYD, l1COSPARIDYD+2, 1)
	if err != nil {
		return out, err
	}
	ln, err := tleInt(t.line1, l1COSPARIDYD+2, l1COSPARIDP, 1)
	if err != nil {
		return out, err
	}
	out.IntDesignator = COSPARID{
		LaunchYear:   ly,
		LaunchNumber: ln,
		LaunchPiece:  tleField(t.line1, l1COSPARIDP, l1COSPARIDP+3),
	}
	d1f := tleField(t.line1, l1D1MeanMotion, l1D2MeanMotion-1)
	// Leading-dot form: ".00002182" or "-.00002182".
	d1, err := strconv.ParseFloat(strings.Replace(d1f, ".", "0.", 1), 64)
	if err != nil {
		return out, &FormatError{Line: 1, Pos: l1D1MeanMotion + 1, Msg: "bad mean motion derivative"}
	}
	out.D1MeanMotion = d1 * 2 // field stores n'/2
	d2, err := tleExpFloat(t.line1, l1D2MeanMotion, l1D2MeanMotion+8, 1)
	if err != nil {
		return out, err
	}
	out.D2MeanMotion = d2 * 6 // field stores n''/6
	bstar, err := tleExpFloat(t.line1, l1BSTAR, l1BSTAR+8, 1)
	if err != nil {
		return out, err
	}
	out.BSTAR = bstar
	et, err := tleInt(t.line1, l1EphemerisType, l1EphemerisType+1, 1)
	if err != nil {
		return out, err
	}
	out.EphemerisType = uint32(et)
	es, err := tleInt(t.line1, l1ElementSet, l1Checksum, 1)
	if err != nil {
		return out, err
	}
	out.ElementSet = uint32(es)
	rev, err := tleInt(t.line2, l2Revolutions, l2Checksum, 2)
	if err != nil {
		return out, err
	}
	out.RevolutionNum = uint32(rev)
	return out, nil
}

// EpochJD decodes the epoch field into a Julian date. Two-digit years below
// 57 land in the 2000s, per the NORAD convention.
func (t TLE) EpochJD() (float64, error) {
	yy, err := tleInt(t.line1, l1EpochI, l1EpochI+2, 1)
	if err != nil {
		return 0, err
	}
	doy, err := tleFloat(t.line1, l1EpochI+2, l1D1MeanMotion-1, 1)
	if err != nil {
		return 0, err
	}
	year := 1900 + yy
	if yy < 57 {
		year = 2000 + yy
	}
	return julian.CalendarGregorianToJD(year, 1, doy), nil
}

// OrbitElems converts the line-2 fields into a Keplerian element set around
// the Earth; the semi-major axis follows from the mean motion by Kepler's
// third law.
func (t TLE) OrbitElems() (KeplerianOrbitElems, error) {
	inc, err := tleFloat(t.line2, l2Inclination, l2Inclination+8, 2)
	if err != nil {
		return KeplerianOrbitElems{}, err
	}
	raan, err := tleFloat(t.line2, l2AscendingNode, l2AscendingNode+8, 2)
	if err != nil {
		return KeplerianOrbitElems{}, err
	}
	eccRaw := tleField(t.line2, l2Eccentricity, l2Eccentricity+7)
	ecc, err := strconv.ParseFloat("0."+eccRaw, 64)
	if err != nil {
		return KeplerianOrbitElems{}, &FormatError{Line: 2, Pos: l2Eccentricity + 1, Msg: "bad eccentricity"}
	}
	argp, err := tleFloat(t.line2, l2ArgOfPericen, l2ArgOfPericen+8, 2)
	if err != nil {
		return KeplerianOrbitElems{}, err
	}
	ma, err := tleFloat(t.line2, l2MeanAnomaly, l2MeanAnomaly+8, 2)
	if err != nil {
		return KeplerianOrbitElems{}, err
	}
	meanMotion, err := tleFloat(t.line2, l2MeanMotion, l2Revolutions, 2)
	if err != nil {
		return KeplerianOrbitElems{}, err
	}
	if meanMotion <= 0 {
		return KeplerianOrbitElems{}, &FormatError{Line: 2, Pos: l2MeanMotion + 1, Msg: "non-positive mean motion"}
	}
	epoch, err := t.EpochJD()
	if err != nil {
		return KeplerianOrbitElems{}, err
	}
	n := meanMotion * 2 * math.Pi / 86400 // rad/s
	a := math.Cbrt(Earth.GM() / (n * n))
	out := NewKeplerianOrbitElems()
	out.RefPlane = "Equator"
	out.Epoch = epoch
	out.GravParam = Earth.GM()
	out.PericenterDist = a * (1 - ecc)
	out.Period = 86400 / meanMotion
	out.Eccentricity = ecc
	out.Inclination = FromDegrees(inc)
	out.AscendingNode = FromDegrees(raan)
	out.ArgOfPericenter = FromDegrees(argp)
	out.MeanAnomaly = FromDegrees(ma)
	return out, nil
}

// TLEFromElements prints a fresh element set in TLE form. Fields the element
// set does not carry (drag terms, designators) come from basic.
func TLEFromElements(name string, elems KeplerianOrbitElems, basic SpacecraftBasicData, epochYear int, epochDay float64) (TLE, error) {
	if elems.Type() != Elliptic {
		return TLE{}, &FormatError{Msg: "only elliptic orbits fit in a TLE"}
	}
	meanMotion := 86400 / elems.Period // rev/day
	cls := basic.Classification
	if cls == 0 {
		cls = 'U'
	}
	l1 := fmt.Sprintf("1 %05d%c %02d%03d%-3s %02d%012.8f %s %s %s %d %4d",
		basic.CatalogNumber, cls,
		basic.IntDesignator.LaunchYear, basic.IntDesignator.LaunchNumber,
		basic.IntDesignator.LaunchPiece,
		epochYear%100, epochDay,
		tleFormatD1(basic.D1MeanMotion/2),
		tleFormatExp(basic.D2MeanMotion/6),
		tleFormatExp(basic.BSTAR),
		basic.EphemerisType, basic.ElementSet)
	l1 += strconv.Itoa(TLEChecksum(l1))
	l2 := fmt.Sprintf("2 %05d %8.4f %8.4f %07d %8.4f %8.4f %11.8f%5d",
		basic.CatalogNumber,
		elems.Inclination.Mod360().ToDegrees(),
		elems.AscendingNode.Mod360().ToDegrees(),
		int(math.Round(elems.Eccentricity*1e7)),
		elems.ArgOfPericenter.Mod360().ToDegrees(),
		elems.MeanAnomaly.Mod360().ToDegrees(),
		meanMotion, basic.RevolutionNum)
	l2 += strconv.Itoa(TLEChecksum(l2))
	return NewTLE(name, l1, l2)
}

// tleFormatD1 prints the first-derivative field: sign, no leading zero,
// eight decimals, ten bytes.
func tleFormatD1(v float64) string {
	s := fmt.Sprintf("%.8f", math.Abs(v))
	s = strings.TrimPrefix(s, "0")
	if v < 0 {
		return "-" + s
	}
	return " " + s
}

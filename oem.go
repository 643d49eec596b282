package cse

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/log"
	"gonum.org/v1/gonum/mat"
)

/* CCSDS 502.0-B Orbit Ephemeris Messages. Line-oriented KEY = VALUE blocks
with whitespace-separated state rows; COMMENT lines are recognised and
dropped. Positions and velocities stay in km and km/s as the standard
writes them. */

// OEMEphemeris is one state row: epoch plus position (km), velocity (km/s)
// and the optional acceleration (km/s²).
type OEMEphemeris struct {
	Epoch        time.Time
	Position     [3]float64
	Velocity     [3]float64
	Acceleration [3]float64
	HasAccel     bool
}

// OEMCovariance is one lower-triangular 6×6 covariance block.
type OEMCovariance struct {
	Epoch    time.Time
	RefFrame string
	Data     *mat.SymDense
}

// OEMMetadata is the per-segment metadata block.
type OEMMetadata struct {
	ObjectName       string
	ObjectID         string
	CenterName       string
	RefFrame         string
	RefFrameEpoch    time.Time
	TimeSystem       string
	StartTime        time.Time
	UseableStartTime time.Time
	UseableStopTime  time.Time
	StopTime         time.Time
	Interpolation    string
	InterpolaDegrees int
}

// OEMSegment pairs a metadata block with its ephemeris and covariance data.
type OEMSegment struct {
	MetaData           OEMMetadata
	Ephemeris          []OEMEphemeris
	CovarianceMatrices []OEMCovariance
}

// OEM is a full message: header plus one or more segments.
type OEM struct {
	OEMVersion     string
	Classification string
	CreationDate   time.Time
	Originator     string
	MessageID      string
	Data           []OEMSegment
}

// oemTimeLayouts covers ISO 8601 with and without fractional seconds.
var oemTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-002T15:04:05.999999999", // day-of-year form
	"2006-002T15:04:05",
}

func parseOEMTime(s string) (time.Time, error) {
	for _, layout := range oemTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date-time %q", s)
}

func formatOEMTime(t time.Time) string {
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02T15:04:05")
	}
	return t.Format("2006-01-02T15:04:05.000000000")
}

type oemParser struct {
	lineNo int
	logger log.Logger
}

// OEMFromString parses a message. Unknown keys are skipped with a log line
// rather than rejected, matching how real OEM producers sprinkle optional
// keys.
func OEMFromString(src string) (*OEM, error) {
	return OEMFromStringLogged(src, log.NewNopLogger())
}

// OEMFromStringLogged is OEMFromString with warning output.
func OEMFromStringLogged(src string, logger log.Logger) (*OEM, error) {
	p := &oemParser{logger: logger}
	return p.parse(src)
}

// OEMFromFile reads and parses a message from disk.
func OEMFromFile(path string) (*OEM, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return OEMFromString(string(raw))
}

func (p *oemParser) fail(msg string) error {
	return &FormatError{Line: p.lineNo, Msg: msg}
}

func splitKeyValue(line string) (key, value string, ok bool) {
	i := strings.Index(line, "=")
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}

func (p *oemParser) parse(src string) (*OEM, error) {
	out := &OEM{}
	scanner := bufio.NewScanner(strings.NewReader(src))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	const (
		inHeader = iota
		inMetadata
		inEphemeris
		inCovariance
	)
	state := inHeader
	var seg *OEMSegment
	var cov *OEMCovariance
	var covValues []float64

	flushCov := func() error {
		if cov == nil {
			return nil
		}
		if len(covValues) != 21 {
			return p.fail(fmt.Sprintf("covariance block has %d of 21 elements", len(covValues)))
		}
		m := mat.NewSymDense(6, nil)
		k := 0
		for i := 0; i < 6; i++ {
			for j := 0; j <= i; j++ {
				m.SetSym(i, j, covValues[k])
				k++
			}
		}
		cov.Data = m
		seg.CovarianceMatrices = append(seg.CovarianceMatrices, *cov)
		cov, covValues = nil, nil
		return nil
	}

	for scanner.Scan() {
		p.lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "COMMENT") {
			continue
		}

		if line == "META_START" {
			if err := flushCov(); err != nil {
				return nil, err
			}
			out.Data = append(out.Data, OEMSegment{})
			seg = &out.Data[len(out.Data)-1]
			state = inMetadata
			continue
		}
		if line == "META_STOP" {
			state = inEphemeris
			continue
		}
		if line == "COVARIANCE_START" {
			state = inCovariance
			continue
		}
		if line == "COVARIANCE_STOP" {
			if err := flushCov(); err != nil {
				return nil, err
			}
			state = inEphemeris
			continue
		}

		switch state {
		case inHeader:
			key, value, ok := splitKeyValue(line)
			if !ok {
				return nil, p.fail("header line is not KEY = VALUE")
			}
			switch key {
			case "CCSDS_OEM_VERS":
				out.OEMVersion = value
			case "CLASSIFICATION":
				out.Classification = value
			case "CREATION_DATE":
				t, err := parseOEMTime(value)
				if err != nil {
					return nil, p.fail(err.Error())
				}
				out.CreationDate = t
			case "ORIGINATOR":
				out.Originator = value
			case "MESSAGE_ID":
				out.MessageID = value
			default:
				p.logger.Log("oem", "skipping unknown header key", "key", key)
			}
		case inMetadata:
			key, value, ok := splitKeyValue(line)
			if !ok {
				return nil, p.fail("metadata line is not KEY = VALUE")
			}
			md := &seg.MetaData
			switch key {
			case "OBJECT_NAME":
				md.ObjectName = value
			case "OBJECT_ID":
				md.ObjectID = value
			case "CENTER_NAME":
				md.CenterName = value
			case "REF_FRAME":
				md.RefFrame = value
			case "TIME_SYSTEM":
				md.TimeSystem = value
			case "INTERPOLATION":
				md.Interpolation = value
			case "INTERPOLATION_DEGREE":
				d, err := strconv.Atoi(value)
				if err != nil {
					return nil, p.fail("bad interpolation degree")
				}
				md.InterpolaDegrees = d
			case "REF_FRAME_EPOCH", "START_TIME", "STOP_TIME",
				"USEABLE_START_TIME", "USEABLE_STOP_TIME":
				t, err := parseOEMTime(value)
				if err != nil {
					return nil, p.fail(err.Error())
				}
				switch key {
				case "REF_FRAME_EPOCH":
					md.RefFrameEpoch = t
				case "START_TIME":
					md.StartTime = t
				case "STOP_TIME":
					md.StopTime = t
				case "USEABLE_START_TIME":
					md.UseableStartTime = t
				case "USEABLE_STOP_TIME":
					md.UseableStopTime = t
				}
			default:
				p.logger.Log("oem", "skipping unknown metadata key", "key", key)
			}
		case inEphemeris:
			if seg == nil {
				return nil, p.fail("data before any metadata block")
			}
			if _, _, ok := splitKeyValue(line); ok {
				// A KEY = VALUE line here, such as a covariance EPOCH
				// without its COVARIANCE_START marker, is rejected.
				return nil, p.fail("unexpected KEY = VALUE in ephemeris data")
			}
			fields := strings.Fields(line)
			if len(fields) != 7 && len(fields) != 10 {
				return nil, p.fail(fmt.Sprintf("state row needs 7 or 10 fields, got %d", len(fields)))
			}
			var row OEMEphemeris
			t, err := parseOEMTime(fields[0])
			if err != nil {
				return nil, p.fail(err.Error())
			}
			row.Epoch = t
			vals := make([]float64, len(fields)-1)
			for i, f := range fields[1:] {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return nil, p.fail("bad number " + strconv.Quote(f))
				}
				vals[i] = v
			}
			copy(row.Position[:], vals[0:3])
			copy(row.Velocity[:], vals[3:6])
			if len(vals) == 9 {
				copy(row.Acceleration[:], vals[6:9])
				row.HasAccel = true
			}
			seg.Ephemeris = append(seg.Ephemeris, row)
		case inCovariance:
			if key, value, ok := splitKeyValue(line); ok {
				switch key {
				case "EPOCH":
					if err := flushCov(); err != nil {
						return nil, err
					}
					t, err := parseOEMTime(value)
					if err != nil {
						return nil, p.fail(err.Error())
					}
					cov = &OEMCovariance{Epoch: t}
				case "COV_REF_FRAME":
					if cov == nil {
						return nil, p.fail("COV_REF_FRAME before EPOCH")
					}
					cov.RefFrame = value
				default:
					p.logger.Log("oem", "skipping unknown covariance key", "key", key)
				}
				continue
			}
			if cov == nil {
				return nil, p.fail("covariance data before EPOCH")
			}
			for _, f := range strings.Fields(line) {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return nil, p.fail("bad covariance element " + strconv.Quote(f))
				}
				covValues = append(covValues, v)
			}
		}
	}
	if err := flushCov(); err != nil {
		return nil, err
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if out.OEMVersion == "" {
		return nil, &FormatError{Msg: "missing CCSDS_OEM_VERS"}
	}
	if len(out.Data) == 0 {
		return nil, &FormatError{Msg: "no metadata block"}
	}
	return out, nil
}

// String prints the message; float precision follows the export
// configuration.
func (o *OEM) String() string {
	prec := getConfig().OEMPrecision
	var b strings.Builder
	fmt.Fprintf(&b, "CCSDS_OEM_VERS = %s\n", o.OEMVersion)
	if o.Classification != "" {
		fmt.Fprintf(&b, "CLASSIFICATION = %s\n", o.Classification)
	}
	fmt.Fprintf(&b, "CREATION_DATE = %s\n", formatOEMTime(o.CreationDate))
	fmt.Fprintf(&b, "ORIGINATOR = %s\n", o.Originator)
	if o.MessageID != "" {
		fmt.Fprintf(&b, "MESSAGE_ID = %s\n", o.MessageID)
	}
	for _, seg := range o.Data {
		md := seg.MetaData
		b.WriteString("\nMETA_START\n")
		fmt.Fprintf(&b, "OBJECT_NAME = %s\n", md.ObjectName)
		fmt.Fprintf(&b, "OBJECT_ID = %s\n", md.ObjectID)
		fmt.Fprintf(&b, "CENTER_NAME = %s\n", md.CenterName)
		fmt.Fprintf(&b, "REF_FRAME = %s\n", md.RefFrame)
		if !md.RefFrameEpoch.IsZero() {
			fmt.Fprintf(&b, "REF_FRAME_EPOCH = %s\n", formatOEMTime(md.RefFrameEpoch))
		}
		fmt.Fprintf(&b, "TIME_SYSTEM = %s\n", md.TimeSystem)
		fmt.Fprintf(&b, "START_TIME = %s\n", formatOEMTime(md.StartTime))
		if !md.UseableStartTime.IsZero() {
			fmt.Fprintf(&b, "USEABLE_START_TIME = %s\n", formatOEMTime(md.UseableStartTime))
		}
		if !md.UseableStopTime.IsZero() {
			fmt.Fprintf(&b, "USEABLE_STOP_TIME = %s\n", formatOEMTime(md.UseableStopTime))
		}
		fmt.Fprintf(&b, "STOP_TIME = %s\n", formatOEMTime(md.StopTime))
		if md.Interpolation != "" {
			fmt.Fprintf(&b, "INTERPOLATION = %s\n", md.Interpolation)
			fmt.Fprintf(&b, "INTERPOLATION_DEGREE = %d\n", md.InterpolaDegrees)
		}
		b.WriteString("META_STOP\n")
		for _, row := range seg.Ephemeris {
			fmt.Fprintf(&b, "%s", formatOEMTime(row.Epoch))
			vals := append(append([]float64{}, row.Position[:]...), row.Velocity[:]...)
			if row.HasAccel {
				vals = append(vals, row.Acceleration[:]...)
			}
			for _, v := range vals {
				fmt.Fprintf(&b, " %.*f", prec, v)
			}
			b.WriteByte('\n')
		}
		for _, cov := range seg.CovarianceMatrices {
			b.WriteString("COVARIANCE_START\n")
			fmt.Fprintf(&b, "EPOCH = %s\n", formatOEMTime(cov.Epoch))
			if cov.RefFrame != "" {
				fmt.Fprintf(&b, "COV_REF_FRAME = %s\n", cov.RefFrame)
			}
			for i := 0; i < 6; i++ {
				for j := 0; j <= i; j++ {
					fmt.Fprintf(&b, "%.*e\n", prec, cov.Data.At(i, j))
				}
			}
			b.WriteString("COVARIANCE_STOP\n")
		}
	}
	return b.String()
}

// ToFile writes the message to disk.
func (o *OEM) ToFile(path string) error {
	return os.WriteFile(path, []byte(o.String()), 0644)
}

package scimath

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Sample is one (x, f(x)) pair for the sample-based integrators.
type Sample struct {
	X, Y float64
}

// ErrBadSampleCount is returned when a rule is handed fewer samples than it
// needs or a count inconsistent with its level.
var ErrBadSampleCount = errors.New("scimath: sample count does not fit the rule")

// ErrUnevenSamples is returned by rules that require equispaced samples.
var ErrUnevenSamples = errors.New("scimath: samples are not equispaced")

// ncParams holds one closed Newton-Cotes rule: integer weights over a common
// denominator, plus the leading error coefficient pair so that
//
//	∫ ≈ h · (na/da) · Σ v_i f_i,  error ~ (nb/db) · h^(n+2) · f^(n+1)(ξ).
type ncParams struct {
	na, da int64
	v      []int64
	nb, db int64
}

// Closed rules for 1 to 14 intervals (trapezoid, Simpson, 3/8, Boole, ...).
var ncTable = [14]ncParams{
	{1, 2, []int64{1, 1}, -1, 12},
	{1, 3, []int64{1, 4, 1}, -1, 90},
	{3, 8, []int64{1, 3, 3, 1}, -3, 80},
	{2, 45, []int64{7, 32, 12, 32, 7}, -8, 945},
	{5, 288, []int64{19, 75, 50, 50, 75, 19}, -275, 12096},
	{1, 140, []int64{41, 216, 27, 272, 27, 216, 41}, -9, 1400},
	{7, 17280, []int64{751, 3577, 1323, 2989, 2989, 1323, 3577, 751}, -8183, 518400},
	{4, 14175, []int64{989, 5888, -928, 10496, -4540, 10496, -928, 5888, 989}, -2368, 467775},
	{9, 89600, []int64{2857, 15741, 1080, 19344, 5778, 5778, 19344, 1080, 15741, 2857}, -4671, 394240},
	{5, 299376, []int64{16067, 106300, -48525, 272400, -260550, 427368, -260550, 272400, -48525, 106300, 16067}, -673175, 163459296},
	{11, 87091200, []int64{2171465, 13486539, -3237113, 25226685, -9595542, 15493566, 15493566, -9595542, 25226685, -3237113, 13486539, 2171465}, -2224234463, 237758976000},
	{1, 5255250, []int64{1364651, 9903168, -7587864, 35725120, -51491295, 87516288, -87797136, 87516288, -51491295, 35725120, -7587864, 9903168, 1364651}, -3012, 875875},
	{13, 402361344000, []int64{8181904909, 56280729661, -31268252574, 156074417954, -151659573325, 206683437987, -43111992612, -43111992612, 206683437987, -151659573325, 156074417954, -31268252574, 56280729661, 8181904909}, -2639651053, 344881152000},
	{7, 2501928000, []int64{90241897, 710986864, -770720657, 3501442784, -6625093363, 12630121616, -16802270373, 19534438464, -16802270373, 12630121616, -6625093363, 3501442784, -770720657, 710986864, 90241897}, -3740727473, 1275983280000},
}

// NewtonCotes integrates by closed Newton-Cotes formulae. Level is the
// interval count per block: 1 = trapezoid, 2 = Simpson, up to 14 from the
// table; a level below 1 is treated as 1.
type NewtonCotes struct {
	Level int
}

// EvenlySizedParameters returns the weights w (Σ w_i = n) and the error
// coefficient of the closed rule with n intervals. Rules beyond the table
// are derived by solving the Vandermonde moment system
//
//	Σ w_i · x_i^k = n^(k+1)/(k+1),  x_i = 0..n.
func EvenlySizedParameters(n int) (weights []float64, errCoeff float64, err error) {
	if n < 1 {
		return nil, 0, errors.New("scimath: Newton-Cotes needs at least one interval")
	}
	if n <= len(ncTable) {
		p := ncTable[n-1]
		weights = make([]float64, len(p.v))
		for i, v := range p.v {
			weights[i] = float64(p.na) * float64(v) / float64(p.da)
		}
		return weights, float64(p.nb) / float64(p.db), nil
	}
	pos := make([]float64, n+1)
	for i := range pos {
		pos[i] = float64(i)
	}
	return samplePositionParameters(pos)
}

// samplePositionParameters computes quadrature weights for arbitrary sample
// positions by the same moment system, scaled to the span of the samples.
func samplePositionParameters(pos []float64) (weights []float64, errCoeff float64, err error) {
	n := len(pos) - 1
	if n < 1 {
		return nil, 0, ErrBadSampleCount
	}
	span := pos[n] - pos[0]
	// Normalize to [0, n] so the moments keep the closed-rule form.
	norm := make([]float64, len(pos))
	for i, x := range pos {
		norm[i] = (x - pos[0]) * float64(n) / span
	}
	v := Vandermonde(norm)
	b := make([]float64, n+1)
	for k := 0; k <= n; k++ {
		b[k] = math.Pow(float64(n), float64(k+1)) / float64(k+1)
	}
	w, err := SolveLU(v, b)
	if err != nil {
		return nil, 0, err
	}
	return w, 0, nil
}

// SingleIntegrate applies one block of the level-n rule to exactly n+1
// samples.
func (nc NewtonCotes) SingleIntegrate(samples []Sample) (float64, error) {
	n := nc.Level
	if n < 1 {
		n = 1
	}
	if len(samples) != n+1 {
		return math.NaN(), ErrBadSampleCount
	}
	if isEvenlySized(samples) {
		w, _, err := EvenlySizedParameters(n)
		if err != nil {
			return math.NaN(), err
		}
		h := (samples[n].X - samples[0].X) / float64(n)
		var sum float64
		for i, s := range samples {
			sum += w[i] * s.Y
		}
		return h * sum, nil
	}
	pos := make([]float64, len(samples))
	for i, s := range samples {
		pos[i] = s.X
	}
	w, _, err := samplePositionParameters(pos)
	if err != nil {
		return math.NaN(), err
	}
	h := (samples[n].X - samples[0].X) / float64(n)
	var sum float64
	for i, s := range samples {
		sum += w[i] * s.Y
	}
	return h * sum, nil
}

// CompositeIntegrate splits equispaced samples into level-sized blocks and
// sums the per-block rule; the remainder block falls back to a lower order.
func (nc NewtonCotes) CompositeIntegrate(samples []Sample) (float64, error) {
	if !isEvenlySized(samples) {
		return math.NaN(), ErrUnevenSamples
	}
	n := nc.Level
	if n < 1 {
		n = 1
	}
	var total float64
	for lo := 0; lo+1 < len(samples); {
		blk := n
		if lo+blk >= len(samples) {
			blk = len(samples) - 1 - lo
		}
		sub := NewtonCotes{Level: blk}
		v, err := sub.SingleIntegrate(samples[lo : lo+blk+1])
		if err != nil {
			return math.NaN(), err
		}
		total += v
		lo += blk
	}
	return total, nil
}

// DiscreteIntegrate handles arbitrary (possibly uneven) sample positions:
// trapezoid and Simpson have dedicated non-equispaced forms, higher levels
// solve the moment system per block.
func (nc NewtonCotes) DiscreteIntegrate(samples []Sample) (float64, error) {
	switch {
	case nc.Level <= 1:
		return Trapezoidal(samples)
	case nc.Level == 2:
		return Simpson(samples)
	}
	n := nc.Level
	var total float64
	for lo := 0; lo+1 < len(samples); {
		blk := n
		if lo+blk >= len(samples) {
			blk = len(samples) - 1 - lo
		}
		sub := NewtonCotes{Level: blk}
		v, err := sub.SingleIntegrate(samples[lo : lo+blk+1])
		if err != nil {
			return math.NaN(), err
		}
		total += v
		lo += blk
	}
	return total, nil
}

// EvenlySpacedSamples samples f at n+1 equispaced points over [a, b].
func EvenlySpacedSamples(f Function1D, a, b float64, n int) []Sample {
	out := make([]Sample, n+1)
	h := (b - a) / float64(n)
	for i := 0; i <= n; i++ {
		x := a + float64(i)*h
		out[i] = Sample{X: x, Y: f(x)}
	}
	return out
}

func isEvenlySized(samples []Sample) bool {
	if len(samples) < 3 {
		return true
	}
	h := samples[1].X - samples[0].X
	for i := 2; i < len(samples); i++ {
		if math.Abs((samples[i].X-samples[i-1].X)-h) > 1e-10*math.Max(1, math.Abs(h)) {
			return false
		}
	}
	return true
}

// Trapezoidal sums (x_{k+1}-x_k)·(f_k+f_{k+1})/2 over the samples; spacing
// may be uneven.
func Trapezoidal(samples []Sample) (float64, error) {
	if len(samples) < 2 {
		return math.NaN(), ErrBadSampleCount
	}
	var total float64
	for i := 0; i+1 < len(samples); i++ {
		total += (samples[i+1].X - samples[i].X) * (samples[i].Y + samples[i+1].Y) / 2
	}
	return total, nil
}

// Simpson integrates by composite Simpson, accepting uneven spacing and an
// even sample count. With an even count the last interval is closed by the
// corrected tail α·f_N + β·f_{N-1} - η·f_{N-2}.
func Simpson(samples []Sample) (float64, error) {
	n := len(samples) - 1
	if n < 2 {
		return math.NaN(), ErrBadSampleCount
	}
	var total float64
	for i := 0; i+2 <= n; i += 2 {
		h0 := samples[i+1].X - samples[i].X
		h1 := samples[i+2].X - samples[i+1].X
		total += (h0 + h1) / 6 * ((2-h1/h0)*samples[i].Y +
			(h0+h1)*(h0+h1)/(h0*h1)*samples[i+1].Y +
			(2-h0/h1)*samples[i+2].Y)
	}
	if n%2 != 0 {
		// Odd interval count: the pair loop stopped at n-1, close the tail.
		h1 := samples[n].X - samples[n-1].X
		h0 := samples[n-1].X - samples[n-2].X
		α := (2*h1*h1 + 3*h1*h0) / (6 * (h0 + h1))
		β := (h1*h1 + 3*h1*h0) / (6 * h0)
		η := h1 * h1 * h1 / (6 * h0 * (h0 + h1))
		total += α*samples[n].Y + β*samples[n-1].Y - η*samples[n-2].Y
	}
	return total, nil
}

// Romberg applies Richardson extrapolation to the trapezoid estimates of
// 2^N+1 equispaced samples. The extrapolation table is returned for
// diagnostics when table is non-nil.
func Romberg(samples []Sample, table *mat.Dense) (float64, error) {
	if !isEvenlySized(samples) {
		return math.NaN(), ErrUnevenSamples
	}
	n := len(samples) - 1
	levels := 0
	for m := n; m > 1; m /= 2 {
		if m%2 != 0 {
			return math.NaN(), ErrBadSampleCount
		}
		levels++
	}
	if n < 1 {
		return math.NaN(), ErrBadSampleCount
	}
	h := samples[n].X - samples[0].X
	rows := levels + 1
	r := mat.NewDense(rows, rows, nil)
	// Trapezoid over the coarsest grid, then successive halvings.
	stride := n
	for i := 0; i < rows; i++ {
		var sum float64
		for k := 0; k+stride <= n; k += stride {
			sum += (samples[k].Y + samples[k+stride].Y) / 2
		}
		r.Set(i, 0, sum*h/float64(n/stride))
		stride /= 2
	}
	for j := 1; j < rows; j++ {
		f := math.Pow(4, float64(j))
		for i := j; i < rows; i++ {
			r.Set(i, j, (f*r.At(i, j-1)-r.At(i-1, j-1))/(f-1))
		}
	}
	if table != nil {
		table.CloneFrom(r)
	}
	return r.At(rows-1, rows-1), nil
}

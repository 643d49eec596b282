package cse

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Rot313Vec applies the 3-1-3 direction cosine matrix R3R1R3(θ1, θ2, θ3) to
// vI. With (θ1, θ2, θ3) = (Ω, i, ω) it maps an inertial vector into the
// perifocal frame, as ECI2PQW does.
func Rot313Vec(θ1, θ2, θ3 float64, vI []float64) []float64 {
	return MxV33(R3R1R3(θ1, θ2, θ3), vI)
}

// R3R1R3 performs a 3-1-3 Euler parameter rotation.
// From Schaub and Junkins (the one in Vallado is wrong... surprinsingly, right? =/)
func R3R1R3(θ1, θ2, θ3 float64) *mat.Dense {
	sθ1, cθ1 := math.Sincos(θ1)
	sθ2, cθ2 := math.Sincos(θ2)
	sθ3, cθ3 := math.Sincos(θ3)
	return mat.NewDense(3, 3, []float64{cθ3*cθ1 - sθ3*cθ2*sθ1, cθ3*sθ1 + sθ3*cθ2*cθ1, sθ3 * sθ2,
		-sθ3*cθ1 - cθ3*cθ2*sθ1, -sθ3*sθ1 + cθ3*cθ2*cθ1, cθ3 * sθ2,
		sθ2 * sθ1, -sθ2 * cθ1, cθ2})
}

// R1 rotation about the 1st axis.
func R1(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

// R2 rotation about the 2nd axis.
func R2(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{c, 0, -s, 0, 1, 0, s, 0, c})
}

// R3 rotation about the 3rd axis.
func R3(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// MxV33 multiplies a matrix with a vector. Note that there is no dimension check!
func MxV33(m *mat.Dense, v []float64) []float64 {
	var r mat.VecDense
	r.MulVec(m, mat.NewVecDense(len(v), v))
	return []float64{r.AtVec(0), r.AtVec(1), r.AtVec(2)}
}

// PQW2ECI rotates a perifocal vector into the inertial frame for the given
// inclination, argument of pericentre and ascending node (radians).
func PQW2ECI(i, ω, Ω float64, vec []float64) []float64 {
	return MxV33(R3R1R3(-ω, -i, -Ω), vec)
}

// ECI2PQW is the inverse perifocal rotation.
func ECI2PQW(i, ω, Ω float64, vec []float64) []float64 {
	return MxV33(R3R1R3(Ω, i, ω), vec)
}

// DefaultAxisMapper maps the Z-up inertial frame onto the SpaceEngine
// (x forward, y up, z right) convention.
var DefaultAxisMapper = mat.NewDense(3, 3, []float64{
	1, 0, 0,
	0, 0, -1,
	0, 1, 0,
})

// InverseAxisMapper undoes DefaultAxisMapper.
var InverseAxisMapper = mat.NewDense(3, 3, []float64{
	1, 0, 0,
	0, 0, 1,
	0, -1, 0,
})

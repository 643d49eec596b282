package cse

import "math"

/* Conversions between the rectangular and polar conventions used by
SpaceEngine catalogs. Longitude and latitude are in degrees; the equatorial
plane is X-Z with the vernal direction along -Z, so longitude grows eastward
when seen from the north pole. */

// XYToPolar converts plane coordinates to (r, θ) with θ in degrees in
// (-180°, 180°].
func XYToPolar(xy [2]float64) [2]float64 {
	return [2]float64{
		math.Hypot(xy[0], xy[1]),
		math.Atan2(xy[1], xy[0]) / deg2rad,
	}
}

// PolarToXY converts (r, θ[deg]) back to plane coordinates.
func PolarToXY(polar [2]float64) [2]float64 {
	s, c := math.Sincos(polar[1] * deg2rad)
	return [2]float64{polar[0] * c, polar[0] * s}
}

// XYZToPolar converts the (x forward, y up, z right) frame to
// (lon[deg], lat[deg], dist).
func XYZToPolar(xyz [3]float64) [3]float64 {
	dist := norm(xyz[:])
	if dist == 0 {
		return [3]float64{0, 0, 0}
	}
	lat := math.Asin(xyz[1]/dist) / deg2rad
	lon := math.Atan2(xyz[0], -xyz[2]) / deg2rad
	return [3]float64{lon, lat, dist}
}

// PolarToXYZ converts (lon[deg], lat[deg], dist) back to the
// (x forward, y up, z right) frame.
func PolarToXYZ(polar [3]float64) [3]float64 {
	sLon, cLon := math.Sincos(polar[0] * deg2rad)
	sLat, cLat := math.Sincos(polar[1] * deg2rad)
	d := polar[2]
	return [3]float64{
		d * cLat * sLon,
		d * sLat,
		-d * cLat * cLon,
	}
}

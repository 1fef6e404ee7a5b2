// SPDX-License-Identifier: MIT
//
// File: lcc.go
// Role: inverse Lambert Conformal Conic projection for the utility grid.
//
// The connectivity database stores device coordinates as integer centimetres
// on a two-standard-parallel LCC grid (GRS80 ellipsoid, parallels 28°S and 36°S,
// origin 32°S 135°E, false easting 1 000 000 m, false northing 2 000 000 m).

package geo

import "math"

const (
	semiMajorAxis = 6378137.0   // equatorial radius, metres
	semiMinorAxis = 6356752.314 // polar radius, metres

	firstParallel  = -28.0 * math.Pi / 180
	secondParallel = -36.0 * math.Pi / 180
	originLatitude = -32.0 * math.Pi / 180
	originLong     = 135.0 * math.Pi / 180

	falseEasting  = 1000000.0
	falseNorthing = 2000000.0

	centimetresPerMetre = 100.0
	latitudeIterations  = 3
)

// FromLCC converts grid coordinates (centimetres) into a geographic position.
//
// Complexity: O(1); latitude is refined with a fixed number of iterations,
// each shrinking the error by roughly e² (≈0.0067).
func FromLCC(x, y int64) LatLng {
	ee := float64(x) / centimetresPerMetre
	nn := float64(y) / centimetresPerMetre

	e := math.Sqrt(1 - math.Pow(semiMinorAxis/semiMajorAxis, 2))
	e2 := e * e / (1 - e*e)

	m1 := math.Cos(firstParallel) / math.Sqrt(1-e2*math.Sin(firstParallel)*math.Sin(firstParallel))
	m2 := math.Cos(secondParallel) / math.Sqrt(1-e2*math.Sin(secondParallel)*math.Sin(secondParallel))

	t1 := isometric(firstParallel, e)
	t2 := isometric(secondParallel, e)
	t0 := isometric(originLatitude, e)
	n := (math.Log(m1) - math.Log(m2)) / (math.Log(t1) - math.Log(t2))

	ff := m1 / (n * math.Pow(t1, n))
	rf := semiMajorAxis * ff * math.Pow(t0, n)
	r := math.Hypot(ee-falseEasting, rf-(nn-falseNorthing))

	// n and ff are negative south of the equator; t is taken on |ratio| so the
	// recovered latitude is signed directly.
	t := math.Pow(math.Abs(r/(semiMajorAxis*ff)), 1/n)

	theta := math.Atan((ee - falseEasting) / (rf - (nn - falseNorthing)))
	lambda := theta/n + originLong

	phi := math.Pi/2 - 2*math.Atan(t)
	for i := 0; i < latitudeIterations; i++ {
		s := e * math.Sin(phi)
		phi = math.Pi/2 - 2*math.Atan(t*math.Pow((1-s)/(1+s), e/2))
	}

	return LatLng{
		Latitude:  phi * 180 / math.Pi,
		Longitude: lambda * 180 / math.Pi,
	}
}

// isometric returns the conformal latitude term t(φ) of the projection.
func isometric(phi, e float64) float64 {
	s := e * math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-s)/(1+s), e/2)
}

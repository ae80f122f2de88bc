// Package geo verifies physical presence against a circular geofence.
package geo

import "math"

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371e3

// Distance returns the great-circle distance in meters between two
// coordinates, computed with the haversine formula.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// WithinRadius reports whether the point lies inside or exactly on the
// geofence boundary. The boundary is inclusive: a point at precisely
// radiusMeters from the center passes.
func WithinRadius(lat, lng, centerLat, centerLng, radiusMeters float64) bool {
	return Distance(lat, lng, centerLat, centerLng) <= radiusMeters
}

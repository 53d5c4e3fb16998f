// Package geo holds the coordinate plumbing of the broker: a relative
// distance measure for nearest-peer matching and an IP geolocation resolver.
package geo

import "math"

const deg2rad = math.Pi / 180

// nautical mile scale for one degree of arc
const degScale = 60 * 1.1515

// Distance estimates the separation between two coordinate pairs in
// approximate nautical-mile units. It uses the spherical law of cosines,
// not an exact geodesic, so absolute values are rough; only the relative
// ordering of results is meaningful, which is all the nearest-peer
// matching needs.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}
	radLat1 := lat1 * deg2rad
	radLat2 := lat2 * deg2rad
	radTheta := (lon1 - lon2) * deg2rad
	d := math.Sin(radLat1)*math.Sin(radLat2) + math.Cos(radLat1)*math.Cos(radLat2)*math.Cos(radTheta)
	// rounding can push the cosine just above 1 for near-identical points
	if d > 1 {
		d = 1
	}
	return math.Acos(d) / deg2rad * degScale
}

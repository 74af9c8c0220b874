package repository

import (
	"math"
	"sort"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/domain"
)

const earthRadiusMeters = 6371000.0

func KilometersToMeters(km float64) float64 { return km * 1000 }

// HaversineMeters is the great-circle distance between two points.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}

type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoundingBoxAround returns a box that contains every point within
// radiusMeters of the center. Circles that reach a pole or cross the
// antimeridian get the full longitude range.
func BoundingBoxAround(lat, lng, radiusMeters float64) BoundingBox {
	angular := radiusMeters / earthRadiusMeters
	latDelta := angular * 180 / math.Pi
	box := BoundingBox{
		MinLat: math.Max(-90, lat-latDelta),
		MaxLat: math.Min(90, lat+latDelta),
		MinLng: -180,
		MaxLng: 180,
	}
	if lat+latDelta >= 90 || lat-latDelta <= -90 || angular >= math.Pi/2 {
		return box
	}
	sinD := math.Sin(angular)
	cosLat := math.Cos(lat * math.Pi / 180)
	if sinD >= cosLat {
		return box
	}
	lngDelta := math.Asin(sinD/cosLat) * 180 / math.Pi
	if lng-lngDelta >= -180 && lng+lngDelta <= 180 {
		box.MinLng = lng - lngDelta
		box.MaxLng = lng + lngDelta
	}
	return box
}

// SortByRank orders users by the position recorded for their id, e.g. the
// distance order of a geo query.
func SortByRank(users []domain.User, rank map[string]int) {
	sort.SliceStable(users, func(i, j int) bool { return rank[users[i].ID] < rank[users[j].ID] })
}

package geofence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shenikar/geofence_monitor/internal/models"
)

var (
	mumbai = models.GeoPoint{Latitude: 19.0760, Longitude: 72.8777}
	delhi  = models.GeoPoint{Latitude: 28.6139, Longitude: 77.2090}
)

func TestHaversine_SamePointIsZero(t *testing.T) {
	points := []models.GeoPoint{
		mumbai,
		delhi,
		{Latitude: 90, Longitude: 0},
		{Latitude: -90, Longitude: 180},
		{Latitude: 0, Longitude: -180},
		{Latitude: -33.8688, Longitude: 151.2093},
	}
	for _, p := range points {
		assert.Equal(t, 0.0, Haversine(p, p), "point %+v", p)
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	pairs := [][2]models.GeoPoint{
		{mumbai, delhi},
		{{Latitude: 51.5074, Longitude: -0.1278}, {Latitude: 40.7128, Longitude: -74.0060}},
		{{Latitude: -33.8688, Longitude: 151.2093}, {Latitude: 35.6762, Longitude: 139.6503}},
		{{Latitude: 0, Longitude: 179.9}, {Latitude: 0, Longitude: -179.9}},
	}
	for _, pair := range pairs {
		ab := Haversine(pair[0], pair[1])
		ba := Haversine(pair[1], pair[0])
		assert.InEpsilon(t, ab, ba, 1e-6)
	}
}

func TestHaversine_DelhiMumbai(t *testing.T) {
	d := Haversine(delhi, mumbai)

	// сферическая модель дает ~1148 км, эллипсоидальные расчеты ~1160 км
	assert.GreaterOrEqual(t, d, 1_140_000.0)
	assert.LessOrEqual(t, d, 1_165_000.0)
	assert.InDelta(t, 1_148_095.0, d, 10.0)
}

func TestHaversine_ShortDistance(t *testing.T) {
	d := Haversine(mumbai, models.GeoPoint{Latitude: 19.0761, Longitude: 72.8778})

	assert.InDelta(t, 15.0, d, 3.0)
}

func TestHaversine_Antipodal(t *testing.T) {
	d := Haversine(models.GeoPoint{Latitude: 0, Longitude: 0}, models.GeoPoint{Latitude: 0, Longitude: 180})

	assert.False(t, math.IsNaN(d))
	assert.InDelta(t, math.Pi*EarthRadiusKm*1000, d, 1.0)
}

package geofence

import (
	"math"

	"github.com/shenikar/geofence_monitor/internal/models"
)

// EarthRadiusKm - средний радиус Земли
const EarthRadiusKm = 6371.0

// Haversine возвращает расстояние по большому кругу между a и b в метрах
func Haversine(a, b models.GeoPoint) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Latitude))*math.Cos(toRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c * 1000
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

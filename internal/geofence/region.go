package geofence

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/shenikar/geofence_monitor/internal/models"
)

const earthRadiusMeters = EarthRadiusKm * 1000

// Cap возвращает сферическую шапку, описывающую круг радиусом radiusMeters вокруг center
func Cap(center models.GeoPoint, radiusMeters float64) s2.Cap {
	p := s2.PointFromLatLng(s2.LatLngFromDegrees(center.Latitude, center.Longitude))
	return s2.CapFromCenterAngle(p, s1.Angle(radiusMeters/earthRadiusMeters))
}

// InRegion отбирает активные геозоны, круг которых пересекается с областью (center, radiusMeters).
// Порядок входного списка сохраняется.
func InRegion(geofences []*models.Geofence, center models.GeoPoint, radiusMeters float64) []*models.Geofence {
	region := Cap(center, radiusMeters)
	result := make([]*models.Geofence, 0)
	for _, g := range geofences {
		if g == nil || !g.IsActive {
			continue
		}
		if region.Intersects(Cap(g.Center, g.RadiusMeters)) {
			result = append(result, g)
		}
	}
	return result
}

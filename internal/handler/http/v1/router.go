package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Health-check доступен без ключа
	api.GET("/system/health", h.healthCheck)

	secured := api.Group("", APIKeyAuthMiddleware(h.cfg, h.logger))

	// Каталог геозон
	geofences := secured.Group("/geofences")
	{
		geofences.POST("", h.createGeofence)
		geofences.GET("", h.listGeofences)
		geofences.GET("/active", h.listActiveGeofences)
		geofences.GET("/:id", h.getGeofence)
		geofences.PUT("/:id", h.updateGeofence)
		geofences.DELETE("/:id", h.deleteGeofence)
	}

	// Поток местоположений
	locations := secured.Group("/locations")
	{
		locations.POST("", h.processLocation)
		locations.POST("/batch", h.processLocationBatch)
	}

	alerts := secured.Group("/alerts")
	{
		alerts.GET("", h.listAlerts)
		alerts.POST("", h.createAlert)
		alerts.PATCH("/:id/read", h.markAlertRead)
	}

	attendance := secured.Group("/attendance")
	{
		attendance.GET("", h.listAttendance)
		attendance.POST("", h.createAttendance)
	}

	// Экстренные сигналы
	emergency := secured.Group("/emergency")
	{
		emergency.POST("/sos", h.raiseSOS)
		emergency.POST("/share-location", h.shareLocation)
	}

	secured.GET("/stats", h.getStats)
}

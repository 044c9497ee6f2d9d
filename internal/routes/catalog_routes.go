package routes

import (
	"rail_booker/internal/controllers"
	"rail_booker/internal/middleware"
	"rail_booker/internal/models"

	"github.com/gin-gonic/gin"
)

// CatalogRoutes exposes the station and carriage reference data: public
// reads, Train Admin writes.
func CatalogRoutes(r *gin.Engine) {
	stations := r.Group("/stations")
	{
		stations.GET("", controllers.ListStations)
		stations.POST("", middleware.RequireRoles(models.RoleTrainAdmin), controllers.CreateStation)
	}

	carriages := r.Group("/carriages")
	{
		carriages.GET("", controllers.ListCarriages)
		carriages.POST("", middleware.RequireRoles(models.RoleTrainAdmin), controllers.CreateCarriage)
	}
}

package routes

import (
	"rail_booker/internal/controllers"
	"rail_booker/internal/middleware"
	"rail_booker/internal/models"

	"github.com/gin-gonic/gin"
)

func ScheduleRoutes(r *gin.Engine) {
	schedules := r.Group("/schedules")
	{
		schedules.GET("", controllers.ListSchedules)
		schedules.GET("/:id", middleware.RequireRoles(models.RoleCommon), controllers.GetSchedule)
		schedules.POST("", middleware.RequireRoles(models.RoleTrainAdmin), controllers.CreateSchedule)
		schedules.PUT("/:id", middleware.RequireRoles(models.RoleTrainAdmin), controllers.UpdateSchedule)
		schedules.DELETE("/:id", middleware.RequireRoles(models.RoleTrainAdmin), controllers.DeleteSchedule)
	}
}

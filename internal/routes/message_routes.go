package routes

import (
	"rail_booker/internal/controllers"
	"rail_booker/internal/middleware"
	"rail_booker/internal/models"

	"github.com/gin-gonic/gin"
)

func MessageRoutes(r *gin.Engine) {
	messages := r.Group("/messages")
	{
		messages.GET("", middleware.RequireUser(), controllers.ListMessages)
		messages.POST("", middleware.RequireRoles(models.RoleTrainAdmin, models.RoleSystemAdmin), controllers.CreateMessage)
		messages.DELETE("/:id", middleware.RequireUser(), controllers.DeleteMessage)
	}
}

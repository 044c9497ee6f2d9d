package routes

import (
	"rail_booker/internal/controllers"
	"rail_booker/internal/middleware"
	"rail_booker/internal/models"

	"github.com/gin-gonic/gin"
)

func ContactRoutes(r *gin.Engine) {
	contacts := r.Group("/contacts")
	contacts.Use(middleware.RequireRoles(models.RoleCommon))
	{
		contacts.GET("", controllers.ListContacts)
		contacts.POST("", controllers.CreateContact)
		contacts.DELETE("/:id", controllers.DeleteContact)
	}
}

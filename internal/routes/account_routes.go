package routes

import (
	"rail_booker/internal/controllers"
	"rail_booker/internal/middleware"
	"rail_booker/internal/models"

	"github.com/gin-gonic/gin"
)

func AccountRoutes(r *gin.Engine) {
	accounts := r.Group("/accounts")
	accounts.Use(middleware.RequireRoles(models.RoleCommon))
	{
		accounts.GET("", controllers.ListAccounts)
		accounts.POST("", controllers.CreateAccount)
		accounts.PUT("/:id", controllers.RechargeAccount)
		accounts.DELETE("/:id", controllers.DeleteAccount)
	}
}

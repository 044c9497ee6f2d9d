package routes

import (
	"rail_booker/internal/controllers"
	"rail_booker/internal/middleware"
	"rail_booker/internal/models"

	"github.com/gin-gonic/gin"
)

func UserRoutes(r *gin.Engine) {
	users := r.Group("/users")
	{
		users.POST("/register", controllers.StartRegister)
		users.GET("/register/:code", controllers.VerifyRegister)
		users.POST("/login", controllers.Login)
	}

	admin := r.Group("/users")
	admin.Use(middleware.RequireRoles(models.RoleSystemAdmin))
	{
		admin.GET("", controllers.ListUsers)
		admin.POST("", controllers.CreateUser)
		admin.PUT("/:id", controllers.UpdateUser)
		admin.DELETE("/:id", controllers.DeleteUser)
	}
}

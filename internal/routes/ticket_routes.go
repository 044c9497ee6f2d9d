package routes

import (
	"rail_booker/internal/controllers"
	"rail_booker/internal/middleware"
	"rail_booker/internal/models"

	"github.com/gin-gonic/gin"
)

func TicketRoutes(r *gin.Engine) {
	tickets := r.Group("/tickets")
	tickets.Use(middleware.RequireRoles(models.RoleCommon))
	{
		tickets.GET("", controllers.ListTickets)
		tickets.POST("", controllers.CreateTicket)
		tickets.GET("/:id", controllers.GetTicket)
		tickets.PUT("/:id", controllers.ChangeTicket)
		tickets.PATCH("/:id", controllers.PayTicket)
		tickets.DELETE("/:id", controllers.DeleteTicket)
	}
}

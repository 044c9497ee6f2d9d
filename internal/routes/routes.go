package routes

import (
	ginlogger "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(ginlogger.SetLogger())
	r.Use(gin.Recovery())

	UserRoutes(r)
	AccountRoutes(r)
	ContactRoutes(r)
	CatalogRoutes(r)
	ScheduleRoutes(r)
	TicketRoutes(r)
	MessageRoutes(r)

	return r
}

package main

import (
	"log"
	"net/http"

	"rail_booker/internal/config"
	"rail_booker/internal/logger"
	"rail_booker/internal/middleware"
	"rail_booker/internal/routes"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Connect to the database
	config.InitDB()

	// Setup Gin router (request logging + recovery wired inside)
	r := routes.SetupRouter()

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	log.Println("🚄 Server running at :8080")
	log.Fatal(http.ListenAndServe("0.0.0.0:8080", handler))
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Business responses always report HTTP 200 with result 0 (success) or 1
// (rule violation) plus a message; only transport-level problems use 4xx.

func respondOK(c *gin.Context, payload gin.H) {
	out := gin.H{"result": 0}
	for k, v := range payload {
		out[k] = v
	}
	c.JSON(http.StatusOK, out)
}

func respondFail(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"result": 1, "message": message})
}

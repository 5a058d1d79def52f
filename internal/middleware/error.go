package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"user-management-svc/pkg/logger"
	"user-management-svc/pkg/utils"
)

// ErrorHandler recovers from panics and answers with a 500 envelope
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.WithFields(map[string]interface{}{
			"panic":    recovered,
			"path":     c.Request.URL.Path,
			"trace_id": c.GetString(TraceIDKey),
		}).Error("Recovered from panic")

		utils.InternalServerErrorResponse(c, "Internal server error", fmt.Errorf("%v", recovered))
		c.Abort()
	})
}

// NoRouteHandler answers unknown paths
func NoRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.NotFoundResponse(c, "Route not found")
	}
}

// NoMethodHandler answers known paths called with the wrong method
func NoMethodHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// TraceHeader carries the request trace id
	TraceHeader = "X-Trace-ID"
	// TraceIDKey is the gin context key of the trace id
	TraceIDKey = "trace_id"
)

// TraceMiddleware reuses the incoming trace id or generates one
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		c.Set(TraceIDKey, traceID)
		c.Header(TraceHeader, traceID)
		c.Next()
	}
}

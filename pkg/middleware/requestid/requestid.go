package requestid

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerKey      = "X-Request-ID"
	traceHeaderKey = "X-Trace-Id"
	contextKey     = "request_id"
)

// Middleware assigns a trace identifier to each request. An incoming X-Trace-Id or X-Request-ID
// is reused; otherwise a new one is generated. Both headers are echoed on the response.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := incoming(c)
		if reqID == "" {
			reqID = generateID()
		}

		c.Set(contextKey, reqID)
		c.Writer.Header().Set(headerKey, reqID)
		c.Writer.Header().Set(traceHeaderKey, reqID)

		c.Next()
	}
}

// Value returns the request ID stored in the Gin context.
func Value(c *gin.Context) string {
	if v, exists := c.Get(contextKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func incoming(c *gin.Context) string {
	for _, key := range []string{traceHeaderKey, headerKey} {
		if v := strings.TrimSpace(c.GetHeader(key)); v != "" && len(v) <= 128 {
			return v
		}
	}
	return ""
}

func generateID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MForte-AI/character-dev-1225/internal/errordata"
	"github.com/MForte-AI/character-dev-1225/internal/eventdata"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
)

func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx = eventdata.WithEventData(ctx)
		ctx = errordata.WithErrorData(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestLogger logs one line per request, including any internal error
// detail the handler recorded.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	reqLog := log.With("middleware", "RequestLogger")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if ed := errordata.GetErrorData(c.Request.Context()); ed != nil && ed.HasMessage() {
			kv = append(kv, "error", ed.Message)
		}
		switch {
		case c.Writer.Status() >= 500:
			reqLog.Error("Request failed", kv...)
		case c.Writer.Status() >= 400:
			reqLog.Warn("Request rejected", kv...)
		default:
			reqLog.Info("Request handled", kv...)
		}
	}
}

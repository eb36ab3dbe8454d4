package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
)

var LogToStderr bool

// GinMiddleware logs each HTTP request's peer address, route, status,
// and duration, the Gin-native analog of a grpc unary logging
// interceptor.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if !LogToStderr {
			return
		}

		entry := log.WithFields(logrus.Fields{
			"peer_addr": c.ClientIP(),
			"method":    c.Request.Method,
			"path":      path,
			"status":    c.Writer.Status(),
			"duration":  time.Since(start),
		})

		if len(c.Errors) > 0 {
			entry.WithFields(logrus.Fields{"error": c.Errors.String()}).Error("request failed")
		} else {
			entry.Info("request handled")
		}
	}
}

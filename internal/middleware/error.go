package middleware

import (
	"schoolhub/pkg/logger"
	"schoolhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// ErrorHandler turns a panic in a handler into a 500 envelope.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.GetLogger().WithField("path", c.Request.URL.Path).
					Errorf("Panic recovered: %v", err)
				response.ServerError(c, "Something went wrong. Contact Administrator.")
				c.Abort()
			}
		}()

		c.Next()
	}
}

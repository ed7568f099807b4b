package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carappx/internal/utils"
)

// ErrorHandler shapes errors attached to the context into the JSON error
// body. A CustomError picks its own status; anything else is reported as an
// internal server error so backend details never leak to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var customErr *utils.CustomError
		if errors.As(err, &customErr) {
			c.JSON(customErr.StatusCode, gin.H{"error": customErr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}

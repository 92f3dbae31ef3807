package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/ispbilling/ispbilling/internal/logger"
	"github.com/ispbilling/ispbilling/internal/sentry"
)

// ErrorHandler renders the last handler error as an ierr.ErrorResponse.
// Server side failures are reported to Sentry.
func ErrorHandler(log *logger.Logger, sentrySvc *sentry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)
		ctx := c.Request.Context()

		if status >= http.StatusInternalServerError {
			log.WithContext(ctx).Errorw("request failed",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"status", status,
				"error", err,
			)
			sentrySvc.CaptureExceptionWithContext(ctx, err, map[string]string{
				"path":   c.FullPath(),
				"method": c.Request.Method,
			})
		}

		c.JSON(status, ierr.NewErrorResponse(err))
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	ierr "github.com/flexprice/coupon-service/internal/errors"
	"github.com/flexprice/coupon-service/internal/logger"
	"github.com/flexprice/coupon-service/internal/sentry"
	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
)

// ErrorHandler renders the last handler error. Only hints and reportable
// details reach the client; the internal message is logged, never returned.
func ErrorHandler(logger *logger.Logger, sentrySvc *sentry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)

		if status >= http.StatusInternalServerError {
			logger.Errorw("request failed",
				"error", err,
				"status", status,
				"method", c.Request.Method,
				"path", c.FullPath(),
			)
			sentrySvc.CaptureException(c.Request.Context(), err)
		} else {
			logger.Debugw("request rejected",
				"error", err,
				"status", status,
				"path", c.FullPath(),
			)
		}

		c.JSON(status, ierr.ErrorResponse{
			Success: false,
			Error: ierr.ErrorDetail{
				Code:    ierr.ErrorCode(err),
				Display: getDisplayMessage(err, status),
				Details: getSafeDetails(err),
			},
		})
	}
}

func getDisplayMessage(err error, status int) string {
	// GetAllHints is a post-order traversal, the first non-empty hint is the innermost
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}

	switch status {
	case http.StatusNotFound:
		return ierr.MsgNotFound
	case http.StatusForbidden, http.StatusUnauthorized:
		return ierr.MsgNotAuthorized
	case http.StatusServiceUnavailable:
		return ierr.MsgStorageUnavailable
	}
	return ierr.MsgSomethingWrong
}

func getSafeDetails(err error) map[string]any {
	details := make(map[string]any)

	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			jsonStr, ok := strings.CutPrefix(payload, "__json__:")
			if !ok || jsonStr == "" {
				continue
			}
			var jsonDetails map[string]any
			if err := jsoniter.UnmarshalFromString(jsonStr, &jsonDetails); err == nil {
				for k, v := range jsonDetails {
					details[k] = v
				}
			}
		}
	}

	return details
}

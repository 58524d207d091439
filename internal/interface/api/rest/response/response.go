package response

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gallery-api/internal/apperr"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type Envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func Success(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Status: StatusSuccess, Data: data})
}

// Fail aborts the request with an error envelope.
func Fail(c *gin.Context, status int, message string, details any) {
	c.AbortWithStatusJSON(status, Envelope{
		Status:  StatusError,
		Message: message,
		Details: details,
	})
}

// Error translates err into an error envelope. Internal causes are logged and
// only exposed outside release mode.
func Error(c *gin.Context, logger *zap.Logger, err error) {
	ae := apperr.From(err)

	details := ae.Details
	if ae.Kind == apperr.KindInternal {
		logger.Error(ae.Message,
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
		)
		details = nil
		if gin.Mode() != gin.ReleaseMode && ae.Err != nil {
			details = ae.Err.Error()
		}
	}

	Fail(c, ae.Kind.HTTPStatus(), ae.Message, details)
}

package respond

import (
	"errors"

	"github.com/gin-gonic/gin"

	"productcatalog/internal/apperr"
	"productcatalog/internal/logger"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// JSON writes data with the given status.
func JSON(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}

// Error renders err with the status and public message of its code. Internal
// and dependency failures are logged with their cause.
func Error(c *gin.Context, logg *logger.Logger, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := apperr.As(err)
	if typed == nil {
		typed = apperr.Wrap(apperr.CodeInternal, err, "unexpected error")
	}
	meta := apperr.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	switch typed.Code() {
	case apperr.CodeValidation,
		apperr.CodeUnauthorized,
		apperr.CodeForbidden,
		apperr.CodeNotFound,
		apperr.CodeConflict:
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := ErrorEnvelope{Error: APIError{Code: string(typed.Code()), Message: msg}}
	if meta.DetailsAllowed {
		payload.Error.Details = typed.Details()
	}

	if logg != nil && meta.HTTPStatus >= 500 {
		logg.Error(c.Request.Context(), "request failed", err)
	}

	c.AbortWithStatusJSON(meta.HTTPStatus, payload)
}

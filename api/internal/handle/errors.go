package handle

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"visual-assist/api/internal/logger"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	MissingInputMessage = "Missing image file or assistance mode"
	EmptyImageMessage   = "Uploaded image is empty"
	InternalMessage     = "An internal server error occurred."
)

// APIError is the error envelope returned to clients. Err is logged but
// never serialized.
type APIError struct {
	Code    int    `json:"-"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

func NewBadRequestError(message string, cause error) *APIError {
	return &APIError{Code: http.StatusBadRequest, Status: StatusError, Message: message, Err: cause}
}

func NewInternalError(cause error) *APIError {
	return &APIError{Code: http.StatusInternalServerError, Status: StatusError, Message: InternalMessage, Err: cause}
}

// ErrorHandler renders every error as {status:"error", message}.
// Usage: e.HTTPErrorHandler = handle.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &httpErr):
		msg := http.StatusText(httpErr.Code)
		if s, ok := httpErr.Message.(string); ok && s != "" {
			msg = s
		}
		apiErr = &APIError{Code: httpErr.Code, Status: StatusError, Message: msg, Err: httpErr.Internal}
	default:
		apiErr = NewInternalError(err)
	}

	if apiErr.Code >= http.StatusInternalServerError {
		logger.L().Error("request failed",
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"path", c.Request().URL.Path,
			"err", err,
		)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(apiErr.Code)
	} else {
		err = c.JSON(apiErr.Code, apiErr)
	}
	if err != nil {
		logger.Warnf("writing error response: %v", err)
	}
}

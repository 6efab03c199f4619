package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Kuljeet1998/healthcare-nlp/types"
	"github.com/labstack/echo/v4"
)

// Error kinds reported to clients.
const (
	KindInvalidInput     = "InvalidInput"
	KindNotFound         = "NotFound"
	KindMethodNotAllowed = "MethodNotAllowed"
	KindInternal         = "Internal"
)

type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type ErrorBody struct {
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"request_id,omitempty"`
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", types.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// errorHandler renders every error as an ErrorBody.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	detail := ErrorDetail{Kind: KindInternal, Message: "internal server error"}

	var httpErr *echo.HTTPError
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		status = http.StatusBadRequest
		detail = ErrorDetail{Kind: KindInvalidInput, Message: err.Error()}
	case errors.As(err, &httpErr):
		status = httpErr.Code
		detail.Message = fmt.Sprintf("%v", httpErr.Message)
		switch httpErr.Code {
		case http.StatusNotFound:
			detail.Kind = KindNotFound
		case http.StatusMethodNotAllowed:
			detail.Kind = KindMethodNotAllowed
		case http.StatusBadRequest:
			detail.Kind = KindInvalidInput
		}
	}

	_ = c.JSON(status, ErrorBody{Error: detail, RequestID: requestID(c)})
}

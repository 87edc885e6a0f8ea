package rest

import (
	"encoding/json"
	"fmt"

	"github.com/valyala/fasthttp"

	"github.com/lucidportal/backend/domain"
)

// apiError is the error body returned by the REST gateway.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e apiError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// mapStatus classifies a non-2xx response.
func mapStatus(status int, body []byte, op, table string) error {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err != nil || (apiErr.Code == "" && apiErr.Message == "") {
		apiErr = apiError{Message: fmt.Sprintf("status %d", status)}
	}
	msg := op + " " + table

	switch {
	case apiErr.Code == "42501" || apiErr.Code == "PGRST301" ||
		status == fasthttp.StatusUnauthorized || status == fasthttp.StatusForbidden:
		return domain.WrapError(domain.ErrCodeAccessDenied, msg, apiErr)
	case apiErr.Code == "PGRST116" || apiErr.Code == "42P01" || status == fasthttp.StatusNotFound:
		return domain.WrapError(domain.ErrCodeNotFound, msg, apiErr)
	case status >= fasthttp.StatusInternalServerError:
		return domain.WrapError(domain.ErrCodeConnectivity, msg, apiErr)
	case status == fasthttp.StatusBadRequest || status == fasthttp.StatusConflict:
		return domain.WrapError(domain.ErrCodeInvalid, msg, apiErr)
	default:
		return domain.WrapError(domain.ErrCodeInternal, msg, apiErr)
	}
}

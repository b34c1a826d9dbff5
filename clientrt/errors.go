package clientrt

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrFormDataNotSupported is returned by operations whose body is form data.
	ErrFormDataNotSupported = errors.New("form data not yet supported")
	// ErrNoMorePages is returned by Pager.NextPage after the last page.
	ErrNoMorePages = errors.New("clientrt: no more pages")
)

// HTTPError is returned when the service answers with a status code the
// operation does not declare. ErrorCode is nil unless a structured error
// code could be extracted.
type HTTPError struct {
	StatusCode int
	ErrorCode  *string
	Body       []byte
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("unexpected HTTP status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.ErrorCode != nil {
		msg += " (" + *e.ErrorCode + ")"
	}
	return msg
}

// NewHTTPError builds the error for an unmatched response.
func NewHTTPError(resp *http.Response, body []byte) *HTTPError {
	return &HTTPError{StatusCode: resp.StatusCode, Body: body}
}

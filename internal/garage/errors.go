package garage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bmarinov/garage-bootstrap/internal/s3"
)

type ErrorKind int

const (
	// Transient errors may succeed on retry: network failures, timeouts, 5xx.
	Transient ErrorKind = iota + 1
	// Permanent errors are returned to the caller without retrying.
	Permanent
)

func (k ErrorKind) String() string {
	switch k {
	case Transient:
		return "Transient"
	case Permanent:
		return "Permanent"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// APIError is returned by every admin API call that fails.
type APIError struct {
	Op   string
	Kind ErrorKind
	// StatusCode is zero when no response was received.
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s error (status %d): %v", e.Op, strings.ToLower(e.Kind.String()), e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, strings.ToLower(e.Kind.String()), e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is an *APIError worth retrying.
func IsTransient(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == Transient
}

// StatusCode returns the HTTP status carried by err, or zero.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// transportError classifies a failure to get any response at all.
func transportError(op string, err error) *APIError {
	kind := Transient
	if errors.Is(err, context.Canceled) {
		kind = Permanent
	}
	return &APIError{Op: op, Kind: kind, Err: err}
}

// statusError classifies a non-2xx response and consumes its body.
func statusError(op string, resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	detail := strings.TrimSpace(string(body))
	var garageErr errorResponse
	if json.Unmarshal(body, &garageErr) == nil && garageErr.Message != "" {
		detail = fmt.Sprintf("%s: %s", garageErr.Code, garageErr.Message)
	}

	var err error = fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, detail)
	if resp.StatusCode == http.StatusNotFound {
		err = fmt.Errorf("%w: %s", s3.ErrResourceNotFound, detail)
	}

	kind := Permanent
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		kind = Transient
	}

	return &APIError{Op: op, Kind: kind, StatusCode: resp.StatusCode, Err: err}
}

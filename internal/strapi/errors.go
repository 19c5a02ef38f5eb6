package strapi

import (
	"errors"
	"fmt"
	"net/http"
)

var errEmptyData = errors.New("response has no data")

// RemoteServiceError wraps any failed CMS interaction: network failure, non-2xx
// status or an undecodable payload. Status is 0 when no usable response was received.
type RemoteServiceError struct {
	Resource string
	Verb     string
	Status   int
	Err      error
}

func (e *RemoteServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("cms %s %s: status %d: %v", e.Verb, e.Resource, e.Status, e.Err)
	}
	return fmt.Sprintf("cms %s %s: %v", e.Verb, e.Resource, e.Err)
}

func (e *RemoteServiceError) Unwrap() error { return e.Err }

// Code classifies the error for handler logs.
func (e *RemoteServiceError) Code() string { return "REMOTE_SERVICE" }

// NotFound reports whether the CMS answered 404.
func (e *RemoteServiceError) NotFound() bool { return e.Status == http.StatusNotFound }

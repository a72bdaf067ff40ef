package services

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNoResourceHeaders = errors.New("created response did not contain any resource-related headers")
	ErrNotConnected      = errors.New("realtime channel is not connected")
	ErrInvalidEndpoint   = errors.New("invalid operation endpoint")
	ErrUnauthorized      = errors.New("unauthorized")
)

// StatusError is returned by the API client for non-successful responses
// that are not mapped to a synthesized body.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api responded %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api responded %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

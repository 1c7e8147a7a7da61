// Package apperr defines the error kinds that cross the boundary of the
// aggregation core. Callers classify failures with errors.Is against the
// sentinels below; transport details are always wrapped, never returned raw.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidInput is returned when caller-supplied values fail validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCategory is returned for a spot category outside the supported set.
	ErrInvalidCategory = errors.New("invalid spot category")
	// ErrDataUnavailable is returned once the upstream and every fallback are exhausted.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrUpstream marks a failed outbound call after retries.
	ErrUpstream = errors.New("upstream error")
	// ErrSpotNotFound is a negative answer from a reachable places provider.
	ErrSpotNotFound = errors.New("spot not found")
)

// Code returns a stable, client-facing code for err.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCategory):
		return "SP002"
	case errors.Is(err, ErrInvalidInput):
		return "CM001"
	case errors.Is(err, ErrSpotNotFound):
		return "SP001"
	case errors.Is(err, ErrDataUnavailable):
		return "EX002"
	case errors.Is(err, ErrUpstream):
		return "EX001"
	default:
		return ""
	}
}

// HTTPStatus maps err to the status a REST adapter should answer with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidCategory), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrSpotNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDataUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Package errorspkg provides common app errors.
package errorspkg

import "errors"

var (
	// ErrInternal indicates internal server error.
	ErrInternal = errors.New("internal")
	// ErrUnavailable indicates that the storage could not serve the request in time.
	ErrUnavailable = errors.New("storage unavailable")
)

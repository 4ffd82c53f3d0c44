package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrDuplicateInvoice    = errors.New("invoice id already exists")
	ErrFieldNotFound       = errors.New("extracted field not found")
	ErrInvalidThresholds   = errors.New("invalid confidence thresholds")
	ErrUnsupportedFormat   = errors.New("unsupported export format")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrExtractionFailed    = errors.New("document extraction failed")
	ErrJobNotFound         = errors.New("upload job not found")
	ErrUploadFailed        = errors.New("document upload to storage failed")
	ErrUploadQueueFull     = errors.New("upload queue is full")
	ErrValidation          = errors.New("validation error")
)

// NetworkError is returned by extraction providers when the remote service
// could not be reached or answered with a transient failure.
type NetworkError struct {
	Op        string
	Err       error
	Temporary bool
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsTemporary reports whether err is a NetworkError worth retrying.
func IsTemporary(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr) && netErr.Temporary
}

package analysis

import "errors"

var (
	// ErrInvalidFile indicates an empty or unreadable upload.
	ErrInvalidFile = errors.New("invalid results file")
	// ErrUnsupportedFormat indicates a file that is neither CSV nor JSON.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrFileTooLarge indicates the upload exceeds the configured cap.
	ErrFileTooLarge = errors.New("file too large")
	// ErrQuotaExceeded indicates the user has no uploads left. No store
	// mutation happens on this path.
	ErrQuotaExceeded = errors.New("upload quota exhausted")
)

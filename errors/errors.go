package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError independently of the HTTP status it maps to.
type Kind string

const (
	KindBadRequest          Kind = "bad_request"
	KindNotAvailable        Kind = "not_available"
	KindNotFound            Kind = "not_found"
	KindRateLimited         Kind = "rate_limited"
	KindDownloadFailed      Kind = "download_failed"
	KindTranscriptionFailed Kind = "transcription_failed"
	KindInternal            Kind = "internal"
)

type AppError struct {
	Code    int    `json:"-"`
	Kind    Kind   `json:"-"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func E(op string, err error, message string, code int, kind Kind) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func InvalidInput(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusBadRequest, KindBadRequest)
}

// NotAvailable reports that no transcript could be obtained for a video.
func NotAvailable(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusNotFound, KindNotAvailable)
}

func NotFound(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusNotFound, KindNotFound)
}

func RateLimited(op string, message string) *AppError {
	return E(op, nil, message, http.StatusTooManyRequests, KindRateLimited)
}

// DownloadFailed carries the downloader's diagnostic output in its message.
func DownloadFailed(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusInternalServerError, KindDownloadFailed)
}

func TranscriptionFailed(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusInternalServerError, KindTranscriptionFailed)
}

func Internal(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusInternalServerError, KindInternal)
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an AppError of the given kind.
func Is(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidationRejected = errors.New("file rejected")
	ErrUploadFailed       = errors.New("upload failed")
	ErrFlushFailed        = errors.New("flush failed")
	// ErrDeleteIgnored marks a remote delete failure that was logged and dropped.
	ErrDeleteIgnored = errors.New("remote delete failed, ignored")
	ErrOutOfBounds   = errors.New("slot index out of bounds")
)

type RejectReason string

const (
	ReasonOversized RejectReason = "oversized"
	ReasonWrongType RejectReason = "wrong_type"
)

// RejectionError reports a candidate file that failed the size/type check.
type RejectionError struct {
	Name   string
	Reason RejectReason
}

func (e *RejectionError) Error() string {
	switch e.Reason {
	case ReasonOversized:
		return fmt.Sprintf("%s: file too large", e.Name)
	case ReasonWrongType:
		return fmt.Sprintf("%s: only image files are allowed", e.Name)
	default:
		return fmt.Sprintf("%s: rejected", e.Name)
	}
}

func (e *RejectionError) Unwrap() error { return ErrValidationRejected }

// UploadError carries the server's message for a failed upload. StatusCode
// is 0 when the request never got a response.
type UploadError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UploadError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upload failed: %s", e.Message)
	}
	return fmt.Sprintf("upload failed (%d): %s", e.StatusCode, e.Message)
}

func (e *UploadError) Is(target error) bool { return target == ErrUploadFailed }

func (e *UploadError) Unwrap() error { return e.Err }

// FlushError aborts a flush. Index is the slot that failed.
type FlushError struct {
	Index int
	Err   error
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("flush failed at photo %d: %v", e.Index+1, e.Err)
}

func (e *FlushError) Is(target error) bool { return target == ErrFlushFailed }

func (e *FlushError) Unwrap() error { return e.Err }

package docview

import (
	"context"
	"errors"
	"io/fs"
	"net"
)

// ErrorKind is the closed taxonomy of failures surfaced to the presentation
// layer.
type ErrorKind string

// ErrorKind constants.
const (
	KindValidation   ErrorKind = "validation"
	KindNetwork      ErrorKind = "network"
	KindTimeout      ErrorKind = "timeout"
	KindNotFound     ErrorKind = "not_found"
	KindParse        ErrorKind = "parse"
	KindCancellation ErrorKind = "cancellation"
)

// MessageKey returns the fixed message template key for the kind.
func (k ErrorKind) MessageKey() string {
	switch k {
	case KindValidation:
		return "error.validation"
	case KindTimeout:
		return "error.timeout"
	case KindNotFound:
		return "error.not_found"
	case KindParse:
		return "error.parse"
	case KindCancellation:
		return "error.cancelled"
	default:
		return "error.network"
	}
}

// Retryable reports whether failures of this kind are transient.
func (k ErrorKind) Retryable() bool {
	return k == KindNetwork || k == KindTimeout
}

// ErrorRecord is a classified failure. Renderers consume only these fields.
type ErrorRecord struct {
	Kind       ErrorKind `json:"kind"`
	MessageKey string    `json:"messageKey"`
	Message    string    `json:"message"`
	Retryable  bool      `json:"retryable"`
	DocumentID string    `json:"documentId,omitempty"`
}

// Error implements the error interface so records can travel through error
// returns unchanged.
func (r *ErrorRecord) Error() string {
	if r.DocumentID != "" {
		return string(r.Kind) + ": " + r.DocumentID + ": " + r.Message
	}
	return string(r.Kind) + ": " + r.Message
}

// Classify maps any failure to an ErrorRecord. The documentID is attached to
// the record when non-empty. Failures that match no known class crossed the
// fetch boundary and are reported as network errors.
func Classify(err error, documentID string) *ErrorRecord {
	if err == nil {
		return nil
	}

	var rec *ErrorRecord
	if errors.As(err, &rec) {
		out := *rec
		if out.DocumentID == "" {
			out.DocumentID = documentID
		}
		return &out
	}

	kind := classifyKind(err)
	return &ErrorRecord{
		Kind:       kind,
		MessageKey: kind.MessageKey(),
		Message:    errorText(err),
		Retryable:  kind.Retryable(),
		DocumentID: documentID,
	}
}

func classifyKind(err error) ErrorKind {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return KindValidation
	}

	var e *Error
	if errors.As(err, &e) {
		switch e.Code {
		case EINVALID:
			return KindValidation
		case ETIMEOUT:
			return KindTimeout
		case ENOTFOUND:
			return KindNotFound
		case EPARSE:
			return KindParse
		case ECANCELED:
			return KindCancellation
		case ENETWORK:
			return KindNetwork
		}
		if e.Err != nil {
			return classifyKind(e.Err)
		}
		return KindNetwork
	}

	switch {
	case errors.Is(err, context.Canceled):
		return KindCancellation
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}

func errorText(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

package models

import (
	"context"
	"errors"
	"fmt"
)

// Failure kinds. Every error returned across a component boundary wraps exactly one of these.
var (
	ErrExtraction    = errors.New("extraction failed")
	ErrChunking      = errors.New("chunking failed")
	ErrIndexNotReady = errors.New("index not ready")
	ErrEmbedding     = errors.New("embedding failed")
	ErrSynthesis     = errors.New("synthesis failed")
	ErrTimeout       = errors.New("operation timed out")
	ErrInvalidInput  = errors.New("invalid input")
)

// Error carries the failure kind, the operation that failed and the underlying cause
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError wraps err with a failure kind. Deadline errors are reported as ErrTimeout
// regardless of the stage they surfaced in.
func NewError(kind error, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = ErrTimeout
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// NewContextError is NewError for a call made under ctx. When ctx has already
// expired the failure is attributed to it, even if the backend error (a gRPC
// status, for example) does not wrap the context error.
func NewContextError(ctx context.Context, kind error, op string, err error) error {
	return NewError(kind, op, JoinContext(ctx, err))
}

// JoinContext adds ctx's error to err when ctx is done and err does not already carry it
func JoinContext(ctx context.Context, err error) error {
	ctxErr := ctx.Err()
	if err == nil || ctxErr == nil || errors.Is(err, ctxErr) {
		return err
	}
	return errors.Join(err, ctxErr)
}

// Kind returns the failure kind of err, or nil if it carries none
func Kind(err error) error {
	for _, k := range []error{ErrTimeout, ErrExtraction, ErrChunking, ErrIndexNotReady, ErrEmbedding, ErrSynthesis, ErrInvalidInput} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// KindName returns a short label for the failure kind, used in logs and metrics
func KindName(err error) string {
	switch Kind(err) {
	case ErrTimeout:
		return "timeout"
	case ErrExtraction:
		return "extraction"
	case ErrChunking:
		return "chunking"
	case ErrIndexNotReady:
		return "index_not_ready"
	case ErrEmbedding:
		return "embedding"
	case ErrSynthesis:
		return "synthesis"
	case ErrInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// UserMessage returns the message shown to an end user for err
func UserMessage(err error) string {
	switch Kind(err) {
	case ErrExtraction:
		return "No readable text found in the uploaded documents. Check if they are scanned images without OCR."
	case ErrChunking:
		return "The documents did not contain enough text to index."
	case ErrIndexNotReady:
		return "Please upload and process documents first."
	case ErrEmbedding:
		return "Could not compute embeddings for the documents. Please try again."
	case ErrSynthesis:
		return "Error generating answer. Please try again."
	case ErrTimeout:
		return "The request took too long. Please try again."
	case ErrInvalidInput:
		return "Please enter a question."
	default:
		return "Something went wrong. Please try again."
	}
}

// Package fault defines the error taxonomy shared by every layer of the
// NaNoWriMo client. Each failure surfaced to a caller is an *Error tagged
// with one of four categories, so callers can tell a dropped connection
// from a rejected request, an undecodable body or their own misuse.
package fault

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DataDog/jsonapi"
)

// Category classifies a client failure
type Category string

const (
	// CategoryTransport is a network or transport-layer failure
	CategoryTransport Category = "transport"
	// CategoryService means the service understood the request and rejected it
	CategoryService Category = "service"
	// CategoryDecode means a response body did not match the expected schema
	CategoryDecode Category = "decode"
	// CategoryContract is a precondition failure caused by the caller
	CategoryContract Category = "contract"
)

// Error is the single error type returned by the client packages.
type Error struct {
	// Category is the failure class
	Category Category
	// Op names the operation that failed (e.g. "get users/42")
	Op string
	// Status is the HTTP status for service failures, 0 otherwise
	Status int
	// Message is a human readable description
	Message string
	// Details holds structured JSON:API error objects when the service sent them
	Details []*jsonapi.Error
	// Err is the underlying cause, if any
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Category))
	b.WriteString(" error")
	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Transport wraps a transport failure
func Transport(op string, err error) *Error {
	return &Error{Category: CategoryTransport, Op: op, Err: err}
}

// Service creates a service failure with a plain message
func Service(op string, status int, message string) *Error {
	return &Error{Category: CategoryService, Op: op, Status: status, Message: message}
}

// ServiceDetails creates a service failure from structured JSON:API errors.
// The message is built from the titles and details of the error objects.
func ServiceDetails(op string, status int, details []*jsonapi.Error) *Error {
	parts := make([]string, 0, len(details))
	for _, d := range details {
		if d == nil {
			continue
		}
		switch {
		case d.Title != "" && d.Detail != "":
			parts = append(parts, d.Title+": "+d.Detail)
		case d.Detail != "":
			parts = append(parts, d.Detail)
		case d.Title != "":
			parts = append(parts, d.Title)
		case d.Code != "":
			parts = append(parts, d.Code)
		}
	}
	return &Error{
		Category: CategoryService,
		Op:       op,
		Status:   status,
		Message:  strings.Join(parts, "; "),
		Details:  details,
	}
}

// Decode wraps a schema mismatch
func Decode(op string, err error) *Error {
	return &Error{Category: CategoryDecode, Op: op, Err: err}
}

// Decodef creates a decode failure with a formatted message
func Decodef(op string, format string, args ...interface{}) *Error {
	return &Error{Category: CategoryDecode, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Contract creates a precondition failure
func Contract(op string, format string, args ...interface{}) *Error {
	return &Error{Category: CategoryContract, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Is reports whether err is an *Error of the given category
func Is(err error, category Category) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Category == category
	}
	return false
}

// CategoryOf returns the category of err, or "" when err is not an *Error
func CategoryOf(err error) Category {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Category
	}
	return ""
}

// StatusOf returns the HTTP status carried by err, or 0
func StatusOf(err error) int {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Status
	}
	return 0
}

// WithOp returns err with its Op set when err is an *Error that has none.
// Other errors are wrapped as decode failures.
func WithOp(op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		if fe.Op == "" {
			cp := *fe
			cp.Op = op
			return &cp
		}
		return err
	}
	return Decode(op, err)
}

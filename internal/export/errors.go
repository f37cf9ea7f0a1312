package export

import (
	"errors"
	"fmt"
)

// Precondition failures. Nothing is rendered when one of these is returned.
var (
	ErrMissingTitle      = errors.New("record title is required")
	ErrEmptyContent      = errors.New("record content has no visible text")
	ErrUnsupportedFormat = errors.New("unsupported content format")
)

// ErrRendererUnavailable is returned by browser-backed paths when the
// service was built without a browser.
var ErrRendererUnavailable = errors.New("no browser available for rendering")

// Kind classifies an export failure.
type Kind int

const (
	// KindPrecondition means the input was refused before any work started.
	KindPrecondition Kind = iota + 1
	// KindRender means composition, rendering or serialisation failed.
	KindRender
)

func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindRender:
		return "render"
	}
	return "unknown"
}

// Error is returned by every export path. No partial file accompanies it.
type Error struct {
	Kind   Kind
	Format Format
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s export: %s: %v", e.Format, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsPrecondition reports whether err is a refused export.
func IsPrecondition(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindPrecondition
}

func preconditionError(f Format, err error) error {
	return &Error{Kind: KindPrecondition, Format: f, Err: err}
}

func renderError(f Format, err error) error {
	return &Error{Kind: KindRender, Format: f, Err: err}
}

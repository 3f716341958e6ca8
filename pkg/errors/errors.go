// Package errors provides structured error handling for the engine.
//
// Engine failures fall into a small taxonomy (see [ErrorKind]). Capacity
// exhaustion, structural misuse and invalid measurement input are fatal:
// they are reported to the installed [ErrorHandler] and then raised as a
// panic carrying the [*EngineError], so the frame that detected them never
// completes with corrupted output.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindCapacity indicates an arena or draw-list buffer ran out of room.
	KindCapacity
	// KindStructure indicates mismatched brackets, duplicate roots or keys.
	KindStructure
	// KindLayout indicates a size configuration the layout passes reject.
	KindLayout
	// KindMeasure indicates invalid text or glyph measurement input.
	KindMeasure
	// KindConfig indicates an invalid configuration or theme file.
	KindConfig
	// KindRender indicates the renderer refused a draw list.
	KindRender
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindCapacity:
		return "capacity"
	case KindStructure:
		return "structure"
	case KindLayout:
		return "layout"
	case KindMeasure:
		return "measure"
	case KindConfig:
		return "config"
	case KindRender:
		return "render"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// Sentinel causes wrapped by [EngineError.Err].
var (
	ErrCapacity          = stderrors.New("capacity exhausted")
	ErrUnbalanced        = stderrors.New("unbalanced push/pop")
	ErrDuplicateRoot     = stderrors.New("second unparented root")
	ErrDuplicateKey      = stderrors.New("widget declared twice in one frame")
	ErrUnsupportedLayout = stderrors.New("unsupported size combination")
	ErrInvalidExtent     = stderrors.New("invalid text extent")
	ErrMissingGlyph      = stderrors.New("missing glyph")
	ErrInvalidWidget     = stderrors.New("invalid widget id")
)

// EngineError represents a structured error raised by the engine.
type EngineError struct {
	// Op is the operation that failed (e.g., "core.Tree.Declare").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Widget is the declared name of the widget involved, if any.
	Widget string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *EngineError) Error() string {
	if e.Widget != "" {
		return fmt.Sprintf("%s [%s] widget=%q: %v", e.Op, e.Kind, e.Widget, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// New builds an EngineError for op with the given kind and cause.
func New(op string, kind ErrorKind, err error) *EngineError {
	return &EngineError{Op: op, Kind: kind, Err: err}
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "engine.Context.EndFrame").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by the engine.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *EngineError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }

// KindOf returns the kind of the first EngineError in err's tree.
func KindOf(err error) ErrorKind {
	var ee *EngineError
	if stderrors.As(err, &ee) {
		return ee.Kind
	}
	return KindUnknown
}

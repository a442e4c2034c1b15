// Package errors provides error handling for faktgen.
//
// It re-exports github.com/cockroachdb/errors and adds the generation error
// taxonomy. Every taxonomy error is marked with its sentinel, so callers
// classify failures with Is:
//
//	if errors.Is(err, errors.ErrUnsupportedPattern) {
//	    // skip the interface, keep going
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions
var (
	AssertionFailedf   = crdb.AssertionFailedf
	IsAssertionFailure = crdb.IsAssertionFailure
)

// Generation error taxonomy.
var (
	// ErrMalformedDeclaration means the analyzer input violates a structural
	// invariant. Aborts that interface only.
	ErrMalformedDeclaration = New("malformed declaration")

	// ErrParameterCountMismatch is an internal invariant violation found during
	// substitution. Aborts the whole run.
	ErrParameterCountMismatch = New("type parameter count mismatch")

	// ErrUnsupportedPattern means the interface has a generic shape with no
	// viable fallback. The interface is skipped.
	ErrUnsupportedPattern = New("unsupported generic pattern")

	// ErrUnresolvableDefault means no safe default exists for one member. The
	// member gets a behavior that fails when called unconfigured.
	ErrUnresolvableDefault = New("unresolvable default")
)

// Malformed returns a formatted error marked as ErrMalformedDeclaration.
func Malformed(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrMalformedDeclaration)
}

// CountMismatch returns an assertion failure marked as ErrParameterCountMismatch.
func CountMismatch(format string, args ...interface{}) error {
	return Mark(AssertionFailedf(format, args...), ErrParameterCountMismatch)
}

// Unsupported returns an error marked as ErrUnsupportedPattern.
func Unsupported(reason string) error {
	return Mark(Newf("unsupported pattern: %s", reason), ErrUnsupportedPattern)
}

// Unresolvable returns a formatted error marked as ErrUnresolvableDefault.
func Unresolvable(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrUnresolvableDefault)
}

// IsFatal reports whether err must stop the whole run rather than a single
// interface.
func IsFatal(err error) bool {
	return err != nil && (Is(err, ErrParameterCountMismatch) || IsAssertionFailure(err))
}

// IsRecoverable reports whether processing may continue with the next
// interface after err.
func IsRecoverable(err error) bool {
	return err != nil && !IsFatal(err)
}

// memberError attaches the interface member an error was found on.
type memberError struct {
	cause  error
	member string
}

func (e *memberError) Error() string { return e.cause.Error() }
func (e *memberError) Cause() error  { return e.cause }
func (e *memberError) Unwrap() error { return e.cause }

// WithMember annotates err with the member it concerns. The message is
// unchanged. WithMember returns nil when err is nil and err itself when
// member is empty.
func WithMember(err error, member string) error {
	if err == nil || member == "" {
		return err
	}
	return &memberError{cause: err, member: member}
}

// Member returns the innermost member recorded by WithMember, or "".
func Member(err error) string {
	member := ""
	for err != nil {
		if m, ok := err.(*memberError); ok {
			member = m.member
		}
		err = Unwrap(err)
	}
	return member
}

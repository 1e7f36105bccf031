// Package apperror provides structured settlement errors with codes,
// severity levels and details. It also converts them to gRPC status errors
// and connect errors for the API surface.
package apperror

import (
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorCode represents a specific application error code.
type ErrorCode string

const (
	// Input
	CodeEmptyInput           ErrorCode = "EMPTY_INPUT"
	CodeDuplicateParticipant ErrorCode = "DUPLICATE_PARTICIPANT"
	CodeInvalidAmount        ErrorCode = "INVALID_AMOUNT"
	CodeInvalidName          ErrorCode = "INVALID_NAME"
	CodeTooManyParticipants  ErrorCode = "TOO_MANY_PARTICIPANTS"
	CodeInvalidFormat        ErrorCode = "INVALID_FORMAT"

	// Network construction
	CodeNoDebtors     ErrorCode = "NO_DEBTORS"
	CodeNoCreditors   ErrorCode = "NO_CREDITORS"
	CodeInvalidSource ErrorCode = "INVALID_SOURCE"
	CodeInvalidSink   ErrorCode = "INVALID_SINK"
	CodeUnbalanced    ErrorCode = "UNBALANCED"

	// Max-flow engine
	CodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"
	CodeIterationLimit     ErrorCode = "ITERATION_LIMIT"
	CodeTimeout            ErrorCode = "TIMEOUT"

	// General
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeNilInput        ErrorCode = "NIL_INPUT"
	CodeUnimplemented   ErrorCode = "UNIMPLEMENTED"
	CodeRateLimited     ErrorCode = "RATE_LIMITED"

	// Access
	CodeUnauthenticated  ErrorCode = "UNAUTHENTICATED"
	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"
)

// Severity defines the criticality level of an error.
type Severity int

const (
	// SeverityWarning indicates a non-critical issue that can be ignored or automatically resolved.
	SeverityWarning Severity = iota
	// SeverityError indicates a standard error that requires attention.
	SeverityError
	// SeverityCritical indicates a broken internal guarantee.
	SeverityCritical
)

// String returns the string representation of the Severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Error is the application error type. It carries a code, a message,
// an optional field, structured details, a cause and a severity.
type Error struct {
	Code     ErrorCode      // Code identifies the kind of failure.
	Message  string         // Message is a human-readable description.
	Field    string         // Field names the offending input, if any.
	Details  map[string]any // Details holds structured context.
	Cause    error          // Cause is the wrapped error.
	Severity Severity       // Severity is the criticality level.
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// GRPCStatus converts the application error into a gRPC status.Status.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.grpcCode(), e.Message)
}

// grpcCode maps an ErrorCode to a gRPC codes.Code.
func (e *Error) grpcCode() codes.Code {
	switch e.Code {
	case CodeEmptyInput, CodeDuplicateParticipant, CodeInvalidAmount, CodeInvalidName,
		CodeTooManyParticipants, CodeInvalidFormat, CodeInvalidArgument, CodeNilInput:
		return codes.InvalidArgument

	case CodeNoDebtors, CodeNoCreditors, CodeUnbalanced:
		return codes.FailedPrecondition

	case CodeNotFound:
		return codes.NotFound

	case CodeTimeout, CodeIterationLimit:
		return codes.DeadlineExceeded

	case CodeUnimplemented:
		return codes.Unimplemented

	case CodeRateLimited:
		return codes.ResourceExhausted

	case CodeUnauthenticated:
		return codes.Unauthenticated

	case CodePermissionDenied:
		return codes.PermissionDenied

	case CodeInvariantViolation:
		return codes.DataLoss

	default:
		return codes.Internal
	}
}

// New creates an error with SeverityError.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Details:  make(map[string]any),
		Severity: SeverityError,
	}
}

// Newf creates an error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// NewWithField creates an error bound to an input field.
func NewWithField(code ErrorCode, message, field string) *Error {
	e := New(code, message)
	e.Field = field
	return e
}

// NewWarning creates an error with SeverityWarning.
func NewWarning(code ErrorCode, message string) *Error {
	return New(code, message).WithSeverity(SeverityWarning)
}

// NewCritical creates an error with SeverityCritical.
func NewCritical(code ErrorCode, message string) *Error {
	return New(code, message).WithSeverity(SeverityCritical)
}

// Wrap creates an error that wraps cause.
func Wrap(cause error, code ErrorCode, message string) *Error {
	e := New(code, message)
	e.Cause = cause
	return e
}

// WithDetails adds a key-value pair to the details map.
func (e *Error) WithDetails(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithField sets the offending field.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithSeverity sets the severity level.
func (e *Error) WithSeverity(s Severity) *Error {
	e.Severity = s
	return e
}

// Is reports whether err is an *Error with the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Code extracts the ErrorCode from err, or CodeInternal.
func Code(err error) ErrorCode {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// ToGRPC converts any error into a gRPC status error.
func ToGRPC(err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.GRPCStatus().Err()
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	return status.Error(codes.Internal, err.Error())
}

// FromGRPC converts a gRPC error into an *Error.
func FromGRPC(err error) *Error {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return New(CodeInternal, err.Error())
	}

	var code ErrorCode
	switch st.Code() {
	case codes.InvalidArgument:
		code = CodeInvalidArgument
	case codes.NotFound:
		code = CodeNotFound
	case codes.DeadlineExceeded:
		code = CodeTimeout
	case codes.Unimplemented:
		code = CodeUnimplemented
	case codes.ResourceExhausted:
		code = CodeRateLimited
	case codes.Unauthenticated:
		code = CodeUnauthenticated
	case codes.PermissionDenied:
		code = CodePermissionDenied
	default:
		code = CodeInternal
	}

	return New(code, st.Message())
}

// ToConnect converts any error into a *connect.Error. The connect code has
// the same numeric value as the gRPC code, so both protocols agree.
func ToConnect(err error) error {
	if err == nil {
		return nil
	}

	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		cerr := connect.NewError(connect.Code(appErr.grpcCode()), errors.New(appErr.Message))
		cerr.Meta().Set("X-Error-Code", string(appErr.Code))
		if appErr.Field != "" {
			cerr.Meta().Set("X-Error-Field", appErr.Field)
		}
		return cerr
	}

	return connect.NewError(connect.CodeInternal, err)
}

// IsWarning reports whether err is an *Error with SeverityWarning.
func IsWarning(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Severity == SeverityWarning
	}
	return false
}

// IsCritical reports whether err is an *Error with SeverityCritical.
func IsCritical(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Severity == SeverityCritical
	}
	return false
}

// Messages for the two "already settled" outcomes.
const (
	MsgNoDebtors   = "nobody owes money, everything is settled up"
	MsgNoCreditors = "nobody is owed money, everything is settled up"
)

// Predefined errors. Callers that need to attach details must build a
// fresh error with New instead of mutating these.
var (
	ErrEmptyInput     = New(CodeEmptyInput, "no payments given")
	ErrNoDebtors      = New(CodeNoDebtors, MsgNoDebtors)
	ErrNoCreditors    = New(CodeNoCreditors, MsgNoCreditors)
	ErrInvalidSource  = New(CodeInvalidSource, "source node not found")
	ErrInvalidSink    = New(CodeInvalidSink, "sink node not found")
	ErrTimeout        = New(CodeTimeout, "operation timed out")
	ErrNilNetwork     = New(CodeNilInput, "network is nil")
	ErrIterationLimit = New(CodeIterationLimit, "iteration limit exceeded")
)

// ValidationErrors aggregates the results of several validation checks.
type ValidationErrors struct {
	Errors   []*Error
	Warnings []*Error
}

// NewValidationErrors returns an empty collection.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors:   make([]*Error, 0),
		Warnings: make([]*Error, 0),
	}
}

// Add appends err to Errors or Warnings depending on its severity.
func (v *ValidationErrors) Add(err *Error) {
	if err.Severity == SeverityWarning {
		v.Warnings = append(v.Warnings, err)
	} else {
		v.Errors = append(v.Errors, err)
	}
}

// AddError adds a new error.
func (v *ValidationErrors) AddError(code ErrorCode, message string) {
	v.Errors = append(v.Errors, New(code, message))
}

// AddWarning adds a new warning.
func (v *ValidationErrors) AddWarning(code ErrorCode, message string) {
	v.Warnings = append(v.Warnings, NewWarning(code, message))
}

// AddErrorWithField adds a new error bound to a field.
func (v *ValidationErrors) AddErrorWithField(code ErrorCode, message, field string) {
	v.Errors = append(v.Errors, NewWithField(code, message, field))
}

// HasErrors reports whether any error was collected.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// HasWarnings reports whether any warning was collected.
func (v *ValidationErrors) HasWarnings() bool {
	return len(v.Warnings) > 0
}

// IsValid reports whether there are no errors. Warnings do not count.
func (v *ValidationErrors) IsValid() bool {
	return !v.HasErrors()
}

// Merge appends everything from other.
func (v *ValidationErrors) Merge(other *ValidationErrors) {
	if other == nil {
		return
	}
	v.Errors = append(v.Errors, other.Errors...)
	v.Warnings = append(v.Warnings, other.Warnings...)
}

// First returns the first collected error, or nil.
func (v *ValidationErrors) First() *Error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v.Errors[0]
}

// ErrorMessages returns the formatted messages of all errors.
func (v *ValidationErrors) ErrorMessages() []string {
	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Error()
	}
	return messages
}

// WarningMessages returns the plain messages of all warnings.
func (v *ValidationErrors) WarningMessages() []string {
	messages := make([]string, len(v.Warnings))
	for i, warn := range v.Warnings {
		messages[i] = warn.Message
	}
	return messages
}

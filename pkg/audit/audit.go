// Package audit records who called which API procedure and how it ended.
// Entries are written as JSON lines to stdout or to a rotating file.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action represents the type of action performed in an audit event.
type Action string

const (
	// ActionSettle indicates a settlement computation.
	ActionSettle Action = "SETTLE"
	// ActionRead indicates a read of stored data or server metadata.
	ActionRead Action = "READ"
	// ActionDelete indicates removal of a stored settlement.
	ActionDelete Action = "DELETE"
)

// Outcome represents the result of an audit action.
type Outcome string

const (
	// OutcomeSuccess indicates that the action completed successfully.
	OutcomeSuccess Outcome = "SUCCESS"
	// OutcomeFailure indicates that the action failed due to an error.
	OutcomeFailure Outcome = "FAILURE"
	// OutcomeDenied indicates that the caller was not allowed to act.
	OutcomeDenied Outcome = "DENIED"
)

// Entry represents a single audit log record.
type Entry struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Service      string         `json:"service"`
	Procedure    string         `json:"procedure"`
	Action       Action         `json:"action"`
	Outcome      Outcome        `json:"outcome"`
	Subject      string         `json:"subject,omitempty"` // token subject when auth is on
	ClientIP     string         `json:"client_ip,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	RequestID    string         `json:"request_id,omitempty"`
	RunID        string         `json:"run_id,omitempty"`
	DurationMs   int64          `json:"duration_ms"`
	ErrorCode    string         `json:"error_code,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Logger is the interface that audit loggers must implement.
type Logger interface {
	// Log records an audit event.
	Log(ctx context.Context, entry *Entry) error

	// Close flushes pending entries and releases resources.
	Close() error
}

// Builder provides a fluent API for constructing an Entry object.
type Builder struct {
	entry *Entry
}

// NewEntry creates a Builder stamped with the current time.
func NewEntry() *Builder {
	return &Builder{
		entry: &Entry{
			Timestamp: time.Now().UTC(),
		},
	}
}

// Service sets the service name.
func (b *Builder) Service(s string) *Builder {
	b.entry.Service = s
	return b
}

// Procedure sets the invoked procedure.
func (b *Builder) Procedure(p string) *Builder {
	b.entry.Procedure = p
	return b
}

// Action sets the action type.
func (b *Builder) Action(a Action) *Builder {
	b.entry.Action = a
	return b
}

// Outcome sets the outcome.
func (b *Builder) Outcome(o Outcome) *Builder {
	b.entry.Outcome = o
	return b
}

// Subject sets the authenticated caller.
func (b *Builder) Subject(s string) *Builder {
	b.entry.Subject = s
	return b
}

// Client sets the client IP and user agent.
func (b *Builder) Client(ip, userAgent string) *Builder {
	b.entry.ClientIP = ip
	b.entry.UserAgent = userAgent
	return b
}

// RequestID sets the request ID.
func (b *Builder) RequestID(id string) *Builder {
	b.entry.RequestID = id
	return b
}

// RunID sets the settlement run the call produced or touched.
func (b *Builder) RunID(id string) *Builder {
	b.entry.RunID = id
	return b
}

// Duration sets the duration of the operation.
func (b *Builder) Duration(d time.Duration) *Builder {
	b.entry.DurationMs = d.Milliseconds()
	return b
}

// Error sets the error code and message of a failed action.
func (b *Builder) Error(code, message string) *Builder {
	b.entry.ErrorCode = code
	b.entry.ErrorMessage = message
	return b
}

// Meta adds a key-value pair to the entry metadata.
func (b *Builder) Meta(key string, value any) *Builder {
	if b.entry.Metadata == nil {
		b.entry.Metadata = make(map[string]any)
	}
	b.entry.Metadata[key] = value
	return b
}

// Build finalizes the Entry and assigns an ID if none is set.
func (b *Builder) Build() *Entry {
	if b.entry.ID == "" {
		b.entry.ID = uuid.NewString()
	}
	return b.entry
}

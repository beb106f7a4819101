package types

import (
	"time"
)

// ToolDescriptor is the advertised form of a catalog entry
type ToolDescriptor struct {
	Name           string          `json:"name" yaml:"name"`
	Description    string          `json:"description" yaml:"description"`
	Group          string          `json:"group" yaml:"group"`
	ArgumentSchema map[string]any  `json:"argument_schema" yaml:"argument_schema"`
	ResultShape    string          `json:"result_shape" yaml:"result_shape"`
	Annotations    ToolAnnotations `json:"annotations" yaml:"annotations"`
}

// ToolAnnotations describes the side effects of a tool
type ToolAnnotations struct {
	ReadOnly    bool `json:"read_only" yaml:"read_only"`
	Destructive bool `json:"destructive" yaml:"destructive"`
	Idempotent  bool `json:"idempotent" yaml:"idempotent"`
	LongRunning bool `json:"long_running" yaml:"long_running"`
}

// ToolCall is a decoded inbound tool invocation
type ToolCall struct {
	Name      string
	Arguments map[string]any
}

// Kind classifies a failed tool call
type Kind string

const (
	KindUnknownTool        Kind = "UnknownTool"
	KindInvalidArguments   Kind = "InvalidArguments"
	KindNotFound           Kind = "NotFound"
	KindAlreadyExists      Kind = "AlreadyExists"
	KindPermissionDenied   Kind = "PermissionDenied"
	KindFailedPrecondition Kind = "FailedPrecondition"
	KindUnimplemented      Kind = "Unimplemented"
	KindUnavailable        Kind = "Unavailable"
	KindDeadlineExceeded   Kind = "DeadlineExceeded"
	KindCancelled          Kind = "Cancelled"
	KindInternal           Kind = "Internal"
)

// KindOK labels successful calls in metrics and audit records
const KindOK Kind = "OK"

// Failure is the error variant of a ToolResult
type Failure struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// ToolResult is either a success payload or a failure, never both
type ToolResult struct {
	payload any
	failure *Failure
}

// Success builds a successful result
func Success(payload any) ToolResult {
	return ToolResult{payload: payload}
}

// Fail builds a failed result
func Fail(kind Kind, message string) ToolResult {
	return ToolResult{failure: &Failure{Kind: kind, Message: message}}
}

// OK reports whether the result is a success
func (r ToolResult) OK() bool {
	return r.failure == nil
}

// Payload returns the success payload, nil on failure
func (r ToolResult) Payload() any {
	return r.payload
}

// Failure returns the failure, nil on success
func (r ToolResult) Failure() *Failure {
	if r.failure == nil {
		return nil
	}
	f := *r.failure
	return &f
}

// Kind returns the failure kind, or KindOK for a success
func (r ToolResult) Kind() Kind {
	if r.failure == nil {
		return KindOK
	}
	return r.failure.Kind
}

// OperationState is a state of a long-running tool call
type OperationState string

const (
	OperationPending   OperationState = "pending"
	OperationRunning   OperationState = "running"
	OperationCompleted OperationState = "completed"
	OperationCancelled OperationState = "cancelled"
	OperationFailed    OperationState = "failed"
)

// Terminal reports whether no further transition is possible
func (s OperationState) Terminal() bool {
	switch s {
	case OperationCompleted, OperationCancelled, OperationFailed:
		return true
	}
	return false
}

// Operation is a snapshot of a long-running tool call
type Operation struct {
	ID         string         `json:"id"`
	Tool       string         `json:"tool"`
	State      OperationState `json:"state"`
	FailedWith Kind           `json:"failed_with"`
	CreatedAt  time.Time      `json:"created_at"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// CallRecord is one audit journal entry. Argument values are never stored.
type CallRecord struct {
	ID        string        `json:"id"`
	Tool      string        `json:"tool"`
	Kind      Kind          `json:"kind"`
	Message   string        `json:"message,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

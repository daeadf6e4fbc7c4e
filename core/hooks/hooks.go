// Package hooks runs pluggable observers and interceptors around the
// authorization lifecycle. Third-party logic registers against a
// phase and is executed by the pipeline without ever touching the
// core evaluation: a hook can observe, veto, or annotate a decision,
// and one hook's failure never prevents collection of the others'
// results.
package hooks

import (
	"context"
	"time"

	"github.com/davidahmann/trustgate/core/schema/v1/authz"
)

type Phase string

const (
	PhasePreAuthorize  Phase = "pre_authorize"
	PhasePostAuthorize Phase = "post_authorize"
	PhaseTrustChange   Phase = "trust_change"
)

// Priority orders hook execution within a phase; higher runs first.
type Priority int

const (
	PriorityLow    Priority = -1
	PriorityNormal Priority = 0
	PriorityHigh   Priority = 1
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityLow:
		return "low"
	default:
		return "normal"
	}
}

// PreAuthorizeContext is the payload visible to pre-authorize hooks.
type PreAuthorizeContext struct {
	Intent   authz.Intent
	Metadata map[string]any
}

// PostAuthorizeContext additionally carries the decision and the
// trust profile it was evaluated against.
type PostAuthorizeContext struct {
	Intent   authz.Intent
	Decision authz.Decision
	Profile  authz.TrustProfile
	Metadata map[string]any
}

// TrustChangeContext carries a trust transition: the profile before
// and after, and the reason for the change.
type TrustChangeContext struct {
	AgentID string
	Before  authz.TrustProfile
	After   authz.TrustProfile
	Reason  string
}

// Outcome is what a handler returns on success. Abort is a deliberate
// short-circuit request, distinct from a handler error: plain errors
// never halt the remaining hooks, an abort only does when the caller
// opted into stop-on-abort.
type Outcome[C any] struct {
	Abort       bool
	AbortReason string
	// Modified, when non-nil, replaces the context seen by later
	// hooks in sequential mode. Ignored in parallel mode.
	Modified *C
}

// Handler is the unit of pluggable logic for one phase context type.
type Handler[C any] interface {
	Handle(ctx context.Context, hookCtx C) (Outcome[C], error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc[C any] func(ctx context.Context, hookCtx C) (Outcome[C], error)

func (f HandlerFunc[C]) Handle(ctx context.Context, hookCtx C) (Outcome[C], error) {
	return f(ctx, hookCtx)
}

// Filter decides whether a hook sees a given context. A nil filter
// accepts everything.
type Filter[C any] func(hookCtx C) bool

// Hook is one registration. ID must be unique across the pipeline;
// an empty ID gets a generated one at registration.
type Hook[C any] struct {
	ID       string
	Name     string
	Priority Priority
	// Timeout bounds one execution of this hook; zero means no
	// per-hook limit (the phase-global timeout still applies).
	Timeout time.Duration
	Filter  Filter[C]
	Handler Handler[C]
}

// Status classifies one hook execution in a phase result.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusAborted   Status = "aborted"
	StatusSkipped   Status = "skipped"
)

// HookResult is the per-hook record in a phase result. The executor
// guarantees a complete result list even under partial failure.
type HookResult struct {
	HookID      string        `json:"hook_id"`
	HookName    string        `json:"hook_name,omitempty"`
	Status      Status        `json:"status"`
	Error       string        `json:"error,omitempty"`
	AbortReason string        `json:"abort_reason,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// PhaseResult collects every eligible hook's outcome for one phase
// invocation. Context holds the final payload after sequential
// modification chaining.
type PhaseResult[C any] struct {
	Results     []HookResult `json:"results"`
	Succeeded   int          `json:"succeeded"`
	Failed      int          `json:"failed"`
	Skipped     int          `json:"skipped"`
	Aborted     bool         `json:"aborted"`
	AbortReason string       `json:"abort_reason,omitempty"`
	Context     C            `json:"-"`
}

// Mode selects how a phase's hooks run. Sequential preserves priority
// order and modification chaining; parallel fires every eligible hook
// concurrently and collects all results. Ordering-sensitive phases
// must use sequential mode.
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeParallel   Mode = "parallel"
)

// ExecOptions configure one phase invocation, not one hook.
type ExecOptions struct {
	Mode Mode
	// StopOnAbort skips hooks that have not started once an earlier
	// hook's outcome requests abort. Already-started parallel hooks
	// are never retroactively cancelled.
	StopOnAbort bool
	// Timeout bounds the whole phase; zero means no global limit.
	Timeout time.Duration
}

package hooks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func appendHandler(label string) Handler[recordState] {
	return HandlerFunc[recordState](func(ctx context.Context, hookCtx recordState) (Outcome[recordState], error) {
		modified := hookCtx
		modified.Visits = append(modified.Visits, label)
		return Outcome[recordState]{Modified: &modified}, nil
	})
}

func TestExecuteSequentialChainsModifications(t *testing.T) {
	registry := NewRegistry[recordState](PhasePreAuthorize)
	hooks := []Hook[recordState]{
		{ID: "second", Priority: PriorityNormal, Handler: appendHandler("second")},
		{ID: "first", Priority: PriorityHigh, Handler: appendHandler("first")},
		{ID: "third", Priority: PriorityLow, Handler: appendHandler("third")},
	}
	for _, hook := range hooks {
		if _, err := registry.Register(hook); err != nil {
			t.Fatalf("register %s: %v", hook.ID, err)
		}
	}

	result := registry.Execute(context.Background(), recordState{}, ExecOptions{Mode: ModeSequential})
	if result.Succeeded != 3 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}
	got := strings.Join(result.Context.Visits, ",")
	if got != "first,second,third" {
		t.Fatalf("visits = %s", got)
	}
}

func TestExecuteFailureDoesNotHaltOthers(t *testing.T) {
	registry := NewRegistry[recordState](PhasePreAuthorize)
	_, err := registry.Register(Hook[recordState]{
		ID:       "broken",
		Priority: PriorityHigh,
		Handler: HandlerFunc[recordState](func(ctx context.Context, hookCtx recordState) (Outcome[recordState], error) {
			return Outcome[recordState]{}, fmt.Errorf("backend unavailable")
		}),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := registry.Register(Hook[recordState]{ID: "ok", Handler: appendHandler("ok")}); err != nil {
		t.Fatalf("register: %v", err)
	}

	result := registry.Execute(context.Background(), recordState{}, ExecOptions{})
	if result.Failed != 1 || result.Succeeded != 1 {
		t.Fatalf("result = %+v", result)
	}
	if result.Results[0].Status != StatusFailed || result.Results[0].Error != "backend unavailable" {
		t.Fatalf("failed result = %+v", result.Results[0])
	}
	if len(result.Context.Visits) != 1 || result.Context.Visits[0] != "ok" {
		t.Fatalf("later hook must still run: %+v", result.Context)
	}
}

func TestExecuteAbortStopsRemainingWhenRequested(t *testing.T) {
	registry := NewRegistry[recordState](PhasePreAuthorize)
	_, err := registry.Register(Hook[recordState]{
		ID:       "veto",
		Priority: PriorityHigh,
		Handler: HandlerFunc[recordState](func(ctx context.Context, hookCtx recordState) (Outcome[recordState], error) {
			return Outcome[recordState]{Abort: true, AbortReason: "policy veto"}, nil
		}),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := registry.Register(Hook[recordState]{ID: "after", Priority: PriorityLow, Handler: appendHandler("after")}); err != nil {
		t.Fatalf("register: %v", err)
	}

	result := registry.Execute(context.Background(), recordState{}, ExecOptions{StopOnAbort: true})
	if !result.Aborted || result.AbortReason != "policy veto" {
		t.Fatalf("result = %+v", result)
	}
	if result.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1", result.Skipped)
	}
	last := result.Results[len(result.Results)-1]
	if last.HookID != "after" || last.Status != StatusSkipped {
		t.Fatalf("last result = %+v", last)
	}

	// Without stop-on-abort the remaining hooks still run.
	result = registry.Execute(context.Background(), recordState{}, ExecOptions{})
	if !result.Aborted || result.Succeeded != 1 || result.Skipped != 0 {
		t.Fatalf("result = %+v", result)
	}
}

func TestExecuteIsolatesPanics(t *testing.T) {
	registry := NewRegistry[recordState](PhasePreAuthorize)
	_, err := registry.Register(Hook[recordState]{
		ID: "panicky",
		Handler: HandlerFunc[recordState](func(ctx context.Context, hookCtx recordState) (Outcome[recordState], error) {
			panic("nil map write")
		}),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	result := registry.Execute(context.Background(), recordState{}, ExecOptions{})
	if result.Failed != 1 {
		t.Fatalf("result = %+v", result)
	}
	if !strings.Contains(result.Results[0].Error, "hook panicked") {
		t.Fatalf("error = %q", result.Results[0].Error)
	}
}

func TestExecutePerHookTimeout(t *testing.T) {
	registry := NewRegistry[recordState](PhasePreAuthorize)
	_, err := registry.Register(Hook[recordState]{
		ID:       "slow",
		Priority: PriorityHigh,
		Timeout:  10 * time.Millisecond,
		Handler: HandlerFunc[recordState](func(ctx context.Context, hookCtx recordState) (Outcome[recordState], error) {
			select {
			case <-ctx.Done():
				return Outcome[recordState]{}, ctx.Err()
			case <-time.After(time.Second):
				return Outcome[recordState]{}, nil
			}
		}),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := registry.Register(Hook[recordState]{ID: "fast", Handler: appendHandler("fast")}); err != nil {
		t.Fatalf("register: %v", err)
	}

	result := registry.Execute(context.Background(), recordState{}, ExecOptions{})
	if result.Failed != 1 || result.Succeeded != 1 {
		t.Fatalf("result = %+v", result)
	}
	if !strings.Contains(result.Results[0].Error, "exceeded its") {
		t.Fatalf("error = %q", result.Results[0].Error)
	}
}

func TestExecutePhaseTimeoutSkipsUnstartedHooks(t *testing.T) {
	registry := NewRegistry[recordState](PhasePreAuthorize)
	_, err := registry.Register(Hook[recordState]{
		ID:       "slow",
		Priority: PriorityHigh,
		Handler: HandlerFunc[recordState](func(ctx context.Context, hookCtx recordState) (Outcome[recordState], error) {
			<-ctx.Done()
			return Outcome[recordState]{}, ctx.Err()
		}),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := registry.Register(Hook[recordState]{ID: "never", Priority: PriorityLow, Handler: appendHandler("never")}); err != nil {
		t.Fatalf("register: %v", err)
	}

	result := registry.Execute(context.Background(), recordState{}, ExecOptions{Timeout: 10 * time.Millisecond})
	if result.Failed != 1 || result.Skipped != 1 {
		t.Fatalf("result = %+v", result)
	}
	if result.Results[1].Status != StatusSkipped {
		t.Fatalf("second result = %+v", result.Results[1])
	}
}

func TestExecuteParallelCollectsAllResults(t *testing.T) {
	registry := NewRegistry[recordState](PhasePreAuthorize)
	var mu sync.Mutex
	ran := map[string]bool{}
	for _, id := range []string{"a", "b", "c"} {
		id := id
		_, err := registry.Register(Hook[recordState]{
			ID: id,
			Handler: HandlerFunc[recordState](func(ctx context.Context, hookCtx recordState) (Outcome[recordState], error) {
				mu.Lock()
				ran[id] = true
				mu.Unlock()
				return Outcome[recordState]{}, nil
			}),
		})
		if err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}

	result := registry.Execute(context.Background(), recordState{}, ExecOptions{Mode: ModeParallel})
	if result.Succeeded != 3 || len(result.Results) != 3 {
		t.Fatalf("result = %+v", result)
	}
	if len(ran) != 3 {
		t.Fatalf("ran = %v", ran)
	}
}

func TestExecuteParallelSurfacesAbortWithoutCancelling(t *testing.T) {
	registry := NewRegistry[recordState](PhasePreAuthorize)
	_, err := registry.Register(Hook[recordState]{
		ID:       "veto",
		Priority: PriorityHigh,
		Handler: HandlerFunc[recordState](func(ctx context.Context, hookCtx recordState) (Outcome[recordState], error) {
			return Outcome[recordState]{Abort: true, AbortReason: "parallel veto"}, nil
		}),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := registry.Register(Hook[recordState]{ID: "peer", Handler: appendHandler("peer")}); err != nil {
		t.Fatalf("register: %v", err)
	}

	result := registry.Execute(context.Background(), recordState{}, ExecOptions{Mode: ModeParallel, StopOnAbort: true})
	if !result.Aborted || result.AbortReason != "parallel veto" {
		t.Fatalf("result = %+v", result)
	}
	if result.Succeeded != 1 || result.Skipped != 0 {
		t.Fatalf("peer must complete: %+v", result)
	}
}

func TestExecuteNilContextDefaults(t *testing.T) {
	registry := NewRegistry[recordState](PhasePreAuthorize)
	if _, err := registry.Register(Hook[recordState]{ID: "h1", Handler: appendHandler("h1")}); err != nil {
		t.Fatalf("register: %v", err)
	}
	result := registry.Execute(nil, recordState{}, ExecOptions{}) //nolint:staticcheck
	if result.Succeeded != 1 {
		t.Fatalf("result = %+v", result)
	}
}

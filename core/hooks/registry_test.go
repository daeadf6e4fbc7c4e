package hooks

import (
	"context"
	"testing"
)

type recordState struct {
	Visits []string
	Value  int
}

func noopHandler() Handler[recordState] {
	return HandlerFunc[recordState](func(ctx context.Context, hookCtx recordState) (Outcome[recordState], error) {
		return Outcome[recordState]{}, nil
	})
}

func TestRegisterAssignsIDWhenEmpty(t *testing.T) {
	registry := NewRegistry[recordState](PhasePreAuthorize)
	id, err := registry.Register(Hook[recordState]{Handler: noopHandler()})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if id == "" {
		t.Fatalf("expected generated id")
	}
	if !registry.Has(id) {
		t.Fatalf("registered hook not found")
	}
}

func TestRegisterRejections(t *testing.T) {
	registry := NewRegistry[recordState](PhasePreAuthorize)
	if _, err := registry.Register(Hook[recordState]{ID: "h1"}); err == nil {
		t.Fatalf("nil handler accepted")
	}
	if _, err := registry.Register(Hook[recordState]{ID: "h1", Priority: Priority(5), Handler: noopHandler()}); err == nil {
		t.Fatalf("out-of-range priority accepted")
	}
	if _, err := registry.Register(Hook[recordState]{ID: "h1", Timeout: -1, Handler: noopHandler()}); err == nil {
		t.Fatalf("negative timeout accepted")
	}
	if _, err := registry.Register(Hook[recordState]{ID: "h1", Handler: noopHandler()}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := registry.Register(Hook[recordState]{ID: " h1 ", Handler: noopHandler()}); err == nil {
		t.Fatalf("duplicate id accepted after trim")
	}
}

func TestListOrdersByPriorityThenRegistration(t *testing.T) {
	registry := NewRegistry[recordState](PhasePreAuthorize)
	registrations := []struct {
		id       string
		priority Priority
	}{
		{"low", PriorityLow},
		{"normal-a", PriorityNormal},
		{"high", PriorityHigh},
		{"normal-b", PriorityNormal},
	}
	for _, reg := range registrations {
		if _, err := registry.Register(Hook[recordState]{ID: reg.id, Priority: reg.priority, Handler: noopHandler()}); err != nil {
			t.Fatalf("register %s: %v", reg.id, err)
		}
	}

	listed := registry.List()
	wantOrder := []string{"high", "normal-a", "normal-b", "low"}
	if len(listed) != len(wantOrder) {
		t.Fatalf("listed %d hooks, want %d", len(listed), len(wantOrder))
	}
	for index, info := range listed {
		if info.ID != wantOrder[index] {
			t.Fatalf("list[%d] = %s, want %s", index, info.ID, wantOrder[index])
		}
		if info.Phase != PhasePreAuthorize {
			t.Fatalf("list[%d] phase = %s", index, info.Phase)
		}
	}
}

func TestSetEnabledExcludesFromExecutionOnly(t *testing.T) {
	registry := NewRegistry[recordState](PhasePreAuthorize)
	if _, err := registry.Register(Hook[recordState]{ID: "h1", Handler: noopHandler()}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.SetEnabled("h1", false); err != nil {
		t.Fatalf("disable: %v", err)
	}

	result := registry.Execute(context.Background(), recordState{}, ExecOptions{})
	if len(result.Results) != 0 {
		t.Fatalf("disabled hook executed: %+v", result.Results)
	}
	listed := registry.List()
	if len(listed) != 1 || listed[0].Enabled {
		t.Fatalf("disabled hook must stay listed: %+v", listed)
	}

	if err := registry.SetEnabled("h1", true); err != nil {
		t.Fatalf("re-enable: %v", err)
	}
	result = registry.Execute(context.Background(), recordState{}, ExecOptions{})
	if result.Succeeded != 1 {
		t.Fatalf("re-enabled hook must run: %+v", result)
	}

	if err := registry.SetEnabled("ghost", true); err == nil {
		t.Fatalf("unknown id accepted")
	}
}

func TestUnregisterAndClear(t *testing.T) {
	registry := NewRegistry[recordState](PhasePreAuthorize)
	if _, err := registry.Register(Hook[recordState]{ID: "h1", Handler: noopHandler()}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Unregister("h1"); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if registry.Has("h1") {
		t.Fatalf("hook still present after unregister")
	}
	if err := registry.Unregister("h1"); err == nil {
		t.Fatalf("double unregister accepted")
	}

	if _, err := registry.Register(Hook[recordState]{ID: "h2", Handler: noopHandler()}); err != nil {
		t.Fatalf("register: %v", err)
	}
	registry.Clear()
	if len(registry.List()) != 0 {
		t.Fatalf("clear left registrations behind")
	}
}

func TestFilterGatesEligibility(t *testing.T) {
	registry := NewRegistry[recordState](PhasePreAuthorize)
	_, err := registry.Register(Hook[recordState]{
		ID: "evens-only",
		Filter: func(hookCtx recordState) bool {
			return hookCtx.Value%2 == 0
		},
		Handler: noopHandler(),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	result := registry.Execute(context.Background(), recordState{Value: 3}, ExecOptions{})
	if len(result.Results) != 0 {
		t.Fatalf("filtered hook must not appear in results: %+v", result.Results)
	}
	result = registry.Execute(context.Background(), recordState{Value: 4}, ExecOptions{})
	if result.Succeeded != 1 {
		t.Fatalf("accepted context must run the hook: %+v", result)
	}
}

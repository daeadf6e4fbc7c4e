package hooks

import (
	"context"
	"fmt"
	"sync"
)

// Manager owns one registry per phase and keeps hook ids unique
// across all of them, so an id identifies exactly one hook anywhere
// in the pipeline.
type Manager struct {
	mu            sync.Mutex
	preAuthorize  *Registry[PreAuthorizeContext]
	postAuthorize *Registry[PostAuthorizeContext]
	trustChange   *Registry[TrustChangeContext]
}

func NewManager() *Manager {
	return &Manager{
		preAuthorize:  NewRegistry[PreAuthorizeContext](PhasePreAuthorize),
		postAuthorize: NewRegistry[PostAuthorizeContext](PhasePostAuthorize),
		trustChange:   NewRegistry[TrustChangeContext](PhaseTrustChange),
	}
}

// RegisterPreAuthorize registers a hook on the pre-authorize phase
// and returns its id.
func (m *Manager) RegisterPreAuthorize(hook Hook[PreAuthorizeContext]) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkUniqueLocked(hook.ID); err != nil {
		return "", err
	}
	return m.preAuthorize.Register(hook)
}

// RegisterPostAuthorize registers a hook on the post-authorize phase
// and returns its id.
func (m *Manager) RegisterPostAuthorize(hook Hook[PostAuthorizeContext]) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkUniqueLocked(hook.ID); err != nil {
		return "", err
	}
	return m.postAuthorize.Register(hook)
}

// RegisterTrustChange registers a hook on the trust-change phase and
// returns its id.
func (m *Manager) RegisterTrustChange(hook Hook[TrustChangeContext]) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkUniqueLocked(hook.ID); err != nil {
		return "", err
	}
	return m.trustChange.Register(hook)
}

// Unregister removes a hook from whichever phase holds it.
func (m *Manager) Unregister(hookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.preAuthorize.Has(hookID):
		return m.preAuthorize.Unregister(hookID)
	case m.postAuthorize.Has(hookID):
		return m.postAuthorize.Unregister(hookID)
	case m.trustChange.Has(hookID):
		return m.trustChange.Unregister(hookID)
	}
	return fmt.Errorf("hook %q is not registered", hookID)
}

// SetEnabled toggles a hook in whichever phase holds it.
func (m *Manager) SetEnabled(hookID string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.preAuthorize.Has(hookID):
		return m.preAuthorize.SetEnabled(hookID, enabled)
	case m.postAuthorize.Has(hookID):
		return m.postAuthorize.SetEnabled(hookID, enabled)
	case m.trustChange.Has(hookID):
		return m.trustChange.SetEnabled(hookID, enabled)
	}
	return fmt.Errorf("hook %q is not registered", hookID)
}

// ExecutePreAuthorize runs the pre-authorize phase.
func (m *Manager) ExecutePreAuthorize(ctx context.Context, hookCtx PreAuthorizeContext, opts ExecOptions) PhaseResult[PreAuthorizeContext] {
	return m.preAuthorize.Execute(ctx, hookCtx, opts)
}

// ExecutePostAuthorize runs the post-authorize phase.
func (m *Manager) ExecutePostAuthorize(ctx context.Context, hookCtx PostAuthorizeContext, opts ExecOptions) PhaseResult[PostAuthorizeContext] {
	return m.postAuthorize.Execute(ctx, hookCtx, opts)
}

// ExecuteTrustChange runs the trust-change phase.
func (m *Manager) ExecuteTrustChange(ctx context.Context, hookCtx TrustChangeContext, opts ExecOptions) PhaseResult[TrustChangeContext] {
	return m.trustChange.Execute(ctx, hookCtx, opts)
}

// HooksForPhase lists the registrations of one phase in execution
// order.
func (m *Manager) HooksForPhase(phase Phase) []Info {
	switch phase {
	case PhasePreAuthorize:
		return m.preAuthorize.List()
	case PhasePostAuthorize:
		return m.postAuthorize.List()
	case PhaseTrustChange:
		return m.trustChange.List()
	}
	return nil
}

// Hooks lists every registration across all phases.
func (m *Manager) Hooks() []Info {
	out := m.preAuthorize.List()
	out = append(out, m.postAuthorize.List()...)
	out = append(out, m.trustChange.List()...)
	return out
}

// PhaseStats reports one phase's registration counts.
type PhaseStats struct {
	Total   int `json:"total"`
	Enabled int `json:"enabled"`
}

// Stats reports registration counts per phase and overall.
type Stats struct {
	Phases  map[Phase]PhaseStats `json:"phases"`
	Total   int                  `json:"total"`
	Enabled int                  `json:"enabled"`
}

func (m *Manager) Stats() Stats {
	stats := Stats{Phases: make(map[Phase]PhaseStats, 3)}
	for phase, counts := range map[Phase]func() (int, int){
		PhasePreAuthorize:  m.preAuthorize.counts,
		PhasePostAuthorize: m.postAuthorize.counts,
		PhaseTrustChange:   m.trustChange.counts,
	} {
		total, enabled := counts()
		stats.Phases[phase] = PhaseStats{Total: total, Enabled: enabled}
		stats.Total += total
		stats.Enabled += enabled
	}
	return stats
}

// Clear drops every registration in every phase.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preAuthorize.Clear()
	m.postAuthorize.Clear()
	m.trustChange.Clear()
}

func (m *Manager) checkUniqueLocked(hookID string) error {
	if hookID == "" {
		return nil
	}
	if m.preAuthorize.Has(hookID) || m.postAuthorize.Has(hookID) || m.trustChange.Has(hookID) {
		return fmt.Errorf("hook id %q is already registered in another phase", hookID)
	}
	return nil
}

package hooks

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// entry pairs a hook with its registration order and enabled state.
// Equal priorities preserve registration order.
type entry[C any] struct {
	hook    Hook[C]
	seq     int
	enabled bool
}

// Registry holds the hooks of one phase. A hook moves through
// Registered -> {Enabled <-> Disabled} -> Unregistered; registration
// enables it immediately.
type Registry[C any] struct {
	mu      sync.RWMutex
	phase   Phase
	entries map[string]*entry[C]
	nextSeq int
}

func NewRegistry[C any](phase Phase) *Registry[C] {
	return &Registry[C]{
		phase:   phase,
		entries: make(map[string]*entry[C]),
	}
}

func (r *Registry[C]) Phase() Phase {
	return r.phase
}

// Register adds a hook. Duplicate ids are rejected; an empty id gets
// a generated one. The registered id is returned.
func (r *Registry[C]) Register(hook Hook[C]) (string, error) {
	if hook.Handler == nil {
		return "", fmt.Errorf("hook handler is required")
	}
	hook.ID = strings.TrimSpace(hook.ID)
	if hook.ID == "" {
		hook.ID = uuid.NewString()
	}
	if hook.Priority < PriorityLow || hook.Priority > PriorityHigh {
		return "", fmt.Errorf("invalid hook priority: %d", int(hook.Priority))
	}
	if hook.Timeout < 0 {
		return "", fmt.Errorf("hook timeout must be >= 0")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[hook.ID]; exists {
		return "", fmt.Errorf("duplicate hook id: %s", hook.ID)
	}
	r.entries[hook.ID] = &entry[C]{
		hook:    hook,
		seq:     r.nextSeq,
		enabled: true,
	}
	r.nextSeq++
	return hook.ID, nil
}

// Unregister removes a hook permanently.
func (r *Registry[C]) Unregister(hookID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[hookID]; !exists {
		return fmt.Errorf("unknown hook id: %s", hookID)
	}
	delete(r.entries, hookID)
	return nil
}

// SetEnabled toggles a hook without losing its registration order.
func (r *Registry[C]) SetEnabled(hookID string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, exists := r.entries[hookID]
	if !exists {
		return fmt.Errorf("unknown hook id: %s", hookID)
	}
	item.enabled = enabled
	return nil
}

// Has reports whether a hook id is registered in this phase.
func (r *Registry[C]) Has(hookID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.entries[hookID]
	return exists
}

// Clear drops every registration.
func (r *Registry[C]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*entry[C])
	r.nextSeq = 0
}

// Info describes one registration for listings and statistics.
type Info struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Phase    Phase    `json:"phase"`
	Priority Priority `json:"priority"`
	Enabled  bool     `json:"enabled"`
}

// List returns the phase's hooks sorted by priority descending, ties
// in registration order.
func (r *Registry[C]) List() []Info {
	r.mu.RLock()
	ordered := r.orderedLocked(false)
	r.mu.RUnlock()

	out := make([]Info, 0, len(ordered))
	for _, item := range ordered {
		out = append(out, Info{
			ID:       item.hook.ID,
			Name:     item.hook.Name,
			Phase:    r.phase,
			Priority: item.hook.Priority,
			Enabled:  item.enabled,
		})
	}
	return out
}

// eligible snapshots the enabled hooks whose filter accepts the
// context, in execution order.
func (r *Registry[C]) eligible(hookCtx C) []Hook[C] {
	r.mu.RLock()
	ordered := r.orderedLocked(true)
	r.mu.RUnlock()

	out := make([]Hook[C], 0, len(ordered))
	for _, item := range ordered {
		if item.hook.Filter != nil && !item.hook.Filter(hookCtx) {
			continue
		}
		out = append(out, item.hook)
	}
	return out
}

func (r *Registry[C]) orderedLocked(enabledOnly bool) []*entry[C] {
	ordered := make([]*entry[C], 0, len(r.entries))
	for _, item := range r.entries {
		if enabledOnly && !item.enabled {
			continue
		}
		ordered = append(ordered, item)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].hook.Priority != ordered[j].hook.Priority {
			return ordered[i].hook.Priority > ordered[j].hook.Priority
		}
		return ordered[i].seq < ordered[j].seq
	})
	return ordered
}

func (r *Registry[C]) counts() (total, enabled int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.entries {
		total++
		if item.enabled {
			enabled++
		}
	}
	return total, enabled
}

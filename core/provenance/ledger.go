package provenance

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/davidahmann/trustgate/core/jcs"
	schemaprov "github.com/davidahmann/trustgate/core/schema/v1/provenance"
)

// Ledger is the append-only migration event store. Appends are
// serialized by a single-writer lock so audit replay sees a stable
// order; reads copy a snapshot and never block writers beyond that
// boundary. Constructor-injected, one per process or per test.
type Ledger struct {
	mu     sync.RWMutex
	events []schemaprov.MigrationEvent
}

type hashableMigration struct {
	AgentID  string `json:"agent_id"`
	FromType string `json:"from_type"`
	ToType   string `json:"to_type"`
	Reason   string `json:"reason"`
	Approver string `json:"approver"`
	Recorded string `json:"recorded_at"`
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// RecordMigration appends an approved reclassification event. The
// original CreationInfo is never rewritten; the event carries its own
// integrity hash over agent id, the type transition, and the reason.
func (l *Ledger) RecordMigration(agentID, fromType, toType, reason, approver string, now time.Time) (schemaprov.MigrationEvent, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return schemaprov.MigrationEvent{}, fmt.Errorf("agent_id is required")
	}
	fromType = strings.ToLower(strings.TrimSpace(fromType))
	if _, ok := creationModifiers[fromType]; !ok {
		return schemaprov.MigrationEvent{}, fmt.Errorf("unknown from_type: %s", fromType)
	}
	toType = strings.ToLower(strings.TrimSpace(toType))
	if _, ok := creationModifiers[toType]; !ok {
		return schemaprov.MigrationEvent{}, fmt.Errorf("unknown to_type: %s", toType)
	}
	if fromType == toType {
		return schemaprov.MigrationEvent{}, fmt.Errorf("migration must change the creation type")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return schemaprov.MigrationEvent{}, fmt.Errorf("reason is required")
	}
	approver = strings.TrimSpace(approver)
	if approver == "" {
		return schemaprov.MigrationEvent{}, fmt.Errorf("approver is required")
	}
	recorded := now.UTC()
	if recorded.IsZero() {
		recorded = time.Now().UTC()
	}

	event := schemaprov.MigrationEvent{
		EventID:  uuid.NewString(),
		AgentID:  agentID,
		FromType: fromType,
		ToType:   toType,
		Reason:   reason,
		Approver: approver,
		Recorded: recorded,
	}
	hash, err := migrationHash(event)
	if err != nil {
		return schemaprov.MigrationEvent{}, err
	}
	event.Hash = hash

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
	return event, nil
}

// VerifyMigrationIntegrity recomputes a migration event's hash. The
// event id is excluded from the hash input, so the check is stable
// across replays that re-assign identifiers.
func VerifyMigrationIntegrity(event schemaprov.MigrationEvent) bool {
	expected, err := migrationHash(event)
	if err != nil {
		return false
	}
	return expected == event.Hash
}

// EventsFor returns the migration events recorded for one agent, in
// append order.
func (l *Ledger) EventsFor(agentID string) []schemaprov.MigrationEvent {
	agentID = strings.TrimSpace(agentID)
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]schemaprov.MigrationEvent, 0, 4)
	for _, event := range l.events {
		if event.AgentID == agentID {
			out = append(out, event)
		}
	}
	return out
}

// Len reports the total number of recorded events.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// CurrentType resolves an agent's effective creation type: the target
// of its latest migration, or the original type when no migration
// exists.
func (l *Ledger) CurrentType(info schemaprov.CreationInfo) string {
	events := l.EventsFor(info.AgentID)
	if len(events) == 0 {
		return info.CreationType
	}
	return events[len(events)-1].ToType
}

func migrationHash(event schemaprov.MigrationEvent) (string, error) {
	digest, err := jcs.DigestValue(hashableMigration{
		AgentID:  event.AgentID,
		FromType: event.FromType,
		ToType:   event.ToType,
		Reason:   event.Reason,
		Approver: event.Approver,
		Recorded: event.Recorded.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", fmt.Errorf("hash migration event: %w", err)
	}
	return digest, nil
}

package constraint

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/davidahmann/trustgate/core/capability"
	"github.com/davidahmann/trustgate/core/ceiling"
	"github.com/davidahmann/trustgate/core/schema/v1/authz"
)

const defaultDecisionTTL = 5 * time.Minute

// actionRequiredLevels maps each action type to the minimum effective
// capability level that permits it.
var actionRequiredLevels = map[string]capability.Level{
	authz.ActionRead:        capability.LevelAssist,
	authz.ActionWrite:       capability.LevelAct,
	authz.ActionCommunicate: capability.LevelAct,
	authz.ActionDelete:      capability.LevelOrchestrate,
	authz.ActionExecute:     capability.LevelOrchestrate,
	authz.ActionTransfer:    capability.LevelGovern,
}

type DecideOptions struct {
	// Ceiling carries the five permission ceiling inputs for the agent.
	Ceiling ceiling.Context
	// RequiredLevel overrides the action-derived requirement when set.
	// A pointer so Observe (the zero level) is a valid override.
	RequiredLevel *capability.Level
	// Presets overrides the built-in band presets.
	Presets *PresetSet
	// TTL controls decision expiry; default 5 minutes.
	TTL time.Duration
	// Now pins the evaluation clock for deterministic tests.
	Now time.Time
}

// Decide runs one full authorization evaluation: permission ceiling
// check, constraint generation, and decision assembly. A denied
// permission is a normal decision, not an error.
func Decide(profile authz.TrustProfile, intent authz.Intent, opts DecideOptions) (authz.Decision, error) {
	started := time.Now()
	normalized, err := authz.NormalizeIntent(intent)
	if err != nil {
		return authz.Decision{}, fmt.Errorf("normalize intent: %w", err)
	}

	required := actionRequiredLevels[normalized.Action]
	if opts.RequiredLevel != nil {
		required = capability.ClampLevel(int(*opts.RequiredLevel))
	}
	check := ceiling.CheckPermission(opts.Ceiling, required)

	constraints, err := Generate(profile.Band, normalized, Options{Presets: opts.Presets})
	if err != nil {
		return authz.Decision{}, err
	}

	reasoning := []string{
		fmt.Sprintf("action %q requires %s; effective permission is %s", normalized.Action, check.Required, check.Actual),
	}
	if check.Allowed {
		reasoning = append(reasoning, fmt.Sprintf("permitted under trust band %s (%s)", profile.Band, profile.Band.Label()))
	} else {
		reasoning = append(reasoning, fmt.Sprintf("denied: effective permission short by %d level(s)", check.Gap))
	}
	for _, approval := range constraints.RequiredApprovals {
		reasoning = append(reasoning, fmt.Sprintf("approval required (%s): %s", approval.Type, approval.Reason))
	}
	if constraints.ReversibilityRequired {
		reasoning = append(reasoning, "execution must be reversible at this trust band")
	}

	now := opts.Now.UTC()
	if now.IsZero() {
		now = time.Now().UTC()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultDecisionTTL
	}

	return authz.Decision{
		SchemaID:      authz.DecisionSchemaID,
		SchemaVersion: authz.DecisionSchemaV1,
		DecisionID:    uuid.NewString(),
		IntentID:      normalized.IntentID,
		CorrelationID: normalized.CorrelationID,
		Permitted:     check.Allowed,
		Band:          profile.Band,
		TrustScore:    profile.AdjustedScore,
		Constraints:   constraints,
		Reasoning:     reasoning,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
		LatencyMS:     float64(time.Since(started).Microseconds()) / 1000.0,
	}, nil
}

package authz

import (
	"fmt"
	"strings"
)

var allowedActions = map[string]struct{}{
	ActionRead:        {},
	ActionWrite:       {},
	ActionDelete:      {},
	ActionExecute:     {},
	ActionCommunicate: {},
	ActionTransfer:    {},
}

var sensitivityRanks = map[string]int{
	SensitivityPublic:       0,
	SensitivityInternal:     1,
	SensitivityConfidential: 2,
	SensitivityRestricted:   3,
}

// SensitivityRank returns the position of a sensitivity label in the
// total order public < internal < confidential < restricted, or -1
// for an unknown label.
func SensitivityRank(sensitivity string) int {
	rank, ok := sensitivityRanks[strings.ToLower(strings.TrimSpace(sensitivity))]
	if !ok {
		return -1
	}
	return rank
}

// NormalizeIntent validates and canonicalizes an intent. Malformed
// intents are rejected here, at the call boundary, never coerced.
func NormalizeIntent(input Intent) (Intent, error) {
	output := input
	if output.SchemaID == "" {
		output.SchemaID = IntentSchemaID
	}
	if output.SchemaID != IntentSchemaID {
		return Intent{}, fmt.Errorf("unsupported intent schema_id: %s", output.SchemaID)
	}
	if output.SchemaVersion == "" {
		output.SchemaVersion = IntentSchemaV1
	}
	if output.SchemaVersion != IntentSchemaV1 {
		return Intent{}, fmt.Errorf("unsupported intent schema_version: %s", output.SchemaVersion)
	}

	output.IntentID = strings.TrimSpace(output.IntentID)
	if output.IntentID == "" {
		return Intent{}, fmt.Errorf("intent_id is required")
	}
	output.CorrelationID = strings.TrimSpace(output.CorrelationID)

	output.Action = strings.ToLower(strings.TrimSpace(output.Action))
	if _, ok := allowedActions[output.Action]; !ok {
		return Intent{}, fmt.Errorf("unsupported action: %s", output.Action)
	}

	output.ResourceScope = strings.TrimSpace(output.ResourceScope)
	if output.ResourceScope == "" {
		return Intent{}, fmt.Errorf("resource_scope is required")
	}

	output.Sensitivity = strings.ToLower(strings.TrimSpace(output.Sensitivity))
	if SensitivityRank(output.Sensitivity) < 0 {
		return Intent{}, fmt.Errorf("unsupported sensitivity: %s", output.Sensitivity)
	}

	output.Reversibility = strings.ToLower(strings.TrimSpace(output.Reversibility))
	if output.Reversibility == "" {
		output.Reversibility = Irreversible
	}
	if output.Reversibility != Reversible && output.Reversibility != Irreversible {
		return Intent{}, fmt.Errorf("unsupported reversibility: %s", output.Reversibility)
	}

	output.Environment = strings.ToLower(strings.TrimSpace(output.Environment))
	output.CreatedAt = output.CreatedAt.UTC()
	return output, nil
}

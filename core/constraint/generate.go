package constraint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/davidahmann/trustgate/core/capability"
	"github.com/davidahmann/trustgate/core/schema/v1/authz"
)

const (
	ApprovalIrreversibleAction    = "irreversible_action"
	ApprovalRestrictedData        = "restricted_data"
	ApprovalExternalCommunication = "external_communication"
	ApprovalProductionExecution   = "production_execution"
)

// riskPredicate is one independent approval trigger. An agent whose
// trust band is at or above BypassBand skips the approval.
type riskPredicate struct {
	approvalType   string
	approverRole   string
	timeoutSeconds int
	bypassBand     capability.Tier
	reason         string
	fires          func(authz.Intent) bool
}

var riskPredicates = []riskPredicate{
	{
		approvalType:   ApprovalIrreversibleAction,
		approverRole:   "operations_lead",
		timeoutSeconds: 3600,
		bypassBand:     capability.TierT4,
		reason:         "intent performs an irreversible action",
		fires: func(intent authz.Intent) bool {
			return intent.Reversibility == authz.Irreversible
		},
	},
	{
		approvalType:   ApprovalRestrictedData,
		approverRole:   "data_steward",
		timeoutSeconds: 3600,
		bypassBand:     capability.TierT4,
		reason:         "intent touches restricted-sensitivity data",
		fires: func(intent authz.Intent) bool {
			return intent.Sensitivity == authz.SensitivityRestricted
		},
	},
	{
		approvalType:   ApprovalExternalCommunication,
		approverRole:   "security_officer",
		timeoutSeconds: 1800,
		bypassBand:     capability.TierT3,
		reason:         "intent communicates with or transfers to an external party",
		fires: func(intent authz.Intent) bool {
			return intent.Action == authz.ActionCommunicate || intent.Action == authz.ActionTransfer
		},
	},
	{
		approvalType:   ApprovalProductionExecution,
		approverRole:   "operations_lead",
		timeoutSeconds: 1800,
		bypassBand:     capability.TierT3,
		reason:         "intent executes in a production environment",
		fires: func(intent authz.Intent) bool {
			return intent.Action == authz.ActionExecute && intent.Environment == "production"
		},
	},
}

// reversibilityFloor is the first band where reversibility is no
// longer mandated for irreversible intents.
const reversibilityFloor = capability.TierT3

type Options struct {
	// Presets overrides the built-in band presets, typically parsed
	// from deployment YAML. Nil means defaults.
	Presets *PresetSet
}

// Generate derives the constraints for one (band, intent) pair.
// Multiple risk predicates may fire at once, producing multiple
// approval requirements.
func Generate(band capability.Tier, intent authz.Intent, opts Options) (authz.DecisionConstraints, error) {
	if !band.Valid() {
		return authz.DecisionConstraints{}, fmt.Errorf("invalid trust band: %d", int(band))
	}
	normalized, err := authz.NormalizeIntent(intent)
	if err != nil {
		return authz.DecisionConstraints{}, fmt.Errorf("normalize intent: %w", err)
	}

	presets := DefaultPresets()
	if opts.Presets != nil {
		presets = *opts.Presets
	}
	preset := presets[band]

	constraints := authz.DecisionConstraints{
		AllowedTools:        FilterTools(preset.AllowedTools, normalized),
		DataScopes:          FilterScopes(preset.DataScopes, normalized),
		RateLimits:          append([]authz.RateLimit(nil), preset.RateLimits...),
		ResourceQuotas:      copyQuotas(preset.ResourceQuotas),
		MaxExecutionSeconds: preset.MaxExecutionSeconds,
		MaxRetries:          preset.MaxRetries,
	}

	for _, predicate := range riskPredicates {
		if band >= predicate.bypassBand {
			continue
		}
		if !predicate.fires(normalized) {
			continue
		}
		constraints.RequiredApprovals = append(constraints.RequiredApprovals, authz.ApprovalRequirement{
			Type:           predicate.approvalType,
			ApproverRole:   predicate.approverRole,
			TimeoutSeconds: predicate.timeoutSeconds,
			Reason:         predicate.reason,
		})
	}

	if band < reversibilityFloor && normalized.Reversibility != authz.Reversible {
		constraints.ReversibilityRequired = true
	}
	if preset.ReversibilityRequired && normalized.Reversibility != authz.Reversible {
		constraints.ReversibilityRequired = true
	}
	return constraints, nil
}

// FilterTools retains tools matching the intent's action by the
// "<action>_" prefix convention. A wildcard entry bypasses filtering.
// Filtering is idempotent: a filtered list filtered again by the same
// intent is unchanged.
func FilterTools(tools []string, intent authz.Intent) []string {
	if containsWildcard(tools) {
		return []string{Wildcard}
	}
	prefix := intent.Action + "_"
	out := make([]string, 0, len(tools))
	for _, tool := range tools {
		tool = strings.ToLower(strings.TrimSpace(tool))
		if tool == "" {
			continue
		}
		if strings.HasPrefix(tool, prefix) {
			out = append(out, tool)
		}
	}
	return uniqueSorted(out)
}

// FilterScopes retains scopes at or below the intent's declared
// sensitivity. A wildcard entry bypasses filtering.
func FilterScopes(scopes []string, intent authz.Intent) []string {
	if containsWildcard(scopes) {
		return []string{Wildcard}
	}
	limit := authz.SensitivityRank(intent.Sensitivity)
	out := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		scope = strings.ToLower(strings.TrimSpace(scope))
		rank := authz.SensitivityRank(scope)
		if rank < 0 || rank > limit {
			continue
		}
		out = append(out, scope)
	}
	return uniqueSorted(out)
}

func copyQuotas(quotas map[string]int64) map[string]int64 {
	if len(quotas) == 0 {
		return nil
	}
	out := make(map[string]int64, len(quotas))
	for resource, quota := range quotas {
		out[resource] = quota
	}
	return out
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if strings.TrimSpace(value) == Wildcard {
			return true
		}
	}
	return false
}

func uniqueSorted(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	sort.Strings(out)
	return out
}

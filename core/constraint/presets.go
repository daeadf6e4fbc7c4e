// Package constraint derives the enforceable execution limits that
// accompany an authorization decision: allowed tools and data scopes,
// rate limits, approval requirements, and reversibility obligations,
// all selected by the agent's trust band.
package constraint

import (
	"github.com/davidahmann/trustgate/core/capability"
	"github.com/davidahmann/trustgate/core/schema/v1/authz"
)

// Wildcard bypasses tool and scope filtering entirely.
const Wildcard = "*"

// BandPreset holds the default operational limits of one trust band.
type BandPreset struct {
	AllowedTools          []string          `json:"allowed_tools" yaml:"allowed_tools"`
	DataScopes            []string          `json:"data_scopes" yaml:"data_scopes"`
	RateLimits            []authz.RateLimit `json:"rate_limits,omitempty" yaml:"rate_limits"`
	ResourceQuotas        map[string]int64  `json:"resource_quotas,omitempty" yaml:"resource_quotas"`
	MaxExecutionSeconds   int               `json:"max_execution_seconds,omitempty" yaml:"max_execution_seconds"`
	MaxRetries            int               `json:"max_retries,omitempty" yaml:"max_retries"`
	ReversibilityRequired bool              `json:"reversibility_required" yaml:"reversibility_required"`
}

// PresetSet maps every trust band to its preset. Zero max-execution or
// max-retries means unlimited.
type PresetSet [capability.MaxTier + 1]BandPreset

// DefaultPresets returns the built-in band presets. T5 is
// mission-critical: wildcard tools and scopes, no rate limits, no
// reversibility mandate.
func DefaultPresets() PresetSet {
	return PresetSet{
		capability.TierT0: {
			AllowedTools:          []string{"read_public"},
			DataScopes:            []string{authz.SensitivityPublic},
			RateLimits:            []authz.RateLimit{{Requests: 10, Window: "minute"}},
			MaxExecutionSeconds:   30,
			MaxRetries:            0,
			ReversibilityRequired: true,
		},
		capability.TierT1: {
			AllowedTools:          []string{"read_", "write_sandbox"},
			DataScopes:            []string{authz.SensitivityPublic, authz.SensitivityInternal},
			RateLimits:            []authz.RateLimit{{Requests: 30, Window: "minute"}},
			MaxExecutionSeconds:   60,
			MaxRetries:            1,
			ReversibilityRequired: true,
		},
		capability.TierT2: {
			AllowedTools:          []string{"read_", "write_", "communicate_internal"},
			DataScopes:            []string{authz.SensitivityPublic, authz.SensitivityInternal},
			RateLimits:            []authz.RateLimit{{Requests: 60, Window: "minute"}},
			MaxExecutionSeconds:   120,
			MaxRetries:            2,
			ReversibilityRequired: true,
		},
		capability.TierT3: {
			AllowedTools:          []string{"read_", "write_", "execute_", "communicate_"},
			DataScopes:            []string{authz.SensitivityPublic, authz.SensitivityInternal, authz.SensitivityConfidential},
			RateLimits:            []authz.RateLimit{{Requests: 120, Window: "minute"}},
			MaxExecutionSeconds:   300,
			MaxRetries:            3,
			ReversibilityRequired: false,
		},
		capability.TierT4: {
			AllowedTools:          []string{"read_", "write_", "execute_", "communicate_", "transfer_"},
			DataScopes:            []string{authz.SensitivityPublic, authz.SensitivityInternal, authz.SensitivityConfidential, authz.SensitivityRestricted},
			RateLimits:            []authz.RateLimit{{Requests: 600, Window: "minute"}},
			MaxExecutionSeconds:   900,
			MaxRetries:            5,
			ReversibilityRequired: false,
		},
		capability.TierT5: {
			AllowedTools:          []string{Wildcard},
			DataScopes:            []string{Wildcard},
			ReversibilityRequired: false,
		},
	}
}

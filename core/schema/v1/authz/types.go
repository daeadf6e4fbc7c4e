// Package authz holds the wire types for authorization requests and
// decisions. Types here are plain data with snake_case JSON tags;
// evaluation logic lives in core/ceiling and core/constraint.
package authz

import (
	"time"

	"github.com/davidahmann/trustgate/core/capability"
)

const (
	IntentSchemaID   = "trustgate.authz.intent"
	IntentSchemaV1   = "1.0.0"
	DecisionSchemaID = "trustgate.authz.decision"
	DecisionSchemaV1 = "1.0.0"
)

const (
	ActionRead        = "read"
	ActionWrite       = "write"
	ActionDelete      = "delete"
	ActionExecute     = "execute"
	ActionCommunicate = "communicate"
	ActionTransfer    = "transfer"
)

const (
	SensitivityPublic       = "public"
	SensitivityInternal     = "internal"
	SensitivityConfidential = "confidential"
	SensitivityRestricted   = "restricted"
)

const (
	Reversible   = "reversible"
	Irreversible = "irreversible"
)

// Intent is one authorization request. Immutable once normalized;
// identified by intent id and correlation id.
type Intent struct {
	SchemaID      string         `json:"schema_id"`
	SchemaVersion string         `json:"schema_version"`
	IntentID      string         `json:"intent_id"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Action        string         `json:"action"`
	ResourceScope string         `json:"resource_scope"`
	Sensitivity   string         `json:"sensitivity"`
	Reversibility string         `json:"reversibility"`
	Environment   string         `json:"environment,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at,omitempty"`
}

// DimensionScores are the per-dimension trust scores supplied by the
// upstream scoring subsystem. The engine consumes them; it never
// computes them from raw behavioral evidence.
type DimensionScores struct {
	Observability float64 `json:"observability"`
	Capability    float64 `json:"capability"`
	Behavior      float64 `json:"behavior"`
	Governance    float64 `json:"governance"`
	Context       float64 `json:"context"`
}

// TrustProfile is the externally computed trust state of one agent.
type TrustProfile struct {
	AgentID         string          `json:"agent_id"`
	RawScore        int             `json:"raw_score"`
	AdjustedScore   int             `json:"adjusted_score"`
	Band            capability.Tier `json:"band"`
	Dimensions      DimensionScores `json:"dimensions"`
	ObservationTier capability.Tier `json:"observation_tier"`
}

// ApprovalRequirement is one human-approval obligation attached to a
// permit decision.
type ApprovalRequirement struct {
	Type           string `json:"type"`
	ApproverRole   string `json:"approver_role"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	Reason         string `json:"reason"`
}

// RateLimit caps operations within a named window.
type RateLimit struct {
	Requests int    `json:"requests"`
	Window   string `json:"window"`
	Scope    string `json:"scope,omitempty"`
}

// DecisionConstraints are the enforceable execution limits that
// accompany a permit decision.
type DecisionConstraints struct {
	RequiredApprovals     []ApprovalRequirement `json:"required_approvals,omitempty"`
	AllowedTools          []string              `json:"allowed_tools"`
	DataScopes            []string              `json:"data_scopes"`
	RateLimits            []RateLimit           `json:"rate_limits,omitempty"`
	ReversibilityRequired bool                  `json:"reversibility_required"`
	MaxExecutionSeconds   int                   `json:"max_execution_seconds,omitempty"`
	MaxRetries            int                   `json:"max_retries,omitempty"`
	ResourceQuotas        map[string]int64      `json:"resource_quotas,omitempty"`
}

// Decision is the output of one authorization evaluation. A decision
// is immutable; a later decision for the same intent supersedes it.
type Decision struct {
	SchemaID      string              `json:"schema_id"`
	SchemaVersion string              `json:"schema_version"`
	DecisionID    string              `json:"decision_id"`
	IntentID      string              `json:"intent_id"`
	CorrelationID string              `json:"correlation_id,omitempty"`
	Permitted     bool                `json:"permitted"`
	Band          capability.Tier     `json:"band"`
	TrustScore    int                 `json:"trust_score"`
	Constraints   DecisionConstraints `json:"constraints"`
	Reasoning     []string            `json:"reasoning"`
	CreatedAt     time.Time           `json:"created_at"`
	ExpiresAt     time.Time           `json:"expires_at"`
	LatencyMS     float64             `json:"latency_ms,omitempty"`
}

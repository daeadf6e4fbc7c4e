// Package provenance holds the wire types for trust evidence: external
// attestations, federated weight presets and their lineage, and the
// immutable record of how an agent came to exist.
package provenance

import (
	"time"

	"github.com/davidahmann/trustgate/core/capability"
	"github.com/davidahmann/trustgate/core/sign"
)

const (
	AttestationSchemaID = "trustgate.provenance.attestation"
	AttestationSchemaV1 = "1.0.0"
	PresetSchemaID      = "trustgate.provenance.preset"
	PresetSchemaV1      = "1.0.0"
)

const (
	ScopeFull       = "full"
	ScopeDomain     = "domain"
	ScopeLevel      = "level"
	ScopeTraining   = "training"
	ScopeSecurity   = "security"
	ScopeCompliance = "compliance"
	ScopeIdentity   = "identity"
)

const (
	StatusActive    = "active"
	StatusExpired   = "expired"
	StatusRevoked   = "revoked"
	StatusSuspended = "suspended"
	StatusPending   = "pending"
)

// Attestation is a time-bounded, issuer-signed claim asserting an
// agent's certification tier and scope. Immutable except for status
// transitions; superseded or expired, never deleted.
type Attestation struct {
	SchemaID      string          `json:"schema_id"`
	SchemaVersion string          `json:"schema_version"`
	AttestationID string          `json:"attestation_id"`
	Issuer        string          `json:"issuer"`
	Subject       string          `json:"subject"`
	Scope         string          `json:"scope"`
	CertifiedTier capability.Tier `json:"certified_tier"`
	Domains       []string        `json:"domains,omitempty"`
	IssuedAt      time.Time       `json:"issued_at"`
	ExpiresAt     time.Time       `json:"expires_at"`
	Status        string          `json:"status"`
	EvidenceRefs  []string        `json:"evidence_refs,omitempty"`
	Proof         *sign.Signature `json:"proof,omitempty"`
}

const (
	FederationCanonical  = "canonical"
	FederationReference  = "reference"
	FederationDeployment = "deployment"
)

// Weights is a weight vector over the five trust dimensions. A stored
// preset's weights always sum to 1.0.
type Weights struct {
	Observability float64 `json:"observability"`
	Capability    float64 `json:"capability"`
	Behavior      float64 `json:"behavior"`
	Governance    float64 `json:"governance"`
	Context       float64 `json:"context"`
}

// WeightDelta records, per dimension, how far a derived preset moved
// from its parent. Only dimensions that changed beyond the derivation
// epsilon are present.
type WeightDelta map[string]float64

// Preset is a named trust-weight vector with cryptographic parent
// linkage. PresetHash covers identity fields, weights, parent linkage
// and creation metadata; never transient fields.
type Preset struct {
	SchemaID        string      `json:"schema_id"`
	SchemaVersion   string      `json:"schema_version"`
	PresetID        string      `json:"preset_id"`
	Name            string      `json:"name"`
	FederationTier  string      `json:"federation_tier"`
	Weights         Weights     `json:"weights"`
	ParentPresetID  string      `json:"parent_preset_id,omitempty"`
	ParentHash      string      `json:"parent_hash,omitempty"`
	DerivationDelta WeightDelta `json:"derivation_delta,omitempty"`
	CreatedBy       string      `json:"created_by,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	PresetHash      string      `json:"preset_hash"`
}

// LineageLink is one element of a preset's ancestry chain, leaf first.
type LineageLink struct {
	PresetID   string `json:"preset_id"`
	PresetHash string `json:"preset_hash"`
}

// Lineage is the ordered chain from a leaf preset back to its
// canonical root. Built from the live registry; re-verifiable at any
// time.
type Lineage struct {
	LeafPresetID string        `json:"leaf_preset_id"`
	Chain        []LineageLink `json:"chain"`
	Verified     bool          `json:"verified"`
	VerifiedBy   string        `json:"verified_by,omitempty"`
	VerifiedAt   time.Time     `json:"verified_at,omitempty"`
}

const (
	CreationFresh    = "fresh"
	CreationCloned   = "cloned"
	CreationEvolved  = "evolved"
	CreationPromoted = "promoted"
	CreationImported = "imported"
)

// CreationInfo is the immutable per-agent origin record, set exactly
// once at agent instantiation. Hash binds all other fields.
type CreationInfo struct {
	AgentID       string    `json:"agent_id"`
	CreationType  string    `json:"creation_type"`
	ParentAgentID string    `json:"parent_agent_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by"`
	Hash          string    `json:"hash"`
}

// MigrationEvent records an exceptional, approved reclassification of
// an agent's creation type. The original CreationInfo is never
// rewritten; events append to a ledger.
type MigrationEvent struct {
	EventID  string    `json:"event_id"`
	AgentID  string    `json:"agent_id"`
	FromType string    `json:"from_type"`
	ToType   string    `json:"to_type"`
	Reason   string    `json:"reason"`
	Approver string    `json:"approver"`
	Recorded time.Time `json:"recorded_at"`
	Hash     string    `json:"hash"`
}

// Package preset manages federated trust-weight presets: canonical
// built-ins, reference and deployment derivations, cryptographic
// parent linkage, and lineage verification back to a canonical root.
package preset

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/davidahmann/trustgate/core/jcs"
	"github.com/davidahmann/trustgate/core/schema/v1/provenance"
)

// derivationEpsilon is the per-dimension change below which no delta
// is recorded against the parent.
const derivationEpsilon = 0.001

// weightTolerance bounds the acceptable deviation of a stored weight
// sum from 1.0 after normalization.
const weightTolerance = 1e-9

var federationRanks = map[string]int{
	provenance.FederationCanonical:  0,
	provenance.FederationReference:  1,
	provenance.FederationDeployment: 2,
}

// hashablePreset is the canonical serialization the preset hash covers:
// identity fields, weights, parent linkage and creation metadata.
// Transient fields (the hash itself, schema envelope) never
// participate.
type hashablePreset struct {
	PresetID        string                 `json:"preset_id"`
	Name            string                 `json:"name"`
	FederationTier  string                 `json:"federation_tier"`
	Weights         provenance.Weights     `json:"weights"`
	ParentPresetID  string                 `json:"parent_preset_id,omitempty"`
	ParentHash      string                 `json:"parent_hash,omitempty"`
	DerivationDelta provenance.WeightDelta `json:"derivation_delta,omitempty"`
	CreatedBy       string                 `json:"created_by,omitempty"`
	CreatedAt       string                 `json:"created_at"`
}

// ComputeHash returns the JCS sha256 digest binding a preset's
// identity, weights, and parent linkage.
func ComputeHash(p provenance.Preset) (string, error) {
	return jcs.DigestValue(hashablePreset{
		PresetID:        p.PresetID,
		Name:            p.Name,
		FederationTier:  p.FederationTier,
		Weights:         p.Weights,
		ParentPresetID:  p.ParentPresetID,
		ParentHash:      p.ParentHash,
		DerivationDelta: p.DerivationDelta,
		CreatedBy:       p.CreatedBy,
		CreatedAt:       p.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

// WeightSum returns the raw sum of a weight vector.
func WeightSum(w provenance.Weights) float64 {
	return w.Observability + w.Capability + w.Behavior + w.Governance + w.Context
}

// NormalizeWeights scales a weight vector so its dimensions sum to
// 1.0. All-zero or negative vectors are rejected.
func NormalizeWeights(w provenance.Weights) (provenance.Weights, error) {
	for name, value := range weightMap(w) {
		if value < 0 {
			return provenance.Weights{}, fmt.Errorf("weight %s must be >= 0, got %v", name, value)
		}
	}
	sum := WeightSum(w)
	if sum <= 0 {
		return provenance.Weights{}, fmt.Errorf("weights must sum to a positive value")
	}
	return provenance.Weights{
		Observability: w.Observability / sum,
		Capability:    w.Capability / sum,
		Behavior:      w.Behavior / sum,
		Governance:    w.Governance / sum,
		Context:       w.Context / sum,
	}, nil
}

type DeriveOptions struct {
	PresetID       string
	Name           string
	FederationTier string
	// Overrides replaces individual dimension weights before the
	// vector is renormalized to sum 1.0.
	Overrides map[string]float64
	CreatedBy string
	Now       time.Time
}

// Derive creates a child preset from a parent. The child may sit at
// the parent's federation tier or further from canonical, never
// closer: a deployment preset deriving from a canonical one is legal,
// the reverse is not, and canonical presets are fixed built-ins that
// cannot be derived at all.
func Derive(parent provenance.Preset, opts DeriveOptions) (provenance.Preset, error) {
	presetID := strings.TrimSpace(opts.PresetID)
	if presetID == "" {
		return provenance.Preset{}, fmt.Errorf("preset_id is required")
	}
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = presetID
	}
	childTier := strings.ToLower(strings.TrimSpace(opts.FederationTier))
	childRank, ok := federationRanks[childTier]
	if !ok {
		return provenance.Preset{}, fmt.Errorf("unsupported federation_tier: %s", opts.FederationTier)
	}
	if childTier == provenance.FederationCanonical {
		return provenance.Preset{}, fmt.Errorf("canonical presets are fixed and cannot be derived")
	}
	parentRank, ok := federationRanks[parent.FederationTier]
	if !ok {
		return provenance.Preset{}, fmt.Errorf("parent has unsupported federation_tier: %s", parent.FederationTier)
	}
	if childRank < parentRank {
		return provenance.Preset{}, fmt.Errorf("derivation may not move from %s toward canonical (%s)", parent.FederationTier, childTier)
	}
	if parent.PresetHash == "" {
		return provenance.Preset{}, fmt.Errorf("parent preset has no hash")
	}

	raw := weightMap(parent.Weights)
	for dimension, value := range opts.Overrides {
		key := strings.ToLower(strings.TrimSpace(dimension))
		if _, ok := raw[key]; !ok {
			return provenance.Preset{}, fmt.Errorf("unknown weight dimension: %s", dimension)
		}
		if value < 0 {
			return provenance.Preset{}, fmt.Errorf("weight %s must be >= 0, got %v", key, value)
		}
		raw[key] = value
	}
	weights, err := NormalizeWeights(weightsFromMap(raw))
	if err != nil {
		return provenance.Preset{}, err
	}

	delta := provenance.WeightDelta{}
	parentWeights := weightMap(parent.Weights)
	for dimension, value := range weightMap(weights) {
		if math.Abs(value-parentWeights[dimension]) > derivationEpsilon {
			delta[dimension] = value - parentWeights[dimension]
		}
	}
	if len(delta) == 0 {
		delta = nil
	}

	now := opts.Now.UTC()
	if now.IsZero() {
		now = time.Now().UTC()
	}

	child := provenance.Preset{
		SchemaID:        provenance.PresetSchemaID,
		SchemaVersion:   provenance.PresetSchemaV1,
		PresetID:        presetID,
		Name:            name,
		FederationTier:  childTier,
		Weights:         weights,
		ParentPresetID:  parent.PresetID,
		ParentHash:      parent.PresetHash,
		DerivationDelta: delta,
		CreatedBy:       strings.TrimSpace(opts.CreatedBy),
		CreatedAt:       now,
	}
	hash, err := ComputeHash(child)
	if err != nil {
		return provenance.Preset{}, fmt.Errorf("hash derived preset: %w", err)
	}
	child.PresetHash = hash
	return child, nil
}

// Dimensions lists the five weight dimension names in stable order.
func Dimensions() []string {
	return []string{"observability", "capability", "behavior", "governance", "context"}
}

func weightMap(w provenance.Weights) map[string]float64 {
	return map[string]float64{
		"observability": w.Observability,
		"capability":    w.Capability,
		"behavior":      w.Behavior,
		"governance":    w.Governance,
		"context":       w.Context,
	}
}

func weightsFromMap(values map[string]float64) provenance.Weights {
	return provenance.Weights{
		Observability: values["observability"],
		Capability:    values["capability"],
		Behavior:      values["behavior"],
		Governance:    values["governance"],
		Context:       values["context"],
	}
}

func validateStoredWeights(w provenance.Weights) error {
	if math.Abs(WeightSum(w)-1.0) > weightTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %v", WeightSum(w))
	}
	return nil
}

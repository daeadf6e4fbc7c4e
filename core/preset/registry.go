package preset

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	coreerrors "github.com/davidahmann/trustgate/core/errors"
	"github.com/davidahmann/trustgate/core/schema/v1/provenance"
)

// Registry is the live preset store. Constructor-injected, never a
// package-level singleton, so tests get a fresh registry each time.
// Canonical presets are seeded at construction and cannot be
// replaced.
type Registry struct {
	mu      sync.RWMutex
	presets map[string]provenance.Preset
}

// canonicalSeedTime anchors the built-in canonical presets so their
// hashes are identical in every process.
var canonicalSeedTime = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

type canonicalSeed struct {
	id      string
	name    string
	weights provenance.Weights
}

var canonicalSeeds = []canonicalSeed{
	{
		id:      "canonical:balanced",
		name:    "Balanced",
		weights: provenance.Weights{Observability: 0.2, Capability: 0.2, Behavior: 0.2, Governance: 0.2, Context: 0.2},
	},
	{
		id:      "canonical:observability-first",
		name:    "Observability First",
		weights: provenance.Weights{Observability: 0.4, Capability: 0.15, Behavior: 0.15, Governance: 0.15, Context: 0.15},
	},
	{
		id:      "canonical:governance-first",
		name:    "Governance First",
		weights: provenance.Weights{Observability: 0.15, Capability: 0.15, Behavior: 0.15, Governance: 0.4, Context: 0.15},
	},
}

// NewRegistry builds a registry seeded with the canonical presets.
func NewRegistry() (*Registry, error) {
	registry := &Registry{presets: make(map[string]provenance.Preset)}
	for _, seed := range canonicalSeeds {
		preset := provenance.Preset{
			SchemaID:       provenance.PresetSchemaID,
			SchemaVersion:  provenance.PresetSchemaV1,
			PresetID:       seed.id,
			Name:           seed.name,
			FederationTier: provenance.FederationCanonical,
			Weights:        seed.weights,
			CreatedBy:      "trustgate",
			CreatedAt:      canonicalSeedTime,
		}
		hash, err := ComputeHash(preset)
		if err != nil {
			return nil, fmt.Errorf("hash canonical preset %s: %w", seed.id, err)
		}
		preset.PresetHash = hash
		registry.presets[preset.PresetID] = preset
	}
	return registry, nil
}

// Put stores a non-canonical preset. Weights must already be
// normalized and the stored hash must match the recomputed one, so a
// tampered preset is rejected at the door.
func (r *Registry) Put(preset provenance.Preset) error {
	presetID := strings.TrimSpace(preset.PresetID)
	if presetID == "" {
		return fmt.Errorf("preset_id is required")
	}
	if preset.FederationTier == provenance.FederationCanonical {
		return fmt.Errorf("canonical presets are built-in and cannot be stored")
	}
	if _, ok := federationRanks[preset.FederationTier]; !ok {
		return fmt.Errorf("unsupported federation_tier: %s", preset.FederationTier)
	}
	if err := validateStoredWeights(preset.Weights); err != nil {
		return err
	}
	expected, err := ComputeHash(preset)
	if err != nil {
		return fmt.Errorf("hash preset: %w", err)
	}
	if preset.PresetHash != expected {
		return coreerrors.Wrap(fmt.Errorf("preset hash mismatch for %s", presetID),
			coreerrors.CategoryIntegrityFailed, "preset_hash_mismatch",
			"recompute preset_hash after any field change", false)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.presets[presetID]; ok && existing.FederationTier == provenance.FederationCanonical {
		return fmt.Errorf("canonical preset %s cannot be replaced", presetID)
	}
	r.presets[presetID] = preset
	return nil
}

// Get returns a preset by id.
func (r *Registry) Get(presetID string) (provenance.Preset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	preset, ok := r.presets[strings.TrimSpace(presetID)]
	return preset, ok
}

// List returns all presets sorted by id.
func (r *Registry) List() []provenance.Preset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]provenance.Preset, 0, len(r.presets))
	for _, preset := range r.presets {
		out = append(out, preset)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PresetID < out[j].PresetID })
	return out
}

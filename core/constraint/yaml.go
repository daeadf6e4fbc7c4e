package constraint

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/davidahmann/trustgate/core/capability"
	coreerrors "github.com/davidahmann/trustgate/core/errors"
	"github.com/davidahmann/trustgate/core/schema/v1/authz"
)

const (
	presetsSchemaID = "trustgate.constraint.band_presets"
	presetsSchemaV1 = "1.0.0"
)

var allowedRateWindows = map[string]struct{}{
	"second": {},
	"minute": {},
	"hour":   {},
	"day":    {},
}

type bandPresetsDocument struct {
	SchemaID      string                `yaml:"schema_id"`
	SchemaVersion string                `yaml:"schema_version"`
	Bands         map[string]BandPreset `yaml:"bands"`
}

// LoadBandPresetsFile reads deployment band-preset overrides from a
// YAML file.
func LoadBandPresetsFile(path string) (PresetSet, error) {
	// #nosec G304 -- preset path is explicit local user input.
	content, err := os.ReadFile(path)
	if err != nil {
		return PresetSet{}, coreerrors.Wrap(fmt.Errorf("read band presets: %w", err),
			coreerrors.CategoryIOFailure, "band_presets_read",
			"check that the band presets file exists and is readable", false)
	}
	return ParseBandPresetsYAML(content)
}

// ParseBandPresetsYAML parses deployment overrides on top of the
// built-in presets. Only the bands named in the document change; each
// named band replaces its default wholesale.
func ParseBandPresetsYAML(data []byte) (PresetSet, error) {
	var document bandPresetsDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return PresetSet{}, fmt.Errorf("parse band presets yaml: %w", err)
	}
	if document.SchemaID == "" {
		document.SchemaID = presetsSchemaID
	}
	if document.SchemaID != presetsSchemaID {
		return PresetSet{}, fmt.Errorf("unsupported band presets schema_id: %s", document.SchemaID)
	}
	if document.SchemaVersion == "" {
		document.SchemaVersion = presetsSchemaV1
	}
	if document.SchemaVersion != presetsSchemaV1 {
		return PresetSet{}, fmt.Errorf("unsupported band presets schema_version: %s", document.SchemaVersion)
	}

	presets := DefaultPresets()
	for name, override := range document.Bands {
		band, err := capability.ParseTier(name)
		if err != nil {
			return PresetSet{}, fmt.Errorf("band presets: %w", err)
		}
		normalized, err := normalizeBandPreset(band, override)
		if err != nil {
			return PresetSet{}, fmt.Errorf("band %s: %w", band, err)
		}
		presets[band] = normalized
	}
	return presets, nil
}

func normalizeBandPreset(band capability.Tier, preset BandPreset) (BandPreset, error) {
	preset.AllowedTools = uniqueSortedLower(preset.AllowedTools)
	preset.DataScopes = uniqueSortedLower(preset.DataScopes)
	if len(preset.AllowedTools) == 0 {
		return BandPreset{}, fmt.Errorf("allowed_tools must not be empty")
	}
	if len(preset.DataScopes) == 0 {
		return BandPreset{}, fmt.Errorf("data_scopes must not be empty")
	}
	// Low bands may never be widened to unrestricted tool access.
	if band < capability.TierT3 && containsWildcard(preset.AllowedTools) {
		return BandPreset{}, fmt.Errorf("wildcard tools are not permitted below %s", capability.TierT3)
	}
	for _, scope := range preset.DataScopes {
		if scope == Wildcard {
			continue
		}
		if authz.SensitivityRank(scope) < 0 {
			return BandPreset{}, fmt.Errorf("unknown data scope: %s", scope)
		}
	}
	for index, limit := range preset.RateLimits {
		if limit.Requests <= 0 {
			return BandPreset{}, fmt.Errorf("rate_limits[%d].requests must be > 0", index)
		}
		window := strings.ToLower(strings.TrimSpace(limit.Window))
		if _, ok := allowedRateWindows[window]; !ok {
			return BandPreset{}, fmt.Errorf("rate_limits[%d]: unsupported window %q", index, limit.Window)
		}
		preset.RateLimits[index].Window = window
	}
	if len(preset.ResourceQuotas) > 0 {
		normalized := make(map[string]int64, len(preset.ResourceQuotas))
		for resource, quota := range preset.ResourceQuotas {
			name := strings.ToLower(strings.TrimSpace(resource))
			if name == "" {
				return BandPreset{}, fmt.Errorf("resource_quotas: resource name must not be empty")
			}
			if quota <= 0 {
				return BandPreset{}, fmt.Errorf("resource_quotas[%s] must be > 0", name)
			}
			normalized[name] = quota
		}
		preset.ResourceQuotas = normalized
	}
	if preset.MaxExecutionSeconds < 0 {
		return BandPreset{}, fmt.Errorf("max_execution_seconds must be >= 0")
	}
	if preset.MaxRetries < 0 {
		return BandPreset{}, fmt.Errorf("max_retries must be >= 0")
	}
	return preset, nil
}

func uniqueSortedLower(values []string) []string {
	lowered := make([]string, 0, len(values))
	for _, value := range values {
		lowered = append(lowered, strings.ToLower(strings.TrimSpace(value)))
	}
	return uniqueSorted(lowered)
}

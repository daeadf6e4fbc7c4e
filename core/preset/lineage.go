package preset

import (
	"fmt"
	"strings"
	"time"

	"github.com/davidahmann/trustgate/core/schema/v1/provenance"
)

// maxLineageDepth bounds ancestry walks; a deeper chain indicates a
// cycle or a corrupted registry.
const maxLineageDepth = 32

const (
	MismatchMissing      = "preset_missing"
	MismatchHash         = "hash_mismatch"
	MismatchParentID     = "parent_id_mismatch"
	MismatchParentHash   = "parent_hash_mismatch"
	MismatchRootNotFixed = "root_not_canonical"
)

// Mismatch is one lineage discrepancy, attributed to the offending
// preset so audit tooling can enumerate every failure.
type Mismatch struct {
	PresetID string `json:"preset_id"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// Verification is the outcome of checking a lineage against the live
// registry. Valid iff zero mismatches.
type Verification struct {
	Valid      bool       `json:"valid"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// BuildLineage walks a preset's ancestry from leaf to canonical root
// and records each link's id and stored hash. Construction is
// independent of verification and may be rebuilt at any time.
func BuildLineage(registry *Registry, presetID string) (provenance.Lineage, error) {
	leafID := strings.TrimSpace(presetID)
	if leafID == "" {
		return provenance.Lineage{}, fmt.Errorf("preset_id is required")
	}
	lineage := provenance.Lineage{LeafPresetID: leafID}
	currentID := leafID
	for depth := 0; currentID != ""; depth++ {
		if depth >= maxLineageDepth {
			return provenance.Lineage{}, fmt.Errorf("lineage for %s exceeds max depth %d", leafID, maxLineageDepth)
		}
		current, ok := registry.Get(currentID)
		if !ok {
			return provenance.Lineage{}, fmt.Errorf("preset not found: %s", currentID)
		}
		lineage.Chain = append(lineage.Chain, provenance.LineageLink{
			PresetID:   current.PresetID,
			PresetHash: current.PresetHash,
		})
		currentID = current.ParentPresetID
	}
	return lineage, nil
}

// VerifyLineage re-checks every link of a lineage against the live
// registry: each stored hash must equal the recomputed self-hash of
// the live preset, each parent pointer must match the next chain
// element exactly, and the root must be canonical. Every discrepancy
// is reported; verification never stops at the first failure.
func VerifyLineage(registry *Registry, lineage provenance.Lineage) Verification {
	verification := Verification{}
	if len(lineage.Chain) == 0 {
		verification.Mismatches = append(verification.Mismatches, Mismatch{
			PresetID: lineage.LeafPresetID,
			Code:     MismatchMissing,
			Message:  "lineage chain is empty",
		})
		return verification
	}

	for index, link := range lineage.Chain {
		live, ok := registry.Get(link.PresetID)
		if !ok {
			verification.Mismatches = append(verification.Mismatches, Mismatch{
				PresetID: link.PresetID,
				Code:     MismatchMissing,
				Message:  "preset no longer exists in the registry",
			})
			continue
		}

		recomputed, err := ComputeHash(live)
		if err != nil {
			verification.Mismatches = append(verification.Mismatches, Mismatch{
				PresetID: link.PresetID,
				Code:     MismatchHash,
				Message:  fmt.Sprintf("hash recomputation failed: %v", err),
			})
			continue
		}
		if recomputed != link.PresetHash || recomputed != live.PresetHash {
			verification.Mismatches = append(verification.Mismatches, Mismatch{
				PresetID: link.PresetID,
				Code:     MismatchHash,
				Message:  "stored hash does not match recomputed preset hash",
			})
		}

		if index+1 < len(lineage.Chain) {
			parentLink := lineage.Chain[index+1]
			if live.ParentPresetID != parentLink.PresetID {
				verification.Mismatches = append(verification.Mismatches, Mismatch{
					PresetID: link.PresetID,
					Code:     MismatchParentID,
					Message:  fmt.Sprintf("parent id %q does not match chain element %q", live.ParentPresetID, parentLink.PresetID),
				})
			}
			if live.ParentHash != parentLink.PresetHash {
				verification.Mismatches = append(verification.Mismatches, Mismatch{
					PresetID: link.PresetID,
					Code:     MismatchParentHash,
					Message:  "parent hash does not match chain element hash",
				})
			}
		} else {
			if live.FederationTier != provenance.FederationCanonical {
				verification.Mismatches = append(verification.Mismatches, Mismatch{
					PresetID: link.PresetID,
					Code:     MismatchRootNotFixed,
					Message:  fmt.Sprintf("lineage root has federation tier %q, expected canonical", live.FederationTier),
				})
			}
			if live.ParentPresetID != "" {
				verification.Mismatches = append(verification.Mismatches, Mismatch{
					PresetID: link.PresetID,
					Code:     MismatchParentID,
					Message:  "lineage root still references a parent",
				})
			}
		}
	}

	verification.Valid = len(verification.Mismatches) == 0
	return verification
}

// MarkLineageVerified stamps a lineage as reviewed. It is a separately
// authorized step that records who looked and when; it does not re-run
// cryptographic checks.
func MarkLineageVerified(lineage provenance.Lineage, verifier string, now time.Time) (provenance.Lineage, error) {
	verifiedBy := strings.TrimSpace(verifier)
	if verifiedBy == "" {
		return provenance.Lineage{}, fmt.Errorf("verifier identity is required")
	}
	stamped := lineage
	stamped.Verified = true
	stamped.VerifiedBy = verifiedBy
	stampedAt := now.UTC()
	if stampedAt.IsZero() {
		stampedAt = time.Now().UTC()
	}
	stamped.VerifiedAt = stampedAt
	return stamped, nil
}

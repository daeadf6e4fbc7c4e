// Package provenance tracks the immutable origin of agents: the
// creation record stamped at instantiation, its trust-score modifier,
// and the append-only ledger of approved reclassifications.
package provenance

import (
	"fmt"
	"strings"
	"time"

	"github.com/davidahmann/trustgate/core/jcs"
	schemaprov "github.com/davidahmann/trustgate/core/schema/v1/provenance"
)

// DefaultBaseline is the trust score a new agent starts from before
// its creation-type modifier applies.
const DefaultBaseline = 250

const maxTrustScore = 1000

// creationModifiers holds the fixed per-type trust adjustment applied
// at instantiation.
var creationModifiers = map[string]int{
	schemaprov.CreationFresh:    0,
	schemaprov.CreationCloned:   -50,
	schemaprov.CreationEvolved:  25,
	schemaprov.CreationPromoted: 50,
	schemaprov.CreationImported: -100,
}

// parentRequired lists creation types that must name a parent agent.
var parentRequired = map[string]bool{
	schemaprov.CreationCloned:  true,
	schemaprov.CreationEvolved: true,
}

type hashableCreation struct {
	AgentID      string `json:"agent_id"`
	CreationType string `json:"creation_type"`
	Parent       string `json:"parent"`
	CreatedAt    string `json:"created_at"`
	CreatedBy    string `json:"created_by"`
}

// New is the single writer of an agent's origin classification. It
// stamps the clock and computes the binding hash over type, parent,
// timestamp and creator.
func New(agentID, creationType, parentAgentID, createdBy string, now time.Time) (schemaprov.CreationInfo, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return schemaprov.CreationInfo{}, fmt.Errorf("agent_id is required")
	}
	creationType = strings.ToLower(strings.TrimSpace(creationType))
	if _, ok := creationModifiers[creationType]; !ok {
		return schemaprov.CreationInfo{}, fmt.Errorf("unknown creation type: %s", creationType)
	}
	parentAgentID = strings.TrimSpace(parentAgentID)
	if parentRequired[creationType] && parentAgentID == "" {
		return schemaprov.CreationInfo{}, fmt.Errorf("creation type %s requires a parent agent", creationType)
	}
	createdBy = strings.TrimSpace(createdBy)
	if createdBy == "" {
		return schemaprov.CreationInfo{}, fmt.Errorf("created_by is required")
	}
	createdAt := now.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	info := schemaprov.CreationInfo{
		AgentID:       agentID,
		CreationType:  creationType,
		ParentAgentID: parentAgentID,
		CreatedAt:     createdAt,
		CreatedBy:     createdBy,
	}
	hash, err := creationHash(info)
	if err != nil {
		return schemaprov.CreationInfo{}, err
	}
	info.Hash = hash
	return info, nil
}

// VerifyIntegrity recomputes the creation hash and compares it against
// the stored one. Any altered field flips the result to false.
func VerifyIntegrity(info schemaprov.CreationInfo) bool {
	expected, err := creationHash(info)
	if err != nil {
		return false
	}
	return expected == info.Hash
}

// InitialTrustScore applies the creation type's fixed modifier to a
// baseline and clamps the result to [0, 1000].
func InitialTrustScore(creationType string, baseline int) (int, error) {
	modifier, ok := creationModifiers[strings.ToLower(strings.TrimSpace(creationType))]
	if !ok {
		return 0, fmt.Errorf("unknown creation type: %s", creationType)
	}
	score := baseline + modifier
	if score < 0 {
		score = 0
	}
	if score > maxTrustScore {
		score = maxTrustScore
	}
	return score, nil
}

// Modifier returns the fixed trust adjustment of a creation type.
func Modifier(creationType string) (int, error) {
	modifier, ok := creationModifiers[strings.ToLower(strings.TrimSpace(creationType))]
	if !ok {
		return 0, fmt.Errorf("unknown creation type: %s", creationType)
	}
	return modifier, nil
}

func creationHash(info schemaprov.CreationInfo) (string, error) {
	parent := info.ParentAgentID
	if parent == "" {
		parent = "none"
	}
	digest, err := jcs.DigestValue(hashableCreation{
		AgentID:      info.AgentID,
		CreationType: info.CreationType,
		Parent:       parent,
		CreatedAt:    info.CreatedAt.UTC().Format(time.RFC3339Nano),
		CreatedBy:    info.CreatedBy,
	})
	if err != nil {
		return "", fmt.Errorf("hash creation info: %w", err)
	}
	return digest, nil
}

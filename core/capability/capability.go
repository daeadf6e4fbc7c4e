// Package capability defines the ordered trust scales and the
// bitmask-encoded domain and skill sets shared by the rest of the
// engine. Everything here is pure data: fixed tables indexed by
// variant, no I/O.
package capability

import (
	"fmt"
	"sort"
	"strings"
)

// Level is the ordered autonomy scale L0..L5. Comparisons use integer
// semantics: a higher level strictly contains the grants of every
// lower level.
type Level int

const (
	LevelObserve Level = iota
	LevelAssist
	LevelAct
	LevelOrchestrate
	LevelGovern
	LevelSovereign
)

const (
	MinLevel = LevelObserve
	MaxLevel = LevelSovereign
)

var levelLabels = [...]string{
	LevelObserve:     "Observe",
	LevelAssist:      "Assist",
	LevelAct:         "Act",
	LevelOrchestrate: "Orchestrate",
	LevelGovern:      "Govern",
	LevelSovereign:   "Sovereign",
}

func (l Level) Valid() bool {
	return l >= MinLevel && l <= MaxLevel
}

func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("L?(%d)", int(l))
	}
	return fmt.Sprintf("L%d", int(l))
}

func (l Level) Label() string {
	if !l.Valid() {
		return "Unknown"
	}
	return levelLabels[l]
}

// ClampLevel pins an arbitrary integer to the valid level range.
func ClampLevel(value int) Level {
	if value < int(MinLevel) {
		return MinLevel
	}
	if value > int(MaxLevel) {
		return MaxLevel
	}
	return Level(value)
}

func ParseLevel(value string) (Level, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for level := MinLevel; level <= MaxLevel; level++ {
		if normalized == level.String() || strings.EqualFold(normalized, levelLabels[level]) {
			return level, nil
		}
	}
	return 0, fmt.Errorf("unknown capability level: %s", value)
}

func MinOfLevels(levels ...Level) Level {
	if len(levels) == 0 {
		return MinLevel
	}
	minimum := levels[0]
	for _, level := range levels[1:] {
		if level < minimum {
			minimum = level
		}
	}
	return minimum
}

func MaxOfLevels(levels ...Level) Level {
	if len(levels) == 0 {
		return MinLevel
	}
	maximum := levels[0]
	for _, level := range levels[1:] {
		if level > maximum {
			maximum = level
		}
	}
	return maximum
}

// Tier is the T0..T5 trust classification scale. Certification tiers,
// runtime tiers, and constraint bands all use this scale; they are
// distinct inputs that happen to share its shape.
type Tier int

const (
	TierT0 Tier = iota
	TierT1
	TierT2
	TierT3
	TierT4
	TierT5
)

const (
	MinTier = TierT0
	MaxTier = TierT5
)

var tierLabels = [...]string{
	TierT0: "Sandbox",
	TierT1: "Probation",
	TierT2: "Limited",
	TierT3: "Standard",
	TierT4: "Trusted",
	TierT5: "Sovereign",
}

// tierScoreFloors holds the inclusive lower bound of each tier's trust
// score range. Scores run 0..1000.
var tierScoreFloors = [...]int{
	TierT0: 0,
	TierT1: 100,
	TierT2: 300,
	TierT3: 500,
	TierT4: 700,
	TierT5: 900,
}

const MaxTrustScore = 1000

func (t Tier) Valid() bool {
	return t >= MinTier && t <= MaxTier
}

func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("T?(%d)", int(t))
	}
	return fmt.Sprintf("T%d", int(t))
}

func (t Tier) Label() string {
	if !t.Valid() {
		return "Unknown"
	}
	return tierLabels[t]
}

func ParseTier(value string) (Tier, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for tier := MinTier; tier <= MaxTier; tier++ {
		if normalized == tier.String() || strings.EqualFold(normalized, tierLabels[tier]) {
			return tier, nil
		}
	}
	return 0, fmt.Errorf("unknown tier: %s", value)
}

// TierFromScore maps a 0..1000 trust score onto its tier. Out-of-range
// scores clamp to the nearest tier.
func TierFromScore(score int) Tier {
	if score < 0 {
		return MinTier
	}
	result := MinTier
	for tier := MinTier; tier <= MaxTier; tier++ {
		if score >= tierScoreFloors[tier] {
			result = tier
		}
	}
	return result
}

// ScoreRange returns the inclusive score bounds of a tier.
func ScoreRange(t Tier) (int, int) {
	if !t.Valid() {
		return 0, 0
	}
	low := tierScoreFloors[t]
	if t == MaxTier {
		return low, MaxTrustScore
	}
	return low, tierScoreFloors[t+1] - 1
}

// Domain identifies one capability domain as a single bit so that a
// set of domains packs into a Domains mask.
type Domain uint8

const (
	DomainData Domain = iota
	DomainCompute
	DomainNetwork
	DomainFinance
	DomainCommunication
	DomainInfrastructure
	DomainIdentity
	DomainGovernance
)

var domainNames = [...]string{
	DomainData:           "data",
	DomainCompute:        "compute",
	DomainNetwork:        "network",
	DomainFinance:        "finance",
	DomainCommunication:  "communication",
	DomainInfrastructure: "infrastructure",
	DomainIdentity:       "identity",
	DomainGovernance:     "governance",
}

func (d Domain) String() string {
	if int(d) < len(domainNames) {
		return domainNames[d]
	}
	return fmt.Sprintf("domain_%d", int(d))
}

func ParseDomain(value string) (Domain, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for index, name := range domainNames {
		if normalized == name {
			return Domain(index), nil
		}
	}
	return 0, fmt.Errorf("unknown capability domain: %s", value)
}

// Skill is a skill code in [0, 63]; Mask packs skills into a Mask bit
// set. Codes outside the range are rejected at encode time, never
// silently truncated.
type Skill uint8

const MaxSkill Skill = 63

// Mask is a fixed-width bit set over skill or domain codes with the
// usual set algebra. The zero value is the empty set.
type Mask uint64

func (m Mask) Union(other Mask) Mask {
	return m | other
}

func (m Mask) Intersect(other Mask) Mask {
	return m & other
}

func (m Mask) Difference(other Mask) Mask {
	return m &^ other
}

func (m Mask) Has(code Skill) bool {
	if code > MaxSkill {
		return false
	}
	return m&(Mask(1)<<code) != 0
}

func (m Mask) HasAll(other Mask) bool {
	return m&other == other
}

func (m Mask) Count() int {
	count := 0
	for v := m; v != 0; v &= v - 1 {
		count++
	}
	return count
}

// EncodeSkills packs a skill list into a bit mask. Duplicates collapse;
// out-of-range codes are an error.
func EncodeSkills(skills []Skill) (Mask, error) {
	var mask Mask
	for _, skill := range skills {
		if skill > MaxSkill {
			return 0, fmt.Errorf("skill code out of range: %d", skill)
		}
		mask |= Mask(1) << skill
	}
	return mask, nil
}

// DecodeSkills unpacks a mask into a sorted, deduplicated skill list.
func DecodeSkills(mask Mask) []Skill {
	skills := make([]Skill, 0, mask.Count())
	for code := Skill(0); code <= MaxSkill; code++ {
		if mask.Has(code) {
			skills = append(skills, code)
		}
	}
	return skills
}

// EncodeDomains packs named domains into a mask.
func EncodeDomains(domains []Domain) Mask {
	var mask Mask
	for _, domain := range domains {
		mask |= Mask(1) << domain
	}
	return mask
}

// DecodeDomains unpacks a domain mask into sorted domain values.
func DecodeDomains(mask Mask) []Domain {
	domains := make([]Domain, 0, mask.Count())
	for index := range domainNames {
		if mask&(Mask(1)<<Domain(index)) != 0 {
			domains = append(domains, Domain(index))
		}
	}
	sort.Slice(domains, func(i, j int) bool { return domains[i] < domains[j] })
	return domains
}

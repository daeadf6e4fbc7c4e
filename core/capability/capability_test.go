package capability

import (
	"reflect"
	"testing"
)

func TestTierFromScoreBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  Tier
	}{
		{-50, TierT0},
		{0, TierT0},
		{99, TierT0},
		{100, TierT1},
		{299, TierT1},
		{300, TierT2},
		{499, TierT2},
		{500, TierT3},
		{699, TierT3},
		{700, TierT4},
		{899, TierT4},
		{900, TierT5},
		{1000, TierT5},
		{5000, TierT5},
	}
	for _, tc := range cases {
		if got := TierFromScore(tc.score); got != tc.want {
			t.Fatalf("TierFromScore(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestScoreRangeCoversFullScale(t *testing.T) {
	low, high := ScoreRange(TierT0)
	if low != 0 || high != 99 {
		t.Fatalf("T0 range = [%d, %d], want [0, 99]", low, high)
	}
	low, high = ScoreRange(TierT5)
	if low != 900 || high != MaxTrustScore {
		t.Fatalf("T5 range = [%d, %d], want [900, %d]", low, high, MaxTrustScore)
	}
	for tier := MinTier; tier < MaxTier; tier++ {
		_, high := ScoreRange(tier)
		nextLow, _ := ScoreRange(tier + 1)
		if high+1 != nextLow {
			t.Fatalf("gap between %s and %s: high=%d nextLow=%d", tier, tier+1, high, nextLow)
		}
	}
}

func TestTierLabels(t *testing.T) {
	cases := map[Tier]string{
		TierT0: "Sandbox",
		TierT1: "Probation",
		TierT2: "Limited",
		TierT3: "Standard",
		TierT4: "Trusted",
		TierT5: "Sovereign",
	}
	for tier, want := range cases {
		if got := tier.Label(); got != want {
			t.Fatalf("label for %s = %q, want %q", tier, got, want)
		}
	}
	if got := Tier(9).Label(); got != "Unknown" {
		t.Fatalf("invalid tier label = %q, want Unknown", got)
	}
}

func TestClampLevel(t *testing.T) {
	if got := ClampLevel(-3); got != LevelObserve {
		t.Fatalf("ClampLevel(-3) = %s", got)
	}
	if got := ClampLevel(99); got != LevelSovereign {
		t.Fatalf("ClampLevel(99) = %s", got)
	}
	if got := ClampLevel(2); got != LevelAct {
		t.Fatalf("ClampLevel(2) = %s", got)
	}
}

func TestParseLevelAcceptsCodeAndLabel(t *testing.T) {
	level, err := ParseLevel("L3")
	if err != nil || level != LevelOrchestrate {
		t.Fatalf("ParseLevel(L3) = %v, %v", level, err)
	}
	level, err = ParseLevel(" govern ")
	if err != nil || level != LevelGovern {
		t.Fatalf("ParseLevel(govern) = %v, %v", level, err)
	}
	if _, err := ParseLevel("L9"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestParseTierAcceptsCodeAndLabel(t *testing.T) {
	tier, err := ParseTier("t4")
	if err != nil || tier != TierT4 {
		t.Fatalf("ParseTier(t4) = %v, %v", tier, err)
	}
	tier, err = ParseTier("Probation")
	if err != nil || tier != TierT1 {
		t.Fatalf("ParseTier(Probation) = %v, %v", tier, err)
	}
	if _, err := ParseTier("T7"); err == nil {
		t.Fatalf("expected error for unknown tier")
	}
}

func TestMinMaxOfLevels(t *testing.T) {
	if got := MinOfLevels(LevelGovern, LevelAssist, LevelAct); got != LevelAssist {
		t.Fatalf("MinOfLevels = %s", got)
	}
	if got := MaxOfLevels(LevelGovern, LevelAssist, LevelAct); got != LevelGovern {
		t.Fatalf("MaxOfLevels = %s", got)
	}
	if got := MinOfLevels(); got != MinLevel {
		t.Fatalf("MinOfLevels() = %s, want %s", got, MinLevel)
	}
}

func TestMaskSetAlgebra(t *testing.T) {
	left, err := EncodeSkills([]Skill{1, 3, 5})
	if err != nil {
		t.Fatalf("encode left: %v", err)
	}
	right, err := EncodeSkills([]Skill{3, 5, 7})
	if err != nil {
		t.Fatalf("encode right: %v", err)
	}

	union := left.Union(right)
	if got := DecodeSkills(union); !reflect.DeepEqual(got, []Skill{1, 3, 5, 7}) {
		t.Fatalf("union = %v", got)
	}
	intersect := left.Intersect(right)
	if got := DecodeSkills(intersect); !reflect.DeepEqual(got, []Skill{3, 5}) {
		t.Fatalf("intersect = %v", got)
	}
	difference := left.Difference(right)
	if got := DecodeSkills(difference); !reflect.DeepEqual(got, []Skill{1}) {
		t.Fatalf("difference = %v", got)
	}
	if !left.HasAll(intersect) {
		t.Fatalf("expected left to contain its intersection with right")
	}
	if left.HasAll(right) {
		t.Fatalf("left should not contain all of right")
	}
	if union.Count() != 4 {
		t.Fatalf("union count = %d, want 4", union.Count())
	}
}

func TestEncodeSkillsRejectsOutOfRange(t *testing.T) {
	if _, err := EncodeSkills([]Skill{0, 64}); err == nil {
		t.Fatalf("expected error for skill code 64")
	}
}

func TestEncodeSkillsCollapsesDuplicates(t *testing.T) {
	mask, err := EncodeSkills([]Skill{2, 2, 2, 9})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if mask.Count() != 2 {
		t.Fatalf("count = %d, want 2", mask.Count())
	}
	if got := DecodeSkills(mask); !reflect.DeepEqual(got, []Skill{2, 9}) {
		t.Fatalf("decoded = %v", got)
	}
}

func TestDomainMaskRoundTrip(t *testing.T) {
	domains := []Domain{DomainGovernance, DomainData, DomainFinance}
	mask := EncodeDomains(domains)
	got := DecodeDomains(mask)
	want := []Domain{DomainData, DomainFinance, DomainGovernance}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("decoded = %v, want %v", got, want)
	}
}

func TestParseDomain(t *testing.T) {
	domain, err := ParseDomain(" Network ")
	if err != nil || domain != DomainNetwork {
		t.Fatalf("ParseDomain(Network) = %v, %v", domain, err)
	}
	if _, err := ParseDomain("plumbing"); err == nil {
		t.Fatalf("expected error for unknown domain")
	}
}

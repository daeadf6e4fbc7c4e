package authz

import (
	"testing"
)

func validIntent() Intent {
	return Intent{
		IntentID:      "intent-1",
		Action:        "Read",
		ResourceScope: " reports ",
		Sensitivity:   "INTERNAL",
	}
}

func TestNormalizeIntentCanonicalizes(t *testing.T) {
	normalized, err := NormalizeIntent(validIntent())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if normalized.SchemaID != IntentSchemaID || normalized.SchemaVersion != IntentSchemaV1 {
		t.Fatalf("schema envelope not defaulted: %+v", normalized)
	}
	if normalized.Action != ActionRead {
		t.Fatalf("action = %q", normalized.Action)
	}
	if normalized.ResourceScope != "reports" {
		t.Fatalf("resource_scope = %q", normalized.ResourceScope)
	}
	if normalized.Sensitivity != SensitivityInternal {
		t.Fatalf("sensitivity = %q", normalized.Sensitivity)
	}
}

func TestNormalizeIntentDefaultsReversibilityToIrreversible(t *testing.T) {
	normalized, err := NormalizeIntent(validIntent())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if normalized.Reversibility != Irreversible {
		t.Fatalf("reversibility = %q, want the conservative default", normalized.Reversibility)
	}
}

func TestNormalizeIntentRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Intent)
	}{
		{"missing intent_id", func(intent *Intent) { intent.IntentID = "  " }},
		{"unknown action", func(intent *Intent) { intent.Action = "summon" }},
		{"missing resource_scope", func(intent *Intent) { intent.ResourceScope = "" }},
		{"unknown sensitivity", func(intent *Intent) { intent.Sensitivity = "secretish" }},
		{"unknown reversibility", func(intent *Intent) { intent.Reversibility = "maybe" }},
		{"wrong schema_id", func(intent *Intent) { intent.SchemaID = "other.schema" }},
		{"wrong schema_version", func(intent *Intent) { intent.SchemaVersion = "9.0.0" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			intent := validIntent()
			tc.mutate(&intent)
			if _, err := NormalizeIntent(intent); err == nil {
				t.Fatalf("expected rejection")
			}
		})
	}
}

func TestSensitivityRankTotalOrder(t *testing.T) {
	ordered := []string{SensitivityPublic, SensitivityInternal, SensitivityConfidential, SensitivityRestricted}
	for index, label := range ordered {
		if rank := SensitivityRank(label); rank != index {
			t.Fatalf("rank(%s) = %d, want %d", label, rank, index)
		}
	}
	if SensitivityRank("unknown") != -1 {
		t.Fatalf("unknown label must rank -1")
	}
	if SensitivityRank(" Restricted ") != 3 {
		t.Fatalf("rank must normalize case and whitespace")
	}
}

package attest

import (
	"reflect"
	"testing"
)

func TestParseIssuerAllowlistYAML(t *testing.T) {
	doc := []byte(`
schema_id: trustgate.attest.issuer_allowlist
schema_version: 1.0.0
issuers:
  - " beta.example "
  - alpha.example
  - beta.example
  - ""
`)
	issuers, err := ParseIssuerAllowlistYAML(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"alpha.example", "beta.example"}
	if !reflect.DeepEqual(issuers, want) {
		t.Fatalf("issuers = %v, want %v", issuers, want)
	}
}

func TestParseIssuerAllowlistYAMLRejectsEmpty(t *testing.T) {
	if _, err := ParseIssuerAllowlistYAML([]byte("issuers: []\n")); err == nil {
		t.Fatalf("an empty allowlist must be rejected")
	}
	if _, err := ParseIssuerAllowlistYAML([]byte("issuers:\n  - \"  \"\n")); err == nil {
		t.Fatalf("a whitespace-only allowlist must be rejected")
	}
}

func TestParseIssuerAllowlistYAMLRejectsWrongSchema(t *testing.T) {
	if _, err := ParseIssuerAllowlistYAML([]byte("schema_id: other\nissuers: [a]\n")); err == nil {
		t.Fatalf("expected schema_id rejection")
	}
}

package attest

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	coreerrors "github.com/davidahmann/trustgate/core/errors"
)

const (
	issuerAllowlistSchemaID = "trustgate.attest.issuer_allowlist"
	issuerAllowlistSchemaV1 = "1.0.0"
)

type issuerAllowlistDocument struct {
	SchemaID      string   `yaml:"schema_id"`
	SchemaVersion string   `yaml:"schema_version"`
	Issuers       []string `yaml:"issuers"`
}

// LoadIssuerAllowlistFile reads a trusted-issuer allow-list from YAML.
func LoadIssuerAllowlistFile(path string) ([]string, error) {
	// #nosec G304 -- allowlist path is explicit local user input.
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, coreerrors.Wrap(fmt.Errorf("read issuer allowlist: %w", err),
			coreerrors.CategoryIOFailure, "issuer_allowlist_read",
			"check that the allowlist file exists and is readable", false)
	}
	return ParseIssuerAllowlistYAML(content)
}

// ParseIssuerAllowlistYAML parses and normalizes a trusted-issuer
// document. The returned list is sorted and deduplicated; an empty
// list is an error because it would silently trust every issuer.
func ParseIssuerAllowlistYAML(data []byte) ([]string, error) {
	var document issuerAllowlistDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("parse issuer allowlist yaml: %w", err)
	}
	if document.SchemaID == "" {
		document.SchemaID = issuerAllowlistSchemaID
	}
	if document.SchemaID != issuerAllowlistSchemaID {
		return nil, fmt.Errorf("unsupported issuer allowlist schema_id: %s", document.SchemaID)
	}
	if document.SchemaVersion == "" {
		document.SchemaVersion = issuerAllowlistSchemaV1
	}
	if document.SchemaVersion != issuerAllowlistSchemaV1 {
		return nil, fmt.Errorf("unsupported issuer allowlist schema_version: %s", document.SchemaVersion)
	}

	seen := make(map[string]struct{}, len(document.Issuers))
	issuers := make([]string, 0, len(document.Issuers))
	for _, issuer := range document.Issuers {
		trimmed := strings.TrimSpace(issuer)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		issuers = append(issuers, trimmed)
	}
	if len(issuers) == 0 {
		return nil, fmt.Errorf("issuer allowlist must name at least one issuer")
	}
	sort.Strings(issuers)
	return issuers, nil
}

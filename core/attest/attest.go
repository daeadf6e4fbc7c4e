// Package attest validates externally issued trust attestations.
// Verification is pure and synchronous: it inspects the attestation
// against a clock, an optional expected subject, and an optional
// trusted-issuer allow-list, and reports every discrepancy rather
// than stopping at the first.
package attest

import (
	"fmt"
	"strings"
	"time"

	"github.com/davidahmann/trustgate/core/capability"
	"github.com/davidahmann/trustgate/core/schema/v1/provenance"
)

const (
	CodeExpired         = "EXPIRED"
	CodeNotYetValid     = "NOT_YET_VALID"
	CodeRevoked         = "REVOKED"
	CodeSuspended       = "SUSPENDED"
	CodeSubjectMismatch = "SUBJECT_MISMATCH"
	CodeIssuerUntrusted = "ISSUER_NOT_TRUSTED"
	CodeSchemaInvalid   = "SCHEMA_INVALID"

	WarnPending      = "STATUS_PENDING"
	WarnMissingProof = "MISSING_PROOF"
	WarnNearExpiry   = "NEAR_EXPIRY"
)

// nearExpiryWindow is the remaining-validity span below which a
// currency warning is attached.
const nearExpiryWindow = 30 * 24 * time.Hour

var allowedScopes = map[string]struct{}{
	provenance.ScopeFull:       {},
	provenance.ScopeDomain:     {},
	provenance.ScopeLevel:      {},
	provenance.ScopeTraining:   {},
	provenance.ScopeSecurity:   {},
	provenance.ScopeCompliance: {},
	provenance.ScopeIdentity:   {},
}

var allowedStatuses = map[string]struct{}{
	provenance.StatusActive:    {},
	provenance.StatusExpired:   {},
	provenance.StatusRevoked:   {},
	provenance.StatusSuspended: {},
	provenance.StatusPending:   {},
}

// Issue is one typed verification finding.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result reports the outcome of verifying one attestation. Valid is
// true only when no errors were found; warnings degrade confidence
// without invalidating.
type Result struct {
	Valid       bool                    `json:"valid"`
	Errors      []Issue                 `json:"errors,omitempty"`
	Warnings    []Issue                 `json:"warnings,omitempty"`
	Attestation *provenance.Attestation `json:"attestation,omitempty"`
}

type VerifyOptions struct {
	// Now pins the verification clock; zero means time.Now.
	Now time.Time
	// ExpectedSubject, when set, must match the attestation subject.
	ExpectedSubject string
	// TrustedIssuers, when non-empty, is the issuer allow-list.
	TrustedIssuers []string
}

// Verify checks a single attestation for temporal validity, status,
// subject binding, and issuer trust.
func Verify(att provenance.Attestation, opts VerifyOptions) Result {
	result := Result{}

	normalized, err := normalize(att)
	if err != nil {
		result.Errors = append(result.Errors, Issue{Code: CodeSchemaInvalid, Message: err.Error()})
		return result
	}

	now := opts.Now.UTC()
	if now.IsZero() {
		now = time.Now().UTC()
	}

	switch normalized.Status {
	case provenance.StatusRevoked:
		result.Errors = append(result.Errors, Issue{Code: CodeRevoked, Message: "attestation has been revoked by its issuer"})
	case provenance.StatusSuspended:
		result.Errors = append(result.Errors, Issue{Code: CodeSuspended, Message: "attestation is suspended"})
	case provenance.StatusPending:
		result.Warnings = append(result.Warnings, Issue{Code: WarnPending, Message: "attestation is pending issuer activation"})
	}

	if now.Before(normalized.IssuedAt) {
		result.Errors = append(result.Errors, Issue{
			Code:    CodeNotYetValid,
			Message: fmt.Sprintf("attestation not valid until %s", normalized.IssuedAt.Format(time.RFC3339)),
		})
	}
	if !normalized.ExpiresAt.After(now) {
		result.Errors = append(result.Errors, Issue{
			Code:    CodeExpired,
			Message: fmt.Sprintf("attestation expired at %s", normalized.ExpiresAt.Format(time.RFC3339)),
		})
	} else if normalized.ExpiresAt.Sub(now) < nearExpiryWindow {
		result.Warnings = append(result.Warnings, Issue{
			Code:    WarnNearExpiry,
			Message: fmt.Sprintf("attestation expires within 30 days (%s)", normalized.ExpiresAt.Format(time.RFC3339)),
		})
	}

	expectedSubject := strings.TrimSpace(opts.ExpectedSubject)
	if expectedSubject != "" && normalized.Subject != expectedSubject {
		result.Errors = append(result.Errors, Issue{
			Code:    CodeSubjectMismatch,
			Message: fmt.Sprintf("attestation subject %q does not match expected %q", normalized.Subject, expectedSubject),
		})
	}

	if len(opts.TrustedIssuers) > 0 && !issuerTrusted(normalized.Issuer, opts.TrustedIssuers) {
		result.Errors = append(result.Errors, Issue{
			Code:    CodeIssuerUntrusted,
			Message: fmt.Sprintf("issuer %q is not in the trusted issuer list", normalized.Issuer),
		})
	}

	if normalized.Proof == nil {
		result.Warnings = append(result.Warnings, Issue{Code: WarnMissingProof, Message: "attestation carries no cryptographic proof"})
	}

	if len(result.Errors) == 0 {
		result.Valid = true
		result.Attestation = &normalized
	}
	return result
}

// HighestValidTier derives the certified tier from the highest
// currently-valid attestation of a set. The second return is false
// when no attestation verifies, in which case no certified-tier claim
// exists.
func HighestValidTier(atts []provenance.Attestation, opts VerifyOptions) (capability.Tier, bool) {
	highest := capability.MinTier
	found := false
	for _, att := range atts {
		result := Verify(att, opts)
		if !result.Valid {
			continue
		}
		if !found || result.Attestation.CertifiedTier > highest {
			highest = result.Attestation.CertifiedTier
		}
		found = true
	}
	return highest, found
}

func normalize(att provenance.Attestation) (provenance.Attestation, error) {
	normalized := att
	if normalized.SchemaID == "" {
		normalized.SchemaID = provenance.AttestationSchemaID
	}
	if normalized.SchemaID != provenance.AttestationSchemaID {
		return provenance.Attestation{}, fmt.Errorf("unsupported schema_id: %s", normalized.SchemaID)
	}
	if normalized.SchemaVersion == "" {
		normalized.SchemaVersion = provenance.AttestationSchemaV1
	}
	if normalized.SchemaVersion != provenance.AttestationSchemaV1 {
		return provenance.Attestation{}, fmt.Errorf("unsupported schema_version: %s", normalized.SchemaVersion)
	}
	normalized.AttestationID = strings.TrimSpace(normalized.AttestationID)
	if normalized.AttestationID == "" {
		return provenance.Attestation{}, fmt.Errorf("attestation_id is required")
	}
	normalized.Issuer = strings.TrimSpace(normalized.Issuer)
	if normalized.Issuer == "" {
		return provenance.Attestation{}, fmt.Errorf("issuer is required")
	}
	normalized.Subject = strings.TrimSpace(normalized.Subject)
	if normalized.Subject == "" {
		return provenance.Attestation{}, fmt.Errorf("subject is required")
	}
	normalized.Scope = strings.ToLower(strings.TrimSpace(normalized.Scope))
	if _, ok := allowedScopes[normalized.Scope]; !ok {
		return provenance.Attestation{}, fmt.Errorf("unsupported scope: %s", normalized.Scope)
	}
	normalized.Status = strings.ToLower(strings.TrimSpace(normalized.Status))
	if _, ok := allowedStatuses[normalized.Status]; !ok {
		return provenance.Attestation{}, fmt.Errorf("unsupported status: %s", normalized.Status)
	}
	if !normalized.CertifiedTier.Valid() {
		return provenance.Attestation{}, fmt.Errorf("invalid certified_tier: %d", int(normalized.CertifiedTier))
	}
	if normalized.IssuedAt.IsZero() {
		return provenance.Attestation{}, fmt.Errorf("issued_at is required")
	}
	if normalized.ExpiresAt.IsZero() {
		return provenance.Attestation{}, fmt.Errorf("expires_at is required")
	}
	normalized.IssuedAt = normalized.IssuedAt.UTC()
	normalized.ExpiresAt = normalized.ExpiresAt.UTC()
	return normalized, nil
}

func issuerTrusted(issuer string, trusted []string) bool {
	for _, candidate := range trusted {
		if strings.TrimSpace(candidate) == issuer {
			return true
		}
	}
	return false
}

package token

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/davidahmann/trustgate/core/capability"
	"github.com/davidahmann/trustgate/core/ceiling"
	"github.com/davidahmann/trustgate/core/schema/v1/authz"
	"github.com/davidahmann/trustgate/core/sign"
)

const (
	claimsSchemaID = "trustgate.token.capability_claims"
	claimsSchemaV1 = "1.0.0"

	CodeSchemaInvalid    = "token_invalid"
	CodeSignatureMissing = "token_signature_missing"
	CodeSignatureFailed  = "token_signature_invalid"
	CodeExpired          = "token_expired"
	CodeNotYetValid      = "token_not_yet_valid"
	CodeSubjectMismatch  = "token_subject_mismatch"
)

// TokenError carries a stable code so callers can branch on the
// failure class without parsing messages.
type TokenError struct {
	Code string
	Err  error
}

func (e *TokenError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Code
	}
	return e.Code + ": " + e.Err.Error()
}

func (e *TokenError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AttestationSummary is the compact attestation echo embedded in a
// token, enough for a verifier to audit which certifications backed
// the claimed tier without re-fetching the full documents.
type AttestationSummary struct {
	AttestationID string          `json:"attestation_id"`
	Issuer        string          `json:"issuer"`
	Scope         string          `json:"scope"`
	CertifiedTier capability.Tier `json:"certified_tier"`
	ExpiresAt     time.Time       `json:"expires_at"`
}

// Claims is the signed capability statement handed to downstream
// enforcement. CertifiedTier is present only when at least one valid
// attestation backed it; an unattested agent carries no certified
// tier rather than a defaulted one.
type Claims struct {
	SchemaID      string                     `json:"schema_id"`
	SchemaVersion string                     `json:"schema_version"`
	TokenID       string                     `json:"token_id"`
	AgentID       string                     `json:"agent_id"`
	RegistryID    string                     `json:"registry_id,omitempty"`
	OrgID         string                     `json:"org_id,omitempty"`
	AgentClass    string                     `json:"agent_class,omitempty"`
	DomainsMask   capability.Mask            `json:"domains_mask"`
	Level         capability.Level           `json:"level"`
	CertifiedTier *capability.Tier           `json:"certified_tier,omitempty"`
	RuntimeTier   *capability.Tier           `json:"runtime_tier,omitempty"`
	Attestations  []AttestationSummary       `json:"attestations,omitempty"`
	Ceiling       *ceiling.Effective         `json:"ceiling,omitempty"`
	Constraints   *authz.DecisionConstraints `json:"constraints,omitempty"`
	IssuedAt      time.Time                  `json:"issued_at"`
	ExpiresAt     time.Time                  `json:"expires_at"`
	Signature     *sign.Signature            `json:"signature,omitempty"`
}

type MintOptions struct {
	TTL time.Duration
	// Now pins the issue clock; zero means time.Now.
	Now time.Time
}

type VerifyOptions struct {
	// Now pins the verification clock; zero means time.Now.
	Now time.Time
	// ExpectedAgentID, when set, must match the claims subject.
	ExpectedAgentID string
}

// Mint validates the claims, stamps identity and validity window, and
// signs the canonical JSON digest. The input is not mutated.
func Mint(claims Claims, priv ed25519.PrivateKey, opts MintOptions) (Claims, error) {
	if len(priv) == 0 {
		return Claims{}, fmt.Errorf("signing private key is required")
	}
	if opts.TTL <= 0 {
		return Claims{}, fmt.Errorf("ttl must be greater than 0")
	}
	claims.AgentID = strings.TrimSpace(claims.AgentID)
	if claims.AgentID == "" {
		return Claims{}, fmt.Errorf("agent_id is required")
	}
	if !claims.Level.Valid() {
		return Claims{}, fmt.Errorf("invalid capability level: %d", claims.Level)
	}
	if claims.CertifiedTier != nil && !claims.CertifiedTier.Valid() {
		return Claims{}, fmt.Errorf("invalid certified tier: %d", *claims.CertifiedTier)
	}
	if claims.RuntimeTier != nil && !claims.RuntimeTier.Valid() {
		return Claims{}, fmt.Errorf("invalid runtime tier: %d", *claims.RuntimeTier)
	}

	issuedAt := opts.Now.UTC()
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}
	claims.SchemaID = claimsSchemaID
	claims.SchemaVersion = claimsSchemaV1
	claims.IssuedAt = issuedAt
	claims.ExpiresAt = issuedAt.Add(opts.TTL)
	claims.TokenID = computeTokenID(claims)
	claims.Signature = nil

	signableRaw, err := json.Marshal(claims)
	if err != nil {
		return Claims{}, fmt.Errorf("marshal signable claims: %w", err)
	}
	signature, err := sign.SignJSON(priv, signableRaw)
	if err != nil {
		return Claims{}, fmt.Errorf("sign claims: %w", err)
	}
	claims.Signature = &signature
	return claims, nil
}

// Verify checks structure, signature, subject binding, and the
// validity window. A nil return means the token is currently good.
func Verify(claims Claims, pub ed25519.PublicKey, opts VerifyOptions) error {
	normalized, err := normalizeClaims(claims)
	if err != nil {
		return &TokenError{Code: CodeSchemaInvalid, Err: err}
	}
	if len(pub) == 0 {
		return &TokenError{Code: CodeSignatureFailed, Err: fmt.Errorf("verification public key is required")}
	}
	if normalized.Signature == nil {
		return &TokenError{Code: CodeSignatureMissing, Err: fmt.Errorf("signature missing")}
	}

	signable := normalized
	signable.Signature = nil
	signableRaw, err := json.Marshal(signable)
	if err != nil {
		return &TokenError{Code: CodeSchemaInvalid, Err: fmt.Errorf("marshal signable claims: %w", err)}
	}
	ok, err := sign.VerifyJSON(pub, *normalized.Signature, signableRaw)
	if err != nil {
		return &TokenError{Code: CodeSignatureFailed, Err: err}
	}
	if !ok {
		return &TokenError{Code: CodeSignatureFailed, Err: fmt.Errorf("signature verification failed")}
	}

	expectedAgent := strings.TrimSpace(opts.ExpectedAgentID)
	if expectedAgent != "" && normalized.AgentID != expectedAgent {
		return &TokenError{Code: CodeSubjectMismatch, Err: fmt.Errorf("claims issued to %q", normalized.AgentID)}
	}
	now := opts.Now.UTC()
	if now.IsZero() {
		now = time.Now().UTC()
	}
	if now.Before(normalized.IssuedAt.UTC()) {
		return &TokenError{Code: CodeNotYetValid, Err: fmt.Errorf("claims not valid before %s", normalized.IssuedAt.UTC().Format(time.RFC3339))}
	}
	if !now.Before(normalized.ExpiresAt.UTC()) {
		return &TokenError{Code: CodeExpired, Err: fmt.Errorf("claims expired at %s", normalized.ExpiresAt.UTC().Format(time.RFC3339))}
	}
	return nil
}

func normalizeClaims(claims Claims) (Claims, error) {
	normalized := claims
	if normalized.SchemaID != claimsSchemaID {
		return Claims{}, fmt.Errorf("unsupported schema_id: %s", normalized.SchemaID)
	}
	if normalized.SchemaVersion != claimsSchemaV1 {
		return Claims{}, fmt.Errorf("unsupported schema_version: %s", normalized.SchemaVersion)
	}
	normalized.TokenID = strings.TrimSpace(normalized.TokenID)
	if normalized.TokenID == "" {
		return Claims{}, fmt.Errorf("token_id is required")
	}
	normalized.AgentID = strings.TrimSpace(normalized.AgentID)
	if normalized.AgentID == "" {
		return Claims{}, fmt.Errorf("agent_id is required")
	}
	if !normalized.Level.Valid() {
		return Claims{}, fmt.Errorf("invalid capability level: %d", normalized.Level)
	}
	if normalized.CertifiedTier != nil && !normalized.CertifiedTier.Valid() {
		return Claims{}, fmt.Errorf("invalid certified tier: %d", *normalized.CertifiedTier)
	}
	if normalized.RuntimeTier != nil && !normalized.RuntimeTier.Valid() {
		return Claims{}, fmt.Errorf("invalid runtime tier: %d", *normalized.RuntimeTier)
	}
	if normalized.IssuedAt.IsZero() {
		return Claims{}, fmt.Errorf("issued_at is required")
	}
	if normalized.ExpiresAt.IsZero() {
		return Claims{}, fmt.Errorf("expires_at is required")
	}
	if !normalized.ExpiresAt.After(normalized.IssuedAt) {
		return Claims{}, fmt.Errorf("expires_at must be after issued_at")
	}
	return normalized, nil
}

func computeTokenID(claims Claims) string {
	raw := claims.AgentID + ":" + fmt.Sprintf("%d:%d", claims.DomainsMask, claims.Level)
	if claims.CertifiedTier != nil {
		raw += ":" + claims.CertifiedTier.String()
	}
	raw += ":" + claims.ExpiresAt.UTC().Format(time.RFC3339Nano)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:12])
}

package token

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/davidahmann/trustgate/core/attest"
	"github.com/davidahmann/trustgate/core/capability"
	schemaprov "github.com/davidahmann/trustgate/core/schema/v1/provenance"
)

var mintTime = time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)

func testKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate keys: %v", err)
	}
	return pub, priv
}

func baseClaims() Claims {
	return Claims{
		AgentID:     "agent-7",
		RegistryID:  "registry-main",
		DomainsMask: capability.EncodeDomains([]capability.Domain{capability.DomainData, capability.DomainCompute}),
		Level:       capability.LevelAct,
	}
}

func tokenErrorCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error")
	}
	tokenErr, ok := err.(*TokenError)
	if !ok {
		t.Fatalf("error %T is not a TokenError", err)
	}
	return tokenErr.Code
}

func TestMintAndVerifyRoundtrip(t *testing.T) {
	pub, priv := testKeys(t)
	minted, err := Mint(baseClaims(), priv, MintOptions{TTL: time.Hour, Now: mintTime})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if minted.SchemaID != "trustgate.token.capability_claims" || minted.SchemaVersion != "1.0.0" {
		t.Fatalf("schema envelope = %s/%s", minted.SchemaID, minted.SchemaVersion)
	}
	if len(minted.TokenID) != 24 {
		t.Fatalf("token id = %q", minted.TokenID)
	}
	if !minted.ExpiresAt.Equal(mintTime.Add(time.Hour)) {
		t.Fatalf("expires_at = %s", minted.ExpiresAt)
	}
	if minted.Signature == nil {
		t.Fatalf("minted claims carry no signature")
	}

	if err := Verify(minted, pub, VerifyOptions{Now: mintTime.Add(30 * time.Minute)}); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := Verify(minted, pub, VerifyOptions{Now: mintTime.Add(time.Minute), ExpectedAgentID: "agent-7"}); err != nil {
		t.Fatalf("verify with subject: %v", err)
	}
}

func TestMintRejections(t *testing.T) {
	_, priv := testKeys(t)
	if _, err := Mint(baseClaims(), nil, MintOptions{TTL: time.Hour}); err == nil {
		t.Fatalf("nil key accepted")
	}
	if _, err := Mint(baseClaims(), priv, MintOptions{}); err == nil {
		t.Fatalf("zero ttl accepted")
	}

	claims := baseClaims()
	claims.AgentID = "  "
	if _, err := Mint(claims, priv, MintOptions{TTL: time.Hour}); err == nil {
		t.Fatalf("blank agent id accepted")
	}

	claims = baseClaims()
	claims.Level = capability.Level(9)
	if _, err := Mint(claims, priv, MintOptions{TTL: time.Hour}); err == nil {
		t.Fatalf("invalid level accepted")
	}

	claims = baseClaims()
	badTier := capability.Tier(7)
	claims.CertifiedTier = &badTier
	if _, err := Mint(claims, priv, MintOptions{TTL: time.Hour}); err == nil {
		t.Fatalf("invalid certified tier accepted")
	}
}

func TestVerifyExpiryWindow(t *testing.T) {
	pub, priv := testKeys(t)
	minted, err := Mint(baseClaims(), priv, MintOptions{TTL: time.Hour, Now: mintTime})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	err = Verify(minted, pub, VerifyOptions{Now: mintTime.Add(time.Hour)})
	if code := tokenErrorCode(t, err); code != CodeExpired {
		t.Fatalf("code = %s, want %s", code, CodeExpired)
	}

	err = Verify(minted, pub, VerifyOptions{Now: mintTime.Add(-time.Minute)})
	if code := tokenErrorCode(t, err); code != CodeNotYetValid {
		t.Fatalf("code = %s, want %s", code, CodeNotYetValid)
	}
}

func TestVerifySubjectMismatch(t *testing.T) {
	pub, priv := testKeys(t)
	minted, err := Mint(baseClaims(), priv, MintOptions{TTL: time.Hour, Now: mintTime})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	err = Verify(minted, pub, VerifyOptions{Now: mintTime.Add(time.Minute), ExpectedAgentID: "agent-9"})
	if code := tokenErrorCode(t, err); code != CodeSubjectMismatch {
		t.Fatalf("code = %s, want %s", code, CodeSubjectMismatch)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	pub, priv := testKeys(t)
	minted, err := Mint(baseClaims(), priv, MintOptions{TTL: time.Hour, Now: mintTime})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	tampered := minted
	tampered.Level = capability.LevelSovereign
	err = Verify(tampered, pub, VerifyOptions{Now: mintTime.Add(time.Minute)})
	if code := tokenErrorCode(t, err); code != CodeSignatureFailed {
		t.Fatalf("code = %s, want %s", code, CodeSignatureFailed)
	}

	unsigned := minted
	unsigned.Signature = nil
	err = Verify(unsigned, pub, VerifyOptions{Now: mintTime.Add(time.Minute)})
	if code := tokenErrorCode(t, err); code != CodeSignatureMissing {
		t.Fatalf("code = %s, want %s", code, CodeSignatureMissing)
	}

	otherPub, _ := testKeys(t)
	err = Verify(minted, otherPub, VerifyOptions{Now: mintTime.Add(time.Minute)})
	if code := tokenErrorCode(t, err); code != CodeSignatureFailed {
		t.Fatalf("code = %s, want %s", code, CodeSignatureFailed)
	}
}

func TestVerifyStructuralRejections(t *testing.T) {
	pub, priv := testKeys(t)
	minted, err := Mint(baseClaims(), priv, MintOptions{TTL: time.Hour, Now: mintTime})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	mutations := []struct {
		name   string
		mutate func(claims *Claims)
	}{
		{"wrong schema_id", func(claims *Claims) { claims.SchemaID = "other.token" }},
		{"wrong schema_version", func(claims *Claims) { claims.SchemaVersion = "9.0.0" }},
		{"blank token_id", func(claims *Claims) { claims.TokenID = " " }},
		{"blank agent_id", func(claims *Claims) { claims.AgentID = "" }},
		{"zero issued_at", func(claims *Claims) { claims.IssuedAt = time.Time{} }},
		{"zero expires_at", func(claims *Claims) { claims.ExpiresAt = time.Time{} }},
		{"inverted window", func(claims *Claims) { claims.ExpiresAt = claims.IssuedAt.Add(-time.Hour) }},
	}
	for _, tc := range mutations {
		t.Run(tc.name, func(t *testing.T) {
			claims := minted
			tc.mutate(&claims)
			err := Verify(claims, pub, VerifyOptions{Now: mintTime.Add(time.Minute)})
			if code := tokenErrorCode(t, err); code != CodeSchemaInvalid {
				t.Fatalf("code = %s, want %s", code, CodeSchemaInvalid)
			}
		})
	}
}

func buildTestAttestation(id string, tier capability.Tier, status string) schemaprov.Attestation {
	return schemaprov.Attestation{
		SchemaID:      schemaprov.AttestationSchemaID,
		SchemaVersion: schemaprov.AttestationSchemaV1,
		AttestationID: id,
		Issuer:        "authority.example",
		Subject:       "agent-7",
		Scope:         schemaprov.ScopeSecurity,
		CertifiedTier: tier,
		IssuedAt:      mintTime.Add(-30 * 24 * time.Hour),
		ExpiresAt:     mintTime.Add(180 * 24 * time.Hour),
		Status:        status,
	}
}

func TestBuildClaimsKeepsOnlyValidAttestations(t *testing.T) {
	atts := []schemaprov.Attestation{
		buildTestAttestation("att-valid", capability.TierT3, schemaprov.StatusActive),
		buildTestAttestation("att-revoked", capability.TierT5, schemaprov.StatusRevoked),
	}
	claims := BuildClaims("agent-7", []capability.Domain{capability.DomainData}, capability.LevelAct, atts, attest.VerifyOptions{Now: mintTime})
	if len(claims.Attestations) != 1 || claims.Attestations[0].AttestationID != "att-valid" {
		t.Fatalf("attestations = %+v", claims.Attestations)
	}
	if claims.CertifiedTier == nil || *claims.CertifiedTier != capability.TierT3 {
		t.Fatalf("certified tier = %v, want T3", claims.CertifiedTier)
	}
	if claims.Level != capability.LevelAct {
		t.Fatalf("level = %v", claims.Level)
	}
}

func TestBuildClaimsWithoutValidAttestations(t *testing.T) {
	atts := []schemaprov.Attestation{
		buildTestAttestation("att-revoked", capability.TierT5, schemaprov.StatusRevoked),
	}
	claims := BuildClaims("agent-7", nil, capability.Level(99), atts, attest.VerifyOptions{Now: mintTime})
	if claims.CertifiedTier != nil {
		t.Fatalf("certified tier = %v, want nil", claims.CertifiedTier)
	}
	if len(claims.Attestations) != 0 {
		t.Fatalf("attestations = %+v", claims.Attestations)
	}
	if claims.Level != capability.LevelSovereign {
		t.Fatalf("out-of-range level must clamp: %v", claims.Level)
	}
}

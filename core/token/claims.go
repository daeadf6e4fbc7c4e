package token

import (
	"github.com/davidahmann/trustgate/core/attest"
	"github.com/davidahmann/trustgate/core/capability"
	"github.com/davidahmann/trustgate/core/schema/v1/provenance"
)

// BuildClaims assembles unsigned claims from an agent's identity,
// granted domains, effective level, and attestation set. Only
// attestations that verify cleanly contribute: invalid ones are
// dropped from the summary and never raise the certified tier.
func BuildClaims(agentID string, domains []capability.Domain, level capability.Level, atts []provenance.Attestation, attOpts attest.VerifyOptions) Claims {
	claims := Claims{
		AgentID:     agentID,
		DomainsMask: capability.EncodeDomains(domains),
		Level:       capability.ClampLevel(int(level)),
	}

	for _, att := range atts {
		result := attest.Verify(att, attOpts)
		if !result.Valid {
			continue
		}
		verified := result.Attestation
		claims.Attestations = append(claims.Attestations, AttestationSummary{
			AttestationID: verified.AttestationID,
			Issuer:        verified.Issuer,
			Scope:         verified.Scope,
			CertifiedTier: verified.CertifiedTier,
			ExpiresAt:     verified.ExpiresAt,
		})
	}

	if tier, ok := attest.HighestValidTier(atts, attOpts); ok {
		certified := tier
		claims.CertifiedTier = &certified
	}
	return claims
}

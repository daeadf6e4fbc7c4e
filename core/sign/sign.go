// Package sign provides the ed25519 primitives behind every proof the
// engine emits: capability token signatures, attestation proofs, and
// the digest-bound JSON signing used for canonicalized documents.
package sign

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// AlgEd25519 is the only signature algorithm the engine accepts.
const AlgEd25519 = "ed25519"

// Signature is the detached wire form of one signature. SignedDigest,
// when present, binds the signature to a canonical JSON digest.
type Signature struct {
	Alg          string `json:"alg"`
	KeyID        string `json:"key_id"`
	Sig          string `json:"sig"`
	SignedDigest string `json:"signed_digest,omitempty"`
}

// SignBytes signs raw bytes and stamps the signer's key id so a
// verifier can detect a key mismatch before checking the signature.
func SignBytes(priv ed25519.PrivateKey, data []byte) Signature {
	raw := ed25519.Sign(priv, data)
	return Signature{
		Alg:   AlgEd25519,
		KeyID: KeyID(priv.Public().(ed25519.PublicKey)),
		Sig:   base64.StdEncoding.EncodeToString(raw),
	}
}

// VerifyBytes checks a signature against raw bytes. A failed check
// returns false; a structurally broken signature returns an error.
func VerifyBytes(pub ed25519.PublicKey, sig Signature, data []byte) (bool, error) {
	if sig.Alg != AlgEd25519 {
		return false, fmt.Errorf("unsupported alg: %s", sig.Alg)
	}
	if sig.KeyID != "" && sig.KeyID != KeyID(pub) {
		return false, fmt.Errorf("key id mismatch")
	}
	raw, err := base64.StdEncoding.DecodeString(sig.Sig)
	if err != nil {
		return false, fmt.Errorf("decode sig: %w", err)
	}
	if len(raw) != ed25519.SignatureSize {
		return false, fmt.Errorf("invalid signature length: %d", len(raw))
	}
	return ed25519.Verify(pub, data, raw), nil
}

// SignDigestHex signs a hex-encoded sha256 digest and records the
// digest in the signature.
func SignDigestHex(priv ed25519.PrivateKey, digestHex string) (Signature, error) {
	digest, err := decodeDigestHex(digestHex)
	if err != nil {
		return Signature{}, err
	}
	sig := SignBytes(priv, digest)
	sig.SignedDigest = digestHex
	return sig, nil
}

// VerifyDigestHex checks a digest-bound signature against the digest
// it recorded at signing time.
func VerifyDigestHex(pub ed25519.PublicKey, sig Signature) (bool, error) {
	if sig.SignedDigest == "" {
		return false, fmt.Errorf("missing signed_digest")
	}
	digest, err := decodeDigestHex(sig.SignedDigest)
	if err != nil {
		return false, err
	}
	return VerifyBytes(pub, sig, digest)
}

func decodeDigestHex(digestHex string) ([]byte, error) {
	digest, err := hex.DecodeString(digestHex)
	if err != nil {
		return nil, fmt.Errorf("decode digest: %w", err)
	}
	if len(digest) != sha256.Size {
		return nil, fmt.Errorf("invalid digest length: %d", len(digest))
	}
	return digest, nil
}

package jcs

import (
	"strings"
	"testing"
)

func TestDigestJCSIgnoresKeyOrderAndWhitespace(t *testing.T) {
	left := []byte(`{"b": 2, "a": 1}`)
	right := []byte(`{
		"a": 1,
		"b": 2
	}`)

	leftDigest, err := DigestJCS(left)
	if err != nil {
		t.Fatalf("digest left: %v", err)
	}
	rightDigest, err := DigestJCS(right)
	if err != nil {
		t.Fatalf("digest right: %v", err)
	}
	if leftDigest != rightDigest {
		t.Fatalf("digests differ for equivalent documents: %s vs %s", leftDigest, rightDigest)
	}
	if len(leftDigest) != 64 || strings.ToLower(leftDigest) != leftDigest {
		t.Fatalf("digest is not lowercase sha256 hex: %s", leftDigest)
	}
}

func TestDigestJCSDistinguishesValues(t *testing.T) {
	leftDigest, err := DigestJCS([]byte(`{"a": 1}`))
	if err != nil {
		t.Fatalf("digest left: %v", err)
	}
	rightDigest, err := DigestJCS([]byte(`{"a": 2}`))
	if err != nil {
		t.Fatalf("digest right: %v", err)
	}
	if leftDigest == rightDigest {
		t.Fatalf("expected distinct digests")
	}
}

func TestDigestJCSRejectsInvalidJSON(t *testing.T) {
	if _, err := DigestJCS([]byte(`{"a":`)); err == nil {
		t.Fatalf("expected error for truncated JSON")
	}
}

func TestDigestValueMatchesRawDigest(t *testing.T) {
	type doc struct {
		B int    `json:"b"`
		A string `json:"a"`
	}
	valueDigest, err := DigestValue(doc{B: 7, A: "x"})
	if err != nil {
		t.Fatalf("digest value: %v", err)
	}
	rawDigest, err := DigestJCS([]byte(`{"a":"x","b":7}`))
	if err != nil {
		t.Fatalf("digest raw: %v", err)
	}
	if valueDigest != rawDigest {
		t.Fatalf("value digest %s != raw digest %s", valueDigest, rawDigest)
	}
}

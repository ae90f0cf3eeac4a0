package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainQuery  = "reqlbridge/query/v1"
	DomainResult = "reqlbridge/result/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// QueryFingerprint identifies a compiled query independent of when it ran.
// Two executions of the same entity/action/term share a fingerprint, which
// lets the journal group repeated operations.
func QueryFingerprint(entity, action, term string) (string, error) {
	obj := IRObject{
		"entity": IRString(entity),
		"action": IRString(action),
		"term":   IRString(term),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("QueryFingerprint: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainQuery, canonical), nil
}

// ResultHash computes a content hash over a result node.
func ResultHash(result IRValue) (string, error) {
	canonical, err := MarshalCanonical(result)
	if err != nil {
		return "", fmt.Errorf("ResultHash: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainResult, canonical), nil
}

// MustQueryFingerprint is like QueryFingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustQueryFingerprint(entity, action, term string) string {
	fp, err := QueryFingerprint(entity, action, term)
	if err != nil {
		panic(err)
	}
	return fp
}

package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainPlan   = "aggc/plan/v1"
	DomainResult = "aggc/result/v1"
)

// HashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) []byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return h.Sum(nil)
}

// ResultHash computes a stable hex digest of an execution result list.
// Golden scenarios store it alongside the rendered rows.
func ResultHash[V Value](rows []V) (string, error) {
	canonical, err := MarshalCanonicalList(rows)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(HashWithDomain(DomainResult, canonical)), nil
}

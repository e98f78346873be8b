package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes.
// Version suffix enables future algorithm migration.
const (
	DomainFingerprint = "loomcal/fingerprint/v1"
	DomainDocument    = "loomcal/document/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint hashes the projection of doc onto fields. Two events with the
// same values for every listed field share a fingerprint; absent fields are
// hashed as null. An empty field list hashes the whole document.
func Fingerprint(doc Map, fields []string) (string, error) {
	proj := doc
	if len(fields) > 0 {
		proj = make(Map, len(fields))
		for _, f := range fields {
			v, ok := doc[f]
			if !ok {
				v = Null{}
			}
			proj[f] = v
		}
	}

	canonical, err := MarshalCanonical(proj)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainFingerprint, canonical), nil
}

// DocumentHash hashes a full event document.
func DocumentHash(doc Map) (string, error) {
	canonical, err := MarshalCanonical(doc)
	if err != nil {
		return "", fmt.Errorf("DocumentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}

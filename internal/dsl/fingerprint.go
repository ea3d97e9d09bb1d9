package dsl

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Fingerprint computes a short stable identifier for a plan: SHA-256 over the
// canonical JSON form, hex encoded, truncated to 16 characters. Two plans
// with the same semantics and field values always share a fingerprint.
func Fingerprint(d *DSL) (string, error) {
	body, err := d.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encoding plan: %w", err)
	}
	canonical, err := canonicalJSON(body)
	if err != nil {
		return "", fmt.Errorf("canonicalizing plan: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])[:16], nil
}

// canonicalJSON re-encodes body with object keys sorted and no insignificant
// whitespace. encoding/json sorts map keys on marshal, so a round trip
// through interface{} is sufficient.
func canonicalJSON(body []byte) ([]byte, error) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// MakeKey generates a deterministic cache key from the full request: model
// name, message sequence, and tool spec. The payload is canonicalized before
// hashing so that object key order never matters while sequence order always
// does: identical requests hash identically, and reordering two messages
// yields a different key. The result is 64 lowercase hex characters.
func MakeKey(model string, messages, tools any) (string, error) {
	payload := struct {
		Model    string `json:"model"`
		Messages any    `json:"messages"`
		Tools    any    `json:"tools"`
	}{Model: model, Messages: messages, Tools: tools}

	canonical, err := canonicalJSON(payload)
	if err != nil {
		return "", fmt.Errorf("cache: encode key payload: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// canonicalJSON marshals v, then round-trips the bytes through an untyped
// decode and re-encode. The second encode walks map values, and encoding/json
// emits map keys in sorted order while preserving slice order verbatim, which
// is exactly the canonical form the key needs. The round trip also makes the
// result independent of whether the caller passed structs, maps, or raw JSON.
func canonicalJSON(v any) ([]byte, error) {
	first, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(first, &decoded); err != nil {
		return nil, err
	}
	return json.Marshal(decoded)
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Fingerprint derives a deterministic cache key from an operation name and
// its parameters. encoding/json writes map keys in sorted order at every
// level, so equal maps give equal keys regardless of insertion order.
func Fingerprint(operation string, params map[string]any) (string, error) {
	if params == nil {
		params = map[string]any{}
	}
	payload, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to serialize parameters for %s: %w", operation, err)
	}

	h := sha256.New()
	h.Write([]byte(operation))
	h.Write([]byte{0})
	h.Write(payload)
	return operation + ":" + hex.EncodeToString(h.Sum(nil)), nil
}

package helper

import (
	"strings"

	"github.com/google/uuid"
)

// NormalizeAPIKey validates a client-supplied API key. Keys are UUIDs,
// tolerant of a single leading ASCII character some clients prepend
// (e.g. "HXXXXXXXX-..."). Returns the canonical lowercase UUID and whether
// the input was well-formed.
func NormalizeAPIKey(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if id, err := uuid.Parse(raw); err == nil {
		return id.String(), true
	}
	if len(raw) == 37 {
		if id, err := uuid.Parse(raw[1:]); err == nil {
			return id.String(), true
		}
	}
	return "", false
}

// MaskAPIKey returns a masked version of an API key for safe logging.
// It shows the first 6 characters and last 4 characters, with "..." in between.
// For short keys (less than 12 chars), it returns "***" to avoid exposing too much.
func MaskAPIKey(key string) string {
	if len(key) < 12 {
		return "***"
	}
	return key[:6] + "..." + key[len(key)-4:]
}

package logger

import (
	"log/slog"
	"strings"
)

// Attribute keys whose values are never written.
var sensitiveKeyPatterns = []string{
	"secret",
	"password",
	"private",
	"cek",
	"key",
	"token",
}

// Attribute keys that contain a sensitive pattern but carry no secret.
var allowedKeys = map[string]struct{}{
	"key_id":     {},
	"token_id":   {},
	"token_kind": {},
}

const redactedValue = "***REDACTED***"

// redactSensitive replaces the value of any attribute whose key suggests key
// material. Groups are walked recursively.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	keyLower := strings.ToLower(a.Key)
	if _, ok := allowedKeys[keyLower]; ok {
		return a
	}

	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return slog.String(a.Key, redactedValue)
		}
	}

	return a
}

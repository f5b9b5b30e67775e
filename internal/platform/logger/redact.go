package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
)

const redacted = "[REDACTED]"

// Keys containing any of these fragments are never written in clear text.
var redactFragments = []string{
	"token",
	"authorization",
	"password",
	"secret",
	"cookie",
	"api_key",
	"apikey",
	"email",
}

// Keys containing any of these fragments are replaced by a short salted hash so
// log lines for the same subject can still be correlated.
var hashFragments = []string{
	"user_id",
	"owner_id",
	"creator_id",
	"session_id",
	"assigned_by",
}

type redactionSettings struct {
	enabled bool
	salt    string
}

var (
	settingsOnce sync.Once
	settings     redactionSettings
)

func loadSettings() redactionSettings {
	settingsOnce.Do(func() {
		settings.enabled = true
		switch strings.TrimSpace(strings.ToLower(os.Getenv("LOG_REDACTION_ENABLED"))) {
		case "0", "false", "no", "off":
			settings.enabled = false
		}
		settings.salt = strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))
	})
	return settings
}

func sanitizeKVs(kv []interface{}) []interface{} {
	if len(kv) == 0 {
		return kv
	}
	s := loadSettings()
	if !s.enabled {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		name := toString(kv[i])
		out = append(out, name, sanitizeValue(s, strings.ToLower(strings.TrimSpace(name)), kv[i+1]))
	}
	return out
}

func sanitizeValue(s redactionSettings, key string, val interface{}) interface{} {
	if key != "" {
		if containsAny(key, redactFragments) {
			return redacted
		}
		if containsAny(key, hashFragments) {
			return hashValue(s.salt, val)
		}
	}
	switch v := val.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = sanitizeValue(s, strings.ToLower(strings.TrimSpace(k)), inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(v))
		for _, inner := range v {
			out = append(out, sanitizeValue(s, "", inner))
		}
		return out
	case string:
		if looksLikeJWT(v) {
			return redacted
		}
		return v
	default:
		return val
	}
}

func containsAny(key string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(key, f) {
			return true
		}
	}
	return false
}

func hashValue(salt string, val interface{}) string {
	raw := toString(val)
	if raw == "" || raw == "<nil>" {
		return ""
	}
	h := sha256.New()
	_, _ = h.Write([]byte(salt))
	_, _ = h.Write([]byte(raw))
	return "hash:" + hex.EncodeToString(h.Sum(nil))[:12]
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsAndHashes(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"email", "ana@school.edu",
		"user_id", "student-42",
		"topic", "water cycle",
		"dangling",
	})
	if len(out) != 7 {
		t.Fatalf("unexpected length: got=%d want=7", len(out))
	}
	if out[1] != redacted {
		t.Fatalf("email not redacted: got=%v", out[1])
	}
	hashed, _ := out[3].(string)
	if !strings.HasPrefix(hashed, "hash:") || strings.Contains(hashed, "student") {
		t.Fatalf("user_id not hashed: got=%v", out[3])
	}
	if out[5] != "water cycle" {
		t.Fatalf("plain value changed: got=%v", out[5])
	}
	if out[6] != "dangling" {
		t.Fatalf("dangling key dropped: got=%v", out[6])
	}
}

func TestSanitizeValueNestedMap(t *testing.T) {
	got := sanitizeValue(redactionSettings{enabled: true}, "payload", map[string]interface{}{
		"access_token": "abc",
		"score":        7,
	})
	m, ok := got.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map, got %T", got)
	}
	if m["access_token"] != redacted {
		t.Fatalf("nested token not redacted: got=%v", m["access_token"])
	}
	if m["score"] != 7 {
		t.Fatalf("nested score changed: got=%v", m["score"])
	}
}

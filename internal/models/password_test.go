package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewPasswordHashMatches(t *testing.T) {
	hash, err := NewPasswordHash("s3gredo!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if string(hash) == "s3gredo!" {
		t.Fatalf("hash must not equal plain text")
	}
	if !hash.Matches("s3gredo!") {
		t.Fatalf("expected match")
	}
	if hash.Matches("outra") {
		t.Fatalf("unexpected match")
	}
	if _, err := NewPasswordHash(""); err != ErrPasswordEmpty {
		t.Fatalf("want ErrPasswordEmpty got %v", err)
	}
}

func TestUserJSONOmitsSecrets(t *testing.T) {
	hash, _ := NewPasswordHash("s3gredo!")
	raw, err := json.Marshal(User{ID: 1, Email: "a@b.com", PasswordHash: hash, CPF: "52998224725"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	text := string(raw)
	if strings.Contains(text, string(hash)) || strings.Contains(text, "52998224725") {
		t.Fatalf("secret leaked: %s", text)
	}
}

func TestMoneyJSON(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`19.9`), &m); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if m.String() != "19.90" {
		t.Fatalf("want 19.90 got %s", m.String())
	}
	if err := json.Unmarshal([]byte(`"5.005"`), &m); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	raw, _ := json.Marshal(m)
	if string(raw) != `"5.01"` {
		t.Fatalf("want \"5.01\" got %s", raw)
	}
}

package cryptox

import (
	"encoding/base64"
	"testing"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	salt := []byte("0123456789abcdef")

	k1 := DeriveKey("secret", salt, 1000)
	k2 := DeriveKey("secret", salt, 1000)

	if len(k1) != 32 {
		t.Fatalf("expected 32-byte key, got %d", len(k1))
	}
	if base64.StdEncoding.EncodeToString(k1) != base64.StdEncoding.EncodeToString(k2) {
		t.Error("same password and salt must derive the same key")
	}

	k3 := DeriveKey("secret", salt, 1001)
	if base64.StdEncoding.EncodeToString(k1) == base64.StdEncoding.EncodeToString(k3) {
		t.Error("different iteration counts must derive different keys")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := `{"version":3,"todos":[]}`

	env, err := EncryptText(plaintext, "hunter2")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if env.V != EnvelopeVersion {
		t.Errorf("expected envelope version %d, got %d", EnvelopeVersion, env.V)
	}

	got, ok := DecryptEnvelope(env, "hunter2")
	if !ok {
		t.Fatal("decrypt failed with correct password")
	}
	if got != plaintext {
		t.Errorf("expected %q, got %q", plaintext, got)
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	env, err := EncryptText("payload", "correct")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if _, ok := DecryptEnvelope(env, "wrong"); ok {
		t.Error("decrypt must fail with the wrong password")
	}
}

func TestDecryptMalformedEnvelope(t *testing.T) {
	env, err := EncryptText("payload", "pw")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	cases := map[string]func(e Envelope) Envelope{
		"bad salt b64":  func(e Envelope) Envelope { e.Salt = "!!!"; return e },
		"empty salt":    func(e Envelope) Envelope { e.Salt = ""; return e },
		"bad iv b64":    func(e Envelope) Envelope { e.IV = "!!!"; return e },
		"short iv":      func(e Envelope) Envelope { e.IV = base64.StdEncoding.EncodeToString([]byte("short")); return e },
		"empty tag":     func(e Envelope) Envelope { e.Tag = ""; return e },
		"empty data":    func(e Envelope) Envelope { e.Data = ""; return e },
		"tampered data": func(e Envelope) Envelope { e.Data = e.Tag; return e },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			bad := mutate(*env)
			if _, ok := DecryptEnvelope(&bad, "pw"); ok {
				t.Error("decrypt must fail on a malformed envelope")
			}
		})
	}
}

func TestEncryptTextWithKeyRecordsSalt(t *testing.T) {
	salt := []byte("fedcba9876543210")
	key := DeriveKey("pw", salt, DocumentIterations)

	env, err := EncryptTextWithKey("hello", key, salt)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if env.Salt != base64.StdEncoding.EncodeToString(salt) {
		t.Error("envelope must record the salt the key was derived from")
	}

	got, ok := DecryptEnvelopeWithKey(env, key)
	if !ok || got != "hello" {
		t.Errorf("expected %q, ok; got %q, %v", "hello", got, ok)
	}
}

func TestFingerprintStable(t *testing.T) {
	if Fingerprint("a") != Fingerprint("a") {
		t.Error("fingerprint must be deterministic")
	}
	if Fingerprint("a") == Fingerprint("b") {
		t.Error("different passwords must have different fingerprints")
	}
}

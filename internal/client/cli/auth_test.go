package cli

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/dcitarelli/workflow/internal/auth"
	"github.com/dcitarelli/workflow/internal/logging"
	"github.com/dcitarelli/workflow/internal/vault"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	store := vault.NewStore(dir, log)
	service := vault.NewService(store, auth.NewManager(dir), log)
	return &App{service: service, log: log}
}

func stubPasswords(t *testing.T, passwords ...string) func() {
	t.Helper()
	orig := getPassword
	idx := 0
	getPassword = func(_ string, _ io.Writer) (string, error) {
		if idx >= len(passwords) {
			t.Fatalf("getPassword called %d times, only %d stubbed", idx+1, len(passwords))
		}
		pw := passwords[idx]
		idx++
		return pw, nil
	}
	return func() { getPassword = orig }
}

func silencePrintln(t *testing.T) {
	t.Helper()
	orig := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = orig })
}

func TestSetupAndUnlock(t *testing.T) {
	silencePrintln(t)
	a := newTestApp(t)

	restore := stubPasswords(t, "secret", "secret")
	defer restore()
	if err := a.Setup(context.Background()); err != nil {
		t.Fatalf("Setup err: %v", err)
	}
	if !a.isUnlocked() {
		t.Fatal("setup should unlock the session")
	}

	if err := a.Lock(context.Background()); err != nil {
		t.Fatalf("Lock err: %v", err)
	}
	if a.isUnlocked() {
		t.Fatal("lock should clear the session password")
	}

	restore2 := stubPasswords(t, "wrong")
	if err := a.Unlock(context.Background()); err != nil {
		t.Fatalf("Unlock err: %v", err)
	}
	restore2()
	if a.isUnlocked() {
		t.Fatal("wrong password must not unlock")
	}

	restore3 := stubPasswords(t, "secret")
	defer restore3()
	if err := a.Unlock(context.Background()); err != nil {
		t.Fatalf("Unlock err: %v", err)
	}
	if !a.isUnlocked() {
		t.Fatal("right password should unlock")
	}
}

func TestSetup_MismatchedPasswords(t *testing.T) {
	silencePrintln(t)
	a := newTestApp(t)

	restore := stubPasswords(t, "one", "two")
	defer restore()
	if err := a.Setup(context.Background()); err != nil {
		t.Fatalf("Setup err: %v", err)
	}
	if a.service.Auth().IsSetUp() {
		t.Fatal("mismatched passwords must not create a record")
	}
}

func TestChangePassword(t *testing.T) {
	silencePrintln(t)
	a := newTestApp(t)

	restore := stubPasswords(t, "old-pass", "old-pass")
	if err := a.Setup(context.Background()); err != nil {
		t.Fatalf("Setup err: %v", err)
	}
	restore()

	restore2 := stubPasswords(t, "old-pass", "new-pass", "new-pass")
	defer restore2()
	if err := a.ChangePassword(context.Background()); err != nil {
		t.Fatalf("ChangePassword err: %v", err)
	}

	if !a.service.Auth().Verify("new-pass") {
		t.Fatal("new password should verify")
	}
	if a.service.Auth().Verify("old-pass") {
		t.Fatal("old password should stop verifying")
	}
	if a.password != "new-pass" {
		t.Fatalf("session password not rotated: %q", a.password)
	}

	// The document is still openable under the new password.
	doc, recovery, err := a.service.Store().Load("new-pass")
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if doc == nil || recovery == vault.RecoveryReset {
		t.Fatalf("document unreadable after rotation: recovery=%v", recovery)
	}
}

package cli

import (
	"context"
	"errors"
	"os"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errLocked = errors.New("Unlock first.")

func (a *App) requirePassword() (string, error) {
	if !a.isUnlocked() {
		return "", errLocked
	}
	return a.password, nil
}

// Setup creates the master password record. Refuses when one already
// exists; passwd changes an existing password instead.
func (a *App) Setup(ctx context.Context) error {
	if a.service.Auth().IsSetUp() {
		printlnFn(warnText("A password is already set. Use passwd to change it."))
		return nil
	}
	password, err := getPassword("Choose a password: ", os.Stdout)
	if err != nil {
		return err
	}
	confirm, err := getPassword("Repeat the password: ", os.Stdout)
	if err != nil {
		return err
	}
	if password != confirm {
		printlnFn(errorText("Passwords do not match."))
		return nil
	}
	if err := a.service.Auth().Setup(password, 0); err != nil {
		return err
	}
	a.password = password
	printlnFn(successText("Password set."))
	return nil
}

// Unlock verifies the password and keeps it for the session.
func (a *App) Unlock(ctx context.Context) error {
	if !a.service.Auth().IsSetUp() {
		printlnFn(warnText("No password set yet. Run setup first."))
		return nil
	}
	password, err := getPassword("Enter password: ", os.Stdout)
	if err != nil {
		return err
	}
	if !a.service.Auth().Verify(password) {
		printlnFn(errorText("Invalid password."))
		return nil
	}
	a.password = password
	printlnFn(successText("Unlocked."))
	return nil
}

// Lock forgets the session password and the cached document keys.
func (a *App) Lock(ctx context.Context) error {
	a.password = ""
	a.service.Store().Cache().Reset()
	printlnFn("Locked.")
	return nil
}

// ChangePassword rotates the master password. The encrypted document is
// re-saved under the new password so it stays openable.
func (a *App) ChangePassword(ctx context.Context) error {
	current, err := getPassword("Current password: ", os.Stdout)
	if err != nil {
		return err
	}
	next, err := getPassword("New password: ", os.Stdout)
	if err != nil {
		return err
	}
	confirm, err := getPassword("Repeat new password: ", os.Stdout)
	if err != nil {
		return err
	}
	if next != confirm {
		printlnFn(errorText("Passwords do not match."))
		return nil
	}

	doc, _, err := a.service.Store().Load(current)
	if err != nil {
		return err
	}
	if err := a.service.Auth().Change(current, next, 0); err != nil {
		return err
	}
	a.service.Store().Cache().Reset()
	if err := a.service.Store().Save(next, doc); err != nil {
		return err
	}
	a.password = next
	printlnFn(successText("Password changed."))
	return nil
}

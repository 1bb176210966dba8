// Package auth manages the master password record: a salted PBKDF2 hash
// stored as pretty-printed JSON next to the encrypted document.
package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/dcitarelli/workflow/internal/common"
	"github.com/dcitarelli/workflow/internal/cryptox"
	"github.com/dcitarelli/workflow/internal/filex"
	"github.com/dcitarelli/workflow/internal/jsonx"
)

// RecordFile is the on-disk name of the password record.
const RecordFile = "auth.json"

// Record is the stored password verifier. Salt and Hash are base64.
type Record struct {
	Salt       string `json:"salt"`
	Hash       string `json:"hash"`
	Iterations int    `json:"iterations"`
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Salt = jsonx.CoerceString(raw["salt"])
	r.Hash = jsonx.CoerceString(raw["hash"])
	r.Iterations = int(jsonx.CoerceInt64(raw["iterations"]))
	return nil
}

// Manager reads and writes the password record under a storage root.
type Manager struct {
	root string
}

func NewManager(root string) *Manager {
	return &Manager{root: root}
}

func (m *Manager) recordPath() string {
	return filepath.Join(m.root, RecordFile)
}

// Read returns the stored record, or nil when no usable record exists.
// A missing file, malformed JSON, or a record without salt or hash all
// count as "not set up". A zero iteration count is upgraded to the
// current default.
func (m *Manager) Read() *Record {
	data, err := os.ReadFile(m.recordPath())
	if err != nil {
		return nil
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil
	}
	if record.Salt == "" || record.Hash == "" {
		return nil
	}
	if record.Iterations <= 0 {
		record.Iterations = cryptox.DocumentIterations
	}
	return &record
}

// IsSetUp reports whether a usable password record exists.
func (m *Manager) IsSetUp() bool {
	return m.Read() != nil
}

// Setup writes a fresh password record. An empty password is rejected;
// a non-positive iteration count falls back to the default.
func (m *Manager) Setup(password string, iterations int) error {
	if strings.TrimSpace(password) == "" {
		return common.ErrPasswordRequired
	}
	if iterations <= 0 {
		iterations = cryptox.DocumentIterations
	}
	salt, err := cryptox.RandomSalt()
	if err != nil {
		return err
	}
	record := Record{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Hash:       base64.StdEncoding.EncodeToString(cryptox.DeriveKey(password, salt, iterations)),
		Iterations: iterations,
	}
	return m.write(&record)
}

// Verify reports whether the password matches the stored record. It is
// false when no record exists or the password is empty.
func (m *Manager) Verify(password string) bool {
	record := m.Read()
	if record == nil || password == "" {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(record.Salt)
	if err != nil || len(salt) == 0 {
		return false
	}
	iterations := record.Iterations
	if iterations < 1 {
		iterations = 1
	}
	derived := base64.StdEncoding.EncodeToString(cryptox.DeriveKey(password, salt, iterations))
	return subtle.ConstantTimeCompare([]byte(derived), []byte(record.Hash)) == 1
}

// Change replaces the record after verifying the current password. The
// new record gets a fresh salt; a non-positive iteration count keeps
// the current record's.
func (m *Manager) Change(current, next string, iterations int) error {
	record := m.Read()
	if record == nil {
		return errors.New("password is not set up")
	}
	if !m.Verify(current) {
		return common.ErrInvalidPassword
	}
	if strings.TrimSpace(next) == "" {
		return common.ErrPasswordRequired
	}
	if iterations <= 0 {
		iterations = record.Iterations
	}
	if iterations < 1 {
		iterations = 1
	}
	salt, err := cryptox.RandomSalt()
	if err != nil {
		return err
	}
	updated := Record{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Hash:       base64.StdEncoding.EncodeToString(cryptox.DeriveKey(next, salt, iterations)),
		Iterations: iterations,
	}
	return m.write(&updated)
}

func (m *Manager) write(record *Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	return filex.WriteText(m.recordPath(), string(data))
}

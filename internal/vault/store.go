package vault

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dcitarelli/workflow/internal/cryptox"
	"github.com/dcitarelli/workflow/internal/filex"
	"github.com/dcitarelli/workflow/internal/jsonx"
	"github.com/dcitarelli/workflow/internal/logging"
)

// Status codes carried by StatusError.
const (
	CodePassword = "password"
	CodeBroken   = "broken"
)

// StatusError is a user-facing failure with a machine-readable code:
// "password" for authentication failures, "broken" for invalid payloads.
type StatusError struct {
	Code    string
	Message string
}

func (e *StatusError) Error() string { return e.Message }

// NewStatusError builds a StatusError.
func NewStatusError(code, message string) *StatusError {
	return &StatusError{Code: code, Message: message}
}

// Recovery reports what Load had to do to hand back a usable document.
type Recovery int

const (
	// RecoveryNone means the document decrypted and parsed normally.
	RecoveryNone Recovery = iota
	// RecoveryEmpty means no data file existed yet; a fresh default
	// document was returned.
	RecoveryEmpty
	// RecoveryReset means a data file existed but could not be decrypted
	// or parsed, so a default document replaced it in memory. The file on
	// disk is untouched until the next save.
	RecoveryReset
)

// Store persists the encrypted document and its metadata under a single
// storage root directory.
type Store struct {
	root  string
	cache *KeyCache
	log   logging.Logger
}

// NewStore creates a store rooted at dir with an empty key cache.
func NewStore(dir string, log logging.Logger) *Store {
	return &Store{root: dir, cache: NewKeyCache(), log: log}
}

// Root returns the storage root directory.
func (s *Store) Root() string { return s.root }

// Cache exposes the single-slot key cache.
func (s *Store) Cache() *KeyCache { return s.cache }

func (s *Store) dataPath() string { return filepath.Join(s.root, DataFile) }
func (s *Store) metaPath() string { return filepath.Join(s.root, MetaFile) }

// Load reads and decrypts the current document for password. Missing,
// undecryptable, or unparseable data degrades to a default document, with
// the Recovery value saying which happened. Only filesystem read failures
// surface as errors.
func (s *Store) Load(password string) (*Document, Recovery, error) {
	fingerprint := cryptox.Fingerprint(password)
	if doc, ok := s.cache.Document(fingerprint); ok {
		return doc, RecoveryNone, nil
	}

	path := s.dataPath()
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		doc := DefaultDocument()
		s.cache.PutDocument(fingerprint, doc)
		return doc, RecoveryEmpty, nil
	}
	if err != nil {
		return nil, RecoveryNone, fmt.Errorf("reading %s: %w", path, err)
	}

	env := &cryptox.Envelope{}
	if err := json.Unmarshal(raw, env); err != nil {
		s.log.Warn(context.Background(), "data file is not a valid envelope, starting fresh", "path", path)
		return s.resetDocument(fingerprint), RecoveryReset, nil
	}
	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil || len(salt) == 0 {
		s.log.Warn(context.Background(), "envelope salt is unusable, starting fresh", "path", path)
		return s.resetDocument(fingerprint), RecoveryReset, nil
	}

	key, ok := s.cache.Crypto(fingerprint, env.Salt)
	if !ok {
		key = cryptox.DeriveKey(password, salt, cryptox.DocumentIterations)
	}
	plaintext, ok := cryptox.DecryptEnvelopeWithKey(env, key)
	if !ok {
		s.log.Warn(context.Background(), "document did not decrypt with the supplied password, starting fresh")
		return s.resetDocument(fingerprint), RecoveryReset, nil
	}
	doc, ok := ParseDocument(plaintext)
	if !ok {
		s.log.Warn(context.Background(), "decrypted document is not valid JSON, starting fresh")
		return s.resetDocument(fingerprint), RecoveryReset, nil
	}

	s.cache.PutDocument(fingerprint, doc)
	s.cache.PutCrypto(fingerprint, env.Salt, key)
	return doc, RecoveryNone, nil
}

func (s *Store) resetDocument(fingerprint string) *Document {
	doc := DefaultDocument()
	s.cache.PutDocument(fingerprint, doc)
	return doc
}

// Save normalizes, encrypts, and writes the document, reusing the cached
// key when one is available for this password and keeping the existing
// envelope salt otherwise so the file stays openable without rederivation
// churn.
func (s *Store) Save(password string, doc *Document) error {
	doc.Normalize()
	plaintext, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serializing document: %w", err)
	}

	fingerprint := cryptox.Fingerprint(password)
	salt, key, err := s.resolveSaveKey(password, fingerprint)
	if err != nil {
		return err
	}

	env, err := cryptox.EncryptTextWithKey(string(plaintext), key, salt)
	if err != nil {
		return err
	}
	content, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("serializing envelope: %w", err)
	}
	if err := filex.WriteText(s.dataPath(), string(content)); err != nil {
		return err
	}

	s.cache.PutDocument(fingerprint, doc)
	s.cache.PutCrypto(fingerprint, env.Salt, key)
	return nil
}

func (s *Store) resolveSaveKey(password, fingerprint string) ([]byte, []byte, error) {
	if saltB64, ok := s.cache.CryptoSalt(fingerprint); ok {
		if key, ok := s.cache.Crypto(fingerprint, saltB64); ok {
			if salt, err := base64.StdEncoding.DecodeString(saltB64); err == nil && len(salt) > 0 {
				return salt, key, nil
			}
		}
	}

	// Reuse the salt from the file already on disk so the derived key
	// stays stable across saves.
	if raw, err := os.ReadFile(s.dataPath()); err == nil {
		env := &cryptox.Envelope{}
		if json.Unmarshal(raw, env) == nil {
			if salt, err := base64.StdEncoding.DecodeString(env.Salt); err == nil && len(salt) > 0 {
				return salt, cryptox.DeriveKey(password, salt, cryptox.DocumentIterations), nil
			}
		}
	}

	salt, err := cryptox.RandomSalt()
	if err != nil {
		return nil, nil, err
	}
	return salt, cryptox.DeriveKey(password, salt, cryptox.DocumentIterations), nil
}

// Meta is the unencrypted sidecar describing imported databases and which
// source is active.
type Meta struct {
	Databases         []MetaEntry `json:"databases"`
	ActiveDB          string      `json:"active_db"`
	BiometricsEnabled bool        `json:"biometrics_enabled"`
}

// MetaEntry describes one imported database file.
type MetaEntry struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Name       string `json:"name"`
	ImportedAt string `json:"imported_at"`
}

// Source is a selectable database source. The current database is always
// first and is the only writable one.
type Source struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Readonly bool   `json:"readonly"`
}

func (m *Meta) UnmarshalJSON(data []byte) error {
	*m = Meta{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	m.Databases = decodeList[MetaEntry](raw["databases"])
	m.ActiveDB = jsonx.CoerceString(raw["active_db"])
	m.BiometricsEnabled = coerceBool(raw["biometrics_enabled"])
	return nil
}

func (e *MetaEntry) UnmarshalJSON(data []byte) error {
	*e = MetaEntry{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	e.ID = jsonx.CoerceString(raw["id"])
	e.Filename = jsonx.CoerceString(raw["filename"])
	e.Name = jsonx.CoerceString(raw["name"])
	e.ImportedAt = jsonx.CoerceString(raw["imported_at"])
	return nil
}

func (m *Meta) normalize() {
	if m.Databases == nil {
		m.Databases = []MetaEntry{}
	}
	if m.ActiveDB == "" {
		m.ActiveDB = "current"
	}
}

// LoadMeta reads meta.json, degrading malformed content to defaults.
func (s *Store) LoadMeta() (*Meta, error) {
	meta := &Meta{}
	raw, err := os.ReadFile(s.metaPath())
	if os.IsNotExist(err) {
		meta.normalize()
		return meta, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.metaPath(), err)
	}
	_ = json.Unmarshal(raw, meta)
	meta.normalize()
	return meta, nil
}

// WriteMeta persists meta.json.
func (s *Store) WriteMeta(meta *Meta) error {
	meta.normalize()
	content, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("serializing meta: %w", err)
	}
	return filex.WriteText(s.metaPath(), string(content))
}

// Sources lists the selectable database sources: the writable current
// database followed by every imported one.
func (s *Store) Sources(meta *Meta) []Source {
	out := []Source{{ID: "current", Name: "Current Database", Readonly: false}}
	for _, entry := range meta.Databases {
		id := ClampString(entry.ID, 128, true)
		if id == "" {
			continue
		}
		name := ClampString(entry.Name, 200, true)
		if name == "" {
			name = ClampString(entry.Filename, 200, true)
		}
		if name == "" {
			name = "Imported Database"
		}
		out = append(out, Source{ID: id, Name: name, Readonly: true})
	}
	return out
}

// ResolveActiveSource returns the active source id, falling back to
// "current" when the recorded one no longer exists.
func (s *Store) ResolveActiveSource(meta *Meta, sources []Source) string {
	requested := ClampString(meta.ActiveDB, 128, true)
	if requested == "" {
		return "current"
	}
	for _, src := range sources {
		if src.ID == requested {
			return requested
		}
	}
	return "current"
}

func (m *Meta) entryByID(id string) (MetaEntry, bool) {
	for _, entry := range m.Databases {
		if entry.ID == id {
			return entry, true
		}
	}
	return MetaEntry{}, false
}

// BuildDBFilename maps a database id onto a safe .enc filename.
func BuildDBFilename(id string) string {
	basename := filex.SanitizeFilename(ClampString(id, 128, true), "")
	if basename == "" {
		basename = "imported-" + NowString()
	}
	return basename + ".enc"
}

func (s *Store) importedPath(filename string) (string, error) {
	safe := ClampString(filename, 256, true)
	if safe == "" {
		return "", NewStatusError(CodeBroken, "Invalid database filename.")
	}
	rel, err := filex.SanitizeRelativePath(ImportedDir + "/" + safe)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, rel), nil
}

// ReadImportedByName decrypts an imported database file. Returns nil (no
// error) when the file is absent, undecryptable, or unparseable.
func (s *Store) ReadImportedByName(filename, password string) (*Document, error) {
	path, err := s.importedPath(filename)
	if err != nil {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	env := &cryptox.Envelope{}
	if json.Unmarshal(raw, env) != nil {
		return nil, nil
	}
	plaintext, ok := cryptox.DecryptEnvelope(env, password)
	if !ok {
		return nil, nil
	}
	doc, ok := ParseDocument(plaintext)
	if !ok {
		return nil, nil
	}
	return doc, nil
}

// WriteImportedByName encrypts and writes a document under dbs/<filename>.
func (s *Store) WriteImportedByName(filename string, doc *Document, password string) error {
	path, err := s.importedPath(filename)
	if err != nil {
		return err
	}
	doc.Normalize()
	plaintext, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serializing document: %w", err)
	}
	env, err := cryptox.EncryptText(string(plaintext), password)
	if err != nil {
		return err
	}
	content, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("serializing envelope: %w", err)
	}
	return filex.WriteText(path, string(content))
}

// LoadBySource loads the document for a source id: the current database,
// or an imported one by its meta entry. Returns nil when the source or its
// file cannot be resolved.
func (s *Store) LoadBySource(sourceID, password string) (*Document, error) {
	safe := ClampString(sourceID, 128, true)
	if safe == "" || safe == "current" {
		doc, _, err := s.Load(password)
		return doc, err
	}
	meta, err := s.LoadMeta()
	if err != nil {
		return nil, err
	}
	entry, ok := meta.entryByID(safe)
	if !ok || entry.Filename == "" {
		return nil, nil
	}
	return s.ReadImportedByName(entry.Filename, password)
}

// StoreImported writes a document as a new imported database and records
// it in the meta file.
func (s *Store) StoreImported(doc *Document, fileName, password string) (*MetaEntry, error) {
	meta, err := s.LoadMeta()
	if err != nil {
		return nil, err
	}
	id := NewID()
	filename := BuildDBFilename(id)
	if err := s.WriteImportedByName(filename, doc, password); err != nil {
		return nil, err
	}
	name := ClampString(fileName, 200, true)
	if name == "" {
		name = "Imported Database"
	}
	entry := MetaEntry{ID: id, Filename: filename, Name: name, ImportedAt: NowString()}
	meta.Databases = append(meta.Databases, entry)
	if err := s.WriteMeta(meta); err != nil {
		return nil, err
	}
	return &entry, nil
}

// SetActiveSource records the active source id in the meta file.
func (s *Store) SetActiveSource(id string) (string, error) {
	meta, err := s.LoadMeta()
	if err != nil {
		return "", err
	}
	sources := s.Sources(meta)
	meta.ActiveDB = ClampString(id, 128, true)
	resolved := s.ResolveActiveSource(meta, sources)
	meta.ActiveDB = resolved
	if err := s.WriteMeta(meta); err != nil {
		return "", err
	}
	return resolved, nil
}

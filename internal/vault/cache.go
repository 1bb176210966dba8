package vault

import "sync"

// cachedCrypto pairs a derived key with the salt it came from. The key is
// only reusable while the on-disk envelope still carries the same salt.
type cachedCrypto struct {
	salt string
	key  []byte
}

// KeyCache is the single-slot cache holding the decrypted document and the
// derived key for exactly one password at a time. Entries are identified
// by a password fingerprint; presenting a different password evicts
// whatever was cached.
type KeyCache struct {
	mu sync.Mutex

	valueFingerprint string
	doc              *Document

	cryptoFingerprint string
	crypto            *cachedCrypto
}

// NewKeyCache returns an empty cache.
func NewKeyCache() *KeyCache {
	return &KeyCache{}
}

// Document returns a copy of the cached document when fingerprint matches
// the cached slot.
func (c *KeyCache) Document(fingerprint string) (*Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc == nil || c.valueFingerprint != fingerprint {
		return nil, false
	}
	return c.doc.Clone(), true
}

// PutDocument stores a copy of doc under fingerprint. Switching to a new
// fingerprint also drops any cached key from the previous password.
func (c *KeyCache) PutDocument(fingerprint string, doc *Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cryptoFingerprint != fingerprint {
		c.crypto = nil
		c.cryptoFingerprint = ""
	}
	c.valueFingerprint = fingerprint
	c.doc = doc.Clone()
}

// Crypto returns the cached derived key when both the fingerprint and the
// envelope salt match.
func (c *KeyCache) Crypto(fingerprint, salt string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.crypto == nil || c.cryptoFingerprint != fingerprint || c.crypto.salt != salt {
		return nil, false
	}
	key := make([]byte, len(c.crypto.key))
	copy(key, c.crypto.key)
	return key, true
}

// PutCrypto stores a derived key and its salt under fingerprint. Switching
// to a new fingerprint also drops any cached document from the previous
// password.
func (c *KeyCache) PutCrypto(fingerprint, salt string, key []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valueFingerprint != fingerprint {
		c.doc = nil
		c.valueFingerprint = ""
	}
	held := make([]byte, len(key))
	copy(held, key)
	c.cryptoFingerprint = fingerprint
	c.crypto = &cachedCrypto{salt: salt, key: held}
}

// CryptoSalt returns the salt of the cached key for fingerprint, if any.
func (c *KeyCache) CryptoSalt(fingerprint string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.crypto == nil || c.cryptoFingerprint != fingerprint {
		return "", false
	}
	return c.crypto.salt, true
}

// Reset drops everything from the cache.
func (c *KeyCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valueFingerprint = ""
	c.doc = nil
	c.cryptoFingerprint = ""
	c.crypto = nil
}

// Package cryptox implements the password-based envelope format used for
// all encrypted files: PBKDF2-derived AES-256 keys and AES-GCM payloads
// carried as base64 JSON fields.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// EnvelopeVersion is the current envelope format version.
	EnvelopeVersion = 1

	// DocumentIterations is the PBKDF2 iteration count used for document
	// encryption. It is fixed so envelopes remain portable between
	// installations regardless of the auth record's configured count.
	DocumentIterations = 200_000

	saltSize = 16
	ivSize   = 12
	tagSize  = 16
	keySize  = 32
)

// Envelope is the serialized form of an encrypted payload. All binary
// fields are standard base64. The GCM authentication tag is carried
// separately from the ciphertext.
type Envelope struct {
	V    int    `json:"v"`
	Salt string `json:"salt"`
	IV   string `json:"iv"`
	Tag  string `json:"tag"`
	Data string `json:"data"`
}

// DeriveKey derives a 32-byte AES key from a password and salt using
// PBKDF2-HMAC-SHA256.
//
// Parameters:
//   - password: the user password.
//   - salt: random salt bytes, normally 16 bytes.
//   - iterations: PBKDF2 iteration count; callers pass DocumentIterations
//     for document envelopes or the auth record's count for login hashes.
//
// Returns:
//   - []byte: the derived key, always 32 bytes.
func DeriveKey(password string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, keySize, sha256.New)
}

// RandomSalt returns a fresh 16-byte random salt.
func RandomSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	return salt, nil
}

// EncryptText encrypts plaintext with a key derived from the password and a
// fresh random salt, using DocumentIterations.
//
// Parameters:
//   - plaintext: the UTF-8 text to protect.
//   - password: the user password.
//
// Returns:
//   - *Envelope: the sealed envelope.
//   - error: non-nil when randomness is unavailable.
func EncryptText(plaintext string, password string) (*Envelope, error) {
	salt, err := RandomSalt()
	if err != nil {
		return nil, err
	}
	key := DeriveKey(password, salt, DocumentIterations)
	return EncryptTextWithKey(plaintext, key, salt)
}

// EncryptTextWithKey seals plaintext with an already derived key, recording
// the salt that produced the key so the envelope stays self-describing.
//
// Parameters:
//   - plaintext: the UTF-8 text to protect.
//   - key: a 32-byte AES key from DeriveKey.
//   - salt: the salt the key was derived from.
//
// Returns:
//   - *Envelope: the sealed envelope with a fresh random 12-byte IV.
//   - error: non-nil when randomness is unavailable.
//
// Example:
//
//	key := cryptox.DeriveKey("secret", salt, cryptox.DocumentIterations)
//	env, err := cryptox.EncryptTextWithKey(`{"version":3}`, key, salt)
func EncryptTextWithKey(plaintext string, key []byte, salt []byte) (*Envelope, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("generating iv: %w", err)
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	return &Envelope{
		V:    EnvelopeVersion,
		Salt: base64.StdEncoding.EncodeToString(salt),
		IV:   base64.StdEncoding.EncodeToString(iv),
		Tag:  base64.StdEncoding.EncodeToString(tag),
		Data: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// DecryptEnvelope opens an envelope by re-deriving the key from the
// password and the envelope's own salt at DocumentIterations.
//
// Returns the plaintext and true, or "" and false when the envelope is
// malformed or the password is wrong. Decryption failures never
// distinguish their cause.
func DecryptEnvelope(env *Envelope, password string) (string, bool) {
	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil || len(salt) == 0 {
		return "", false
	}
	key := DeriveKey(password, salt, DocumentIterations)
	return DecryptEnvelopeWithKey(env, key)
}

// DecryptEnvelopeWithKey opens an envelope with an already derived key.
//
// Returns the plaintext and true on success. Any malformed field, failed
// authentication, or non-UTF-8 plaintext yields "" and false.
func DecryptEnvelopeWithKey(env *Envelope, key []byte) (string, bool) {
	iv, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil || len(iv) != ivSize {
		return "", false
	}
	tag, err := base64.StdEncoding.DecodeString(env.Tag)
	if err != nil || len(tag) == 0 {
		return "", false
	}
	data, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil || len(data) == 0 {
		return "", false
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", false
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", false
	}

	plaintext, err := gcm.Open(nil, iv, append(data, tag...), nil)
	if err != nil {
		return "", false
	}
	if !utf8.Valid(plaintext) {
		return "", false
	}
	return string(plaintext), true
}

// Fingerprint returns the base64 SHA-256 digest of the password, used as
// the cache identity for the single-slot key cache.
func Fingerprint(password string) string {
	sum := sha256.Sum256([]byte(password))
	return base64.StdEncoding.EncodeToString(sum[:])
}

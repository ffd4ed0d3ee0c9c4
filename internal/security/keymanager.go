// Package security implements the symmetric protection layer for persisted
// analysis artifacts: deterministic key setup and authenticated encryption
// of strings and whole files.
//
// The key is reconstructible from stable configuration inputs so that a
// process writing an encrypted artifact and a later process reading it
// always agree on the key without it ever being stored alongside the data.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/pbkdf2"
)

// Key derivation constants. Changing any of these makes previously written
// ciphertext undecryptable, so they are fixed for the life of the format.
const (
	kdfSalt       = "trading_agents_salt"
	kdfIterations = 100000

	// defaultSecret keeps key setup infallible when no configuration is
	// supplied. A predictable key is a documented risk, not an error.
	defaultSecret = "default_secret_salt"
)

// Config carries the key material inputs for a KeyManager. Callers resolve
// environment variables themselves and pass the values here; the security
// layer never reads ambient process state.
type Config struct {
	// Key is an explicit pre-generated key, url-safe base64 encoded,
	// decoding to exactly 32 bytes. It takes precedence over Secret.
	Key string

	// Secret is a passphrase the key is derived from when Key is absent
	// or undecodable. Empty falls back to a fixed default.
	Secret string
}

// KeyManager owns the process's single symmetric key and the cipher handle
// bound to it. Construction never fails; the same Config always yields the
// same key.
type KeyManager struct {
	key     *memguard.LockedBuffer
	cipher  *Cipher
	derived bool
}

// NewKeyManager builds a KeyManager from cfg.
//
// Precedence: an explicit Key that decodes to 32 bytes is used directly;
// otherwise the key is derived from Secret (or the built-in default) with
// PBKDF2-HMAC-SHA256 over a fixed salt and iteration count.
func NewKeyManager(cfg Config) *KeyManager {
	raw := decodeKey(cfg.Key)
	derived := false
	if raw == nil {
		secret := cfg.Secret
		if secret == "" {
			secret = defaultSecret
		}
		raw = pbkdf2.Key([]byte(secret), []byte(kdfSalt), kdfIterations, keySize, sha256.New)
		derived = true
	}

	// NewBufferFromBytes wipes raw; the locked buffer is the only copy.
	buf := memguard.NewBufferFromBytes(raw)
	return &KeyManager{
		key:     buf,
		cipher:  &Cipher{aead: mustAEAD(buf.Bytes())},
		derived: derived,
	}
}

// Cipher returns the cipher handle bound to this manager's key. The handle
// is immutable and safe to share across concurrent callers.
func (m *KeyManager) Cipher() *Cipher {
	return m.cipher
}

// Derived reports whether the key came from passphrase derivation rather
// than an explicit key, letting callers warn when the predictable default
// secret is in play.
func (m *KeyManager) Derived() bool {
	return m.derived
}

// Destroy wipes the key material. The cipher handle must not be used after.
func (m *KeyManager) Destroy() {
	m.key.Destroy()
}

// GenerateKey returns a fresh random key in the encoded form Config.Key
// expects.
func GenerateKey() (string, error) {
	raw := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

// decodeKey returns the raw key bytes, or nil if s is not a usable encoded
// key. An unusable explicit key falls through to derivation rather than
// failing construction.
func decodeKey(s string) []byte {
	if s == "" {
		return nil
	}
	raw, err := base64.URLEncoding.DecodeString(s)
	if err != nil || len(raw) != keySize {
		return nil
	}
	return raw
}

// mustAEAD builds the AES-256-GCM context. It cannot fail for a 32-byte
// key, which decodeKey and the KDF both guarantee.
func mustAEAD(key []byte) cipher.AEAD {
	block, err := aes.NewCipher(key)
	if err != nil {
		panic(err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		panic(err)
	}
	return aead
}

package security

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Cipher is the authenticated-encryption handle bound to a KeyManager's
// key. One Cipher exists per KeyManager and outlives all calls made
// through it.
type Cipher struct {
	aead cipher.AEAD
}

// EncryptString encrypts text and returns the url-safe base64 token.
// The empty string short-circuits to an empty token with no cipher work.
func (c *Cipher) EncryptString(text string) (string, error) {
	if text == "" {
		return "", nil
	}
	token, err := c.seal([]byte(text))
	if err != nil {
		return "", err
	}
	return string(token), nil
}

// DecryptString reverses EncryptString. Failures come back as wrapped
// ErrInvalidFormat or ErrDecryptionFailed values, never a panic, so a
// display layer can render them inline next to the artifacts it lists.
func (c *Cipher) DecryptString(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	plaintext, err := c.open([]byte(token))
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// EncryptFile encrypts the file at path in place, replacing its bytes with
// the token. A missing path is a no-op, not an error. The overwrite is not
// atomic; concurrent writers on the same path must serialize externally.
func (c *Cipher) EncryptFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("security: read %s: %w", path, err)
	}

	token, err := c.seal(data)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, token, 0o600); err != nil {
		return fmt.Errorf("security: write %s: %w", path, err)
	}
	return nil
}

// DecryptFile reads and decrypts the file at path. It is deliberately
// strict: bytes that are not a valid token for this key fail with
// ErrInvalidFormat or ErrDecryptionFailed, which callers probing files of
// unknown encoding catch. A missing path fails with ErrNotFound.
func (c *Cipher) DecryptFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("security: read %s: %w", path, err)
	}
	return c.open(data)
}

// seal encrypts plaintext and returns the encoded token bytes.
func (c *Cipher) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("security: failed to generate nonce: %w", err)
	}
	ciphertext := c.aead.Seal(nil, nonce, plaintext, nil)

	var buf bytes.Buffer
	buf.Grow(headerSize + len(ciphertext))
	h := &header{version: formatVersion, algorithm: algAES256GCM, nonce: nonce}
	if err := writeHeader(&buf, h); err != nil {
		return nil, fmt.Errorf("security: failed to write header: %w", err)
	}
	buf.Write(ciphertext)

	token := make([]byte, base64.URLEncoding.EncodedLen(buf.Len()))
	base64.URLEncoding.Encode(token, buf.Bytes())
	return token, nil
}

// open decrypts a token produced by seal.
func (c *Cipher) open(token []byte) ([]byte, error) {
	raw := make([]byte, base64.URLEncoding.DecodedLen(len(token)))
	n, err := base64.URLEncoding.Decode(raw, token)
	if err != nil {
		return nil, fmt.Errorf("%w: not url-safe base64", ErrInvalidFormat)
	}

	h, ciphertext, err := readHeader(raw[:n])
	if err != nil {
		return nil, err
	}

	plaintext, err := c.aead.Open(nil, h.nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", ErrDecryptionFailed)
	}
	return plaintext, nil
}

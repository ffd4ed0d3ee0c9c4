package security

import "errors"

var (
	// ErrInvalidFormat is returned when bytes are not a well-formed token
	// (bad base64, bad magic, unsupported version or algorithm).
	ErrInvalidFormat = errors.New("security: invalid token format")

	// ErrDecryptionFailed is returned when authentication of a token fails
	// (wrong key or tampered data).
	ErrDecryptionFailed = errors.New("security: decryption failed")

	// ErrNotFound is returned when a file to decrypt does not exist.
	ErrNotFound = errors.New("security: file not found")
)

// IsInvalidFormat returns true if the error is or wraps ErrInvalidFormat.
func IsInvalidFormat(err error) bool {
	return errors.Is(err, ErrInvalidFormat)
}

// IsDecryptionFailed returns true if the error is or wraps ErrDecryptionFailed.
func IsDecryptionFailed(err error) bool {
	return errors.Is(err, ErrDecryptionFailed)
}

// IsNotFound returns true if the error is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

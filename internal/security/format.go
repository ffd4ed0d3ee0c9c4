package security

import (
	"fmt"
	"io"
)

// Binary token format constants. The framed bytes are url-safe base64
// encoded before leaving this package; an encrypted artifact file contains
// exactly that encoded token and nothing else.
const (
	// magic is the 2-byte token signature.
	magic = "TA"

	// formatVersion is the current token format version.
	formatVersion = 0x01

	// algAES256GCM identifies AES-256-GCM as the encryption algorithm.
	algAES256GCM = 0x01

	// keySize is the required key size in bytes (AES-256).
	keySize = 32

	// gcmNonceSize is the nonce size for AES-GCM (12 bytes).
	gcmNonceSize = 12

	// gcmTagSize is the authentication tag size for GCM (16 bytes).
	gcmTagSize = 16

	// headerSize is the full header size: magic(2) + version(1) + alg(1) + nonce.
	headerSize = 4 + gcmNonceSize
)

// header represents the parsed header of a framed token.
type header struct {
	version   byte
	algorithm byte
	nonce     []byte // 12 bytes
}

// writeHeader writes the binary header to w.
func writeHeader(w io.Writer, h *header) error {
	if _, err := w.Write([]byte(magic)); err != nil {
		return err
	}
	if _, err := w.Write([]byte{h.version, h.algorithm}); err != nil {
		return err
	}
	if _, err := w.Write(h.nonce); err != nil {
		return err
	}
	return nil
}

// readHeader parses the binary header from data, returning the header and
// remaining ciphertext. The nonce is a defensive copy, safe from caller
// mutation.
func readHeader(data []byte) (*header, []byte, error) {
	if len(data) < headerSize {
		return nil, nil, fmt.Errorf("%w: data too short", ErrInvalidFormat)
	}

	if string(data[0:2]) != magic {
		return nil, nil, fmt.Errorf("%w: invalid magic bytes", ErrInvalidFormat)
	}

	h := &header{
		version:   data[2],
		algorithm: data[3],
	}

	if h.version != formatVersion {
		return nil, nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, h.version)
	}
	if h.algorithm != algAES256GCM {
		return nil, nil, fmt.Errorf("%w: unsupported algorithm %d", ErrInvalidFormat, h.algorithm)
	}

	h.nonce = append([]byte(nil), data[4:headerSize]...)

	return h, data[headerSize:], nil
}

package kdf

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDF fills buffer with key material derived from secret via HKDF-SHA256.
func HKDF(secret, salt, info, buffer []byte) (int, error) {
	h := hkdf.New(sha256.New, secret, salt, info)
	return io.ReadFull(h, buffer)
}

// DeriveContactKey derives the fixed-length symmetric key for a contact from
// an out-of-band shared secret. Both peers derive the same key from the same
// secret, so the contact name pair must not be part of the info string.
func DeriveContactKey(secret []byte, size int) ([]byte, error) {
	key := make([]byte, size)
	if _, err := HKDF(secret, nil, []byte("ContactKey"), key); err != nil {
		return nil, err
	}
	return key, nil
}

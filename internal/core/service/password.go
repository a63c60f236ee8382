package service

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// saltSize matches the maximum blake2b key length.
const saltSize = blake2b.Size

// hashPassword generates a fresh per-user salt and returns it together with
// the salted hash of password.
func hashPassword(password string) (salt, hash []byte, err error) {
	salt = make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("generate salt: %w", err)
	}
	hash, err = keyedHash(salt, password)
	if err != nil {
		return nil, nil, err
	}
	return salt, hash, nil
}

// keyedHash is blake2b-512 keyed with the salt over the UTF-8 password bytes.
func keyedHash(salt []byte, password string) ([]byte, error) {
	h, err := blake2b.New512(salt)
	if err != nil {
		return nil, fmt.Errorf("init hash: %w", err)
	}
	_, _ = h.Write([]byte(password))
	return h.Sum(nil), nil
}

func verifyPassword(password string, salt, hash []byte) bool {
	got, err := keyedHash(salt, password)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, hash) == 1
}

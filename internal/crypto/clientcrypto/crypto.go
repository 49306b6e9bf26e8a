// Package clientcrypto seals values kept in local client storage.
package clientcrypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// KeyLen is the length of the storage key and of every derived value key.
const KeyLen = 32

// ErrShortBlob is returned when a sealed value is too short to hold a nonce.
var ErrShortBlob = errors.New("sealed value too short")

func Rand(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// NewKey returns a fresh random storage key.
func NewKey() ([]byte, error) { return Rand(KeyLen) }

// DeriveValueKey derives a per-entry key via HKDF-SHA256 using the entry name as info.
func DeriveValueKey(master []byte, name string) ([]byte, error) {
	r := hkdf.New(sha256.New, master, nil, []byte(name))
	key := make([]byte, KeyLen)
	_, err := r.Read(key)
	return key, err
}

// SealValue encrypts plaintext with XChaCha20-Poly1305 under the key derived
// for name. The name is bound as AAD so a sealed value cannot be moved to another entry.
func SealValue(master []byte, name string, plaintext []byte) ([]byte, error) {
	key, err := DeriveValueKey(master, name)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce, err := Rand(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, plaintext, []byte(name))...)
	return out, nil
}

// OpenValue decrypts a value produced by SealValue for the same name.
func OpenValue(master []byte, name string, sealed []byte) ([]byte, error) {
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return nil, ErrShortBlob
	}
	key, err := DeriveValueKey(master, name)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := sealed[:chacha20poly1305.NonceSizeX]
	ct := sealed[chacha20poly1305.NonceSizeX:]
	return aead.Open(nil, nonce, ct, []byte(name))
}

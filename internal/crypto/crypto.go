// ABOUTME: Password-based authenticated encryption for sync payloads.
// ABOUTME: PBKDF2-SHA256 key derivation with AES-256-GCM sealing, base64 bundles.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltSize is the PBKDF2 salt length in bytes.
	SaltSize = 16
	// IVSize is the GCM nonce length in bytes.
	IVSize = 12
	// KeySize is the derived AES-256 key length in bytes.
	KeySize = 32
	// Iterations is the PBKDF2 work factor.
	Iterations = 150_000
)

var (
	// ErrAuthentication is returned when the password is wrong or the
	// ciphertext was modified. No plaintext is returned in that case.
	ErrAuthentication = errors.New("authentication failed: wrong password or tampered data")
	// ErrMalformedBundle is returned when a bundle field cannot be decoded.
	ErrMalformedBundle = errors.New("malformed encrypted bundle")
	// ErrEmptyPassword is returned when no password is supplied.
	ErrEmptyPassword = errors.New("password must not be empty")
)

// Bundle carries everything needed to decrypt a payload except the password.
type Bundle struct {
	Ciphertext string `json:"ciphertext"`
	Salt       string `json:"salt"`
	IV         string `json:"iv"`
}

// Encrypt seals plaintext under a key derived from password. A fresh salt
// and IV are drawn for every call.
func Encrypt(plaintext, password string) (Bundle, error) {
	if password == "" {
		return Bundle{}, ErrEmptyPassword
	}

	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return Bundle{}, fmt.Errorf("generate salt: %w", err)
	}
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return Bundle{}, fmt.Errorf("generate iv: %w", err)
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return Bundle{}, err
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)

	return Bundle{
		Ciphertext: base64.StdEncoding.EncodeToString(sealed),
		Salt:       base64.StdEncoding.EncodeToString(salt),
		IV:         base64.StdEncoding.EncodeToString(iv),
	}, nil
}

// Decrypt re-derives the key from password and the bundle's salt and opens
// the ciphertext. A failed tag check returns ErrAuthentication.
func Decrypt(b Bundle, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	sealed, err := base64.StdEncoding.DecodeString(b.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext: %v", ErrMalformedBundle, err)
	}
	salt, err := base64.StdEncoding.DecodeString(b.Salt)
	if err != nil {
		return "", fmt.Errorf("%w: salt: %v", ErrMalformedBundle, err)
	}
	iv, err := base64.StdEncoding.DecodeString(b.IV)
	if err != nil {
		return "", fmt.Errorf("%w: iv: %v", ErrMalformedBundle, err)
	}
	if len(salt) != SaltSize {
		return "", fmt.Errorf("%w: salt is %d bytes, want %d", ErrMalformedBundle, len(salt), SaltSize)
	}
	if len(iv) != IVSize {
		return "", fmt.Errorf("%w: iv is %d bytes, want %d", ErrMalformedBundle, len(iv), IVSize)
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return "", err
	}
	if len(sealed) < gcm.Overhead() {
		return "", fmt.Errorf("%w: ciphertext shorter than tag", ErrMalformedBundle)
	}

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", ErrAuthentication
	}
	return string(plaintext), nil
}

// DeriveKey stretches password with salt into a KeySize key.
func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, KeySize, sha256.New)
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := DeriveKey(password, salt)
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

package utils

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/quipvault/quipvault/internal/constants"
)

// envelopeMagic prefixes every encrypted snapshot so import can distinguish an
// encrypted envelope from plain JSON without a password attempt.
var envelopeMagic = []byte(constants.EncryptedSnapshotMagic)

// EncryptSnapshot encrypts serialized snapshot bytes with AES-256-GCM using a key
// derived from the password. The returned envelope is self-describing:
// magic || salt || nonce || ciphertext.
//
// Parameters:
//   - plaintext: The serialized snapshot to protect
//   - password: The user-supplied password; never stored
//
// Returns:
//   - The encrypted envelope bytes
//   - An error if key derivation or encryption fails
func EncryptSnapshot(plaintext []byte, password string) ([]byte, error) {
	salt := make([]byte, constants.SnapshotSaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := newSnapshotAEAD(password, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := make([]byte, 0, len(envelopeMagic)+len(salt)+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, envelopeMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, plaintext, envelopeMagic)

	return out, nil
}

// DecryptSnapshot opens an envelope produced by EncryptSnapshot.
//
// Parameters:
//   - data: The encrypted envelope bytes
//   - password: The password used at export time
//
// Returns:
//   - The decrypted serialized snapshot
//   - An error if the envelope is malformed or the password is wrong
func DecryptSnapshot(data []byte, password string) ([]byte, error) {
	if !IsEncryptedSnapshot(data) {
		return nil, fmt.Errorf("data is not an encrypted snapshot envelope")
	}
	data = data[len(envelopeMagic):]

	if len(data) < constants.SnapshotSaltLength {
		return nil, fmt.Errorf("envelope too short")
	}
	salt, data := data[:constants.SnapshotSaltLength], data[constants.SnapshotSaltLength:]

	gcm, err := newSnapshotAEAD(password, salt)
	if err != nil {
		return nil, err
	}

	if len(data) < gcm.NonceSize() {
		return nil, fmt.Errorf("envelope too short")
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, envelopeMagic)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

// IsEncryptedSnapshot reports whether the data starts with the encrypted
// envelope magic.
func IsEncryptedSnapshot(data []byte) bool {
	return bytes.HasPrefix(data, envelopeMagic)
}

// newSnapshotAEAD derives the AES-256 key from the password and salt and wraps
// it in GCM mode for authenticated encryption.
func newSnapshotAEAD(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, constants.SnapshotKeyIterations, constants.SnapshotKeyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return gcm, nil
}

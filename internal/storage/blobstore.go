package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store persists evidence blobs (photos, signatures) encrypted at rest.
// Each blob gets its own random AES-256-GCM key and nonce; both are
// returned hex encoded so the caller can keep them next to the storage
// path on the evidence row.
type Store struct {
	baseDir string
}

// NewStore creates a blob store rooted at baseDir
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		return nil, errors.New("blob store directory not configured")
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Put encrypts plaintext and writes it under the given setup's directory.
// Returns the relative storage path and the hex-encoded key and nonce.
func (s *Store) Put(setupID string, plaintext []byte) (path, keyHex, ivHex string, err error) {
	if len(plaintext) == 0 {
		return "", "", "", errors.New("empty blob")
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", "", "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", "", "", err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", "", "", err
	}

	iv := make([]byte, aesGCM.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return "", "", "", err
	}

	// ciphertext includes the GCM auth tag at the end
	ciphertext := aesGCM.Seal(nil, iv, plaintext, nil)

	relPath := filepath.Join(setupID, uuid.NewString()+".bin")
	fullPath := filepath.Join(s.baseDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", "", "", fmt.Errorf("failed to create setup directory: %w", err)
	}
	if err := os.WriteFile(fullPath, ciphertext, 0o640); err != nil {
		return "", "", "", fmt.Errorf("failed to write blob: %w", err)
	}

	return relPath, hex.EncodeToString(key), hex.EncodeToString(iv), nil
}

// Get reads a blob back and decrypts it with the stored key and nonce
func (s *Store) Get(path, keyHex, ivHex string) ([]byte, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, errors.New("invalid blob key format")
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return nil, errors.New("invalid blob iv format")
	}

	ciphertext, err := os.ReadFile(filepath.Join(s.baseDir, path))
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesGCM, err := cipher.NewGCMWithNonceSize(block, len(iv))
	if err != nil {
		return nil, err
	}

	plaintext, err := aesGCM.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, errors.New("decryption failed: invalid auth tag or corrupted data")
	}
	return plaintext, nil
}

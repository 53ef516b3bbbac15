package store

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
)

const (
	saltFileName = ".salt"
	saltLength   = 16

	// argon2id parameters for the at-rest key.
	kdfTime    = 3
	kdfMemory  = 64 * 1024
	kdfThreads = 2
	kdfKeyLen  = 32
)

// FileStore persists one encrypted file per key under a directory. Writes go
// through a temp file and rename, so a crash mid-write never leaves a
// half-written value behind.
type FileStore struct {
	dir string
	key []byte
	mu  sync.Mutex
}

// NewFileStore opens (creating if necessary) an encrypted store rooted at
// dir. The encryption key is derived from passphrase and a random salt
// generated on first use and kept alongside the data; reopening with a
// different passphrase makes existing values unreadable, not absent.
func NewFileStore(dir string, passphrase []byte) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("store: directory required")
	}
	if len(passphrase) == 0 {
		return nil, errors.New("store: passphrase required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("store: create dir: %w", err)
	}

	salt, err := loadOrCreateSalt(filepath.Join(dir, saltFileName))
	if err != nil {
		return nil, err
	}

	key := argon2.IDKey(passphrase, salt, kdfTime, kdfMemory, kdfThreads, kdfKeyLen)

	return &FileStore{dir: dir, key: key}, nil
}

func loadOrCreateSalt(path string) ([]byte, error) {
	salt, err := os.ReadFile(path)
	if err == nil {
		if len(salt) != saltLength {
			return nil, fmt.Errorf("store: salt file %s has invalid length %d", path, len(salt))
		}
		return salt, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("store: read salt: %w", err)
	}

	salt = make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("store: generate salt: %w", err)
	}
	if err := os.WriteFile(path, salt, 0o600); err != nil {
		return nil, fmt.Errorf("store: write salt: %w", err)
	}
	return salt, nil
}

// Get reads and decrypts the value for key. Returns [ErrKeyNotFound] when no
// value exists and [ErrCorruptValue] when the ciphertext fails to open.
func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("store: read %s: %w", key, err)
	}

	plain, err := s.open(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrCorruptValue, key)
	}
	return string(plain), nil
}

// Set encrypts and durably writes value under key.
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sealed, err := s.seal([]byte(value))
	if err != nil {
		return fmt.Errorf("store: seal %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("store: write %s: %w", key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("store: commit %s: %w", key, err)
	}
	return nil
}

// Delete removes the value for key. Deleting an absent key is a no-op.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: delete %s: %w", key, err)
	}
	return nil
}

// Close wipes the derived key from memory. The store must not be used after
// Close.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.key {
		s.key[i] = 0
	}
	s.key = nil
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, base64.RawURLEncoding.EncodeToString([]byte(key))+".bin")
}

// seal encrypts plaintext as nonce || ciphertext.
func (s *FileStore) seal(plain []byte) ([]byte, error) {
	gcm, err := s.aead()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

func (s *FileStore) open(sealed []byte) ([]byte, error) {
	gcm, err := s.aead()
	if err != nil {
		return nil, err
	}

	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func (s *FileStore) aead() (cipher.AEAD, error) {
	if len(s.key) == 0 {
		return nil, errors.New("store: closed")
	}
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

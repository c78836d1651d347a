package auth

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kbukum/apikit/encryption"
	apperrors "github.com/kbukum/apikit/errors"
)

// FileStore persists the token as a single file named TokenKey.
// Writes replace the file atomically with owner-only permissions.
type FileStore struct {
	path string
	enc  encryption.Encryptor

	mu sync.Mutex
}

var _ TokenStore = (*FileStore)(nil)

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithEncryptor seals the token at rest.
func WithEncryptor(enc encryption.Encryptor) FileOption {
	return func(s *FileStore) { s.enc = enc }
}

// NewFileStore stores the token under dir, creating it if needed.
func NewFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, apperrors.MissingField("dir")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, apperrors.Storage("create directory", err)
	}
	s := &FileStore{path: filepath.Join(dir, TokenKey)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the token file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Token(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", apperrors.Storage("read", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	if s.enc != nil {
		if token, err = s.enc.Decrypt(token); err != nil {
			return "", apperrors.InvalidToken(err)
		}
	}
	return token, nil
}

func (s *FileStore) SetToken(_ context.Context, token string) error {
	token, err := normalize(token)
	if err != nil {
		return err
	}
	if s.enc != nil {
		if token, err = s.enc.Encrypt(token); err != nil {
			return apperrors.Internal(err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), TokenKey+".*")
	if err != nil {
		return apperrors.Storage("write", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(token); err != nil {
		tmp.Close()
		return apperrors.Storage("write", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return apperrors.Storage("write", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Storage("write", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return apperrors.Storage("write", err)
	}
	return nil
}

func (s *FileStore) DeleteToken(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperrors.Storage("delete", err)
	}
	return nil
}

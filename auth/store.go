package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	apperrors "github.com/kbukum/apikit/errors"
)

// TokenKey names the stored session token.
const TokenKey = "session.token"

// ErrNoToken is returned by Token when nothing is stored.
var ErrNoToken = errors.New("auth: no session token")

// TokenStore holds the current session token.
type TokenStore interface {
	// Token returns the stored token or ErrNoToken.
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	// DeleteToken removes the token. Deleting an absent token is not an error.
	DeleteToken(ctx context.Context) error
}

// MemoryStore is an in-process TokenStore.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

var _ TokenStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

func (s *MemoryStore) SetToken(_ context.Context, token string) error {
	token, err := normalize(token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteToken(_ context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}

func normalize(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperrors.MissingField("token")
	}
	return token, nil
}

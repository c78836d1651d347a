package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// ErrCiphertextTooShort is returned when the input cannot even hold a nonce.
var ErrCiphertextTooShort = errors.New("encryption: ciphertext too short")

// Encryptor encrypts and decrypts text.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Algorithm names a supported AEAD.
type Algorithm string

const (
	AlgorithmAESGCM   Algorithm = "aes-256-gcm"
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
)

// Option configures New.
type Option func(*options)

type options struct {
	algorithm Algorithm
	context   []byte
}

// WithAlgorithm selects the cipher. The default is AES-256-GCM.
func WithAlgorithm(alg Algorithm) Option {
	return func(o *options) { o.algorithm = alg }
}

// WithContext binds ciphertexts to ctx as associated data. Decrypting
// with a different context fails.
func WithContext(ctx string) Option {
	return func(o *options) { o.context = []byte(ctx) }
}

// New creates an Encryptor keyed from passphrase.
func New(passphrase string, opts ...Option) (Encryptor, error) {
	o := options{algorithm: AlgorithmAESGCM}
	for _, opt := range opts {
		opt(&o)
	}
	if passphrase == "" {
		return nil, errors.New("encryption: empty passphrase")
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(passphrase), []byte(o.algorithm), []byte("apikit"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("encryption: derive key: %w", err)
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch o.algorithm {
	case AlgorithmAESGCM:
		var block cipher.Block
		if block, err = aes.NewCipher(key); err == nil {
			aead, err = cipher.NewGCM(block)
		}
	case AlgorithmChaCha20:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("encryption: unsupported algorithm %q", o.algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("encryption: init %s: %w", o.algorithm, err)
	}
	return &sealer{aead: aead, ad: o.context}, nil
}

type sealer struct {
	aead cipher.AEAD
	ad   []byte
}

func (s *sealer) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("encryption: nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), s.ad)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *sealer) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("encryption: decode: %w", err)
	}
	n := s.aead.NonceSize()
	if len(data) < n+s.aead.Overhead() {
		return "", ErrCiphertextTooShort
	}
	plain, err := s.aead.Open(nil, data[:n], data[n:], s.ad)
	if err != nil {
		return "", fmt.Errorf("encryption: open: %w", err)
	}
	return string(plain), nil
}

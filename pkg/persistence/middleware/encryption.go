package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/aretw0/parsetrail/pkg/ports"
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// ErrNotSealed is returned when encryption is on but the stored session carries no ciphertext.
var ErrNotSealed = errors.New("session is missing encrypted envelope")

// KeySize is the AES-256 key length.
const KeySize = 32

// ErrUndecryptable is returned when no configured key opens a stored envelope.
var ErrUndecryptable = errors.New("decryption failed with all available keys")

type encryptionMiddleware struct {
	next ports.SessionStore

	// active seals new envelopes; open tries active first, then the fallbacks in order.
	active cipher.AEAD
	open   []cipher.AEAD
}

// NewEncryptionMiddleware creates a middleware that encrypts sessions using AES-GCM (Envelope Encryption).
// Sentence, grammar and steps are hidden; the envelope only exposes the id, cursor and sequence numbers.
// Each envelope is bound to its session id, so it cannot be replayed under another id.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	active, err := newAEAD(config.ActiveKey)
	if err != nil {
		return nil, fmt.Errorf("active key: %w", err)
	}
	open := []cipher.AEAD{active}
	for i, key := range config.FallbackKeys {
		aead, err := newAEAD(key)
		if err != nil {
			return nil, fmt.Errorf("fallback key %d: %w", i, err)
		}
		open = append(open, aead)
	}

	return func(next ports.SessionStore) ports.SessionStore {
		return &encryptionMiddleware{
			next:   next,
			active: active,
			open:   open,
		}
	}, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	plainText, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ciphertext, err := seal(m.active, plainText, []byte(sessionID))
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}

	envelope := domain.NewSession(session.ID)
	envelope.Cursor = session.Cursor
	envelope.Applied = session.Applied
	envelope.UpdatedAt = session.UpdatedAt
	envelope.Steps = nil
	envelope.Sealed = base64.StdEncoding.EncodeToString(ciphertext)

	return m.next.Save(ctx, sessionID, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	envelope, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Fail closed: a plain session under an encrypting store is rejected.
	if envelope.Sealed == "" {
		return nil, ErrNotSealed
	}

	ciphertext, err := base64.StdEncoding.DecodeString(envelope.Sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}

	plainText, err := m.unseal(ciphertext, []byte(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt session '%s': %w", sessionID, err)
	}

	var session domain.Session
	if err := json.Unmarshal(plainText, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted session: %w", err)
	}
	session.Sealed = ""

	return &session, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *encryptionMiddleware) unseal(ciphertext, sessionID []byte) ([]byte, error) {
	for _, aead := range m.open {
		n := aead.NonceSize()
		if len(ciphertext) < n {
			return nil, errors.New("ciphertext too short")
		}
		if plain, err := aead.Open(nil, ciphertext[:n], ciphertext[n:], sessionID); err == nil {
			return plain, nil
		}
	}
	return nil, ErrUndecryptable
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("must be %d bytes (AES-256), got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// seal prefixes the ciphertext with its random nonce.
func seal(aead cipher.AEAD, plaintext, sessionID []byte) ([]byte, error) {
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, sessionID), nil
}

package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/parsetrail/pkg/adapters/memory"
	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/aretw0/parsetrail/pkg/persistence/middleware"
	"github.com/aretw0/parsetrail/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, middleware.KeySize)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func secure(t *testing.T, next ports.SessionStore, cfg middleware.EncryptionConfig) ports.SessionStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw(next)
}

func sampleSession(id string) *domain.Session {
	s := domain.NewSession(id)
	s.Replace(domain.Trace{
		Sentence:  "the secret cat",
		Grammar:   "s --> np,vp",
		Algorithm: "top-down",
		Steps:     []domain.Step{{Action: domain.ActionExpand, Rule: domain.NewRule("s", "np", "vp")}},
	})
	return s
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, secure(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	store := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", sampleSession("s1")))

	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, raw.Sentence, "sentence must not be stored in clear")
	assert.Empty(t, raw.Grammar)
	assert.Empty(t, raw.Steps)
	assert.NotEmpty(t, raw.Sealed)

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "the secret cat", loaded.Sentence)
	assert.Len(t, loaded.Steps, 1)
	assert.Empty(t, loaded.Sealed)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	oldStore := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, oldStore.Save(ctx, "rot", sampleSession("rot")))

	newStore := secure(t, underlying, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	loaded, err := newStore.Load(ctx, "rot")
	require.NoError(t, err, "fallback key must decrypt")

	loaded.Sentence = "re-encrypted"
	require.NoError(t, newStore.Save(ctx, "rot", loaded))

	_, err = oldStore.Load(ctx, "rot")
	assert.Error(t, err, "old key alone must not read new ciphertext")
}

func TestEncryptionMiddleware_RejectsPlainSession(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "plain", sampleSession("plain")))

	_, err := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)}).Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestEncryptionMiddleware_EnvelopeBoundToSession(t *testing.T) {
	underlying := memory.NewStore()
	store := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "alice", sampleSession("alice")))

	envelope, err := underlying.Load(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, underlying.Save(ctx, "mallory", envelope))

	_, err = store.Load(ctx, "mallory")
	assert.ErrorIs(t, err, middleware.ErrUndecryptable)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("also-short")},
	})
	assert.ErrorContains(t, err, "fallback key 0")
}

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.SessionStore) ports.SessionStore {
			return &taggingStore{SessionStore: next, name: name, order: &order}
		}
	}

	store := middleware.Chain(memory.NewStore(), tag("outer"), tag("inner"))
	require.NoError(t, store.Save(context.Background(), "x", domain.NewSession("x")))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type taggingStore struct {
	ports.SessionStore
	name  string
	order *[]string
}

func (s *taggingStore) Save(ctx context.Context, id string, v *domain.Session) error {
	*s.order = append(*s.order, s.name)
	return s.SessionStore.Save(ctx, id, v)
}

// Package redis provides Redis-backed session storage and distributed locking.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/parsetrail/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "parsetrail:session:"

// farFuture is the index score used when sessions never expire (2100-01-01).
const farFuture = 4102444800

// Hash fields of a stored session. The trace is the bulky part and only
// changes when a new parse lands, so navigation rewrites meta alone.
const (
	fieldMeta   = "meta"
	fieldTrace  = "trace"
	fieldDigest = "digest"
)

// Store implements ports.SessionStore using Redis.
// Each session is a hash holding its metadata, its trace and a digest of the trace.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for sessions.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client so a Locker can share the connection pool.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Prefix returns the key prefix in use.
func (s *Store) Prefix() string {
	return s.prefix
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// storedTrace is the part of a session that a parse replaces.
type storedTrace struct {
	Sentence  string           `json:"sentence"`
	Grammar   string           `json:"grammar"`
	Algorithm domain.Algorithm `json:"algorithm"`
	Steps     []domain.Step    `json:"steps"`
}

// expireAndIndex is the shared tail of the save scripts: refresh the key's
// expiry (ARGV[1] milliseconds, 0 for none) and its score in the index.
const expireAndIndex = `
if tonumber(ARGV[1]) > 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
else
	redis.call("PERSIST", KEYS[1])
end
redis.call("ZADD", KEYS[2], ARGV[2], ARGV[3])
`

// saveMeta rewrites meta only while the stored digest still matches ARGV[5].
// It returns 0, writing nothing, when the trace has to be sent as well,
// including when the key is gone.
var saveMeta = backend.NewScript(`
if redis.call("HGET", KEYS[1], "` + fieldDigest + `") ~= ARGV[5] then
	return 0
end
redis.call("HSET", KEYS[1], "` + fieldMeta + `", ARGV[4])
` + expireAndIndex + `
return 1
`)

// saveAll writes meta, trace and digest together.
var saveAll = backend.NewScript(`
redis.call("HSET", KEYS[1], "` + fieldMeta + `", ARGV[4], "` + fieldDigest + `", ARGV[5], "` + fieldTrace + `", ARGV[6])
` + expireAndIndex + `
return 1
`)

// Save persists the session to Redis and records it in the expiry index.
// The trace is only sent when its digest differs from the stored one; the
// check and the write run as one script, so a key that expires in between
// never ends up holding meta without its trace.
func (s *Store) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	meta := *session
	meta.Sentence, meta.Grammar, meta.Algorithm, meta.Steps = "", "", "", nil
	metaData, err := json.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	traceData, err := json.Marshal(storedTrace{
		Sentence:  session.Sentence,
		Grammar:   session.Grammar,
		Algorithm: session.Algorithm,
		Steps:     session.Steps,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}
	sum := sha256.Sum256(traceData)
	digest := hex.EncodeToString(sum[:])

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}
	keys := []string{s.key(sessionID), s.indexKey()}
	args := []any{s.ttl.Milliseconds(), score, sessionID, metaData, digest}

	written, err := saveMeta.Run(ctx, s.client, keys, args...).Int()
	if err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	if written == 1 {
		return nil
	}
	if err := saveAll.Run(ctx, s.client, keys, append(args, traceData)...).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the session from Redis.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	fields, err := s.client.HGetAll(ctx, s.key(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(fields[fieldMeta]), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}

	var trace storedTrace
	if err := json.Unmarshal([]byte(fields[fieldTrace]), &trace); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trace %s: %w", sessionID, err)
	}
	session.Sentence = trace.Sentence
	session.Grammar = trace.Grammar
	session.Algorithm = trace.Algorithm
	session.Steps = trace.Steps
	if session.Steps == nil {
		session.Steps = []domain.Step{}
	}

	return &session, nil
}

// Delete removes the session and its index entry.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// List returns live sessions. Expired index entries are pruned lazily.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	sessions, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Package credential persists the bearer token that proves the operator
// session. The token lives in redis under a fixed key, sealed at rest
// with a secret-derived key. Eviction is idempotent and atomic: the DEL
// reply tells exactly one caller that it removed the credential, which is
// what the auth transport keys its 401 side effects on.
package credential

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/nacl/secretbox"
)

const storageKey = "wfadmin:credential"

const nonceSize = 24

// Store reads and writes the persisted credential.
type Store struct {
	client *redis.Client
	key    [32]byte
}

// NewStore constructs a Store. The secret seals the token at rest.
func NewStore(client *redis.Client, secret string) *Store {
	return &Store{
		client: client,
		key:    sha256.Sum256([]byte(secret)),
	}
}

// Token returns the persisted bearer token, or "" when none exists. A
// sealed value that no longer opens (secret rotation, truncated write) is
// reported as absent rather than an error so every caller stays
// fail-closed.
func (s *Store) Token(ctx context.Context) (string, error) {
	sealed, err := s.client.Get(ctx, storageKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("credential: read: %w", err)
	}
	token, ok := s.open(sealed)
	if !ok {
		return "", nil
	}
	return token, nil
}

// Set persists the token, replacing any previous credential.
func (s *Store) Set(ctx context.Context, token string) error {
	sealed, err := s.seal(token)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, storageKey, sealed, 0).Err(); err != nil {
		return fmt.Errorf("credential: write: %w", err)
	}
	return nil
}

// Clear evicts the credential. It is safe to call when nothing is
// persisted; removed reports whether this call deleted the value, and is
// true for exactly one of any set of concurrent callers.
func (s *Store) Clear(ctx context.Context) (removed bool, err error) {
	n, err := s.client.Del(ctx, storageKey).Result()
	if err != nil {
		return false, fmt.Errorf("credential: clear: %w", err)
	}
	return n > 0, nil
}

func (s *Store) seal(token string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("credential: nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(token), &nonce, &s.key)
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

func (s *Store) open(encoded string) (string, bool) {
	raw, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil || len(raw) < nonceSize {
		return "", false
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	token, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", false
	}
	return string(token), true
}

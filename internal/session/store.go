// Package session persists the client session (cached user profile and token
// pair) through a kv.Store.
package session

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/felixgeelhaar/memorymap/internal/errors"
	"github.com/felixgeelhaar/memorymap/internal/kv"
	"github.com/felixgeelhaar/memorymap/internal/log"
)

// Keys under which the session entries are stored.
const (
	UserKey   = "user"
	TokensKey = "tokens"
)

// Store is the persistent session store.
//
// It is a plain mirror of two independent entries. It performs no token expiry
// checks and no merging: every write replaces the previous value. The two
// entries are not written transactionally.
type Store struct {
	kv     kv.Store
	logger *log.Logger
}

// NewStore creates a session store over the given key/value port.
func NewStore(store kv.Store, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Store{kv: store, logger: logger.With("component", "session_store")}
}

// Save writes both the user and the token entries, replacing prior values.
func (s *Store) Save(ctx context.Context, user UserProfile, tokens TokenPair) error {
	if err := s.SaveUser(ctx, user); err != nil {
		return err
	}

	data, err := encode(tokens)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to encode tokens", err)
	}
	if err := s.kv.Set(ctx, TokensKey, data); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to save tokens", err)
	}
	return nil
}

// SaveUser writes only the user entry.
func (s *Store) SaveUser(ctx context.Context, user UserProfile) error {
	data, err := encode(user)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to encode user", err)
	}
	if err := s.kv.Set(ctx, UserKey, data); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to save user", err)
	}
	return nil
}

// Read loads both entries independently. A missing, unreadable or malformed
// entry is reported as absent; Read never fails.
func (s *Store) Read(ctx context.Context) Snapshot {
	var snap Snapshot

	var user UserProfile
	if s.readEntry(ctx, UserKey, &user) {
		snap.User = user
	}

	var tokens TokenPair
	if s.readEntry(ctx, TokensKey, &tokens) {
		snap.Tokens = &tokens
	}

	return snap
}

// Tokens returns the stored token pair, or nil.
func (s *Store) Tokens(ctx context.Context) *TokenPair {
	var tokens TokenPair
	if !s.readEntry(ctx, TokensKey, &tokens) {
		return nil
	}
	return &tokens
}

// Clear removes both entries. Both deletes are attempted even if one fails.
func (s *Store) Clear(ctx context.Context) error {
	userErr := s.kv.Delete(ctx, UserKey)
	tokensErr := s.kv.Delete(ctx, TokensKey)
	if err := stderrors.Join(userErr, tokensErr); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to clear session", err)
	}
	return nil
}

// readEntry decodes key into target and reports whether a usable value was found.
// A stored JSON null counts as absent.
func (s *Store) readEntry(ctx context.Context, key string, target any) bool {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.WithError(err).Warn("session entry unreadable, treating as absent", "key", key)
		return false
	}
	if !ok || raw == "" || raw == "null" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		s.logger.WithError(errors.NewStoreCorruptError(key, err)).Warn("session entry malformed, treating as absent", "key", key)
		return false
	}
	return true
}

package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const sessionKeyPrefix = "session:"

// SessionStore persists sessions by token.
type SessionStore interface {
	Get(ctx context.Context, token string) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, token string) error
}

var _ SessionStore = (*KVSessionStore)(nil)

// KVSessionStore keeps sessions in a KVStore, expiring with the session.
type KVSessionStore struct {
	kv  KVStore
	now func() time.Time
}

// NewKVSessionStore creates a session store.
func NewKVSessionStore(kv KVStore) *KVSessionStore {
	return &KVSessionStore{kv: kv, now: time.Now}
}

// Get returns errors.ErrNotFound for unknown or expired tokens.
func (s *KVSessionStore) Get(ctx context.Context, token string) (*models.Session, error) {
	data, err := s.kv.Get(ctx, sessionKeyPrefix+token)
	if err != nil {
		return nil, err
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *KVSessionStore) Save(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	var ttl time.Duration
	if !session.ExpiresAt.IsZero() {
		ttl = session.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return nil
		}
	}
	return s.kv.Set(ctx, sessionKeyPrefix+session.Token, data, ttl)
}

func (s *KVSessionStore) Delete(ctx context.Context, token string) error {
	return s.kv.Delete(ctx, sessionKeyPrefix+token)
}

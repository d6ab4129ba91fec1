package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const cartKeyPrefix = "cart:"

// CartStore persists carts per user.
type CartStore interface {
	Get(ctx context.Context, userID string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, userID string) error
}

var _ CartStore = (*KVCartStore)(nil)

// KVCartStore keeps carts as JSON documents in a KVStore.
type KVCartStore struct {
	kv  KVStore
	ttl time.Duration
}

// NewKVCartStore creates a cart store; ttl bounds how long an untouched cart survives.
func NewKVCartStore(kv KVStore, ttl time.Duration) *KVCartStore {
	return &KVCartStore{kv: kv, ttl: ttl}
}

// Get returns the user's cart, or an empty cart when none is stored.
func (s *KVCartStore) Get(ctx context.Context, userID string) (*models.Cart, error) {
	data, err := s.kv.Get(ctx, cartKeyPrefix+userID)
	if errors.Is(err, errors.ErrNotFound) {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

func (s *KVCartStore) Save(ctx context.Context, cart *models.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, cartKeyPrefix+cart.UserID, data, s.ttl)
}

func (s *KVCartStore) Delete(ctx context.Context, userID string) error {
	return s.kv.Delete(ctx, cartKeyPrefix+userID)
}

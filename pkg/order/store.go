package order

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/tournevent/fancourier/pkg/selection"
)

// ErrNotFound is returned for unknown order ids.
var ErrNotFound = errors.New("order not found")

// ErrNoSelection is returned when an order is placed for FANBox without a
// locker.
var ErrNoSelection = errors.New("no FANBox selected")

// ErrAlreadyPlaced is returned when an order id has already been recorded.
// The locker on an order is written once.
var ErrAlreadyPlaced = errors.New("order already placed")

// Store persists orders.
type Store interface {
	Save(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
}

// MemoryStore keeps orders in process. Orders never expire.
type MemoryStore struct {
	orders *ttlcache.Cache[string, Order]
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: ttlcache.New[string, Order](),
	}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, o *Order) error {
	if o == nil || o.ID == "" {
		return errors.New("order id required")
	}
	cp := *o
	cp.Meta = maps.Clone(o.Meta)
	s.orders.Set(o.ID, cp, ttlcache.NoTTL)
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*Order, error) {
	item := s.orders.Get(id)
	if item == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	o := item.Value()
	o.Meta = maps.Clone(o.Meta)
	return &o, nil
}

// Place records the locker on the order once, at creation time. Orders for
// other methods are saved unchanged.
func Place(ctx context.Context, store Store, o *Order, rec selection.Record) (*Meta, error) {
	switch _, err := store.Get(ctx, o.ID); {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", ErrAlreadyPlaced, o.ID)
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}

	m, ok := FromSelection(o.MethodID, rec)
	if !ok {
		if isFanbox(o.MethodID) {
			return nil, ErrNoSelection
		}
		return nil, store.Save(ctx, o)
	}

	if o.Meta == nil {
		o.Meta = make(map[string]string)
	}
	maps.Copy(o.Meta, m.Values())
	o.Shipping = m.Override(o.Shipping)
	if err := store.Save(ctx, o); err != nil {
		return nil, err
	}
	return &m, nil
}

// Ensure MemoryStore implements Store interface
var _ Store = (*MemoryStore)(nil)

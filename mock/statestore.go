package mock

import (
	"context"
	"sync"

	"github.com/fwojciec/docview"
)

var _ docview.StateStore = (*StateStore)(nil)

// StateStore is a mock implementation of docview.StateStore.
type StateStore struct {
	GetFn func(ctx context.Context, instance, key string) (string, bool, error)
	SetFn func(ctx context.Context, instance, key, value string) error
}

func (s *StateStore) Get(ctx context.Context, instance, key string) (string, bool, error) {
	return s.GetFn(ctx, instance, key)
}

func (s *StateStore) Set(ctx context.Context, instance, key, value string) error {
	return s.SetFn(ctx, instance, key, value)
}

// NewMemoryStateStore returns a StateStore whose functions keep values in a
// map.
func NewMemoryStateStore() *StateStore {
	var mu sync.Mutex
	values := make(map[string]string)
	return &StateStore{
		GetFn: func(_ context.Context, instance, key string) (string, bool, error) {
			mu.Lock()
			defer mu.Unlock()
			v, ok := values[instance+"\x00"+key]
			return v, ok, nil
		},
		SetFn: func(_ context.Context, instance, key, value string) error {
			mu.Lock()
			defer mu.Unlock()
			values[instance+"\x00"+key] = value
			return nil
		},
	}
}

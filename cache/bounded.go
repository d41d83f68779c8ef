package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bitfsorg/hoard-go/store"
)

// Bounded is a Cache whose front store holds at most capacity entries.
// Every read or write stamps the key in the index; when the index grows
// past capacity the lowest-scored keys are evicted from front (never from
// base). Processes sharing an index may briefly overshoot capacity.
type Bounded struct {
	*Cache
	index    OrderIndex
	capacity int64
	logger   *slog.Logger

	mu   sync.Mutex
	last float64
}

var (
	_ store.Store = (*Bounded)(nil)
	_ store.Coded = (*Bounded)(nil)
)

// NewBounded returns a bounded cache. A nil front means an in-memory store
// and a nil index means a MemoryIndex.
func NewBounded(base, front store.Store, index OrderIndex, capacity int) (*Bounded, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache: capacity must be positive, got %d", capacity)
	}
	if index == nil {
		index = NewMemoryIndex()
	}
	return &Bounded{
		Cache:    New(base, front),
		index:    index,
		capacity: int64(capacity),
		logger:   slog.Default(),
	}, nil
}

// WithLogger sets the logger used to report evictions.
func (b *Bounded) WithLogger(l *slog.Logger) *Bounded {
	b.logger = l
	return b
}

// nextScore returns a microsecond timestamp, bumped so that scores handed
// out by this cache are strictly increasing.
func (b *Bounded) nextScore() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := float64(time.Now().UnixMicro())
	if now <= b.last {
		now = b.last + 1
	}
	b.last = now
	return now
}

func (b *Bounded) touch(key string) error {
	if err := b.index.Touch(key, b.nextScore()); err != nil {
		return fmt.Errorf("cache: index %q: %w", key, err)
	}
	return b.prune()
}

func (b *Bounded) prune() error {
	n, err := b.index.Count()
	if err != nil {
		return fmt.Errorf("cache: index count: %w", err)
	}
	if n <= b.capacity {
		return nil
	}

	evicted, err := b.index.PopMin(n - b.capacity)
	if err != nil {
		return fmt.Errorf("cache: index pop: %w", err)
	}
	for _, key := range evicted {
		if err := b.front.Delete(key); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	if len(evicted) > 0 {
		b.logger.Debug("evicted cache entries", "count", len(evicted))
	}
	return nil
}

// LoadRaw reads through the cache and marks key as most recently used.
func (b *Bounded) LoadRaw(key string) ([]byte, error) {
	data, err := b.Cache.LoadRaw(key)
	if err != nil {
		return nil, err
	}
	if err := b.touch(key); err != nil {
		return nil, err
	}
	return data, nil
}

// StoreRaw writes through the cache and marks key as most recently used.
func (b *Bounded) StoreRaw(key string, data []byte) error {
	if err := b.Cache.StoreRaw(key, data); err != nil {
		return err
	}
	return b.touch(key)
}

// Delete removes key from front, the index and base.
func (b *Bounded) Delete(key string) error {
	if err := b.front.Delete(key); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if err := b.index.Remove(key); err != nil {
		return fmt.Errorf("cache: index remove %q: %w", key, err)
	}
	return b.base.Delete(key)
}

// Tracked lists the keys currently held in the index, oldest first.
func (b *Bounded) Tracked() ([]string, error) { return b.index.Members() }

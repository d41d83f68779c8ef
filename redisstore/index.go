package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/bitfsorg/hoard-go/cache"
)

const indexPrefix = "__LRU_z."

// IndexKey returns the sorted-set key used as the ordering index for key.
func IndexKey(key string) string { return indexPrefix + key }

// Index is a cache.OrderIndex stored in a Redis sorted set.
type Index struct {
	client redis.Cmdable
	key    string
}

var _ cache.OrderIndex = (*Index)(nil)

// NewIndex returns the ordering index for the store at key.
func NewIndex(client redis.Cmdable, key string) *Index {
	return &Index{client: client, key: IndexKey(key)}
}

// Touch sets the score of key, adding it if needed.
func (x *Index) Touch(key string, score float64) error {
	return x.client.ZAdd(context.Background(), x.key, redis.Z{Score: score, Member: key}).Err()
}

// Count returns the number of tracked keys.
func (x *Index) Count() (int64, error) {
	return x.client.ZCount(context.Background(), x.key, "-inf", "+inf").Result()
}

// PopMin removes and returns the n lowest-scored keys.
func (x *Index) PopMin(n int64) ([]string, error) {
	zs, err := x.client.ZPopMin(context.Background(), x.key, n).Result()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(zs))
	for _, z := range zs {
		out = append(out, fmt.Sprint(z.Member))
	}
	return out, nil
}

// Remove stops tracking key.
func (x *Index) Remove(key string) error {
	return x.client.ZRem(context.Background(), x.key, key).Err()
}

// Members lists tracked keys, lowest score first.
func (x *Index) Members() ([]string, error) {
	return x.client.ZRange(context.Background(), x.key, 0, -1).Result()
}

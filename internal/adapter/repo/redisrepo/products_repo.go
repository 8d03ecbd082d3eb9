// Package redisrepo stores the product catalog in a Redis list so several
// server replicas can share it. Index-based operations run as Lua scripts,
// which keeps the bounds check and the mutation atomic.
package redisrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/fairyhunter13/api-telemetry/internal/domain"
)

// tombstone marks the element LREM removes during Delete. Product names never
// contain NUL bytes because handlers sanitize them.
const tombstone = "\x00deleted\x00"

const seedScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("RPUSH", KEYS[1], unpack(ARGV))
return 1
`

const updateScript = `
local i = tonumber(ARGV[1])
if i >= redis.call("LLEN", KEYS[1]) then
  return 0
end
redis.call("LSET", KEYS[1], i, ARGV[2])
return 1
`

const deleteScript = `
local i = tonumber(ARGV[1])
if i >= redis.call("LLEN", KEYS[1]) then
  return false
end
local v = redis.call("LINDEX", KEYS[1], i)
redis.call("LSET", KEYS[1], i, ARGV[2])
redis.call("LREM", KEYS[1], 1, ARGV[2])
return v
`

// ProductRepo implements domain.ProductRepository on a single Redis list key.
type ProductRepo struct {
	rdb    redis.UniversalClient
	key    string
	seed   *redis.Script
	update *redis.Script
	del    *redis.Script
}

var _ domain.ProductRepository = (*ProductRepo)(nil)

// NewProductRepo wraps rdb. key defaults to "products".
func NewProductRepo(rdb redis.UniversalClient, key string) *ProductRepo {
	if key == "" {
		key = "products"
	}
	return &ProductRepo{
		rdb:    rdb,
		key:    key,
		seed:   redis.NewScript(seedScript),
		update: redis.NewScript(updateScript),
		del:    redis.NewScript(deleteScript),
	}
}

// Connect parses a redis:// URL and verifies the server answers PING.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("op=redisrepo.Connect: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("op=redisrepo.Connect: %w", err)
	}
	return rdb, nil
}

// Seed fills the list with products unless the key already exists.
// It reports whether the seed was written.
func (r *ProductRepo) Seed(ctx context.Context, products []string) (bool, error) {
	if len(products) == 0 {
		return false, nil
	}
	ctx, end := r.startSpan(ctx, "Seed")
	args := make([]any, len(products))
	for i, p := range products {
		args[i] = p
	}
	n, err := r.seed.Run(ctx, r.rdb, []string{r.key}, args...).Int()
	end(err)
	if err != nil {
		return false, fmt.Errorf("op=products.Seed: %w", err)
	}
	return n == 1, nil
}

func (r *ProductRepo) startSpan(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := otel.Tracer("repo.products").Start(ctx, "products."+op)
	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.operation", op),
		attribute.String("db.redis.key", r.key),
	)
	return ctx, func(err error) {
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func (r *ProductRepo) List(ctx context.Context) (out []string, err error) {
	ctx, end := r.startSpan(ctx, "List")
	defer func() { end(err) }()
	out, err = r.rdb.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("op=products.List: %w", err)
	}
	return out, nil
}

func (r *ProductRepo) Get(ctx context.Context, id int) (name string, err error) {
	ctx, end := r.startSpan(ctx, "Get")
	defer func() { end(err) }()
	if id < 0 {
		return "", fmt.Errorf("op=products.Get: %w: id %d", domain.ErrNotFound, id)
	}
	name, err = r.rdb.LIndex(ctx, r.key, int64(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("op=products.Get: %w: id %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("op=products.Get: %w", err)
	}
	return name, nil
}

func (r *ProductRepo) Add(ctx context.Context, name string) (id int, err error) {
	ctx, end := r.startSpan(ctx, "Add")
	defer func() { end(err) }()
	n, err := r.rdb.RPush(ctx, r.key, name).Result()
	if err != nil {
		return 0, fmt.Errorf("op=products.Add: %w", err)
	}
	return int(n - 1), nil
}

func (r *ProductRepo) Update(ctx context.Context, id int, name string) (err error) {
	ctx, end := r.startSpan(ctx, "Update")
	defer func() { end(err) }()
	if id < 0 {
		return fmt.Errorf("op=products.Update: %w: id %d", domain.ErrNotFound, id)
	}
	ok, err := r.update.Run(ctx, r.rdb, []string{r.key}, id, name).Int()
	if err != nil {
		return fmt.Errorf("op=products.Update: %w", err)
	}
	if ok == 0 {
		return fmt.Errorf("op=products.Update: %w: id %d", domain.ErrNotFound, id)
	}
	return nil
}

// Delete removes the product at index id and returns it. Later indices shift down by one.
func (r *ProductRepo) Delete(ctx context.Context, id int) (removed string, err error) {
	ctx, end := r.startSpan(ctx, "Delete")
	defer func() { end(err) }()
	if id < 0 {
		return "", fmt.Errorf("op=products.Delete: %w: id %d", domain.ErrNotFound, id)
	}
	removed, err = r.del.Run(ctx, r.rdb, []string{r.key}, id, tombstone).Text()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("op=products.Delete: %w: id %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("op=products.Delete: %w", err)
	}
	return removed, nil
}

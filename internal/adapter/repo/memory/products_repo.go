// Package memory provides in-process repository adapters.
//
// Data lives only for the lifetime of the process. Every repository
// is safe for concurrent use by multiple request goroutines.
package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/api-telemetry/internal/domain"
)

// ProductRepo keeps the product catalog as an ordered slice guarded by a RWMutex.
type ProductRepo struct {
	mu    sync.RWMutex
	items []string
}

var _ domain.ProductRepository = (*ProductRepo)(nil)

// NewProductRepo constructs a ProductRepo holding a copy of seed.
func NewProductRepo(seed []string) *ProductRepo {
	items := make([]string, len(seed))
	copy(items, seed)
	return &ProductRepo{items: items}
}

type seedFile struct {
	Products []string `yaml:"products"`
}

// LoadSeed reads a YAML document of the form `products: [a, b]`.
// An empty path yields domain.DefaultProducts.
func LoadSeed(path string) ([]string, error) {
	if path == "" {
		return domain.DefaultProducts, nil
	}
	b, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("op=products.LoadSeed: %w", err)
	}
	var sf seedFile
	if err := yaml.Unmarshal(b, &sf); err != nil {
		return nil, fmt.Errorf("op=products.LoadSeed: %w", err)
	}
	for i, p := range sf.Products {
		if p == "" {
			return nil, fmt.Errorf("op=products.LoadSeed: %w: entry %d is empty", domain.ErrInvalidArgument, i)
		}
	}
	return sf.Products, nil
}

func startSpan(ctx context.Context, op string) (context.Context, func()) {
	ctx, span := otel.Tracer("repo.products").Start(ctx, "products."+op)
	span.SetAttributes(
		attribute.String("db.system", "memory"),
		attribute.String("db.operation", op),
	)
	return ctx, func() { span.End() }
}

// List returns a snapshot copy of the catalog.
func (r *ProductRepo) List(ctx context.Context) ([]string, error) {
	_, end := startSpan(ctx, "List")
	defer end()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.items))
	copy(out, r.items)
	return out, nil
}

// Get returns the product at index id.
func (r *ProductRepo) Get(ctx context.Context, id int) (string, error) {
	_, end := startSpan(ctx, "Get")
	defer end()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 0 || id >= len(r.items) {
		return "", fmt.Errorf("op=products.Get: %w: id %d", domain.ErrNotFound, id)
	}
	return r.items[id], nil
}

// Add appends name and returns its index.
func (r *ProductRepo) Add(ctx context.Context, name string) (int, error) {
	_, end := startSpan(ctx, "Add")
	defer end()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, name)
	return len(r.items) - 1, nil
}

// Update replaces the product at index id.
func (r *ProductRepo) Update(ctx context.Context, id int, name string) error {
	_, end := startSpan(ctx, "Update")
	defer end()
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id >= len(r.items) {
		return fmt.Errorf("op=products.Update: %w: id %d", domain.ErrNotFound, id)
	}
	r.items[id] = name
	return nil
}

// Delete removes the product at index id and returns it. Later indices shift down by one.
func (r *ProductRepo) Delete(ctx context.Context, id int) (string, error) {
	_, end := startSpan(ctx, "Delete")
	defer end()
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id >= len(r.items) {
		return "", fmt.Errorf("op=products.Delete: %w: id %d", domain.ErrNotFound, id)
	}
	removed := r.items[id]
	r.items = append(r.items[:id], r.items[id+1:]...)
	return removed, nil
}

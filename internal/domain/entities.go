package domain

import (
	"context"
	"errors"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrRateLimited     = errors.New("rate limited")
	ErrInternal        = errors.New("internal error")
)

// DefaultProducts is the catalog a fresh repository starts with.
var DefaultProducts = []string{"Laptop", "Smartphone", "Tablet"}

// Product is a catalog entry addressed by its position in the list.
// Invariants: Name is non-empty; ID is the zero-based index at read time.
type Product struct {
	ID   int    `json:"id"`
	Name string `json:"name" validate:"required,max=200"`
}

// ProductRepository stores the ordered product list. Indices shift on Delete.
type ProductRepository interface {
	List(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id int) (string, error)
	Add(ctx context.Context, name string) (int, error)
	Update(ctx context.Context, id int, name string) error
	Delete(ctx context.Context, id int) (string, error)
}

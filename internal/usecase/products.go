package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/api-telemetry/internal/domain"
)

// ErrTestException is raised by ProductService.Fail to exercise error telemetry end to end.
var ErrTestException = errors.New("This is a test exception for OpenTelemetry.") //nolint:revive,stylecheck // user-facing diagnostic text

// ProductService exposes catalog operations on top of a ProductRepository.
type ProductService struct {
	Repo domain.ProductRepository
}

// NewProductService constructs a ProductService with the given repo.
func NewProductService(r domain.ProductRepository) ProductService { return ProductService{Repo: r} }

// List returns every product in catalog order.
func (s ProductService) List(ctx context.Context) ([]string, error) {
	slog.InfoContext(ctx, "fetching all products")
	return s.Repo.List(ctx)
}

// Get returns a single product by index.
func (s ProductService) Get(ctx context.Context, id int) (string, error) {
	p, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.WarnContext(ctx, "product not found", slog.Int("id", id))
			return "", notFound(id)
		}
		return "", err
	}
	slog.InfoContext(ctx, "fetched product", slog.String("product", p))
	return p, nil
}

// Add appends a product and returns its index. Blank names are rejected.
func (s ProductService) Add(ctx context.Context, name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		slog.WarnContext(ctx, "attempt to add empty product")
		return 0, fmt.Errorf("%w: Product name cannot be empty.", domain.ErrInvalidArgument) //nolint:revive,stylecheck // user-facing text
	}
	id, err := s.Repo.Add(ctx, name)
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "added new product", slog.String("product", name), slog.Int("id", id))
	return id, nil
}

// Update renames the product at index id.
func (s ProductService) Update(ctx context.Context, id int, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		slog.WarnContext(ctx, "attempt to update product with empty name", slog.Int("id", id))
		return fmt.Errorf("%w: Product name cannot be empty.", domain.ErrInvalidArgument) //nolint:revive,stylecheck // user-facing text
	}
	if err := s.Repo.Update(ctx, id, name); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.WarnContext(ctx, "attempt to update non-existing product", slog.Int("id", id))
			return notFound(id)
		}
		return err
	}
	slog.InfoContext(ctx, "updated product", slog.Int("id", id), slog.String("product", name))
	return nil
}

// Delete removes the product at index id.
func (s ProductService) Delete(ctx context.Context, id int) error {
	removed, err := s.Repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.WarnContext(ctx, "attempt to delete non-existing product", slog.Int("id", id))
			return notFound(id)
		}
		return err
	}
	slog.InfoContext(ctx, "deleted product", slog.String("product", removed))
	return nil
}

// Fail always returns ErrTestException.
func (s ProductService) Fail(_ context.Context) error { return ErrTestException }

func notFound(id int) error {
	return fmt.Errorf("%w: Product with ID %d not found.", domain.ErrNotFound, id) //nolint:revive,stylecheck // user-facing text
}

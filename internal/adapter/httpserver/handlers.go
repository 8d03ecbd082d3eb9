package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/fairyhunter13/api-telemetry/internal/config"
	"github.com/fairyhunter13/api-telemetry/internal/domain"
	"github.com/fairyhunter13/api-telemetry/internal/usecase"
	"github.com/fairyhunter13/api-telemetry/pkg/textx"
)

const maxProductBodyBytes = 1 << 20

// Server aggregates handlers dependencies.
type Server struct {
	Cfg      config.Config
	Products usecase.ProductService
}

// NewServer constructs an HTTP server with all handlers wired.
func NewServer(cfg config.Config, products usecase.ProductService) *Server {
	return &Server{Cfg: cfg, Products: products}
}

// MountProducts registers the catalog routes on r. Mutating routes go through mutate,
// which wraps them with extra middleware such as rate limiting.
func (s *Server) MountProducts(r chi.Router, mutate ...func(http.Handler) http.Handler) {
	r.Route("/api/products", func(pr chi.Router) {
		pr.Method(http.MethodGet, "/", s.ListProductsHandler())
		pr.Method(http.MethodGet, "/test-exception", s.TestExceptionHandler())
		pr.Method(http.MethodGet, "/{id}", s.GetProductHandler())
		pr.Group(func(wr chi.Router) {
			wr.Use(mutate...)
			wr.Method(http.MethodPost, "/", s.AddProductHandler())
			wr.Method(http.MethodPut, "/{id}", s.UpdateProductHandler())
			wr.Method(http.MethodDelete, "/{id}", s.DeleteProductHandler())
		})
	})
}

// ListProductsHandler returns the whole catalog as a JSON array.
func (s *Server) ListProductsHandler() ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		list, err := s.Products.List(r.Context())
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, list)
		return nil
	}
}

// GetProductHandler returns one product as a JSON string.
func (s *Server) GetProductHandler() ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, verr := ParseProductID(chi.URLParam(r, "id"))
		if verr != nil {
			return invalid(verr)
		}
		p, err := s.Products.Get(r.Context(), id)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, p)
		return nil
	}
}

// AddProductHandler appends the JSON string in the body to the catalog.
func (s *Server) AddProductHandler() ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		name, err := decodeProductName(w, r)
		if err != nil {
			return err
		}
		if _, err := s.Products.Add(r.Context(), name); err != nil {
			return err
		}
		w.Header().Set("Location", "/api/products")
		writeJSON(w, http.StatusCreated, map[string]string{"product": name})
		return nil
	}
}

// UpdateProductHandler renames the product at {id}.
func (s *Server) UpdateProductHandler() ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, verr := ParseProductID(chi.URLParam(r, "id"))
		if verr != nil {
			return invalid(verr)
		}
		name, err := decodeProductName(w, r)
		if err != nil {
			return err
		}
		if err := s.Products.Update(r.Context(), id, name); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}

// DeleteProductHandler removes the product at {id}.
func (s *Server) DeleteProductHandler() ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, verr := ParseProductID(chi.URLParam(r, "id"))
		if verr != nil {
			return invalid(verr)
		}
		if err := s.Products.Delete(r.Context(), id); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}

// TestExceptionHandler always fails, exercising the capture fault path.
func (s *Server) TestExceptionHandler() ErrorHandler {
	return func(_ http.ResponseWriter, r *http.Request) error {
		return s.Products.Fail(r.Context())
	}
}

// OpenAPIServe serves api/openapi.yaml if present.
func (s *Server) OpenAPIServe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := os.ReadFile("api/openapi.yaml")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}

// decodeProductName reads a JSON string body such as "Laptop".
func decodeProductName(w http.ResponseWriter, r *http.Request) (string, error) {
	body := http.MaxBytesReader(w, r.Body, maxProductBodyBytes)
	var name string
	dec := json.NewDecoder(body)
	if err := dec.Decode(&name); err != nil {
		if err == io.EOF {
			return "", fmt.Errorf("%w: Product name cannot be empty.", domain.ErrInvalidArgument) //nolint:revive,stylecheck // user-facing text
		}
		return "", fmt.Errorf("%w: body must be a JSON string", domain.ErrInvalidArgument)
	}
	name = textx.SanitizeText(name)
	if verr := ValidateProductName(name); verr != nil {
		return "", invalid(verr)
	}
	return name, nil
}

func invalid(v *ValidationError) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidArgument, v.Message)
}

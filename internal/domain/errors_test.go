package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorConstants(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"ErrInvalidArgument", ErrInvalidArgument, "invalid argument"},
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrRateLimited", ErrRateLimited, "rate limited"},
		{"ErrInternal", ErrInternal, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("Expected %s to be %q, got %q", tt.name, tt.expected, tt.err.Error())
			}
		})
	}
}

func TestErrorIs_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("%w: product 7", ErrNotFound)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Fatalf("expected wrapped error to match ErrNotFound")
	}
	if errors.Is(wrapped, ErrInvalidArgument) {
		t.Fatalf("wrapped ErrNotFound must not match ErrInvalidArgument")
	}
}

func TestDefaultProducts(t *testing.T) {
	want := []string{"Laptop", "Smartphone", "Tablet"}
	if len(DefaultProducts) != len(want) {
		t.Fatalf("want %d products, got %d", len(want), len(DefaultProducts))
	}
	for i := range want {
		if DefaultProducts[i] != want[i] {
			t.Fatalf("product %d: want %q, got %q", i, want[i], DefaultProducts[i])
		}
	}
}

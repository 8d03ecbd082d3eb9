package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/api-telemetry/internal/domain"
)

func TestProductRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	r := NewProductRepo(domain.DefaultProducts)

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Laptop", "Smartphone", "Tablet"}, list)

	id, err := r.Add(ctx, "Monitor")
	require.NoError(t, err)
	assert.Equal(t, 3, id)

	got, err := r.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Monitor", got)

	require.NoError(t, r.Update(ctx, 0, "Desktop"))
	got, err = r.Get(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "Desktop", got)

	removed, err := r.Delete(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Smartphone", removed)

	list, err = r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Desktop", "Tablet", "Monitor"}, list)
}

func TestProductRepo_NotFound(t *testing.T) {
	ctx := context.Background()
	r := NewProductRepo([]string{"a"})
	for _, id := range []int{-1, 1, 99} {
		_, err := r.Get(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, r.Update(ctx, id, "x"), domain.ErrNotFound)
		_, err = r.Delete(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
}

func TestProductRepo_SeedIsCopied(t *testing.T) {
	seed := []string{"a", "b"}
	r := NewProductRepo(seed)
	seed[0] = "mutated"
	got, err := r.Get(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "a", got)

	list, _ := r.List(context.Background())
	list[1] = "mutated"
	got, _ = r.Get(context.Background(), 1)
	assert.Equal(t, "b", got)
}

func TestProductRepo_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	r := NewProductRepo(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Add(ctx, "item")
			_, _ = r.List(ctx)
		}()
	}
	wg.Wait()
	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 50)
}

func TestLoadSeed(t *testing.T) {
	t.Run("empty path uses defaults", func(t *testing.T) {
		got, err := LoadSeed("")
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultProducts, got)
	})
	t.Run("yaml file", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "seed.yaml")
		require.NoError(t, os.WriteFile(p, []byte("products:\n  - Camera\n  - Drone\n"), 0o600))
		got, err := LoadSeed(p)
		require.NoError(t, err)
		assert.Equal(t, []string{"Camera", "Drone"}, got)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSeed(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "op=products.LoadSeed")
	})
	t.Run("empty entry", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "seed.yaml")
		require.NoError(t, os.WriteFile(p, []byte("products:\n  - \"\"\n"), 0o600))
		_, err := LoadSeed(p)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
	t.Run("malformed", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "seed.yaml")
		require.NoError(t, os.WriteFile(p, []byte("products: [unclosed\n"), 0o600))
		_, err := LoadSeed(p)
		require.Error(t, err)
	})
}

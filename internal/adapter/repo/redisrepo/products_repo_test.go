package redisrepo

import (
	"context"
	"fmt"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/api-telemetry/internal/domain"
)

func newTestRepo(t *testing.T) (*ProductRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewProductRepo(rdb, "catalog"), mr
}

func TestSeed_OnlyWhenMissing(t *testing.T) {
	ctx := context.Background()
	repo, mr := newTestRepo(t)

	wrote, err := repo.Seed(ctx, domain.DefaultProducts)
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = repo.Seed(ctx, []string{"Other"})
	require.NoError(t, err)
	assert.False(t, wrote)

	list, err := mr.List("catalog")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultProducts, list)

	wrote, err = repo.Seed(ctx, nil)
	require.NoError(t, err)
	assert.False(t, wrote)
}

func TestCRUD(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	_, err := repo.Seed(ctx, domain.DefaultProducts)
	require.NoError(t, err)

	id, err := repo.Add(ctx, "Monitor")
	require.NoError(t, err)
	assert.Equal(t, 3, id)

	got, err := repo.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Monitor", got)

	require.NoError(t, repo.Update(ctx, 0, "Ultrabook"))

	removed, err := repo.Delete(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Smartphone", removed)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ultrabook", "Tablet", "Monitor"}, list)
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	_, err := repo.Seed(ctx, []string{"only"})
	require.NoError(t, err)

	for _, id := range []int{-1, 1, 99} {
		_, err := repo.Get(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound, "get %d", id)
		assert.ErrorIs(t, repo.Update(ctx, id, "x"), domain.ErrNotFound, "update %d", id)
		_, err = repo.Delete(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound, "delete %d", id)
	}
}

func TestEmptyList(t *testing.T) {
	repo, _ := newTestRepo(t)
	list, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Add(ctx, fmt.Sprintf("p%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 20)
}

func TestServerErrorsAreWrapped(t *testing.T) {
	repo, mr := newTestRepo(t)
	mr.Close()
	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=products.List")
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, rdb.Close())

	_, err = Connect(context.Background(), "not a url")
	assert.Error(t, err)
}

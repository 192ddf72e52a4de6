package accounts

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/kontur-authorization/internal/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contract cases every in-process Repository must satisfy.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("find unknown account", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.FindByID(ctx, 1)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("create then find", func(t *testing.T) {
		repo := newRepo(t)
		created, err := repo.Create(ctx, 42)
		require.NoError(t, err)
		assert.EqualValues(t, 42, created.ID)
		assert.Empty(t, created.RefreshToken)

		found, err := repo.FindByID(ctx, 42)
		require.NoError(t, err)
		assert.EqualValues(t, 42, found.ID)
		assert.Empty(t, found.RefreshToken)
	})

	t.Run("create twice", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Create(ctx, 42)
		require.NoError(t, err)
		_, err = repo.Create(ctx, 42)
		assert.ErrorIs(t, err, common.ErrAlreadyExists)
	})

	t.Run("set refresh token on unknown account", func(t *testing.T) {
		repo := newRepo(t)
		assert.ErrorIs(t, repo.SetRefreshToken(ctx, 9, "tok"), common.ErrorNotFound)
		_, err := repo.FindByRefreshToken(ctx, "tok")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("rotation supersedes the previous token", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Create(ctx, 42)
		require.NoError(t, err)

		require.NoError(t, repo.SetRefreshToken(ctx, 42, "first"))
		got, err := repo.FindByRefreshToken(ctx, "first")
		require.NoError(t, err)
		assert.EqualValues(t, 42, got.ID)

		require.NoError(t, repo.SetRefreshToken(ctx, 42, "second"))

		_, err = repo.FindByRefreshToken(ctx, "first")
		assert.ErrorIs(t, err, common.ErrorNotFound)

		got, err = repo.FindByRefreshToken(ctx, "second")
		require.NoError(t, err)
		assert.Equal(t, "second", got.RefreshToken)

		byID, err := repo.FindByID(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "second", byID.RefreshToken)
	})

	t.Run("setting the same token twice keeps it current", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Create(ctx, 3)
		require.NoError(t, err)

		require.NoError(t, repo.SetRefreshToken(ctx, 3, "same"))
		require.NoError(t, repo.SetRefreshToken(ctx, 3, "same"))

		got, err := repo.FindByRefreshToken(ctx, "same")
		require.NoError(t, err)
		assert.EqualValues(t, 3, got.ID)
	})

	t.Run("accounts are independent", func(t *testing.T) {
		repo := newRepo(t)
		for _, id := range []int64{1, 2} {
			_, err := repo.Create(ctx, id)
			require.NoError(t, err)
		}
		require.NoError(t, repo.SetRefreshToken(ctx, 1, "a"))
		require.NoError(t, repo.SetRefreshToken(ctx, 2, "b"))
		require.NoError(t, repo.SetRefreshToken(ctx, 1, "c"))

		got, err := repo.FindByRefreshToken(ctx, "b")
		require.NoError(t, err)
		assert.EqualValues(t, 2, got.ID)
	})
}

func TestMemoryRepository_Contract(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) Repository { return NewMemoryRepository() })
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisRepository_Contract(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) Repository {
		_, client := newTestRedis(t)
		return NewRedisRepository(client, "test")
	})
}

func TestRedisRepository_KeyLayout(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewRedisRepository(client, "auth")
	ctx := context.Background()

	_, err := repo.Create(ctx, 42)
	require.NoError(t, err)
	require.NoError(t, repo.SetRefreshToken(ctx, 42, "tok-1"))
	require.NoError(t, repo.SetRefreshToken(ctx, 42, "tok-2"))

	assert.Equal(t, "tok-2", mr.HGet("{auth}:account:42", "refresh_token"))
	assert.False(t, mr.Exists("{auth}:refresh:tok-1"))

	id, err := mr.Get("{auth}:refresh:tok-2")
	require.NoError(t, err)
	assert.Equal(t, "42", id)
}

func TestRedisRepository_KeysShareHashTag(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewRedisRepository(client, "auth")
	ctx := context.Background()

	for _, id := range []int64{1, 42, 9000} {
		_, err := repo.Create(ctx, id)
		require.NoError(t, err)
		require.NoError(t, repo.SetRefreshToken(ctx, id, "a-"+strconv.FormatInt(id, 10)))
		require.NoError(t, repo.SetRefreshToken(ctx, id, "b-"+strconv.FormatInt(id, 10)))
	}

	keys := mr.Keys()
	require.Len(t, keys, 6)
	for _, k := range keys {
		assert.True(t, strings.HasPrefix(k, "{auth}:"), k)
	}
}

func TestRedisRepository_StaleIndexIsIgnored(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewRedisRepository(client, "auth")
	ctx := context.Background()

	_, err := repo.Create(ctx, 42)
	require.NoError(t, err)
	require.NoError(t, repo.SetRefreshToken(ctx, 42, "current"))
	require.NoError(t, mr.Set("{auth}:refresh:leftover", "42"))

	_, err = repo.FindByRefreshToken(ctx, "leftover")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRedisRepository_CorruptIndex(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewRedisRepository(client, "auth")

	require.NoError(t, mr.Set("{auth}:refresh:bad", "not-a-number"))

	_, err := repo.FindByRefreshToken(context.Background(), "bad")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestRedisRepository_Unavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewRedisRepository(client, "auth")
	ctx := context.Background()

	mr.Close()

	_, err := repo.FindByID(ctx, 1)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)

	_, err = repo.Create(ctx, 1)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)

	_, err = repo.FindByRefreshToken(ctx, "tok")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)

	assert.ErrorIs(t, repo.SetRefreshToken(ctx, 1, "tok"), common.ErrStoreUnavailable)
}

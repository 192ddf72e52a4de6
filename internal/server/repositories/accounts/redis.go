package accounts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/kontur-authorization/internal/common"
	"github.com/dmitrijs2005/kontur-authorization/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// createAccountScript creates the account hash unless it already exists.
//
// KEYS[1] account key; ARGV[1] creation time (unix nanoseconds).
const createAccountScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "created_at", ARGV[1], "updated_at", ARGV[1])
return 1
`

// setRefreshScript swaps the account's refresh token and its reverse index
// in one step, so the superseded token stops resolving immediately.
//
// KEYS[1] account key, KEYS[2] index key of the new token.
// ARGV[1] new token, ARGV[2] account id, ARGV[3] index key prefix,
// ARGV[4] update time (unix nanoseconds).
// The superseded index key is derived from ARGV[3] and shares the hash tag
// of KEYS, so it lives in the same cluster slot.
const setRefreshScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
local old = redis.call("HGET", KEYS[1], "refresh_token")
if old and old ~= "" and old ~= ARGV[1] then
  redis.call("DEL", ARGV[3] .. old)
end
redis.call("HSET", KEYS[1], "refresh_token", ARGV[1], "updated_at", ARGV[4])
redis.call("SET", KEYS[2], ARGV[2])
return 1
`

var (
	createAccountLua = redis.NewScript(createAccountScript)
	setRefreshLua    = redis.NewScript(setRefreshScript)
)

// RedisRepository implements Repository on top of Redis. Every account is a
// hash; a second key per refresh token points back at the owning account.
// All keys carry the "{prefix}" hash tag, so a cluster keeps them in one slot.
type RedisRepository struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisRepository(rdb redis.UniversalClient, prefix string) *RedisRepository {
	return &RedisRepository{rdb: rdb, prefix: prefix, now: time.Now}
}

func (r *RedisRepository) hashTag() string {
	return "{" + r.prefix + "}"
}

func (r *RedisRepository) accountKey(id int64) string {
	return r.hashTag() + ":account:" + strconv.FormatInt(id, 10)
}

func (r *RedisRepository) refreshPrefix() string {
	return r.hashTag() + ":refresh:"
}

func (r *RedisRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	fields, err := r.rdb.HGetAll(ctx, r.accountKey(id)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if len(fields) == 0 {
		return nil, common.ErrorNotFound
	}

	account := &models.Account{ID: id, RefreshToken: fields["refresh_token"]}
	if account.CreatedAt, err = parseNanos(fields["created_at"]); err != nil {
		return nil, fmt.Errorf("%w: corrupt account %d: %w", common.ErrStoreUnavailable, id, err)
	}
	if account.UpdatedAt, err = parseNanos(fields["updated_at"]); err != nil {
		return nil, fmt.Errorf("%w: corrupt account %d: %w", common.ErrStoreUnavailable, id, err)
	}
	return account, nil
}

func (r *RedisRepository) Create(ctx context.Context, id int64) (*models.Account, error) {
	now := r.now()
	created, err := createAccountLua.Run(ctx, r.rdb, []string{r.accountKey(id)}, now.UnixNano()).Int()
	if err != nil {
		return nil, unavailable(err)
	}
	if created == 0 {
		return nil, common.ErrAlreadyExists
	}
	return &models.Account{ID: id, CreatedAt: time.Unix(0, now.UnixNano()), UpdatedAt: time.Unix(0, now.UnixNano())}, nil
}

func (r *RedisRepository) FindByRefreshToken(ctx context.Context, token string) (*models.Account, error) {
	raw, err := r.rdb.Get(ctx, r.refreshPrefix()+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, unavailable(err)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt refresh index: %w", common.ErrStoreUnavailable, err)
	}

	account, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// the index may briefly outlive a rotation performed outside the script
	if account.RefreshToken != token {
		return nil, common.ErrorNotFound
	}
	return account, nil
}

func (r *RedisRepository) SetRefreshToken(ctx context.Context, id int64, token string) error {
	keys := []string{r.accountKey(id), r.refreshPrefix() + token}
	updated, err := setRefreshLua.Run(ctx, r.rdb, keys,
		token, strconv.FormatInt(id, 10), r.refreshPrefix(), r.now().UnixNano()).Int()
	if err != nil {
		return unavailable(err)
	}
	if updated == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: redis error: %w", common.ErrStoreUnavailable, err)
}

func parseNanos(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, n), nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/itroad/users-service/internal/core/domain"
	"github.com/itroad/users-service/internal/pkg/metrics"
)

// IdentityCache keeps resolved identities for a short TTL so that repeated
// requests with the same token skip the user lookup.
// Key formats:
//   - identity:<username>      cached identity, expires after the TTL
//   - identity:gen:<username>  invalidation counter, never expires
type IdentityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdentityCache creates an IdentityCache wrapping the given Redis client.
func NewIdentityCache(client *redis.Client, ttl time.Duration) *IdentityCache {
	return &IdentityCache{client: client, ttl: ttl}
}

type cachedIdentity struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Get returns the cached identity for username, if any.
func (c *IdentityCache) Get(ctx context.Context, username string) (*domain.Identity, bool, error) {
	raw, err := c.client.Get(ctx, key(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.IdentityCacheTotal.WithLabelValues("miss").Inc()
			return nil, false, nil
		}
		metrics.IdentityCacheTotal.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("identity cache get: %w", err)
	}

	var ci cachedIdentity
	if err := json.Unmarshal(raw, &ci); err != nil {
		metrics.IdentityCacheTotal.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("identity cache decode: %w", err)
	}
	role, ok := domain.ParseRole(ci.Role)
	if !ok {
		metrics.IdentityCacheTotal.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("identity cache decode: unknown role %q", ci.Role)
	}

	metrics.IdentityCacheTotal.WithLabelValues("hit").Inc()
	return &domain.Identity{UserID: ci.UserID, Username: ci.Username, Role: role}, true, nil
}

// Generation returns the invalidation counter of username; 0 when it was
// never invalidated.
func (c *IdentityCache) Generation(ctx context.Context, username string) (uint64, error) {
	gen, err := readGeneration(ctx, c.client, genKey(username))
	if err != nil {
		return 0, fmt.Errorf("identity cache generation: %w", err)
	}
	return gen, nil
}

// Set stores id until the TTL elapses, provided the generation of its
// username still equals gen. The check and the write run in a WATCH/MULTI
// transaction so an Invalidate landing in between aborts the write.
func (c *IdentityCache) Set(ctx context.Context, id domain.Identity, gen uint64) error {
	raw, err := json.Marshal(cachedIdentity{UserID: id.UserID, Username: id.Username, Role: id.Role.String()})
	if err != nil {
		return fmt.Errorf("identity cache encode: %w", err)
	}

	gk := genKey(id.Username)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, gk)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(id.Username), raw, c.ttl)
			return nil
		})
		return err
	}, gk)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		metrics.IdentityCacheTotal.WithLabelValues("stale").Inc()
		return nil
	default:
		return fmt.Errorf("identity cache set: %w", err)
	}
}

// Invalidate drops the cached identity of username and advances its
// generation so in-flight fills for the old record are discarded.
func (c *IdentityCache) Invalidate(ctx context.Context, username string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey(username))
		pipe.Del(ctx, key(username))
		return nil
	})
	if err != nil {
		return fmt.Errorf("identity cache invalidate: %w", err)
	}
	return nil
}

var errStaleGeneration = errors.New("identity generation changed")

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, r getter, gk string) (uint64, error) {
	gen, err := r.Get(ctx, gk).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func key(username string) string {
	return "identity:" + username
}

func genKey(username string) string {
	return "identity:gen:" + username
}

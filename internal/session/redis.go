package session

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"gather/internal/observability"
)

// Connect builds a redis client from the configured URL or host:port and
// verifies it with a ping. A failed connection returns nil: the caller
// falls back to the in-process registry rather than refusing to start.
func Connect(addr string) *redis.Client {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			log.Printf("Redis connection warning: invalid REDIS_URL %q: %v (using in-process sessions)", addr, err)
			return nil
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection warning: %v (using in-process sessions)", err)
		return nil
	}
	return client
}

// redisRegistry keeps session entries in redis under a session: prefix so
// sessions survive process restarts and are shared across replicas.
type redisRegistry struct {
	client *redis.Client
}

func (r *redisRegistry) key(id string) string { return "session:" + id }

func (r *redisRegistry) Put(ctx context.Context, id, username string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(id), username, ttl).Err(); err != nil {
		observability.SessionErrors.WithLabelValues("put").Inc()
		return err
	}
	return nil
}

func (r *redisRegistry) Get(ctx context.Context, id string) (string, bool, error) {
	username, err := r.client.Get(ctx, r.key(id)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		observability.SessionErrors.WithLabelValues("get").Inc()
		return "", false, err
	}
	return username, true, nil
}

func (r *redisRegistry) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		observability.SessionErrors.WithLabelValues("delete").Inc()
		return err
	}
	return nil
}

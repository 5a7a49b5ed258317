// Package redis connects to a Redis server for the key-value session store.
//
// Connect parses a redis:// URL, pings the server and retries according to
// Config. Healthcheck returns a probe suitable for readiness endpoints.
// Config can be filled from the environment via github.com/caarlos0/env.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	store, err := redisstore.New(client, redisstore.WithKeyPrefix(cfg.KeyPrefix))
//
// Errors are sentinel values joined with the underlying go-redis error, so
// both can be matched with errors.Is.
package redis

package config

// This file defines the Redis client constructor for the shared cache
// implementation.  Client parameters are loaded from environment
// variables.  If the connection cannot be verified at startup the
// function returns nil and the caller degrades to the in-process
// cache; the cache is advisory, so running without Redis only costs
// latency, never correctness.

import (
	"context"
	"crypto/tls"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client using environment
// variables:
//
//	REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//	REDIS_ADDR – host:port shorthand (host/port take precedence)
//	REDIS_PASSWORD – optional password
//	REDIS_DB – database number (default 0)
//	REDIS_TLS – enable TLS when "true" or "1"
//
// The returned client is nil when the server does not answer a ping
// within two seconds.
func NewRedisClient() *redis.Client {
	host := getenv("REDIS_HOST", "")
	port := getenv("REDIS_PORT", "")
	addr := getenv("REDIS_ADDR", "localhost:6379")
	if host != "" && port != "" {
		addr = host + ":" + port
	}

	dbNum := 0
	if n, err := strconv.Atoi(getenv("REDIS_DB", "0")); err == nil {
		dbNum = n
	}

	var tlsConf *tls.Config
	if v := getenv("REDIS_TLS", ""); strings.EqualFold(v, "true") || v == "1" {
		tlsConf = &tls.Config{InsecureSkipVerify: true}
	}

	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  getenv("REDIS_PASSWORD", ""),
		DB:        dbNum,
		TLSConfig: tlsConf,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}

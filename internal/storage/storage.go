// Package storage implements the PostgreSQL incumbent store with a Redis
// cache for area queries.
package storage

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgresql driver
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/whitespace-server/internal/config"
)

var (
	db          *sqlx.DB
	redisClient redis.UniversalClient
	cacheTTL    time.Duration
)

// Setup configures the storage backend.
func Setup(c config.Config) error {
	log.Info("storage: setting up storage module")

	cacheTTL = c.Redis.CacheTTL

	log.Info("storage: setting up Redis client")
	if err := setupRedis(c); err != nil {
		return err
	}

	log.Info("storage: connecting to PostgreSQL")
	d, err := sqlx.Open("postgres", c.PostgreSQL.DSN)
	if err != nil {
		return errors.Wrap(err, "storage: PostgreSQL connection error")
	}
	d.SetMaxOpenConns(c.PostgreSQL.MaxOpenConnections)
	d.SetMaxIdleConns(c.PostgreSQL.MaxIdleConnections)
	for {
		if err := d.Ping(); err != nil {
			log.WithError(err).Warning("storage: ping PostgreSQL database error, will retry in 2s")
			time.Sleep(2 * time.Second)
		} else {
			break
		}
	}

	db = d

	if c.PostgreSQL.Automigrate {
		if err := MigrateUp(db); err != nil {
			return err
		}
	}

	return nil
}

func setupRedis(c config.Config) error {
	if c.Redis.URL != "" {
		log.Warning("storage: redis.url is deprecated, use redis.servers")
		opt, err := redis.ParseURL(c.Redis.URL)
		if err != nil {
			return errors.Wrap(err, "storage: parse redis url error")
		}
		redisClient = redis.NewClient(opt)
		return nil
	}

	if len(c.Redis.Servers) == 0 {
		return errors.New("at least one redis server must be configured")
	}

	var tlsConfig *tls.Config
	if c.Redis.TLSEnabled {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if c.Redis.Cluster {
		redisClient = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:     c.Redis.Servers,
			PoolSize:  c.Redis.PoolSize,
			Password:  c.Redis.Password,
			TLSConfig: tlsConfig,
		})
	} else if c.Redis.MasterName != "" {
		redisClient = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       c.Redis.MasterName,
			SentinelAddrs:    c.Redis.Servers,
			SentinelPassword: c.Redis.Password,
			DB:               c.Redis.Database,
			PoolSize:         c.Redis.PoolSize,
			TLSConfig:        tlsConfig,
		})
	} else {
		redisClient = redis.NewClient(&redis.Options{
			Addr:      c.Redis.Servers[0],
			DB:        c.Redis.Database,
			Password:  c.Redis.Password,
			PoolSize:  c.Redis.PoolSize,
			TLSConfig: tlsConfig,
		})
	}

	return nil
}

// DB returns the PostgreSQL database object.
func DB() *sqlx.DB {
	return db
}

// RedisClient returns the Redis client.
func RedisClient() redis.UniversalClient {
	return redisClient
}

// CacheTTL returns the configured area query cache TTL.
func CacheTTL() time.Duration {
	return cacheTTL
}

// GetRedisKey returns the Redis key given a template and parameters.
func GetRedisKey(tmpl string, params ...interface{}) string {
	return fmt.Sprintf(tmpl, params...)
}

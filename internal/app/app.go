package app

import (
	"errors"

	"github.com/alexedwards/argon2id"
	migrate "github.com/golang-migrate/migrate/v4"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// HashPassword hashes a password with argon2id for seeding and admin tooling.
// Verification lives in the auth service.
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

// NewLimiterStore backs a ulule limiter with Redis so limits hold across
// instances.
func NewLimiterStore(rdb *redis.Client) (limiter.Store, error) {
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{})
}

// RunMigrations applies pending migrations; an already up-to-date schema is
// not an error.
func RunMigrations(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

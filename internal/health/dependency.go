package health

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Pinger is satisfied by the database connection managers.
type Pinger interface {
	Name() string
	HealthCheck(ctx context.Context) bool
}

type StoreChecker struct {
	store Pinger
}

func NewStoreChecker(store Pinger) Checker {
	if store == nil {
		return nil
	}
	return &StoreChecker{store: store}
}

func (c *StoreChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "store:" + c.store.Name(), Healthy: true}
	if !c.store.HealthCheck(ctx) {
		res.Healthy = false
		res.Error = c.store.Name() + " unreachable"
	}
	return res
}

type RedisChecker struct {
	client redis.UniversalClient
}

func NewRedisChecker(client redis.UniversalClient) Checker {
	if client == nil {
		return nil
	}
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "redis", Healthy: true}
	if err := c.client.Ping(ctx).Err(); err != nil {
		res.Healthy = false
		res.Error = err.Error()
	}
	return res
}

// Package redispool uses an existing go-redis client as the untrusted target.
package redispool

import (
	"github.com/redis/go-redis/v9"

	"github.com/BigKAA/apidown/apidown"
	"github.com/BigKAA/apidown/apidown/checks/redischeck"
)

// CheckClient makes client (Client, ClusterClient, Ring...) the untrusted target.
// The probe sends PING through the client's pool.
// A nil client makes apidown.New fail with apidown.ErrNilValidator.
func CheckClient(client redis.Cmdable) apidown.Option {
	if client == nil {
		return apidown.CheckHealth(nil)
	}
	addr := "pool"
	if c, ok := client.(*redis.Client); ok {
		if c == nil {
			return apidown.CheckHealth(nil)
		}
		addr = c.Options().Addr
	}
	return apidown.CheckHealth(redischeck.New(addr, redischeck.WithClient(client)))
}

package throttle

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis shares the throttle between every gateway process.
// It counts requests in fixed windows of Period and marks bans with a
// separate key expiring after BanDuration
type Redis struct {
	client redis.UniversalClient
	policy Policy
}

var _ Throttler = (*Redis)(nil)

func NewRedis(client redis.UniversalClient, policy Policy) (r *Redis, err error) {
	policy, err = policy.Normalize()
	if err != nil {
		return nil, err
	}

	r = &Redis{client: client, policy: policy}
	return r, nil
}

func (r *Redis) Decide(ctx context.Context, gatewayId uint64, client string) (verdict Verdict, err error) {
	key := Key(gatewayId, client)
	banKey := key + ":ban"

	banned, err := r.client.Exists(ctx, banKey).Result()
	if err != nil {
		return Allow, fmt.Errorf("failed to check ban: %w", err)
	}
	if banned > 0 {
		return Deny, nil
	}

	var count *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) (err error) {
		count = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, r.policy.Period)
		return nil
	})
	if err != nil {
		return Allow, fmt.Errorf("failed to count request: %w", err)
	}
	if count.Val() <= int64(r.policy.Limit) {
		return Allow, nil
	}

	err = r.client.Set(ctx, banKey, 1, r.policy.BanDuration).Err()
	if err != nil {
		return Deny, fmt.Errorf("failed to ban client: %w", err)
	}
	return Deny, nil
}

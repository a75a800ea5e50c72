package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/peechi-bot/peechi/internal/database/types"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// leaderboardKey holds the serialized top MaxLeaderboardSize users.
const leaderboardKey = "peechi:leaderboard:top"

// LeaderboardCache keeps a short-lived copy of the leaderboard view in Redis.
// Awards always read and write the store, never this cache.
type LeaderboardCache struct {
	client rueidis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewLeaderboardCache creates a cache that keeps leaderboards for ttl.
func NewLeaderboardCache(client rueidis.Client, ttl time.Duration, logger *zap.Logger) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		logger: logger.Named("leaderboard_cache"),
		ttl:    ttl,
	}
}

// Get returns the cached leaderboard if one is present.
func (c *LeaderboardCache) Get(ctx context.Context) ([]*types.User, bool) {
	data, err := c.client.Do(ctx, c.client.B().Get().Key(leaderboardKey).Build()).AsBytes()
	if err != nil {
		if !rueidis.IsRedisNil(err) {
			c.logger.Warn("Failed to read cached leaderboard", zap.Error(err))
		}
		return nil, false
	}

	var users []*types.User
	if err := sonic.Unmarshal(data, &users); err != nil {
		c.logger.Warn("Discarding unreadable cached leaderboard", zap.Error(err))
		return nil, false
	}

	return users, true
}

// Set stores the leaderboard. Failures are logged and otherwise ignored.
func (c *LeaderboardCache) Set(ctx context.Context, users []*types.User) {
	data, err := sonic.Marshal(users)
	if err != nil {
		c.logger.Warn("Failed to encode leaderboard", zap.Error(err))
		return
	}

	err = c.client.Do(ctx, c.client.B().Set().
		Key(leaderboardKey).
		Value(rueidis.BinaryString(data)).
		Ex(c.ttl).
		Build()).Error()
	if err != nil {
		c.logger.Warn("Failed to cache leaderboard", zap.Error(err))
	}
}

// Invalidate removes the cached leaderboard.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	if err := c.client.Do(ctx, c.client.B().Del().Key(leaderboardKey).Build()).Error(); err != nil {
		return fmt.Errorf("failed to invalidate leaderboard cache: %w", err)
	}
	return nil
}

package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"taskmail/internal/config"
	"taskmail/internal/models"
	"taskmail/pkg/logger"
)

// NewClient builds the Redis client, or returns nil when REDIS_URL is not
// set. The app runs without a cache in that case.
func NewClient(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error(ctx, "Invalid REDIS_URL", "error", err)
		return nil
	}
	opts.PoolSize = cfg.RedisPoolSize
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn(ctx, "Redis ping failed, running without cache", "error", err)
		return nil
	}
	logger.Info(ctx, "Redis client initialized", "pool_size", cfg.RedisPoolSize)
	return client
}

// Lists caches the rendered JSON of per-user folder listings. All methods
// are no-ops on a nil receiver or nil client.
type Lists struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLists(client *redis.Client, ttl time.Duration) *Lists {
	if client == nil {
		return nil
	}
	return &Lists{client: client, ttl: ttl}
}

func key(userID string, folder models.Folder) string {
	return "items:" + userID + ":" + string(folder)
}

// Folders that can appear as list views, for invalidation.
var listFolders = []models.Folder{
	models.FolderInbox, models.FolderSent, models.FolderSnoozed,
	models.FolderTrash, models.FolderStarred,
}

// Get reads a cached folder listing as raw JSON. Returns (nil, false) on
// miss or error.
func (c *Lists) Get(ctx context.Context, userID string, folder models.Folder) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	b, err := c.client.Get(ctx, key(userID, folder)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Debug(ctx, "Redis get failed", "error", err)
		return nil, false
	}
	return b, true
}

// SetAsync writes a folder listing in the background with the configured TTL.
func (c *Lists) SetAsync(userID string, folder models.Folder, b []byte) {
	if c == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.client.Set(ctx, key(userID, folder), b, c.ttl).Err(); err != nil {
			logger.Debug(ctx, "Redis set failed", "error", err)
		}
	}()
}

// InvalidateUser drops every cached folder listing for the user so the
// next read goes to the database.
func (c *Lists) InvalidateUser(ctx context.Context, userID string) {
	if c == nil {
		return
	}
	keys := make([]string, 0, len(listFolders))
	for _, f := range listFolders {
		keys = append(keys, key(userID, f))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Debug(ctx, "Redis invalidate failed", "error", err)
	}
}

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rag-presupuestos-be/internal/dto"
	"rag-presupuestos-be/internal/pkg/logger"
)

const previewTTL = 5 * time.Minute

// PreviewCache keeps recent knowledge-search responses in Redis so repeated
// preview queries skip the database. A nil client or any Redis failure
// degrades to a miss; search previews are never allowed to fail on cache
// trouble.
type PreviewCache struct {
	rdb    *redis.Client
	logger logger.ILogger
}

func NewPreviewCache(rdb *redis.Client, log logger.ILogger) *PreviewCache {
	return &PreviewCache{rdb: rdb, logger: log}
}

// Key derives a stable cache key from the search parameters.
func (c *PreviewCache) Key(req *dto.SearchRequest) string {
	raw, _ := json.Marshal(req)
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("search:preview:%s", hex.EncodeToString(sum[:16]))
}

func (c *PreviewCache) Get(ctx context.Context, key string) (*dto.SearchResponse, bool) {
	if c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache", "preview cache read failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, false
	}
	var resp dto.SearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (c *PreviewCache) Set(ctx context.Context, key string, resp *dto.SearchResponse) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, previewTTL).Err(); err != nil {
		c.logger.Debug("cache", "preview cache write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

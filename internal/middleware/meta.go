package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Keys of the envelope meta filled by planner handlers.
const (
	MetaCacheHit       = "cache_hit"
	MetaGeneratedAt    = "generated_at"
	MetaProcessingTime = "processing_time_ms"
)

const (
	responseMetaKey = "planner.response_meta"
	requestStartKey = "planner.request_start"
)

// WithResponseMeta starts the request clock and an empty meta map for handlers to fill.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit marks whether the payload came from the dashboard cache.
func SetCacheHit(c *gin.Context, hit bool) {
	setMeta(c, MetaCacheHit, hit)
}

// SetGeneratedAt records when the payload was composed, which differs from now on a cache hit.
func SetGeneratedAt(c *gin.Context, at time.Time) {
	if at.IsZero() {
		return
	}
	setMeta(c, MetaGeneratedAt, at.UTC().Format(time.RFC3339))
}

// ExtractMeta returns a copy of the collected meta plus the time spent since WithResponseMeta ran.
// It returns nil when nothing was collected.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta, ok := metaMap(c)
	if !ok {
		return nil
	}
	out := make(map[string]interface{}, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	if raw, exists := c.Get(requestStartKey); exists {
		if start, ok := raw.(time.Time); ok {
			out[MetaProcessingTime] = time.Since(start).Milliseconds()
		}
	}
	return out
}

func setMeta(c *gin.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	meta, ok := metaMap(c)
	if !ok {
		meta = map[string]interface{}{}
		c.Set(responseMetaKey, meta)
	}
	meta[key] = value
}

func metaMap(c *gin.Context) (map[string]interface{}, bool) {
	raw, exists := c.Get(responseMetaKey)
	if !exists {
		return nil, false
	}
	meta, ok := raw.(map[string]interface{})
	return meta, ok
}

package cache

import (
	"sync/atomic"
	"time"
)

type counters struct {
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	since     atomic.Int64 // unix nanos of creation or last Clear
}

func (c *counters) reset() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
	c.since.Store(time.Now().UnixNano())
}

// Stats is a point-in-time snapshot of cache activity
type Stats struct {
	Hits          int64         `json:"hits"`
	Misses        int64         `json:"misses"`
	Evictions     int64         `json:"evictions"`
	TotalRequests int64         `json:"total_requests"`
	HitRate       float64       `json:"hit_rate"`
	Entries       int           `json:"entries"`
	Capacity      int           `json:"capacity"`
	Uptime        time.Duration `json:"uptime"`
	Status        string        `json:"status"`
}

// Stats returns counters accumulated since creation or the last Clear
func (c *ResultCache) Stats() Stats {
	hits := c.counters.hits.Load()
	misses := c.counters.misses.Load()
	total := hits + misses

	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Hits:          hits,
		Misses:        misses,
		Evictions:     c.counters.evictions.Load(),
		TotalRequests: total,
		HitRate:       hitRate,
		Entries:       c.Len(),
		Capacity:      c.Capacity(),
		Uptime:        time.Since(time.Unix(0, c.counters.since.Load())),
		Status:        healthStatus(hitRate, total),
	}
}

func healthStatus(hitRate float64, total int64) string {
	switch {
	case total == 0:
		return "idle"
	case hitRate >= 0.95:
		return "excellent"
	case hitRate >= 0.85:
		return "good"
	case hitRate >= 0.70:
		return "fair"
	default:
		return "poor"
	}
}

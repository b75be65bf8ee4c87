package admin

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agentlow/agentlow/internal/cache"
)

// RegisterCacheCollectors exposes the response cache counters on the
// Prometheus registry. Stats queries carry a short timeout so a wedged
// database cannot stall a scrape indefinitely.
func RegisterCacheCollectors(reg prometheus.Registerer, c *cache.Cache) {
	stats := func() cache.Stats {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s, err := c.Stats(ctx)
		if err != nil {
			return cache.Stats{}
		}
		return s
	}

	reg.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "agentlow",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache lookups that returned a fresh entry.",
		}, func() float64 { return float64(stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "agentlow",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache lookups that found nothing or an expired entry.",
		}, func() float64 { return float64(stats().Misses) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "agentlow",
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Current number of cached responses.",
		}, func() float64 { return float64(stats().Entries) }),
	)
}

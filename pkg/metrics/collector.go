package metrics

import (
	"fmt"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/hoard/pkg/cache"
)

// Source is a named cache that can report its statistics.
type Source interface {
	Name() string
	Stats() cache.StatsSnapshot
}

type metric struct {
	desc  *prometheus.Desc
	typ   prometheus.ValueType
	value func(cache.StatsSnapshot) float64
}

// Collector is a prometheus.Collector over a set of caches. Every series
// carries a "cache" label with the source name.
type Collector struct {
	metrics []metric

	mu      sync.RWMutex
	sources map[string]Source
}

// NewCollector creates a collector whose metric names start with namespace.
// It panics if two sources share a name.
func NewCollector(namespace string, sources ...Source) *Collector {
	c := &Collector{
		sources: make(map[string]Source, len(sources)),
	}

	counter := func(name, help string, fn func(cache.StatsSnapshot) float64) {
		c.add(namespace, name, help, prometheus.CounterValue, fn)
	}
	gauge := func(name, help string, fn func(cache.StatsSnapshot) float64) {
		c.add(namespace, name, help, prometheus.GaugeValue, fn)
	}

	counter("hits_total", "Lookups that found a live entry.",
		func(s cache.StatsSnapshot) float64 { return float64(s.Hits) })
	counter("misses_total", "Lookups that found no live entry.",
		func(s cache.StatsSnapshot) float64 { return float64(s.Misses) })
	counter("sets_total", "Entries stored or updated.",
		func(s cache.StatsSnapshot) float64 { return float64(s.Sets) })
	counter("deletes_total", "Entries removed by Delete.",
		func(s cache.StatsSnapshot) float64 { return float64(s.Deletes) })
	counter("evictions_total", "Entries removed to respect capacity limits.",
		func(s cache.StatsSnapshot) float64 { return float64(s.Evictions) })
	counter("expirations_total", "Entries removed after their TTL ran out.",
		func(s cache.StatsSnapshot) float64 { return float64(s.Expirations) })
	gauge("entries", "Live entries.",
		func(s cache.StatsSnapshot) float64 { return float64(s.Entries) })
	gauge("size", "Summed size of live entries.",
		func(s cache.StatsSnapshot) float64 { return float64(s.TotalSize) })
	gauge("hit_ratio", "Hits divided by lookups.",
		func(s cache.StatsSnapshot) float64 { return s.HitRate() })

	for _, src := range sources {
		if err := c.Add(src); err != nil {
			panic(err)
		}
	}
	return c
}

func (c *Collector) add(namespace, name, help string, typ prometheus.ValueType, fn func(cache.StatsSnapshot) float64) {
	c.metrics = append(c.metrics, metric{
		desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", name), help, []string{"cache"}, nil),
		typ:   typ,
		value: fn,
	})
}

// Add starts exporting src.
func (c *Collector) Add(src Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := src.Name()
	if _, ok := c.sources[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateSource, name)
	}
	c.sources[name] = src
	return nil
}

// Remove stops exporting the source called name.
func (c *Collector) Remove(name string) {
	c.mu.Lock()
	delete(c.sources, name)
	c.mu.Unlock()
}

// Names returns the names of the exported sources in order.
func (c *Collector) Names() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.sources))
	for name := range c.sources {
		names = append(names, name)
	}
	c.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	sources := make([]Source, 0, len(c.sources))
	for _, src := range c.sources {
		sources = append(sources, src)
	}
	c.mu.RUnlock()

	for _, src := range sources {
		snap := src.Stats()
		for _, m := range c.metrics {
			ch <- prometheus.MustNewConstMetric(m.desc, m.typ, m.value(snap), src.Name())
		}
	}
}

var _ prometheus.Collector = (*Collector)(nil)

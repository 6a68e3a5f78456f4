package di

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "resume_cache"

type statsCollector struct {
	container *Container

	entries     *prometheus.Desc
	capacity    *prometheus.Desc
	hits        *prometheus.Desc
	misses      *prometheus.Desc
	sets        *prometheus.Desc
	evictions   *prometheus.Desc
	expirations *prometheus.Desc
}

// Collector exports the container's cache statistics, labelled by cache
// name. Register it once per Container:
//
//	prometheus.MustRegister(container.Collector())
func (c *Container) Collector() prometheus.Collector {
	labels := []string{"cache"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", name), help, labels, nil)
	}

	return &statsCollector{
		container:   c,
		entries:     desc("entries", "Live entries, including expired ones not yet removed."),
		capacity:    desc("max_entries", "Configured entry bound."),
		hits:        desc("hits_total", "Lookups that found a live entry."),
		misses:      desc("misses_total", "Lookups that found nothing or an expired entry."),
		sets:        desc("sets_total", "Writes."),
		evictions:   desc("evictions_total", "Entries removed to stay within the bound."),
		expirations: desc("expirations_total", "Entries removed after their TTL elapsed."),
	}
}

func (s *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- s.entries
	ch <- s.capacity
	ch <- s.hits
	ch <- s.misses
	ch <- s.sets
	ch <- s.evictions
	ch <- s.expirations
}

func (s *statsCollector) Collect(ch chan<- prometheus.Metric) {
	for name, st := range s.container.Stats() {
		ch <- prometheus.MustNewConstMetric(s.entries, prometheus.GaugeValue, float64(st.Entries), name)
		ch <- prometheus.MustNewConstMetric(s.capacity, prometheus.GaugeValue, float64(st.MaxSize), name)
		ch <- prometheus.MustNewConstMetric(s.hits, prometheus.CounterValue, float64(st.Hits), name)
		ch <- prometheus.MustNewConstMetric(s.misses, prometheus.CounterValue, float64(st.Misses), name)
		ch <- prometheus.MustNewConstMetric(s.sets, prometheus.CounterValue, float64(st.Sets), name)
		ch <- prometheus.MustNewConstMetric(s.evictions, prometheus.CounterValue, float64(st.Evictions), name)
		ch <- prometheus.MustNewConstMetric(s.expirations, prometheus.CounterValue, float64(st.Expirations), name)
	}
}

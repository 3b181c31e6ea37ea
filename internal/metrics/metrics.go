// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics exports the pipes runtime counters and workload
// timings to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"code.hybscloud.com/pipes"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pipes"

// Collector reads the runtime counters on every scrape.
type Collector struct {
	read func() pipes.Stats

	entangled       *prometheus.Desc
	sleeps          *prometheus.Desc
	wakes           *prometheus.Desc
	spuriousWakes   *prometheus.Desc
	terminations    *prometheus.Desc
	buffersReleased *prometheus.Desc
}

// NewCollector returns a collector over pipes.ReadStats.
func NewCollector() *Collector {
	return newCollector(pipes.ReadStats)
}

func newCollector(read func() pipes.Stats) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "runtime", name), help, nil, nil)
	}
	return &Collector{
		read:            read,
		entangled:       desc("entangled_total", "Endpoint pairs created."),
		sleeps:          desc("sleeps_total", "Blocking waits that went to sleep."),
		wakes:           desc("wakes_total", "Wake signals sent to blocked tasks."),
		spuriousWakes:   desc("spurious_wakes_total", "Wakes for packets outside the watched set."),
		terminations:    desc("terminations_total", "Endpoints closed before being consumed."),
		buffersReleased: desc("buffers_released_total", "Buffers whose last endpoint was disposed of."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entangled
	ch <- c.sleeps
	ch <- c.wakes
	ch <- c.spuriousWakes
	ch <- c.terminations
	ch <- c.buffersReleased
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.read()
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	counter(c.entangled, s.Entangled)
	counter(c.sleeps, s.Sleeps)
	counter(c.wakes, s.Wakes)
	counter(c.spuriousWakes, s.SpuriousWakes)
	counter(c.terminations, s.Terminations)
	counter(c.buffersReleased, s.BuffersReleased)
}

// Workloads records the outcome and duration of named workloads.
type Workloads struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewWorkloads returns unregistered workload metrics.
func NewWorkloads() *Workloads {
	return &Workloads{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workload",
				Name:      "runs_total",
				Help:      "Workload runs.",
			},
			[]string{"workload", "success"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "workload",
				Name:      "duration_seconds",
				Help:      "Workload duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"workload"},
		),
	}
}

// Record adds one run of the named workload.
func (w *Workloads) Record(name string, d time.Duration, success bool) {
	w.runs.WithLabelValues(name, strconv.FormatBool(success)).Inc()
	w.duration.WithLabelValues(name).Observe(d.Seconds())
}

// Register registers the runtime collector and w on reg.
func Register(reg prometheus.Registerer, w *Workloads) error {
	for _, c := range []prometheus.Collector{NewCollector(), w.runs, w.duration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

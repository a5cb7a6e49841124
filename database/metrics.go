/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
)

// MakeMetrics builds the call counter and latency summary used by
// MetricsMiddleware, labelled by collection and method.
func MakeMetrics(namespace, subsystem string) (*kitprometheus.Counter, *kitprometheus.Summary) {
	counter := kitprometheus.NewCounterFrom(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "call_count",
		Help:      "Number of collection calls issued.",
	}, []string{"collection", "method"})
	latency := kitprometheus.NewSummaryFrom(prometheus.SummaryOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "call_latency_seconds",
		Help:      "Total duration of collection calls in seconds.",
	}, []string{"collection", "method"})

	return counter, latency
}

// MetricsMiddleware instruments collection calls by tracking count and latency.
func MetricsMiddleware(counter metrics.Counter, latency metrics.Histogram) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) error {
			defer func(begin time.Time) {
				counter.With("collection", call.Collection, "method", call.Method).Add(1)
				latency.With("collection", call.Collection, "method", call.Method).Observe(time.Since(begin).Seconds())
			}(time.Now())

			return next(ctx, call)
		}
	}
}

// StatsSource is implemented by Manager and Factory.
type StatsSource interface {
	GetStats() *DBStats
}

// StatsCollector exports pool and command statistics as prometheus metrics.
type StatsCollector struct {
	source StatsSource

	maxPool      *prometheus.Desc
	open         *prometheus.Desc
	inUse        *prometheus.Desc
	idle         *prometheus.Desc
	created      *prometheus.Desc
	closed       *prometheus.Desc
	waits        *prometheus.Desc
	checkOutFail *prometheus.Desc
	commands     *prometheus.Desc
	failed       *prometheus.Desc
	duration     *prometheus.Desc
}

var _ prometheus.Collector = (*StatsCollector)(nil)

func NewStatsCollector(namespace string, source StatsSource) *StatsCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "mongo", name), help, nil, nil)
	}
	return &StatsCollector{
		source:       source,
		maxPool:      desc("max_pool_size", "Maximum number of pooled connections."),
		open:         desc("open_connections", "Number of established connections."),
		inUse:        desc("in_use_connections", "Number of connections checked out."),
		idle:         desc("idle_connections", "Number of idle connections."),
		created:      desc("connections_created_total", "Total connections created."),
		closed:       desc("connections_closed_total", "Total connections closed."),
		waits:        desc("checkouts_total", "Total connection checkouts requested."),
		checkOutFail: desc("checkouts_failed_total", "Total connection checkouts that failed."),
		commands:     desc("commands_total", "Total commands sent."),
		failed:       desc("commands_failed_total", "Total commands that failed."),
		duration:     desc("commands_duration_seconds_total", "Total time spent in commands."),
	}
}

func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.maxPool
	ch <- c.open
	ch <- c.inUse
	ch <- c.idle
	ch <- c.created
	ch <- c.closed
	ch <- c.waits
	ch <- c.checkOutFail
	ch <- c.commands
	ch <- c.failed
	ch <- c.duration
}

func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.GetStats()
	if s == nil {
		s = &DBStats{}
	}
	ch <- prometheus.MustNewConstMetric(c.maxPool, prometheus.GaugeValue, float64(s.MaxPoolSize))
	ch <- prometheus.MustNewConstMetric(c.open, prometheus.GaugeValue, float64(s.OpenConns))
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(s.InUse))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.Idle))
	ch <- prometheus.MustNewConstMetric(c.created, prometheus.CounterValue, float64(s.ConnectionsCreated))
	ch <- prometheus.MustNewConstMetric(c.closed, prometheus.CounterValue, float64(s.ConnectionsClosed))
	ch <- prometheus.MustNewConstMetric(c.waits, prometheus.CounterValue, float64(s.WaitCount))
	ch <- prometheus.MustNewConstMetric(c.checkOutFail, prometheus.CounterValue, float64(s.CheckOutFailed))
	ch <- prometheus.MustNewConstMetric(c.commands, prometheus.CounterValue, float64(s.Commands))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(s.FailedCommands))
	ch <- prometheus.MustNewConstMetric(c.duration, prometheus.CounterValue, s.CommandDuration.Seconds())
}

//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package timeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// insertTotal counts applied slices by the decided case
	insertTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timeline_insert_total",
		Help: "Total inserted slices by decided case",
	}, []string{"case"})

	// insertErrors counts failed slices by error kind
	insertErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timeline_insert_errors_total",
		Help: "Total failed slice inserts by error kind",
	}, []string{"kind"})

	insertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "timeline_insert_duration_seconds",
		Help:    "Slice insert duration in seconds, including locate and commit",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16), // 10µs to ~300ms
	})

	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "timeline_query_duration_seconds",
		Help:    "Range query duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16),
	})

	querySegments = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "timeline_query_segments",
		Help:    "Number of segments returned per range query",
		Buckets: []float64{0, 1, 2, 5, 10, 50, 100, 1000, 10000},
	})
)

// InsertCounter exposes the per case counter, e.g. for tests and dashboards.
func InsertCounter(c Case) prometheus.Counter {
	return insertTotal.WithLabelValues(string(c))
}

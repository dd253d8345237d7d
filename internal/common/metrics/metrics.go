// internal/common/metrics/metrics.go
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"nl-sql-search/internal/models"
	"nl-sql-search/internal/search"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlsql_worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlsql_worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "nlsql_worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nlsql_worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// SearchMetrics counts hybrid searches by outcome. It is a search.Observer.
type SearchMetrics struct {
	searches   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	rejections *prometheus.CounterVec
	rows       prometheus.Histogram
}

// NewSearchMetrics registers the search collectors on reg; a nil reg uses
// the default registerer.
func NewSearchMetrics(reg prometheus.Registerer) *SearchMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &SearchMetrics{
		searches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nlsql_searches_total",
				Help: "Total number of hybrid searches by outcome",
			},
			[]string{"outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nlsql_search_duration_seconds",
				Help:    "End to end hybrid search duration in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nlsql_sql_rejections_total",
				Help: "Generated statements refused by the validator, by matched keyword",
			},
			[]string{"keyword"},
		),
		rows: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nlsql_search_rows",
				Help:    "Rows returned by successful searches",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
	}
}

func (m *SearchMetrics) ObserveSearch(_ context.Context, ev search.Event) {
	outcome := string(ev.Outcome)
	m.searches.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(ev.Duration.Seconds())

	switch ev.Outcome {
	case models.OutcomeRejected:
		keyword := ev.Keyword
		if keyword == "" {
			keyword = "not_select"
		}
		m.rejections.WithLabelValues(keyword).Inc()
	case models.OutcomeDone:
		m.rows.Observe(float64(ev.RowCount))
	}
}

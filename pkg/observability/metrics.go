package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by the toolkit hooks.
type Metrics struct {
	DocumentsParsed  *prometheus.CounterVec
	ParseDuration    prometheus.Histogram
	Analyses         *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	Validations      *prometheus.CounterVec
	ValidationTime   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DocumentsParsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teiinfo_documents_parsed_total",
				Help: "Total number of corpus documents parsed",
			},
			[]string{"result"},
		),
		ParseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "teiinfo_document_parse_seconds",
			Help:    "Time to load and parse one document",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teiinfo_schema_analyses_total",
				Help: "Total number of schema analyses",
			},
			[]string{"cached", "result"},
		),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "teiinfo_schema_analysis_seconds",
			Help:    "Duration of schema analyses, including conversion",
			Buckets: prometheus.DefBuckets,
		}),
		Validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teiinfo_validations_total",
				Help: "Total number of instance validations",
			},
			[]string{"engine", "result"},
		),
		ValidationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "teiinfo_validation_seconds",
			Help:    "Duration of instance validations",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.DocumentsParsed, m.ParseDuration, m.Analyses, m.AnalysisDuration, m.Validations, m.ValidationTime)
	return m
}

// Hooks returns hooks that record every event.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnDocumentParsed: func(_ context.Context, e *domain.DocumentEvent) {
			m.DocumentsParsed.WithLabelValues(result(e.Err)).Inc()
			m.ParseDuration.Observe(e.Duration.Seconds())
		},
		OnAnalysis: func(_ context.Context, e *domain.AnalysisEvent) {
			m.Analyses.WithLabelValues(strconv.FormatBool(e.Cached), result(e.Err)).Inc()
			if !e.Cached {
				m.AnalysisDuration.Observe(e.Duration.Seconds())
			}
		},
		OnValidation: func(_ context.Context, e *domain.ValidationEvent) {
			if e.Err != nil || e.Report == nil {
				m.Validations.WithLabelValues("", "error").Inc()
				return
			}
			outcome := "valid"
			if !e.Report.Valid {
				outcome = "invalid"
			}
			m.Validations.WithLabelValues(e.Report.Engine, outcome).Inc()
			m.ValidationTime.Observe(e.Report.Duration.Seconds())
		},
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

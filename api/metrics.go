package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "phiguard",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "phiguard",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	analysisFindings = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "phiguard",
		Name:      "analysis_findings",
		Help:      "Sensitive data findings per analyzed document.",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})

	analysisScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "phiguard",
		Name:      "analysis_compliance_score",
		Help:      "Compliance score per analyzed document.",
		Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})

	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "phiguard",
		Name:      "analyses_total",
		Help:      "Completed analyses by resulting risk level.",
	}, []string{"risk_level"})

	inFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "phiguard",
		Name:      "analyses_in_flight",
		Help:      "Analyses currently being processed.",
	})

	analysisDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "phiguard",
		Name:      "analysis_degraded_total",
		Help:      "Analyses completed without the contextual recognizer or risk analyzer.",
	})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "phiguard",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})
)

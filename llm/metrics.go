package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "phiguard",
	Name:      "risk_analysis_retries_total",
	Help:      "Risk analysis calls retried after a transient failure.",
})

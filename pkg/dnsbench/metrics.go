package dnsbench

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dnsQueryDurationMetrics = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dnspulse",
		Name:      "dns_query_duration_seconds",
		Help:      "DNS query duration in seconds",
	}, []string{"resolver", "transport"})

	dnsQueryErrorsMetrics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dnspulse",
		Name:      "dns_query_errors_total",
		Help:      "The total number of failed DNS queries",
	}, []string{"resolver", "transport", "kind"})
)

func recordMetrics(res QueryResult) {
	labels := prometheus.Labels{
		"resolver":  res.Task.Resolver.ID,
		"transport": res.Task.Transport.String(),
	}
	dnsQueryDurationMetrics.With(labels).Observe(res.Latency.Seconds())
	if res.Err != NoError {
		labels["kind"] = res.Err.String()
		dnsQueryErrorsMetrics.With(labels).Inc()
	}
}

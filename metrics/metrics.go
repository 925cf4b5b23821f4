package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ingestedLogs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logboard_logs_ingested_total",
		Help: "Log records persisted, by normalized level",
	}, []string{"level"})
	rejectedLogs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logboard_logs_rejected_total",
		Help: "Log submissions rejected, by reason",
	}, []string{"reason"})
	deletedLogs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logboard_logs_deleted_total",
		Help: "Log records requested for deletion",
	})
	activeStreamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "logboard_stream_clients",
		Help: "Currently connected live dashboard streams",
	})
)

func LogIngested(level string) {
	ingestedLogs.WithLabelValues(level).Inc()
}

func LogRejected(reason string) {
	rejectedLogs.WithLabelValues(reason).Inc()
}

func LogsDeleted(count int) {
	deletedLogs.Add(float64(count))
}

func StreamClientConnected() {
	activeStreamClients.Inc()
}

func StreamClientDisconnected() {
	activeStreamClients.Dec()
}

// Handler serves the default registry in Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

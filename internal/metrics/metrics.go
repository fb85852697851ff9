package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the set of prometheus collectors the service records into
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// ImportRowsTotal counts uploaded rows by result: valid, invalid, inserted, failed
	ImportRowsTotal *prometheus.CounterVec

	// LeadMutationsTotal counts successful writes by op: insert, update, update_status, delete
	LeadMutationsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"handler", "method"},
		),
		ImportRowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadtracker_import_rows_total",
				Help: "Total number of uploaded rows by result",
			},
			[]string{"result"},
		),
		LeadMutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadtracker_lead_mutations_total",
				Help: "Total number of successful lead writes by operation",
			},
			[]string{"op"},
		),
	}

	for _, c := range []prometheus.Collector{m.HTTPRequestsTotal, m.HTTPRequestDuration, m.ImportRowsTotal, m.LeadMutationsTotal} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveRequest(handler, method string, status int, took time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(handler, method).Observe(took.Seconds())
	m.HTTPRequestsTotal.WithLabelValues(handler, method, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ImportRows(result string, n int) {
	m.ImportRowsTotal.WithLabelValues(result).Add(float64(n))
}

func (m *Metrics) Mutation(op string) {
	m.LeadMutationsTotal.WithLabelValues(op).Inc()
}

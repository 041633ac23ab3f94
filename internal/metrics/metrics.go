// Package metrics は Prometheus の指標をまとめる。
// *Metrics が nil でも各メソッドは何もしないので、テストでは渡さなくてよい。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "catalog"

type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	ListRequests    *prometheus.CounterVec
	EditSubmissions *prometheus.CounterVec
	ProductsDeleted prometheus.Counter
}

// New は reg に指標を登録する。
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ListRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_requests_total",
			Help:      "Catalog listing calls",
		}, []string{"filtered"}),
		EditSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edit_submissions_total",
			Help:      "Admin edit submissions by outcome",
		}, []string{"outcome"}),
		ProductsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_deleted_total",
			Help:      "Products deleted by admins",
		}),
	}
	reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.ListRequests, m.EditSubmissions, m.ProductsDeleted)
	return m
}

func (m *Metrics) ObserveList(filtered bool) {
	if m == nil {
		return
	}
	label := "false"
	if filtered {
		label = "true"
	}
	m.ListRequests.WithLabelValues(label).Inc()
}

// outcome: saved / rejected_invalid / error
func (m *Metrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.EditSubmissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveDelete() {
	if m == nil {
		return
	}
	m.ProductsDeleted.Inc()
}

func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}

// Package metrics exposes Prometheus counters for the auth endpoints.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values for the result label.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

// RoleOther is the role label for requests naming no known role.
const RoleOther = "other"

// Metrics holds the service counters.
type Metrics struct {
	Logins             *prometheus.CounterVec
	Registrations      *prometheus.CounterVec
	ResetRequests      *prometheus.CounterVec
	ResetConfirmations *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the counters on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWith(reg, reg)
}

// NewWith registers the counters on reg.
func NewWith(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trainfood_auth_logins_total",
			Help: "Login attempts by result and resolved role",
		}, []string{"result", "role"}),
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trainfood_auth_registrations_total",
			Help: "Registration attempts by result and requested role",
		}, []string{"result", "role"}),
		ResetRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trainfood_auth_reset_requests_total",
			Help: "Password reset OTP requests by result",
		}, []string{"result"}),
		ResetConfirmations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trainfood_auth_reset_confirmations_total",
			Help: "Password reset confirmations by result",
		}, []string{"result"}),
		gatherer: g,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

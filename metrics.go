package jose

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Token kinds used as metric labels.
const (
	kindSigned    = "jws"
	kindEncrypted = "jwe"
)

// Metrics holds the Prometheus collectors updated by a Processor.
// A nil *Metrics records nothing.
type Metrics struct {
	tokensIssued      *prometheus.CounterVec
	verifications     *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// NewMetrics creates the processor collectors and registers them with reg.
// Collectors already registered by another Processor are shared. A nil reg
// leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jose",
			Name:      "tokens_issued_total",
			Help:      "Tokens issued, by token kind and algorithm",
		}, []string{"kind", "alg"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jose",
			Name:      "verifications_total",
			Help:      "Verification and decryption outcomes, by token kind and result",
		}, []string{"kind", "result"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "jose",
			Name:      "operation_duration_seconds",
			Help:      "Latency of processor operations",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025, .05},
		}, []string{"op"}),
	}

	if reg != nil {
		m.tokensIssued = register(reg, m.tokensIssued)
		m.verifications = register(reg, m.verifications)
		m.operationDuration = register(reg, m.operationDuration)
	}

	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

func (m *Metrics) issued(kind string, alg string) {
	if m == nil {
		return
	}
	m.tokensIssued.WithLabelValues(kind, alg).Inc()
}

func (m *Metrics) verified(kind string, result VerifyResult) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(kind, result.String()).Inc()
}

func (m *Metrics) since(op string, start time.Time) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

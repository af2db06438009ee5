package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for ledger operations.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
)

// LedgerMetrics counts balance engine activity.
type LedgerMetrics struct {
	operations *prometheus.CounterVec
	rejections *prometheus.CounterVec
	recomputes *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger counters on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_operations_total",
		Help:      "Balance engine operations by kind and outcome.",
	}, []string{"kind", "outcome"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_rejections_total",
		Help:      "Rejected balance engine operations by error code.",
	}, []string{"kind", "code"})
	recomputes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_recompute_total",
		Help:      "Recompute runs by kind and whether the cached projection had drifted.",
	}, []string{"kind", "drift"})
	reg.MustRegister(operations, rejections, recomputes)
	return &LedgerMetrics{
		operations: operations,
		rejections: rejections,
		recomputes: recomputes,
	}
}

// Applied counts an accepted operation.
func (m *LedgerMetrics) Applied(kind string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(kind), OutcomeApplied).Inc()
}

// Rejected counts an operation refused by validation or storage.
func (m *LedgerMetrics) Rejected(kind, code string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(kind), OutcomeRejected).Inc()
	m.rejections.WithLabelValues(normalizeLabel(kind), normalizeLabel(code)).Inc()
}

// Recomputed counts a replay and whether it changed the stored projection.
func (m *LedgerMetrics) Recomputed(kind string, drifted bool) {
	if m == nil || m.recomputes == nil {
		return
	}
	drift := "false"
	if drifted {
		drift = "true"
	}
	m.recomputes.WithLabelValues(normalizeLabel(kind), drift).Inc()
}

// Package metrics counts ledger mutations with Prometheus collectors. The CLI
// dumps them to a node-exporter textfile; nothing listens on the network.
package metrics

import (
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the ledger collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
    mutations      *prometheus.CounterVec
    duplicates     *prometheus.CounterVec
    importRows     *prometheus.CounterVec
    reconciled     *prometheus.CounterVec
    mutationTiming *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg creates unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
    f := promauto.With(reg)
    return &Metrics{
        mutations: f.NewCounterVec(
            prometheus.CounterOpts{
                Namespace: "euer",
                Name:      "mutations_total",
                Help:      "Committed ledger mutations by table and audit action",
            },
            []string{"table", "action"},
        ),
        duplicates: f.NewCounterVec(
            prometheus.CounterOpts{
                Namespace: "euer",
                Name:      "duplicates_total",
                Help:      "Creates rejected or skipped because the fingerprint already existed",
            },
            []string{"table", "policy"},
        ),
        importRows: f.NewCounterVec(
            prometheus.CounterOpts{
                Namespace: "euer",
                Name:      "import_rows_total",
                Help:      "Bulk import rows by outcome",
            },
            []string{"outcome"},
        ),
        reconciled: f.NewCounterVec(
            prometheus.CounterOpts{
                Namespace: "euer",
                Name:      "reconcile_records_total",
                Help:      "Expenses visited by reconciliation by result",
            },
            []string{"result"},
        ),
        mutationTiming: f.NewHistogramVec(
            prometheus.HistogramOpts{
                Namespace: "euer",
                Name:      "mutation_duration_seconds",
                Help:      "Duration of single-record mutations in seconds",
                Buckets:   prometheus.DefBuckets,
            },
            []string{"table"},
        ),
    }
}

func (m *Metrics) Mutation(table, action string) {
    if m == nil { return }
    m.mutations.WithLabelValues(table, action).Inc()
}

func (m *Metrics) Duplicate(table, policy string) {
    if m == nil { return }
    m.duplicates.WithLabelValues(table, policy).Inc()
}

func (m *Metrics) ImportRows(outcome string, n int) {
    if m == nil || n <= 0 { return }
    m.importRows.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) Reconciled(result string, n int) {
    if m == nil || n <= 0 { return }
    m.reconciled.WithLabelValues(result).Add(float64(n))
}

// Observe records the time since start for a mutation on table.
func (m *Metrics) Observe(table string, start time.Time) {
    if m == nil { return }
    m.mutationTiming.WithLabelValues(table).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes everything g gathers to path in the text exposition format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
    return prometheus.WriteToTextfile(path, g)
}

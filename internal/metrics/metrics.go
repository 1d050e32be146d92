// Package metrics exposes the billing counters scraped at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Rollover outcomes.
const (
	RolloverCriada        = "criada"
	RolloverExistente     = "existente"
	RolloverSemVencimento = "sem_vencimento"
	RolloverExcluida      = "excluida"
	RolloverPreservada    = "preservada"
)

// Renewal outcomes.
const (
	RenovacaoOK       = "ok"
	RenovacaoQuitado  = "ja_quitado"
	RenovacaoInvalida = "invalida"
	RenovacaoErro     = "erro"
)

// Metrics groups the application collectors. A nil *Metrics is valid and
// records nothing, so tests and CLI commands can skip registration.
type Metrics struct {
	rollovers  *prometheus.CounterVec
	renovacoes *prometheus.CounterVec
	jobs       *prometheus.CounterVec
	lockEspera prometheus.Histogram
}

// New registers every collector on reg (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		rollovers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mvsat_cobranca_rollover_total",
			Help: "Next-cycle invoice decisions taken on baixa and reabertura.",
		}, []string{"resultado"}),
		renovacoes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mvsat_tvbox_renovacao_total",
			Help: "TV-box renewal attempts by outcome.",
		}, []string{"resultado"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mvsat_worker_jobs_total",
			Help: "Async jobs processed by type and outcome.",
		}, []string{"tipo", "resultado"}),
		lockEspera: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mvsat_ciclo_lock_wait_seconds",
			Help:    "Time spent waiting for the billing-cycle lock.",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
	reg.MustRegister(m.rollovers, m.renovacoes, m.jobs, m.lockEspera)
	return m
}

func (m *Metrics) Rollover(resultado string) {
	if m == nil {
		return
	}
	m.rollovers.WithLabelValues(resultado).Inc()
}

func (m *Metrics) Renovacao(resultado string) {
	if m == nil {
		return
	}
	m.renovacoes.WithLabelValues(resultado).Inc()
}

func (m *Metrics) Job(tipo string, err error) {
	if m == nil {
		return
	}
	resultado := "ok"
	if err != nil {
		resultado = "erro"
	}
	m.jobs.WithLabelValues(tipo, resultado).Inc()
}

// LockEspera observes how long acquiring a cycle lock took.
func (m *Metrics) LockEspera(d time.Duration) {
	if m == nil {
		return
	}
	m.lockEspera.Observe(d.Seconds())
}

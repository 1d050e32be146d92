package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Contadores(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Rollover(RolloverCriada)
	m.Rollover(RolloverCriada)
	m.Renovacao(RenovacaoQuitado)
	m.Job("recibo", errors.New("smtp"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rollovers.WithLabelValues(RolloverCriada)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renovacoes.WithLabelValues(RenovacaoQuitado)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobs.WithLabelValues("recibo", "erro")))
}

func TestMetrics_NilNaoRegistra(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Rollover(RolloverCriada)
		m.Renovacao(RenovacaoOK)
		m.Job("aviso", nil)
		m.LockEspera(0)
	})
}

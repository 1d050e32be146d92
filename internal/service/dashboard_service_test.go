package service_test

import (
	"context"
	"testing"
	"time"

	"mvsat/internal/model"
	"mvsat/internal/service"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard_Resumo(t *testing.T) {
	clientes := newStubClienteRepo()
	require.NoError(t, clientes.Create(context.Background(), &model.Cliente{Nome: "A", Ativo: true}))
	require.NoError(t, clientes.Create(context.Background(), &model.Cliente{Nome: "B", Ativo: false}))

	cobrancas := newStubCobrancaRepo()
	cobrancas.put(&model.Cobranca{
		Tipo: model.TipoSky, Valor: decimal.RequireFromString("100"), Status: model.StatusPago,
		DataPagamento: data(2025, time.March, 1), ValorPago: lo.ToPtr(decimal.RequireFromString("110")),
	})
	cobrancas.put(&model.Cobranca{
		Tipo: model.TipoSky, Valor: decimal.RequireFromString("50"), Status: model.StatusPago,
		DataPagamento: data(2025, time.February, 28),
	})
	cobrancas.put(&model.Cobranca{Tipo: model.TipoSky, Valor: decimal.RequireFromString("70"), Status: model.StatusPendente})

	tvbox := newStubTvBoxRepo()
	assinatura(tvbox, 5, data(2025, time.March, 5))
	assinatura(tvbox, 25, data(2025, time.March, 25))
	tvbox.pagamentos["x"] = model.PagamentoRenovacao{ID: "x", Competencia: "2025-03", Valor: taxaTeste}

	agora := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)
	svc := service.NewDashboardService(clientes, cobrancas, tvbox, service.DashboardOptions{Clock: relogio(agora)})

	resp, err := svc.Resumo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-03", resp.Competencia)
	assert.EqualValues(t, 1, resp.ClientesAtivos)
	assert.EqualValues(t, 2, resp.CobrancasPorStatus[model.StatusPago])
	assert.True(t, decimal.RequireFromString("110").Equal(resp.RecebidoCobrancas))
	assert.True(t, taxaTeste.Equal(resp.RecebidoTvBox))
	assert.EqualValues(t, 2, resp.TvBoxAtivos)
	assert.EqualValues(t, 1, resp.RenovacoesProximas)
}

func TestDashboard_Cache(t *testing.T) {
	clientes := newStubClienteRepo()
	svc := service.NewDashboardService(clientes, newStubCobrancaRepo(), newStubTvBoxRepo(), service.DashboardOptions{
		Clock:    relogio(time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)),
		CacheTTL: time.Minute,
	})

	primeiro, err := svc.Resumo(context.Background())
	require.NoError(t, err)
	require.NoError(t, clientes.Create(context.Background(), &model.Cliente{Nome: "novo", Ativo: true}))

	segundo, err := svc.Resumo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, primeiro.ClientesAtivos, segundo.ClientesAtivos)
}

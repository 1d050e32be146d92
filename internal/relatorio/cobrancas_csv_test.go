package relatorio

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"testing"

	"mvsat/internal/ciclo"
	"mvsat/internal/dto"
	"mvsat/internal/model"
	"mvsat/internal/repository"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedRepo serves List from a slice, honouring Page/Limit.
type pagedRepo struct {
	repository.CobrancaRepository
	cobrancas []model.Cobranca
	chamadas  int
	filtros   []dto.CobrancaFilter
}

func (r *pagedRepo) List(_ context.Context, f dto.CobrancaFilter) ([]model.Cobranca, int64, error) {
	r.chamadas++
	r.filtros = append(r.filtros, f)
	ini := (f.Page - 1) * f.Limit
	if ini >= len(r.cobrancas) {
		return nil, int64(len(r.cobrancas)), nil
	}
	fim := min(ini+f.Limit, len(r.cobrancas))
	return r.cobrancas[ini:fim], int64(len(r.cobrancas)), nil
}

func cobranca(n int) model.Cobranca {
	venc := ciclo.Data(2025, 1, 10)
	return model.Cobranca{
		ID:             uuid.New(),
		ClienteID:      lo.ToPtr(uuid.New()),
		Tipo:           model.TipoSky,
		Valor:          decimal.NewFromInt(int64(n)),
		DataVencimento: &venc,
		Status:         model.StatusPendente,
		AnoReferencia:  2025,
		MesReferencia:  1,
	}
}

func TestExportarCobrancas_Paginado(t *testing.T) {
	repo := &pagedRepo{}
	for i := 0; i < 150; i++ {
		repo.cobrancas = append(repo.cobrancas, cobranca(i))
	}

	var buf bytes.Buffer
	n, err := ExportarCobrancas(context.Background(), repo, dto.CobrancaFilter{Status: model.StatusPendente, Page: 7}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 150, n)
	assert.Equal(t, 2, repo.chamadas)
	assert.Equal(t, model.StatusPendente, repo.filtros[1].Status)

	linhas, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, linhas, 151)
	assert.Equal(t, "id", linhas[0][0])
	assert.Equal(t, "2025-01", linhas[1][4])
	assert.Equal(t, "2025-01-10", linhas[1][5])
	assert.Equal(t, "0.00", linhas[1][6])
}

func TestExportarCobrancas_CamposOpcionais(t *testing.T) {
	pago := cobranca(90)
	pago.ClienteID = nil
	pago.DataVencimento = nil
	pago.VencimentoTexto = lo.ToPtr("dia 10")
	pago.Status = model.StatusPago
	pago.DataPagamento = lo.ToPtr(ciclo.Data(2025, 1, 12))
	pago.FormaPagamento = lo.ToPtr("pix")
	pago.ValorPago = lo.ToPtr(decimal.RequireFromString("95.5"))
	repo := &pagedRepo{cobrancas: []model.Cobranca{pago}}

	var buf bytes.Buffer
	_, err := ExportarCobrancas(context.Background(), repo, dto.CobrancaFilter{}, &buf)
	require.NoError(t, err)

	linhas, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, linhas, 2)
	l := linhas[1]
	assert.Equal(t, "", l[1])
	assert.Equal(t, "dia 10", l[5])
	assert.Equal(t, "2025-01-12", l[8])
	assert.Equal(t, "pix", l[9])
	assert.Equal(t, "95.50", l[10])
	assert.Equal(t, "", l[11])
}

func TestExportarCobrancas_Vazio(t *testing.T) {
	var buf bytes.Buffer
	n, err := ExportarCobrancas(context.Background(), &pagedRepo{}, dto.CobrancaFilter{}, &buf)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, buf.String(), "id,cliente_id")
}

func TestExportarCobrancas_ErroDoRepositorio(t *testing.T) {
	_, err := ExportarCobrancas(context.Background(), erroRepo{}, dto.CobrancaFilter{}, &bytes.Buffer{})
	assert.Error(t, err)
}

type erroRepo struct{ repository.CobrancaRepository }

func (erroRepo) List(context.Context, dto.CobrancaFilter) ([]model.Cobranca, int64, error) {
	return nil, 0, fmt.Errorf("db fora")
}

package service_test

import (
	"context"
	"testing"
	"time"

	"mvsat/internal/ciclo"
	"mvsat/internal/dto"
	"mvsat/internal/infra"
	"mvsat/internal/model"
	"mvsat/internal/repository"
	"mvsat/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Same flows as the stub-based tests, through real GORM transactions.

func abrirBanco(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, infra.RunMigrations(db))
	return db
}

func TestTransacao_RenovarTvBox(t *testing.T) {
	db := abrirBanco(t)
	repo := repository.NewTvBoxRepository(db)
	svc := service.NewTvBoxService(repo, service.TvBoxOptions{
		Taxa:  taxaTeste,
		Clock: relogio(time.Date(2025, 1, 30, 15, 0, 0, 0, time.UTC)),
	})
	ctx := context.Background()

	criada, err := svc.Criar(ctx, dto.CriarTvBoxRequest{Login: "quarto", Senha: "1234", DiaRenovacao: 31, DataRenovacao: "2025-01-31"})
	require.NoError(t, err)
	id := uuid.MustParse(criada.ID)

	resp, err := svc.Renovar(ctx, id, "ana")
	require.NoError(t, err)
	assert.Equal(t, "2025-02-28", resp.ProximoVencimento)

	_, err = svc.Renovar(ctx, id, "ana")
	assert.ErrorIs(t, err, service.ErrCicloJaQuitado)

	a, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	proximo, err := ciclo.Normalizar(a.DataRenovacao)
	require.NoError(t, err)
	assert.True(t, ciclo.Data(2025, time.February, 28).Equal(proximo))

	pagamentos, err := repo.ListPagamentos(ctx, id)
	require.NoError(t, err)
	assert.Len(t, pagamentos, 1)
}

func TestTransacao_BaixarEReabrir(t *testing.T) {
	db := abrirBanco(t)
	repo := repository.NewCobrancaRepository(db)
	clientes := repository.NewClienteRepository(db)
	assinaturas := repository.NewAssinaturaRepository(db)
	svc := service.NewCobrancaService(repo, clientes, assinaturas, service.CobrancaOptions{
		Clock: relogio(agoraTeste),
	})
	ctx := context.Background()

	cli := &model.Cliente{Nome: "Maria", Ativo: true}
	require.NoError(t, clientes.Create(ctx, cli))
	contrato := &model.Assinatura{ClienteID: cli.ID, Tipo: model.TipoSky, Valor: taxaTeste, Ativo: true}
	require.NoError(t, assinaturas.Create(ctx, contrato))
	chave := model.ChaveCiclo{ClienteID: &cli.ID, ContratoID: &contrato.ID, Tipo: model.TipoSky, Ano: 2025, Mes: 2}

	criada, err := svc.Criar(ctx, dto.CriarCobrancaRequest{
		ContratoID: lo.ToPtr(contrato.ID.String()), Tipo: "sky", Valor: taxaTeste, Vencimento: "31/01/2025",
	}, "ana")
	require.NoError(t, err)
	id := uuid.MustParse(criada.ID)

	baixa, err := svc.Baixar(ctx, id, baixaPix(), "ana")
	require.NoError(t, err)
	require.NotNil(t, baixa.ProximaCobranca)
	assert.Equal(t, "2025-02-28", *baixa.ProximaCobranca.Vencimento)

	ciclo2, err := repo.FindByCiclo(ctx, nil, chave)
	require.NoError(t, err)
	require.Len(t, ciclo2, 1)

	a, err := assinaturas.FindByID(ctx, contrato.ID)
	require.NoError(t, err)
	require.NotNil(t, a.UltimoVencimentoGerado)
	assert.True(t, ciclo.Data(2025, time.February, 28).Equal(*a.UltimoVencimentoGerado))

	// an older date never moves the marker back
	require.NoError(t, assinaturas.UpdateUltimoVencimento(ctx, nil, contrato.ID, ciclo.Data(2025, time.January, 31)))
	a, err = assinaturas.FindByID(ctx, contrato.ID)
	require.NoError(t, err)
	assert.True(t, ciclo.Data(2025, time.February, 28).Equal(*a.UltimoVencimentoGerado))

	_, err = svc.Baixar(ctx, id, baixaPix(), "ana")
	assert.ErrorIs(t, err, service.ErrConflito)

	reaberta, err := svc.Reabrir(ctx, id, dto.ReaberturaRequest{Status: model.StatusPendente}, "ana")
	require.NoError(t, err)
	require.NotNil(t, reaberta.ProximaExcluidaID)

	ciclo2, err = repo.FindByCiclo(ctx, nil, chave)
	require.NoError(t, err)
	assert.Empty(t, ciclo2)

	c, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendente, c.Status)
	assert.Nil(t, c.DataPagamento)
}

package importacao

import (
	"context"
	"strings"
	"testing"

	"mvsat/internal/ciclo"
	"mvsat/internal/infra"
	"mvsat/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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

const cobrancasLegadas = `[
  {"id": "cob-1", "clienteId": "cli-1", "contratoId": "ass-1", "tipo": "sky", "valor": 89.9,
   "dataVencimento": {"seconds": 1738324800, "nanoseconds": 0}, "status": "pendente",
   "historico": [{"tipo": "criacao", "data": "2025-01-02T10:30:00Z", "usuario": "ana"}]},
  {"id": "cob-2", "tipo": "TV BOX", "valor": "R$ 1.234,56",
   "dataVencimento": "31/01/2025", "dataPagamento": 1738411200000, "formaPagamento": "PIX"},
  {"id": "cob-3", "tipo": "SKY", "valor": 50, "dataVencimento": "vence todo dia 10",
   "anoReferencia": 2025, "mesReferencia": 3},
  {"id": "cob-4", "tipo": "NETFLIX", "valor": 10, "dataVencimento": "2025-01-10"},
  {"id": "cob-5", "tipo": "SKY", "valor": 10}
]`

func TestConverterCobranca_FormatosDeData(t *testing.T) {
	db := abrirBanco(t)
	resumo, err := NewImportador(db, false).Importar(context.Background(), ColecaoCobrancas, strings.NewReader(cobrancasLegadas))
	require.NoError(t, err)

	assert.Equal(t, 5, resumo.Lidos)
	assert.Equal(t, 3, resumo.Validos)
	assert.Equal(t, 3, resumo.Gravados)
	assert.Equal(t, 2, resumo.Rejeitados)
	require.Len(t, resumo.Erros, 2)
	assert.Contains(t, resumo.Erros[0], "NETFLIX")
	assert.Contains(t, resumo.Erros[1], "sem vencimento nem referência")

	var c1 model.Cobranca
	require.NoError(t, db.First(&c1, "id = ?", IDLegado(ColecaoCobrancas, "cob-1")).Error)
	assert.Equal(t, model.TipoSky, c1.Tipo)
	assert.Equal(t, model.StatusPendente, c1.Status)
	require.NotNil(t, c1.DataVencimento)
	assert.Equal(t, ciclo.Data(2025, 1, 31), c1.DataVencimento.UTC())
	assert.Equal(t, 2025, c1.AnoReferencia)
	assert.Equal(t, 1, c1.MesReferencia)
	require.NotNil(t, c1.ClienteID)
	assert.Equal(t, IDLegado(ColecaoClientes, "cli-1"), *c1.ClienteID)
	require.NotNil(t, c1.ContratoID)
	assert.Equal(t, IDLegado(ColecaoAssinaturas, "ass-1"), *c1.ContratoID)
	require.Len(t, c1.Historico, 1)
	assert.Equal(t, "CRIACAO", c1.Historico[0].Tipo)
	assert.Equal(t, 10, c1.Historico[0].Data.UTC().Hour())

	var c2 model.Cobranca
	require.NoError(t, db.First(&c2, "id = ?", IDLegado(ColecaoCobrancas, "cob-2")).Error)
	assert.Equal(t, model.TipoTvBox, c2.Tipo)
	assert.True(t, c2.Valor.Equal(decimal.RequireFromString("1234.56")), c2.Valor.String())
	assert.Equal(t, model.StatusPago, c2.Status, "payment date without status means paid")
	require.NotNil(t, c2.DataPagamento)
	assert.Equal(t, ciclo.Data(2025, 2, 1), c2.DataPagamento.UTC())
	require.NotNil(t, c2.FormaPagamento)
	assert.Equal(t, "pix", *c2.FormaPagamento)

	var c3 model.Cobranca
	require.NoError(t, db.First(&c3, "id = ?", IDLegado(ColecaoCobrancas, "cob-3")).Error)
	assert.Nil(t, c3.DataVencimento)
	require.NotNil(t, c3.VencimentoTexto)
	assert.Equal(t, "vence todo dia 10", *c3.VencimentoTexto)
	assert.Equal(t, 3, c3.MesReferencia)
}

func TestImportar_Reexecucao(t *testing.T) {
	db := abrirBanco(t)
	imp := NewImportador(db, false)
	ctx := context.Background()

	_, err := imp.Importar(ctx, ColecaoCobrancas, strings.NewReader(cobrancasLegadas))
	require.NoError(t, err)
	resumo, err := imp.Importar(ctx, ColecaoCobrancas, strings.NewReader(cobrancasLegadas))
	require.NoError(t, err)

	assert.Equal(t, 3, resumo.Validos)
	assert.Zero(t, resumo.Gravados)

	var total int64
	require.NoError(t, db.Model(&model.Cobranca{}).Count(&total).Error)
	assert.EqualValues(t, 3, total)
}

func TestImportar_DryRun(t *testing.T) {
	db := abrirBanco(t)
	resumo, err := NewImportador(db, true).Importar(context.Background(), ColecaoCobrancas, strings.NewReader(cobrancasLegadas))
	require.NoError(t, err)
	assert.Equal(t, 3, resumo.Validos)
	assert.Zero(t, resumo.Gravados)

	var total int64
	require.NoError(t, db.Model(&model.Cobranca{}).Count(&total).Error)
	assert.Zero(t, total)
}

func TestImportar_TvBoxEClientes(t *testing.T) {
	db := abrirBanco(t)
	imp := NewImportador(db, false)
	ctx := context.Background()

	clientes := `[{"id": "cli-1", "nome": " Maria ", "documento": "123.456.789-09", "uf": "sp"},
	              {"id": "cli-2", "nome": ""},
	              {"id": "cli-3", "nome": "Jose", "ativo": false}]`
	resumo, err := imp.Importar(ctx, ColecaoClientes, strings.NewReader(clientes))
	require.NoError(t, err)
	assert.Equal(t, 2, resumo.Gravados)

	var cli model.Cliente
	require.NoError(t, db.First(&cli, "id = ?", IDLegado(ColecaoClientes, "cli-1")).Error)
	assert.Equal(t, "Maria", cli.Nome)
	require.NotNil(t, cli.Documento)
	assert.Equal(t, "12345678909", *cli.Documento)
	assert.True(t, cli.Ativo)

	var inativo model.Cliente
	require.NoError(t, db.First(&inativo, "id = ?", IDLegado(ColecaoClientes, "cli-3")).Error)
	assert.False(t, inativo.Ativo, "inactive legacy cliente must stay inactive")

	boxes := `[
	  {"id": "box-1", "login": "box001", "senha": "x", "dataRenovacao": {"_seconds": 1738324800},
	   "equipamento1": {"identificador": "AA:BB", "clienteId": "cli-1"}},
	  {"id": "box-2", "login": "box002", "diaRenovacao": "15", "dataRenovacao": "2025-03-15", "ativo": false},
	  {"id": "box-3", "login": "box003"}
	]`
	resumo, err = imp.Importar(ctx, ColecaoTvBox, strings.NewReader(boxes))
	require.NoError(t, err)
	assert.Equal(t, 2, resumo.Gravados)
	assert.Equal(t, 1, resumo.Rejeitados)

	var b1 model.TvBoxAssinatura
	require.NoError(t, db.First(&b1, "id = ?", IDLegado(ColecaoTvBox, "box-1")).Error)
	assert.Equal(t, 31, b1.DiaRenovacao, "anchor taken from the renewal date")
	require.NotNil(t, b1.Slot1.ClienteID)
	assert.Equal(t, cli.ID, *b1.Slot1.ClienteID)

	var b2 model.TvBoxAssinatura
	require.NoError(t, db.First(&b2, "id = ?", IDLegado(ColecaoTvBox, "box-2")).Error)
	assert.Equal(t, 15, b2.DiaRenovacao)
	assert.False(t, b2.Ativo, "inactive legacy login must stay inactive")
}

func TestImportar_Assinaturas(t *testing.T) {
	db := abrirBanco(t)
	docs := `[
	  {"id": "ass-1", "clienteId": "cli-1", "tipo": "sky", "valor": "R$ 99,90", "cpf": "123.456.789-09",
	   "uf": "mg", "cep": "30130-010", "lastDueDateGenerated": "2025-03-10"},
	  {"id": "ass-2", "clienteId": "cli-1", "tipo": "TV BOX", "ativo": false},
	  {"id": "ass-3", "tipo": "SKY"},
	  {"id": "ass-4", "clienteId": "cli-2", "tipo": "netflix"}
	]`
	resumo, err := NewImportador(db, false).Importar(context.Background(), ColecaoAssinaturas, strings.NewReader(docs))
	require.NoError(t, err)
	assert.Equal(t, 2, resumo.Gravados)
	assert.Equal(t, 2, resumo.Rejeitados)

	var a1 model.Assinatura
	require.NoError(t, db.First(&a1, "id = ?", IDLegado(ColecaoAssinaturas, "ass-1")).Error)
	assert.Equal(t, IDLegado(ColecaoClientes, "cli-1"), a1.ClienteID)
	assert.True(t, a1.Valor.Equal(decimal.RequireFromString("99.90")), a1.Valor.String())
	assert.Equal(t, "12345678909", *a1.Documento)
	assert.Equal(t, "MG", *a1.UF)
	assert.Equal(t, "30130010", *a1.CEP)
	assert.True(t, a1.Ativo)
	require.NotNil(t, a1.UltimoVencimentoGerado)
	assert.Equal(t, ciclo.Data(2025, 3, 10), a1.UltimoVencimentoGerado.UTC())

	var a2 model.Assinatura
	require.NoError(t, db.First(&a2, "id = ?", IDLegado(ColecaoAssinaturas, "ass-2")).Error)
	assert.False(t, a2.Ativo, "inactive legacy contract must stay inactive")
}

func TestImportar_Erros(t *testing.T) {
	imp := NewImportador(nil, true)
	_, err := imp.Importar(context.Background(), "despesas", strings.NewReader(`[]`))
	assert.Error(t, err)
	_, err = imp.Importar(context.Background(), ColecaoClientes, strings.NewReader(`{"id": 1}`))
	assert.Error(t, err)
}

func TestIDLegado(t *testing.T) {
	u := uuid.New()
	assert.Equal(t, u, IDLegado(ColecaoClientes, u.String()))
	assert.Equal(t, IDLegado(ColecaoClientes, "abc"), IDLegado(ColecaoClientes, "abc"))
	assert.NotEqual(t, IDLegado(ColecaoClientes, "abc"), IDLegado(ColecaoCobrancas, "abc"))
}

func TestValorDe(t *testing.T) {
	casos := map[string]any{
		"89.9":    "89.90",
		"1234.56": "R$ 1.234,56",
		"10":      "10",
	}
	for esperado, entrada := range casos {
		v, err := valorDe(entrada)
		require.NoError(t, err)
		assert.True(t, v.Equal(decimal.RequireFromString(esperado)), "%v -> %s", entrada, v)
	}
	_, err := valorDe(nil)
	assert.Error(t, err)
	_, err = valorDe("abc")
	assert.Error(t, err)
}

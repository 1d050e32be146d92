// Package relatorio renders billing data as spreadsheet-friendly CSV.
package relatorio

import (
	"context"
	"fmt"
	"io"

	"mvsat/internal/dto"
	"mvsat/internal/model"
	"mvsat/internal/repository"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const tamanhoPagina = 100

// LinhaCobranca is one CSV record of the cobranças export.
type LinhaCobranca struct {
	ID                    string `csv:"id"`
	ClienteID             string `csv:"cliente_id"`
	ContratoID            string `csv:"contrato_id"`
	Tipo                  string `csv:"tipo"`
	Referencia            string `csv:"referencia"`
	Vencimento            string `csv:"vencimento"`
	Valor                 string `csv:"valor"`
	Status                string `csv:"status"`
	DataPagamento         string `csv:"data_pagamento"`
	FormaPagamento        string `csv:"forma_pagamento"`
	ValorPago             string `csv:"valor_pago"`
	Juros                 string `csv:"juros"`
	GeradaAutomaticamente bool   `csv:"gerada_automaticamente"`
}

// ExportarCobrancas writes every cobrança matching filter to w and returns the
// number of records. Page and Limit of filter are ignored.
func ExportarCobrancas(ctx context.Context, repo repository.CobrancaRepository, filter dto.CobrancaFilter, w io.Writer) (int, error) {
	var linhas []LinhaCobranca
	filter.Limit = tamanhoPagina
	for filter.Page = 1; ; filter.Page++ {
		cobrancas, total, err := repo.List(ctx, filter)
		if err != nil {
			return 0, err
		}
		for i := range cobrancas {
			linhas = append(linhas, linhaDe(&cobrancas[i]))
		}
		if len(cobrancas) < tamanhoPagina || int64(len(linhas)) >= total {
			break
		}
	}

	if err := gocsv.Marshal(linhas, w); err != nil {
		return 0, err
	}
	return len(linhas), nil
}

func linhaDe(c *model.Cobranca) LinhaCobranca {
	l := LinhaCobranca{
		ID:                    c.ID.String(),
		Tipo:                  c.Tipo,
		Referencia:            fmt.Sprintf("%04d-%02d", c.AnoReferencia, c.MesReferencia),
		Valor:                 c.Valor.StringFixed(2),
		Status:                c.Status,
		FormaPagamento:        lo.FromPtr(c.FormaPagamento),
		ValorPago:             valor(c.ValorPago),
		Juros:                 valor(c.Juros),
		GeradaAutomaticamente: c.GeradaAutomaticamente,
	}
	if c.ClienteID != nil {
		l.ClienteID = c.ClienteID.String()
	}
	if c.ContratoID != nil {
		l.ContratoID = c.ContratoID.String()
	}
	if c.DataVencimento != nil {
		l.Vencimento = c.DataVencimento.UTC().Format("2006-01-02")
	} else {
		l.Vencimento = lo.FromPtr(c.VencimentoTexto)
	}
	if c.DataPagamento != nil {
		l.DataPagamento = c.DataPagamento.UTC().Format("2006-01-02")
	}
	return l
}

func valor(v *decimal.Decimal) string {
	if v == nil {
		return ""
	}
	return v.StringFixed(2)
}

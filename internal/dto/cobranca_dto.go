package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CriarCobrancaRequest struct {
	ClienteID  *string         `json:"cliente_id"  validate:"omitempty,uuid"`
	ContratoID *string         `json:"contrato_id" validate:"omitempty,uuid"`
	Tipo       string          `json:"tipo"        validate:"required"`
	Valor      decimal.Decimal `json:"valor"       validate:"required,gt=0"`
	// Vencimento accepts "2025-01-31" or "31/01/2025"
	Vencimento string `json:"vencimento" validate:"required"`
	Status     string `json:"status"     validate:"omitempty,oneof=PENDENTE EM_DIAS VENCIDO"`
}

// BaixaRequest records the payment of a cobrança ("dar baixa").
type BaixaRequest struct {
	ValorPago      *decimal.Decimal `json:"valor_pago"`
	FormaPagamento string           `json:"forma_pagamento" validate:"required,oneof=pix dinheiro cartao boleto transferencia"`
	Juros          *decimal.Decimal `json:"juros"`
	// DataPagamento defaults to today when omitted
	DataPagamento *string `json:"data_pagamento"`
}

type ReaberturaRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDENTE EM_DIAS VENCIDO"`
}

type CobrancaFilter struct {
	Status     string
	ClienteID  string
	ContratoID string
	Tipo       string
	Ano        int
	Mes        int
	Page       int
	Limit      int
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type EventoCobrancaResponse struct {
	Tipo     string `json:"tipo"`
	Data     string `json:"data"`
	Usuario  string `json:"usuario"`
	Detalhes string `json:"detalhes,omitempty"`
}

type CobrancaResponse struct {
	ID                    string                   `json:"id"`
	ClienteID             *string                  `json:"cliente_id"`
	ContratoID            *string                  `json:"contrato_id"`
	Tipo                  string                   `json:"tipo"`
	TipoRotulo            string                   `json:"tipo_rotulo"`
	Valor                 decimal.Decimal          `json:"valor"`
	Vencimento            *string                  `json:"vencimento"` // YYYY-MM-DD
	DataPagamento         *string                  `json:"data_pagamento"`
	Status                string                   `json:"status"`
	FormaPagamento        *string                  `json:"forma_pagamento"`
	ValorPago             *decimal.Decimal         `json:"valor_pago"`
	Juros                 *decimal.Decimal         `json:"juros"`
	GeradaAutomaticamente bool                     `json:"gerada_automaticamente"`
	CobrancaOrigemID      *string                  `json:"cobranca_origem_id"`
	AnoReferencia         int                      `json:"ano_referencia"`
	MesReferencia         int                      `json:"mes_referencia"`
	Historico             []EventoCobrancaResponse `json:"historico"`
}

type BaixaResponse struct {
	Cobranca        CobrancaResponse  `json:"cobranca"`
	ProximaCobranca *CobrancaResponse `json:"proxima_cobranca"`
	// ProximaJaExistia is true when the next cycle already had an invoice and
	// nothing was generated.
	ProximaJaExistia bool `json:"proxima_ja_existia"`
}

type ReaberturaResponse struct {
	Cobranca          CobrancaResponse `json:"cobranca"`
	ProximaExcluidaID *string          `json:"proxima_excluida_id"`
}

type CobrancaListResponse struct {
	Data  []CobrancaResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SlotEquipamentoRequest struct {
	Identificador *string `json:"identificador" validate:"omitempty,max=64"`
	ClienteID     *string `json:"cliente_id"    validate:"omitempty,uuid"`
}

type CriarTvBoxRequest struct {
	Login         string                 `json:"login"          validate:"required,min=3,max=100"`
	Senha         string                 `json:"senha"          validate:"required,min=3"`
	Slot1         SlotEquipamentoRequest `json:"slot1"`
	Slot2         SlotEquipamentoRequest `json:"slot2"`
	DiaRenovacao  int                    `json:"dia_renovacao"  validate:"required,min=1,max=31"`
	DataRenovacao string                 `json:"data_renovacao" validate:"required"`
	Observacoes   *string                `json:"observacoes"`
}

type AtualizarTvBoxRequest struct {
	Senha         *string                 `json:"senha"          validate:"omitempty,min=3"`
	Slot1         *SlotEquipamentoRequest `json:"slot1"`
	Slot2         *SlotEquipamentoRequest `json:"slot2"`
	DiaRenovacao  *int                    `json:"dia_renovacao"  validate:"omitempty,min=1,max=31"`
	DataRenovacao *string                 `json:"data_renovacao"`
	Ativo         *bool                   `json:"ativo"`
	Observacoes   *string                 `json:"observacoes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SlotEquipamentoResponse struct {
	Identificador *string `json:"identificador"`
	ClienteID     *string `json:"cliente_id"`
}

type TvBoxResponse struct {
	ID            string                  `json:"id"`
	Login         string                  `json:"login"`
	Senha         string                  `json:"senha"`
	Slot1         SlotEquipamentoResponse `json:"slot1"`
	Slot2         SlotEquipamentoResponse `json:"slot2"`
	DiaRenovacao  int                     `json:"dia_renovacao"`
	DataRenovacao *string                 `json:"data_renovacao"` // YYYY-MM-DD
	Ativo         bool                    `json:"ativo"`
	Observacoes   *string                 `json:"observacoes"`
}

// RenovacaoResponse is the outcome of one settled renewal cycle.
type RenovacaoResponse struct {
	PagamentoID       string          `json:"pagamento_id"`
	Competencia       string          `json:"competencia"`
	Valor             decimal.Decimal `json:"valor"`
	PagoEm            string          `json:"pago_em"`
	ProximoVencimento string          `json:"proximo_vencimento"`
}

type PagamentoRenovacaoResponse struct {
	ID             string          `json:"id"`
	Competencia    string          `json:"competencia"`
	Valor          decimal.Decimal `json:"valor"`
	DataVencimento string          `json:"data_vencimento"`
	DataPagamento  string          `json:"data_pagamento"`
	Usuario        string          `json:"usuario"`
}

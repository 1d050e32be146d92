package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TipoRenovacaoTvBox prefixes the idempotency key of TV-box renewal payments.
const TipoRenovacaoTvBox = "TVBOX"

// SlotEquipamento is one of the two devices a TV-box login may run on.
type SlotEquipamento struct {
	Identificador *string    `gorm:"type:varchar(64)"` // MAC or serial
	ClienteID     *uuid.UUID `gorm:"type:uuid"`
}

// TvBoxAssinatura holds the credentials of one TV-box login and its renewal
// schedule. DiaRenovacao is the anchor day (1..31); DataRenovacao is the
// current renewal date, stored as a canonical noon-UTC date.
type TvBoxAssinatura struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Login         string          `gorm:"not null;uniqueIndex"`
	Senha         string          `gorm:"not null"`
	Slot1         SlotEquipamento `gorm:"embedded;embeddedPrefix:slot1_"`
	Slot2         SlotEquipamento `gorm:"embedded;embeddedPrefix:slot2_"`
	DiaRenovacao  int             `gorm:"not null"`
	DataRenovacao *time.Time      `gorm:"index"`
	Ativo         bool            `gorm:"not null"`
	Observacoes   *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (TvBoxAssinatura) TableName() string { return "tvbox_assinaturas" }

func (a *TvBoxAssinatura) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// PagamentoRenovacao records one settled renewal cycle. The primary key is the
// deterministic "{tipo}__{assinaturaID}__{competencia}" so that a cycle can be
// charged at most once.
type PagamentoRenovacao struct {
	ID             string          `gorm:"type:varchar(120);primaryKey"`
	Tipo           string          `gorm:"type:varchar(20);not null"`
	AssinaturaID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Competencia    string          `gorm:"type:varchar(7);not null;index"` // YYYY-MM
	Valor          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DataVencimento time.Time       `gorm:"not null"`
	DataPagamento  time.Time       `gorm:"not null"`
	Usuario        string          `gorm:"not null"`
	CreatedAt      time.Time
}

func (PagamentoRenovacao) TableName() string { return "tvbox_pagamentos" }

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Assinatura is a cliente's recurring service contract. Cobranças reference it
// through ContratoID. UltimoVencimentoGerado only feeds the listing screens;
// the rollover never reads it.
type Assinatura struct {
	ID                     uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ClienteID              uuid.UUID       `gorm:"type:uuid;not null;index"`
	Tipo                   string          `gorm:"type:varchar(10);not null"`
	Valor                  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	NumeroContrato         *string         `gorm:"type:varchar(40);index"` // operator contract / smart card
	Titular                *string
	Documento              *string `gorm:"type:varchar(20)"`
	Endereco               *string
	Bairro                 *string
	Cidade                 *string
	UF                     *string `gorm:"type:varchar(2);column:uf"`
	CEP                    *string `gorm:"type:varchar(8);column:cep"`
	Ativo                  bool    `gorm:"not null"`
	UltimoVencimentoGerado *time.Time
	Observacoes            *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (Assinatura) TableName() string { return "assinaturas" }

func (a *Assinatura) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

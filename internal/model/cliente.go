package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cliente is a reseller customer.
type Cliente struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nome      string    `gorm:"not null;index"`
	Documento *string   `gorm:"type:varchar(20);index"` // CPF / CNPJ
	Email     *string
	Telefone  *string `gorm:"type:varchar(30)"`
	Endereco  *string
	Cidade    *string
	UF        *string `gorm:"type:varchar(2);column:uf"`
	Ativo     bool    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Cliente) TableName() string { return "clientes" }

func (c *Cliente) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

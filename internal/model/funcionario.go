package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Papéis de funcionário.
const (
	PapelAdministrador = "administrador"
	PapelFinanceiro    = "financeiro"
	PapelAtendente     = "atendente"
)

// Funcionario is an employee allowed into the back office.
// Papel: "administrador" | "financeiro" | "atendente"
type Funcionario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	Nome         string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	Papel        string    `gorm:"type:varchar(20);not null"`
	Ativo        bool      `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Funcionario) TableName() string { return "funcionarios" }

func (f *Funcionario) BeforeCreate(_ *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

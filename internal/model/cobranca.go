package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Status de cobrança.
const (
	StatusPendente = "PENDENTE"
	StatusEmDias   = "EM_DIAS"
	StatusVencido  = "VENCIDO"
	StatusPago     = "PAGO"
)

// Tipos de serviço cobrados.
const (
	TipoSky   = "SKY"
	TipoTvBox = "TV_BOX"
	TipoCombo = "COMBO"
)

// Eventos do histórico de uma cobrança.
const (
	EventoCriacao            = "CRIACAO"
	EventoBaixa              = "BAIXA"
	EventoReabertura         = "REABERTURA"
	EventoGeracaoAutomatica  = "GERACAO_AUTOMATICA"
	EventoExclusaoAutomatica = "EXCLUSAO_AUTOMATICA"
)

// EventoCobranca is one append-only entry of a cobrança's history.
type EventoCobranca struct {
	Tipo     string    `json:"tipo"`
	Data     time.Time `json:"data"`
	Usuario  string    `json:"usuario"`
	Detalhes string    `json:"detalhes,omitempty"`
}

// Cobranca is one billing cycle's charge for a cliente/contrato.
// Status: "PENDENTE" | "EM_DIAS" | "VENCIDO" | "PAGO"
type Cobranca struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ClienteID  *uuid.UUID      `gorm:"type:uuid;index:idx_cobrancas_ciclo,priority:1"`
	ContratoID *uuid.UUID      `gorm:"type:uuid;index:idx_cobrancas_ciclo,priority:2"` // assinaturas.id
	Tipo       string          `gorm:"type:varchar(10);not null;index:idx_cobrancas_ciclo,priority:3"`
	Valor      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// DataVencimento is the structured due date; VencimentoTexto keeps the
	// free text typed in the legacy system ("31/01/2025", "2025-01-31").
	DataVencimento  *time.Time
	VencimentoTexto *string `gorm:"type:varchar(40)"`
	DataPagamento   *time.Time
	Status          string           `gorm:"type:varchar(10);not null;default:'PENDENTE';index"`
	FormaPagamento  *string          `gorm:"type:varchar(30)"`
	ValorPago       *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Juros           *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// GeradaAutomaticamente marks invoices created by the rollover; only those
	// may be removed when the originating cobrança is reopened.
	GeradaAutomaticamente bool       `gorm:"not null;default:false"`
	CobrancaOrigemID      *uuid.UUID `gorm:"type:uuid"`
	AnoReferencia         int        `gorm:"not null;index:idx_cobrancas_ciclo,priority:4"`
	MesReferencia         int        `gorm:"not null;index:idx_cobrancas_ciclo,priority:5"`
	Historico             datatypes.JSONSlice[EventoCobranca]
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (Cobranca) TableName() string { return "cobrancas" }

func (c *Cobranca) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// RegistrarEvento appends to the history; entries are never rewritten.
func (c *Cobranca) RegistrarEvento(tipo, usuario, detalhes string, em time.Time) {
	c.Historico = append(c.Historico, EventoCobranca{
		Tipo:     tipo,
		Data:     em,
		Usuario:  usuario,
		Detalhes: detalhes,
	})
}

// LimparPagamento clears every payment field set by a baixa.
func (c *Cobranca) LimparPagamento() {
	c.DataPagamento = nil
	c.FormaPagamento = nil
	c.ValorPago = nil
	c.Juros = nil
}

// NormalizarTipo maps the spellings found in the legacy data to a tipo code.
// Unknown values return "".
func NormalizarTipo(s string) string {
	k := strings.ToUpper(strings.TrimSpace(s))
	k = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(k)
	switch k {
	case "SKY":
		return TipoSky
	case "TVBOX", "BOX":
		return TipoTvBox
	case "COMBO", "SKY+TVBOX", "SKYTVBOX":
		return TipoCombo
	}
	return ""
}

// RotuloTipo is the display label of a tipo code.
func RotuloTipo(tipo string) string {
	switch tipo {
	case TipoSky:
		return "SKY"
	case TipoTvBox:
		return "TV Box"
	case TipoCombo:
		return "Combo"
	}
	return tipo
}

// StatusAberto reports whether s is a valid non-paid status.
func StatusAberto(s string) bool {
	return s == StatusPendente || s == StatusEmDias || s == StatusVencido
}

// ChaveCiclo identifies one billing cycle of a cliente/contrato/tipo.
type ChaveCiclo struct {
	ClienteID  *uuid.UUID
	ContratoID *uuid.UUID
	Tipo       string
	Ano        int
	Mes        int
}

// ChaveProximoCiclo is the key of the cycle c rolls over into.
func (c *Cobranca) ChaveProximoCiclo(ano, mes int) ChaveCiclo {
	return ChaveCiclo{
		ClienteID:  c.ClienteID,
		ContratoID: c.ContratoID,
		Tipo:       c.Tipo,
		Ano:        ano,
		Mes:        mes,
	}
}

// String is used as the distributed lock key of the cycle.
func (k ChaveCiclo) String() string {
	cliente, contrato := "-", "-"
	if k.ClienteID != nil {
		cliente = k.ClienteID.String()
	}
	if k.ContratoID != nil {
		contrato = k.ContratoID.String()
	}
	return fmt.Sprintf("%s:%s:%s:%04d-%02d", cliente, contrato, k.Tipo, k.Ano, k.Mes)
}

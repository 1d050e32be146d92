package dto

import "github.com/shopspring/decimal"

type CriarAssinaturaRequest struct {
	ClienteID      string          `json:"cliente_id"      validate:"required,uuid"`
	Tipo           string          `json:"tipo"            validate:"required"`
	Valor          decimal.Decimal `json:"valor"`
	NumeroContrato *string         `json:"numero_contrato" validate:"omitempty,max=40"`
	Titular        *string         `json:"titular"         validate:"omitempty,max=150"`
	Documento      *string         `json:"documento"       validate:"omitempty,min=11,max=18"`
	Endereco       *string         `json:"endereco"`
	Bairro         *string         `json:"bairro"`
	Cidade         *string         `json:"cidade"`
	UF             *string         `json:"uf"              validate:"omitempty,len=2"`
	CEP            *string         `json:"cep"             validate:"omitempty,min=8,max=9"`
	Observacoes    *string         `json:"observacoes"`
}

// AtualizarAssinaturaRequest changes only the fields sent.
type AtualizarAssinaturaRequest struct {
	Valor          *decimal.Decimal `json:"valor"`
	NumeroContrato *string          `json:"numero_contrato" validate:"omitempty,max=40"`
	Titular        *string          `json:"titular"         validate:"omitempty,max=150"`
	Endereco       *string          `json:"endereco"`
	Bairro         *string          `json:"bairro"`
	Cidade         *string          `json:"cidade"`
	UF             *string          `json:"uf"              validate:"omitempty,len=2"`
	CEP            *string          `json:"cep"             validate:"omitempty,min=8,max=9"`
	Ativo          *bool            `json:"ativo"`
	Observacoes    *string          `json:"observacoes"`
}

type AssinaturaFilter struct {
	ClienteID     string
	SomenteAtivas bool
	Page          int
	Limit         int
}

type AssinaturaResponse struct {
	ID                     string          `json:"id"`
	ClienteID              string          `json:"cliente_id"`
	Tipo                   string          `json:"tipo"`
	TipoRotulo             string          `json:"tipo_rotulo"`
	Valor                  decimal.Decimal `json:"valor"`
	NumeroContrato         *string         `json:"numero_contrato"`
	Titular                *string         `json:"titular"`
	Documento              *string         `json:"documento"`
	Endereco               *string         `json:"endereco"`
	Bairro                 *string         `json:"bairro"`
	Cidade                 *string         `json:"cidade"`
	UF                     *string         `json:"uf"`
	CEP                    *string         `json:"cep"`
	Ativo                  bool            `json:"ativo"`
	UltimoVencimentoGerado *string         `json:"ultimo_vencimento_gerado"` // YYYY-MM-DD
	Observacoes            *string         `json:"observacoes"`
}

type AssinaturaListResponse struct {
	Data  []AssinaturaResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

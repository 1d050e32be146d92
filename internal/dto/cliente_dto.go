package dto

type CriarClienteRequest struct {
	Nome      string  `json:"nome"      validate:"required,min=2,max=150"`
	Documento *string `json:"documento" validate:"omitempty,min=11,max=18"`
	Email     *string `json:"email"     validate:"omitempty,email"`
	Telefone  *string `json:"telefone"  validate:"omitempty,max=30"`
	Endereco  *string `json:"endereco"`
	Cidade    *string `json:"cidade"`
	UF        *string `json:"uf"        validate:"omitempty,len=2"`
}

type AtualizarClienteRequest struct {
	Nome     string  `json:"nome"     validate:"omitempty,min=2,max=150"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	Telefone *string `json:"telefone" validate:"omitempty,max=30"`
	Endereco *string `json:"endereco"`
	Cidade   *string `json:"cidade"`
	UF       *string `json:"uf"       validate:"omitempty,len=2"`
}

type ClienteResponse struct {
	ID        string  `json:"id"`
	Nome      string  `json:"nome"`
	Documento *string `json:"documento"`
	Email     *string `json:"email"`
	Telefone  *string `json:"telefone"`
	Endereco  *string `json:"endereco"`
	Cidade    *string `json:"cidade"`
	UF        *string `json:"uf"`
	Ativo     bool    `json:"ativo"`
}

type ClienteListResponse struct {
	Data  []ClienteResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

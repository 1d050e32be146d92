package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CriarFuncionarioRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Nome     string `json:"nome"     validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,min=8"`
	Papel    string `json:"papel"    validate:"required,oneof=administrador financeiro atendente"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type FuncionarioResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Nome  string `json:"nome"`
	Papel string `json:"papel"`
	Ativo bool   `json:"ativo"`
}

type LoginResponse struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	TokenType    string              `json:"token_type"`
	ExpiresIn    int                 `json:"expires_in"` // seconds
	User         FuncionarioResponse `json:"user"`
}

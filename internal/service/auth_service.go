package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"mvsat/internal/config"
	"mvsat/internal/dto"
	"mvsat/internal/model"
	"mvsat/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Token kinds carried in the "tipo" claim. Only access tokens open protected
// routes; only refresh tokens are accepted by Refresh.
const (
	TokenAcesso   = "access"
	TokenRenovado = "refresh"
)

const custoBcrypt = 12

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	CriarFuncionario(ctx context.Context, req dto.CriarFuncionarioRequest) (*dto.FuncionarioResponse, error)
	ListarFuncionarios(ctx context.Context) ([]dto.FuncionarioResponse, error)
	DesativarFuncionario(ctx context.Context, id uuid.UUID) error
}

type authService struct {
	repo repository.FuncionarioRepository
	cfg  *config.Config
}

func NewAuthService(repo repository.FuncionarioRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	f, err := s.repo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, falha(ErrCredenciais, "credenciais inválidas")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(f.PasswordHash), []byte(req.Password)); err != nil {
		return nil, falha(ErrCredenciais, "credenciais inválidas")
	}
	return s.emitir(f)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, falha(ErrCredenciais, "refresh token inválido ou expirado")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["tipo"] != TokenRenovado {
		return nil, falha(ErrCredenciais, "refresh token inválido")
	}
	idStr, _ := claims["funcionario_id"].(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, falha(ErrCredenciais, "token mal formado")
	}

	f, err := s.repo.FindByID(ctx, id)
	if err != nil || !f.Ativo {
		return nil, falha(ErrCredenciais, "funcionário não encontrado ou inativo")
	}
	return s.emitir(f)
}

func (s *authService) CriarFuncionario(ctx context.Context, req dto.CriarFuncionarioRequest) (*dto.FuncionarioResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), custoBcrypt)
	if err != nil {
		return nil, err
	}
	f := &model.Funcionario{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Nome:         req.Nome,
		PasswordHash: string(hash),
		Papel:        req.Papel,
		Ativo:        true,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, falha(ErrConflito, "e-mail %q já cadastrado", f.Email)
		}
		return nil, err
	}
	resp := funcionarioToResponse(*f)
	return &resp, nil
}

func (s *authService) ListarFuncionarios(ctx context.Context) ([]dto.FuncionarioResponse, error) {
	fs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(fs, func(f model.Funcionario, _ int) dto.FuncionarioResponse {
		return funcionarioToResponse(f)
	}), nil
}

func (s *authService) DesativarFuncionario(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return naoEncontrado(err, "funcionário %s não encontrado", id)
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *authService) emitir(f *model.Funcionario) (*dto.LoginResponse, error) {
	access, err := s.gerarToken(f, TokenAcesso, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refresh, err := s.gerarToken(f, TokenRenovado, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         funcionarioToResponse(*f),
	}, nil
}

func (s *authService) gerarToken(f *model.Funcionario, tipo string, duracao time.Duration) (string, error) {
	agora := time.Now()
	claims := jwt.MapClaims{
		"funcionario_id": f.ID.String(),
		"email":          f.Email,
		"papel":          f.Papel,
		"tipo":           tipo,
		"exp":            agora.Add(duracao).Unix(),
		"iat":            agora.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func funcionarioToResponse(f model.Funcionario) dto.FuncionarioResponse {
	return dto.FuncionarioResponse{
		ID:    f.ID.String(),
		Email: f.Email,
		Nome:  f.Nome,
		Papel: f.Papel,
		Ativo: f.Ativo,
	}
}

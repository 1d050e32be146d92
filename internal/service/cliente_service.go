package service

import (
	"context"
	"strings"

	"mvsat/internal/dto"
	"mvsat/internal/model"
	"mvsat/internal/repository"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type ClienteService interface {
	Criar(ctx context.Context, req dto.CriarClienteRequest) (*dto.ClienteResponse, error)
	ObterPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, busca string, page, limit int) (*dto.ClienteListResponse, error)
	Atualizar(ctx context.Context, id uuid.UUID, req dto.AtualizarClienteRequest) (*dto.ClienteResponse, error)
	Desativar(ctx context.Context, id uuid.UUID) error
}

type clienteService struct {
	repo repository.ClienteRepository
}

func NewClienteService(repo repository.ClienteRepository) ClienteService {
	return &clienteService{repo: repo}
}

func (s *clienteService) Criar(ctx context.Context, req dto.CriarClienteRequest) (*dto.ClienteResponse, error) {
	nome := strings.TrimSpace(req.Nome)
	if nome == "" {
		return nil, falha(ErrValidacao, "nome é obrigatório")
	}
	c := &model.Cliente{
		Nome:      nome,
		Documento: somenteDigitos(req.Documento),
		Email:     req.Email,
		Telefone:  req.Telefone,
		Endereco:  req.Endereco,
		Cidade:    req.Cidade,
		UF:        maiusculas(req.UF),
		Ativo:     true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	resp := clienteToResponse(*c)
	return &resp, nil
}

func (s *clienteService) ObterPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, naoEncontrado(err, "cliente %s não encontrado", id)
	}
	resp := clienteToResponse(*c)
	return &resp, nil
}

func (s *clienteService) Listar(ctx context.Context, busca string, page, limit int) (*dto.ClienteListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	clientes, total, err := s.repo.List(ctx, busca, page, limit)
	if err != nil {
		return nil, err
	}
	return &dto.ClienteListResponse{
		Data:  lo.Map(clientes, func(c model.Cliente, _ int) dto.ClienteResponse { return clienteToResponse(c) }),
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

func (s *clienteService) Atualizar(ctx context.Context, id uuid.UUID, req dto.AtualizarClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, naoEncontrado(err, "cliente %s não encontrado", id)
	}
	if nome := strings.TrimSpace(req.Nome); nome != "" {
		c.Nome = nome
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if req.Telefone != nil {
		c.Telefone = req.Telefone
	}
	if req.Endereco != nil {
		c.Endereco = req.Endereco
	}
	if req.Cidade != nil {
		c.Cidade = req.Cidade
	}
	if req.UF != nil {
		c.UF = maiusculas(req.UF)
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	resp := clienteToResponse(*c)
	return &resp, nil
}

// Desativar hides the cliente from listings. Its cobranças are untouched.
func (s *clienteService) Desativar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return naoEncontrado(err, "cliente %s não encontrado", id)
	}
	return s.repo.SoftDelete(ctx, id)
}

// somenteDigitos strips the CPF/CNPJ punctuation.
func somenteDigitos(s *string) *string {
	if s == nil {
		return nil
	}
	d := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, *s)
	if d == "" {
		return nil
	}
	return &d
}

func maiusculas(s *string) *string {
	if s == nil {
		return nil
	}
	u := strings.ToUpper(strings.TrimSpace(*s))
	return &u
}

func clienteToResponse(c model.Cliente) dto.ClienteResponse {
	return dto.ClienteResponse{
		ID:        c.ID.String(),
		Nome:      c.Nome,
		Documento: c.Documento,
		Email:     c.Email,
		Telefone:  c.Telefone,
		Endereco:  c.Endereco,
		Cidade:    c.Cidade,
		UF:        c.UF,
		Ativo:     c.Ativo,
	}
}

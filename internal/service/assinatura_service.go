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

type AssinaturaService interface {
	Criar(ctx context.Context, req dto.CriarAssinaturaRequest) (*dto.AssinaturaResponse, error)
	ObterPorID(ctx context.Context, id uuid.UUID) (*dto.AssinaturaResponse, error)
	Listar(ctx context.Context, filter dto.AssinaturaFilter) (*dto.AssinaturaListResponse, error)
	Atualizar(ctx context.Context, id uuid.UUID, req dto.AtualizarAssinaturaRequest) (*dto.AssinaturaResponse, error)
	Desativar(ctx context.Context, id uuid.UUID) error
}

type assinaturaService struct {
	repo     repository.AssinaturaRepository
	clientes repository.ClienteRepository
}

func NewAssinaturaService(repo repository.AssinaturaRepository, clientes repository.ClienteRepository) AssinaturaService {
	return &assinaturaService{repo: repo, clientes: clientes}
}

func (s *assinaturaService) Criar(ctx context.Context, req dto.CriarAssinaturaRequest) (*dto.AssinaturaResponse, error) {
	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, falha(ErrValidacao, "cliente_id inválido")
	}
	if _, err := s.clientes.FindByID(ctx, clienteID); err != nil {
		return nil, naoEncontrado(err, "cliente %s não encontrado", clienteID)
	}
	tipo := model.NormalizarTipo(req.Tipo)
	if tipo == "" {
		return nil, falha(ErrValidacao, "tipo %q inválido: use SKY, TV_BOX ou COMBO", req.Tipo)
	}
	if req.Valor.IsNegative() {
		return nil, falha(ErrValidacao, "valor não pode ser negativo")
	}

	a := &model.Assinatura{
		ClienteID:      clienteID,
		Tipo:           tipo,
		Valor:          req.Valor,
		NumeroContrato: aparado(req.NumeroContrato),
		Titular:        aparado(req.Titular),
		Documento:      somenteDigitos(req.Documento),
		Endereco:       req.Endereco,
		Bairro:         req.Bairro,
		Cidade:         req.Cidade,
		UF:             maiusculas(req.UF),
		CEP:            somenteDigitos(req.CEP),
		Ativo:          true,
		Observacoes:    req.Observacoes,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	resp := assinaturaToResponse(a)
	return &resp, nil
}

func (s *assinaturaService) ObterPorID(ctx context.Context, id uuid.UUID) (*dto.AssinaturaResponse, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, naoEncontrado(err, "assinatura %s não encontrada", id)
	}
	resp := assinaturaToResponse(a)
	return &resp, nil
}

func (s *assinaturaService) Listar(ctx context.Context, filter dto.AssinaturaFilter) (*dto.AssinaturaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.ClienteID != "" {
		if _, err := uuid.Parse(filter.ClienteID); err != nil {
			return nil, falha(ErrValidacao, "cliente_id inválido")
		}
	}
	assinaturas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.AssinaturaListResponse{
		Data: lo.Map(assinaturas, func(a model.Assinatura, _ int) dto.AssinaturaResponse {
			return assinaturaToResponse(&a)
		}),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *assinaturaService) Atualizar(ctx context.Context, id uuid.UUID, req dto.AtualizarAssinaturaRequest) (*dto.AssinaturaResponse, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, naoEncontrado(err, "assinatura %s não encontrada", id)
	}
	if req.Valor != nil {
		if req.Valor.IsNegative() {
			return nil, falha(ErrValidacao, "valor não pode ser negativo")
		}
		a.Valor = *req.Valor
	}
	if req.NumeroContrato != nil {
		a.NumeroContrato = aparado(req.NumeroContrato)
	}
	if req.Titular != nil {
		a.Titular = aparado(req.Titular)
	}
	if req.Endereco != nil {
		a.Endereco = req.Endereco
	}
	if req.Bairro != nil {
		a.Bairro = req.Bairro
	}
	if req.Cidade != nil {
		a.Cidade = req.Cidade
	}
	if req.UF != nil {
		a.UF = maiusculas(req.UF)
	}
	if req.CEP != nil {
		a.CEP = somenteDigitos(req.CEP)
	}
	if req.Ativo != nil {
		a.Ativo = *req.Ativo
	}
	if req.Observacoes != nil {
		a.Observacoes = req.Observacoes
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	resp := assinaturaToResponse(a)
	return &resp, nil
}

// Desativar ends the contract. Existing cobranças keep pointing at it.
func (s *assinaturaService) Desativar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return naoEncontrado(err, "assinatura %s não encontrada", id)
	}
	return s.repo.SoftDelete(ctx, id)
}

func aparado(s *string) *string {
	if s == nil {
		return nil
	}
	return lo.EmptyableToPtr(strings.TrimSpace(*s))
}

func assinaturaToResponse(a *model.Assinatura) dto.AssinaturaResponse {
	return dto.AssinaturaResponse{
		ID:                     a.ID.String(),
		ClienteID:              a.ClienteID.String(),
		Tipo:                   a.Tipo,
		TipoRotulo:             model.RotuloTipo(a.Tipo),
		Valor:                  a.Valor,
		NumeroContrato:         a.NumeroContrato,
		Titular:                a.Titular,
		Documento:              a.Documento,
		Endereco:               a.Endereco,
		Bairro:                 a.Bairro,
		Cidade:                 a.Cidade,
		UF:                     a.UF,
		CEP:                    a.CEP,
		Ativo:                  a.Ativo,
		UltimoVencimentoGerado: formatarData(a.UltimoVencimentoGerado),
		Observacoes:            a.Observacoes,
	}
}

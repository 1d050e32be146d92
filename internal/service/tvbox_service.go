package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mvsat/internal/ciclo"
	"mvsat/internal/dto"
	"mvsat/internal/metrics"
	"mvsat/internal/model"
	"mvsat/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TvBoxService interface {
	Criar(ctx context.Context, req dto.CriarTvBoxRequest) (*dto.TvBoxResponse, error)
	ObterPorID(ctx context.Context, id uuid.UUID) (*dto.TvBoxResponse, error)
	Listar(ctx context.Context, somenteAtivas bool) ([]dto.TvBoxResponse, error)
	Atualizar(ctx context.Context, id uuid.UUID, req dto.AtualizarTvBoxRequest) (*dto.TvBoxResponse, error)
	Renovar(ctx context.Context, id uuid.UUID, usuario string) (*dto.RenovacaoResponse, error)
	ListarPagamentos(ctx context.Context, id uuid.UUID) ([]dto.PagamentoRenovacaoResponse, error)
}

type TvBoxOptions struct {
	Taxa     decimal.Decimal // fee charged per renewal
	Metrics  *metrics.Metrics
	Location *time.Location   // business timezone for the competência, UTC when nil
	Clock    func() time.Time // time.Now when nil
}

type tvboxService struct {
	repo    repository.TvBoxRepository
	taxa    decimal.Decimal
	metrics *metrics.Metrics
	loc     *time.Location
	agora   func() time.Time
}

func NewTvBoxService(repo repository.TvBoxRepository, opts TvBoxOptions) TvBoxService {
	s := &tvboxService{
		repo:    repo,
		taxa:    opts.Taxa,
		metrics: opts.Metrics,
		loc:     opts.Location,
		agora:   opts.Clock,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.agora == nil {
		s.agora = time.Now
	}
	return s
}

// ChaveRenovacao is the idempotency key of one renewal cycle.
func ChaveRenovacao(tipo string, assinaturaID uuid.UUID, competencia string) string {
	return fmt.Sprintf("%s__%s__%s", tipo, assinaturaID, competencia)
}

// ── Renovar ───────────────────────────────────────────────────────────────────
// One transaction:
//   1. Lock the assinatura row; validate anchor day and renewal date
//   2. competência = current year-month in the business timezone
//   3. Key "TVBOX__{id}__{competência}" already paid → ErrCicloJaQuitado
//   4. Insert payment (vencimento = current renewal date) and advance the
//      renewal date from the stored anchor
// A concurrent duplicate that slips past step 3 hits the primary key and is
// reported the same way.

func (s *tvboxService) Renovar(ctx context.Context, id uuid.UUID, usuario string) (*dto.RenovacaoResponse, error) {
	agora := s.agora()
	competencia := ciclo.Competencia(agora, s.loc)
	chave := ChaveRenovacao(model.TipoRenovacaoTvBox, id, competencia)

	var resp *dto.RenovacaoResponse
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		a, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return naoEncontrado(err, "assinatura %s não encontrada", id)
		}
		if a.DiaRenovacao < 1 || a.DiaRenovacao > 31 {
			return falha(ErrValidacao, "assinatura %s sem dia de renovação válido (1-31)", id)
		}
		venc, err := ciclo.Normalizar(a.DataRenovacao)
		if err != nil {
			return falha(ErrValidacao, "assinatura %s sem data de renovação", id)
		}
		if !a.Ativo {
			return falha(ErrConflito, "assinatura %s está inativa", id)
		}

		if _, err := s.repo.FindPagamento(ctx, tx, chave); err == nil {
			return falha(ErrCicloJaQuitado, "renovação de %s já quitada para a competência %s", a.Login, competencia)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		pagamento := &model.PagamentoRenovacao{
			ID:             chave,
			Tipo:           model.TipoRenovacaoTvBox,
			AssinaturaID:   a.ID,
			Competencia:    competencia,
			Valor:          s.taxa,
			DataVencimento: venc,
			DataPagamento:  agora.UTC(),
			Usuario:        usuario,
		}
		if err := s.repo.CreatePagamento(ctx, tx, pagamento); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return falha(ErrCicloJaQuitado, "renovação de %s já quitada para a competência %s", a.Login, competencia)
			}
			return err
		}

		proximo := ciclo.ProximoVencimento(venc, a.DiaRenovacao)
		if err := s.repo.UpdateDataRenovacao(ctx, tx, a.ID, proximo); err != nil {
			return err
		}

		resp = &dto.RenovacaoResponse{
			PagamentoID:       chave,
			Competencia:       competencia,
			Valor:             s.taxa,
			PagoEm:            pagamento.DataPagamento.Format(time.RFC3339),
			ProximoVencimento: proximo.Format("2006-01-02"),
		}
		return nil
	})

	switch {
	case err == nil:
		s.metrics.Renovacao(metrics.RenovacaoOK)
		log.Info().Str("assinatura_id", id.String()).Str("competencia", competencia).
			Str("proximo_vencimento", resp.ProximoVencimento).Msg("tvbox: renovação registrada")
		return resp, nil
	case errors.Is(err, ErrCicloJaQuitado):
		s.metrics.Renovacao(metrics.RenovacaoQuitado)
	case errors.Is(err, ErrValidacao), errors.Is(err, ErrNaoEncontrado), errors.Is(err, ErrConflito):
		s.metrics.Renovacao(metrics.RenovacaoInvalida)
	default:
		s.metrics.Renovacao(metrics.RenovacaoErro)
	}
	return nil, err
}

// ── CRUD ──────────────────────────────────────────────────────────────────────

func (s *tvboxService) Criar(ctx context.Context, req dto.CriarTvBoxRequest) (*dto.TvBoxResponse, error) {
	if req.DiaRenovacao < 1 || req.DiaRenovacao > 31 {
		return nil, falha(ErrValidacao, "dia_renovacao deve estar entre 1 e 31")
	}
	dataRenovacao, err := ciclo.ParseData(req.DataRenovacao)
	if err != nil {
		return nil, falha(ErrValidacao, "data_renovacao inválida: %v", err)
	}
	slot1, err := slotDe(req.Slot1)
	if err != nil {
		return nil, err
	}
	slot2, err := slotDe(req.Slot2)
	if err != nil {
		return nil, err
	}

	a := &model.TvBoxAssinatura{
		Login:         strings.TrimSpace(req.Login),
		Senha:         req.Senha,
		Slot1:         slot1,
		Slot2:         slot2,
		DiaRenovacao:  req.DiaRenovacao,
		DataRenovacao: &dataRenovacao,
		Ativo:         true,
		Observacoes:   req.Observacoes,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, falha(ErrConflito, "login %q já cadastrado", a.Login)
		}
		return nil, err
	}
	resp := tvboxToResponse(a)
	return &resp, nil
}

func (s *tvboxService) ObterPorID(ctx context.Context, id uuid.UUID) (*dto.TvBoxResponse, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, naoEncontrado(err, "assinatura %s não encontrada", id)
	}
	resp := tvboxToResponse(a)
	return &resp, nil
}

func (s *tvboxService) Listar(ctx context.Context, somenteAtivas bool) ([]dto.TvBoxResponse, error) {
	assinaturas, err := s.repo.List(ctx, somenteAtivas)
	if err != nil {
		return nil, err
	}
	return lo.Map(assinaturas, func(a model.TvBoxAssinatura, _ int) dto.TvBoxResponse {
		return tvboxToResponse(&a)
	}), nil
}

func (s *tvboxService) Atualizar(ctx context.Context, id uuid.UUID, req dto.AtualizarTvBoxRequest) (*dto.TvBoxResponse, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, naoEncontrado(err, "assinatura %s não encontrada", id)
	}

	if req.Senha != nil {
		a.Senha = *req.Senha
	}
	if req.Slot1 != nil {
		if a.Slot1, err = slotDe(*req.Slot1); err != nil {
			return nil, err
		}
	}
	if req.Slot2 != nil {
		if a.Slot2, err = slotDe(*req.Slot2); err != nil {
			return nil, err
		}
	}
	if req.DiaRenovacao != nil {
		if *req.DiaRenovacao < 1 || *req.DiaRenovacao > 31 {
			return nil, falha(ErrValidacao, "dia_renovacao deve estar entre 1 e 31")
		}
		a.DiaRenovacao = *req.DiaRenovacao
	}
	if req.DataRenovacao != nil {
		d, err := ciclo.ParseData(*req.DataRenovacao)
		if err != nil {
			return nil, falha(ErrValidacao, "data_renovacao inválida: %v", err)
		}
		a.DataRenovacao = &d
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
	resp := tvboxToResponse(a)
	return &resp, nil
}

func (s *tvboxService) ListarPagamentos(ctx context.Context, id uuid.UUID) ([]dto.PagamentoRenovacaoResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, naoEncontrado(err, "assinatura %s não encontrada", id)
	}
	pagamentos, err := s.repo.ListPagamentos(ctx, id)
	if err != nil {
		return nil, err
	}
	return lo.Map(pagamentos, func(p model.PagamentoRenovacao, _ int) dto.PagamentoRenovacaoResponse {
		return dto.PagamentoRenovacaoResponse{
			ID:             p.ID,
			Competencia:    p.Competencia,
			Valor:          p.Valor,
			DataVencimento: p.DataVencimento.UTC().Format("2006-01-02"),
			DataPagamento:  p.DataPagamento.UTC().Format(time.RFC3339),
			Usuario:        p.Usuario,
		}
	}), nil
}

func slotDe(req dto.SlotEquipamentoRequest) (model.SlotEquipamento, error) {
	slot := model.SlotEquipamento{Identificador: req.Identificador}
	if req.ClienteID != nil && *req.ClienteID != "" {
		id, err := uuid.Parse(*req.ClienteID)
		if err != nil {
			return slot, falha(ErrValidacao, "cliente_id do equipamento inválido")
		}
		slot.ClienteID = &id
	}
	return slot, nil
}

func tvboxToResponse(a *model.TvBoxAssinatura) dto.TvBoxResponse {
	slot := func(s model.SlotEquipamento) dto.SlotEquipamentoResponse {
		return dto.SlotEquipamentoResponse{Identificador: s.Identificador, ClienteID: uuidString(s.ClienteID)}
	}
	return dto.TvBoxResponse{
		ID:            a.ID.String(),
		Login:         a.Login,
		Senha:         a.Senha,
		Slot1:         slot(a.Slot1),
		Slot2:         slot(a.Slot2),
		DiaRenovacao:  a.DiaRenovacao,
		DataRenovacao: formatarData(a.DataRenovacao),
		Ativo:         a.Ativo,
		Observacoes:   a.Observacoes,
	}
}

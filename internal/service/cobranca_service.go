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

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

type CobrancaService interface {
	Criar(ctx context.Context, req dto.CriarCobrancaRequest, usuario string) (*dto.CobrancaResponse, error)
	ObterPorID(ctx context.Context, id uuid.UUID) (*dto.CobrancaResponse, error)
	Listar(ctx context.Context, filter dto.CobrancaFilter) (*dto.CobrancaListResponse, error)
	Excluir(ctx context.Context, id uuid.UUID) error
	Baixar(ctx context.Context, id uuid.UUID, req dto.BaixaRequest, usuario string) (*dto.BaixaResponse, error)
	Reabrir(ctx context.Context, id uuid.UUID, req dto.ReaberturaRequest, usuario string) (*dto.ReaberturaResponse, error)
}

// CycleLocker serializes rollovers that target the same billing cycle.
// Implemented by *infra.CycleLock.
type CycleLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

// JobDispatcher enqueues the asynchronous follow-ups of a baixa.
// Implemented by *worker.Dispatcher.
type JobDispatcher interface {
	EnqueueRecibo(ctx context.Context, cobrancaID uuid.UUID) error
	EnqueueAvisoCobranca(ctx context.Context, cobrancaID uuid.UUID) error
}

// CobrancaOptions carries the optional collaborators of the cobrança service.
// Every field may be left zero.
type CobrancaOptions struct {
	Locker     CycleLocker
	Dispatcher JobDispatcher
	Metrics    *metrics.Metrics
	Location   *time.Location   // business timezone, UTC when nil
	Clock      func() time.Time // time.Now when nil
}

const (
	cicloLockTTL        = 30 * time.Second
	cicloLockIntervalo  = 100 * time.Millisecond
	cicloLockTentativas = 30
)

var errCicloOcupado = errors.New("ciclo bloqueado por outra operação")

type cobrancaService struct {
	repo        repository.CobrancaRepository
	clientes    repository.ClienteRepository
	assinaturas repository.AssinaturaRepository
	locker      CycleLocker
	dispatcher  JobDispatcher
	metrics     *metrics.Metrics
	loc         *time.Location
	agora       func() time.Time
}

func NewCobrancaService(
	repo repository.CobrancaRepository,
	clientes repository.ClienteRepository,
	assinaturas repository.AssinaturaRepository,
	opts CobrancaOptions,
) CobrancaService {
	s := &cobrancaService{
		repo:        repo,
		clientes:    clientes,
		assinaturas: assinaturas,
		locker:      opts.Locker,
		dispatcher:  opts.Dispatcher,
		metrics:     opts.Metrics,
		loc:         opts.Location,
		agora:       opts.Clock,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.agora == nil {
		s.agora = time.Now
	}
	return s
}

// ── Criar ─────────────────────────────────────────────────────────────────────

func (s *cobrancaService) Criar(ctx context.Context, req dto.CriarCobrancaRequest, usuario string) (*dto.CobrancaResponse, error) {
	tipo := model.NormalizarTipo(req.Tipo)
	if tipo == "" {
		return nil, falha(ErrValidacao, "tipo %q inválido: use SKY, TV_BOX ou COMBO", req.Tipo)
	}
	if !req.Valor.IsPositive() {
		return nil, falha(ErrValidacao, "valor deve ser maior que zero")
	}
	venc, err := ciclo.ParseData(req.Vencimento)
	if err != nil {
		return nil, falha(ErrValidacao, "vencimento inválido: %v", err)
	}

	var clienteID *uuid.UUID
	if req.ClienteID != nil && *req.ClienteID != "" {
		id, err := uuid.Parse(*req.ClienteID)
		if err != nil {
			return nil, falha(ErrValidacao, "cliente_id inválido")
		}
		if _, err := s.clientes.FindByID(ctx, id); err != nil {
			return nil, naoEncontrado(err, "cliente %s não encontrado", id)
		}
		clienteID = &id
	}

	var contratoID *uuid.UUID
	a, err := s.contratoDe(ctx, req.ContratoID, clienteID)
	if err != nil {
		return nil, err
	}
	if a != nil {
		contratoID = lo.ToPtr(a.ID)
		if clienteID == nil {
			clienteID = lo.ToPtr(a.ClienteID)
		}
	}

	status := req.Status
	if status == "" {
		status = model.StatusPendente
	}
	if !model.StatusAberto(status) {
		return nil, falha(ErrValidacao, "status inicial %q inválido", status)
	}

	ano, mes := ciclo.Referencia(venc)
	c := &model.Cobranca{
		ClienteID:      clienteID,
		ContratoID:     contratoID,
		Tipo:           tipo,
		Valor:          req.Valor,
		DataVencimento: &venc,
		Status:         status,
		AnoReferencia:  ano,
		MesReferencia:  mes,
	}
	c.RegistrarEvento(model.EventoCriacao, usuario, "", s.agora().UTC())

	if err := s.repo.Create(ctx, nil, c); err != nil {
		return nil, err
	}
	resp := cobrancaToResponse(c)
	return &resp, nil
}

func (s *cobrancaService) ObterPorID(ctx context.Context, id uuid.UUID) (*dto.CobrancaResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, naoEncontrado(err, "cobrança %s não encontrada", id)
	}
	resp := cobrancaToResponse(c)
	return &resp, nil
}

func (s *cobrancaService) Listar(ctx context.Context, filter dto.CobrancaFilter) (*dto.CobrancaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Tipo != "" {
		filter.Tipo = model.NormalizarTipo(filter.Tipo)
	}
	for campo, v := range map[string]string{"cliente_id": filter.ClienteID, "contrato_id": filter.ContratoID} {
		if v == "" {
			continue
		}
		if _, err := uuid.Parse(v); err != nil {
			return nil, falha(ErrValidacao, "%s inválido", campo)
		}
	}

	cobrancas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.CobrancaListResponse{
		Data: lo.Map(cobrancas, func(c model.Cobranca, _ int) dto.CobrancaResponse {
			return cobrancaToResponse(&c)
		}),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// Excluir removes an open cobrança. Paid ones are kept as accounting records.
func (s *cobrancaService) Excluir(ctx context.Context, id uuid.UUID) error {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return naoEncontrado(err, "cobrança %s não encontrada", id)
	}
	if c.Status == model.StatusPago {
		return falha(ErrConflito, "cobrança paga não pode ser excluída; reabra antes")
	}
	return s.repo.Delete(ctx, nil, id)
}

// ── Baixar ────────────────────────────────────────────────────────────────────
//   1. Due date: structured field → legacy text → today (warning)
//   2. Next due = ProximoVencimento(venc, dia do venc); cycle key from it
//   3. Under the cycle lock, in one TX: re-read the cobrança with a row lock
//      and reject it if a concurrent baixa got there first, record payment
//      fields, status PAGO and the BAIXA event, look the cycle up, create the
//      PENDENTE next invoice only if the cycle is empty and move the
//      assinatura's last generated due date
//   4. (async) recibo job, aviso job for the new invoice

func (s *cobrancaService) Baixar(ctx context.Context, id uuid.UUID, req dto.BaixaRequest, usuario string) (*dto.BaixaResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, naoEncontrado(err, "cobrança %s não encontrada", id)
	}
	if c.Status == model.StatusPago {
		return nil, falha(ErrConflito, "cobrança já está paga")
	}

	agora := s.agora()
	pagoEm, err := s.dataPagamento(req.DataPagamento, agora)
	if err != nil {
		return nil, err
	}
	if req.ValorPago != nil && req.ValorPago.IsNegative() {
		return nil, falha(ErrValidacao, "valor_pago não pode ser negativo")
	}
	if req.Juros != nil && req.Juros.IsNegative() {
		return nil, falha(ErrValidacao, "juros não pode ser negativo")
	}

	venc, err := vencimentoDe(c)
	if err != nil {
		log.Warn().Err(err).Str("cobranca_id", c.ID.String()).
			Msg("cobranca: vencimento ilegível, próximo ciclo calculado a partir de hoje")
		s.metrics.Rollover(metrics.RolloverSemVencimento)
		venc = ciclo.DataDe(agora, s.loc)
	}
	proximo := ciclo.ProximoVencimento(venc, venc.Day())
	ano, mes := ciclo.Referencia(proximo)
	chave := c.ChaveProximoCiclo(ano, mes)

	liberar, err := s.travarCiclo(ctx, chave)
	if err != nil {
		return nil, err
	}
	defer liberar()

	var nova *model.Cobranca
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		atual, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return naoEncontrado(err, "cobrança %s não encontrada", id)
		}
		if atual.Status == model.StatusPago {
			return falha(ErrConflito, "cobrança já está paga")
		}
		c = atual
		registrarPagamento(c, req, pagoEm, usuario, agora.UTC())
		if err := s.repo.Update(ctx, tx, c); err != nil {
			return err
		}

		existentes, err := s.repo.FindByCiclo(ctx, tx, chave)
		if err != nil {
			return err
		}
		if len(existentes) > 0 {
			return nil
		}

		nova = &model.Cobranca{
			ClienteID:             c.ClienteID,
			ContratoID:            c.ContratoID,
			Tipo:                  c.Tipo,
			Valor:                 c.Valor,
			DataVencimento:        &proximo,
			Status:                model.StatusPendente,
			GeradaAutomaticamente: true,
			CobrancaOrigemID:      lo.ToPtr(c.ID),
			AnoReferencia:         ano,
			MesReferencia:         mes,
		}
		nova.RegistrarEvento(model.EventoGeracaoAutomatica, usuario,
			fmt.Sprintf("gerada a partir da cobrança %s", c.ID), agora.UTC())
		if err := s.repo.Create(ctx, tx, nova); err != nil {
			return err
		}
		if c.ContratoID == nil {
			return nil
		}
		return s.assinaturas.UpdateUltimoVencimento(ctx, tx, *c.ContratoID, proximo)
	})
	if txErr != nil {
		return nil, txErr
	}

	resp := &dto.BaixaResponse{Cobranca: cobrancaToResponse(c)}
	if nova != nil {
		s.metrics.Rollover(metrics.RolloverCriada)
		log.Info().Str("cobranca_id", c.ID.String()).Str("proxima_id", nova.ID.String()).
			Str("ciclo", chave.String()).Msg("cobranca: próximo ciclo gerado")
		resp.ProximaCobranca = lo.ToPtr(cobrancaToResponse(nova))
	} else {
		s.metrics.Rollover(metrics.RolloverExistente)
		resp.ProximaJaExistia = true
	}

	s.despachar(ctx, c.ID, nova)
	return resp, nil
}

// ── Reabrir ───────────────────────────────────────────────────────────────────
// Reverses a baixa. The original due date is mandatory: without it there is
// no safe way to locate the next-cycle invoice, so the call fails before any
// write. The paid status is checked again on the locked row inside the
// transaction. The next-cycle invoice is removed only when it was generated
// automatically and is still unpaid.

func (s *cobrancaService) Reabrir(ctx context.Context, id uuid.UUID, req dto.ReaberturaRequest, usuario string) (*dto.ReaberturaResponse, error) {
	if !model.StatusAberto(req.Status) {
		return nil, falha(ErrValidacao, "status %q inválido: use PENDENTE, EM_DIAS ou VENCIDO", req.Status)
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, naoEncontrado(err, "cobrança %s não encontrada", id)
	}
	if c.Status != model.StatusPago {
		return nil, falha(ErrConflito, "apenas cobranças pagas podem ser reabertas")
	}

	venc, err := vencimentoDe(c)
	if err != nil {
		return nil, falha(ErrVencimentoInvalido,
			"cobrança %s sem vencimento legível; reabertura cancelada", c.ID)
	}
	proximo := ciclo.ProximoVencimento(venc, venc.Day())
	ano, mes := ciclo.Referencia(proximo)
	chave := c.ChaveProximoCiclo(ano, mes)

	liberar, err := s.travarCiclo(ctx, chave)
	if err != nil {
		return nil, err
	}
	defer liberar()

	agora := s.agora().UTC()
	var excluida *uuid.UUID
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		atual, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return naoEncontrado(err, "cobrança %s não encontrada", id)
		}
		if atual.Status != model.StatusPago {
			return falha(ErrConflito, "apenas cobranças pagas podem ser reabertas")
		}
		c = atual
		c.LimparPagamento()
		c.Status = req.Status
		c.RegistrarEvento(model.EventoReabertura, usuario, "status "+req.Status, agora)

		existentes, err := s.repo.FindByCiclo(ctx, tx, chave)
		if err != nil {
			return err
		}
		if alvo := proximaAutomatica(existentes, c.ID); alvo != nil {
			if alvo.Status == model.StatusPago {
				s.metrics.Rollover(metrics.RolloverPreservada)
				log.Info().Str("cobranca_id", c.ID.String()).Str("proxima_id", alvo.ID.String()).
					Msg("cobranca: próximo ciclo já pago, mantido")
			} else {
				if err := s.repo.Delete(ctx, tx, alvo.ID); err != nil {
					return err
				}
				c.RegistrarEvento(model.EventoExclusaoAutomatica, usuario,
					fmt.Sprintf("cobrança %s de %02d/%04d excluída", alvo.ID, mes, ano), agora)
				excluida = lo.ToPtr(alvo.ID)
			}
		}
		return s.repo.Update(ctx, tx, c)
	})
	if txErr != nil {
		return nil, txErr
	}

	resp := &dto.ReaberturaResponse{Cobranca: cobrancaToResponse(c)}
	if excluida != nil {
		s.metrics.Rollover(metrics.RolloverExcluida)
		resp.ProximaExcluidaID = lo.ToPtr(excluida.String())
	}
	return resp, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// vencimentoDe resolves the due date: structured field first, then the legacy text.
func vencimentoDe(c *model.Cobranca) (time.Time, error) {
	if c.DataVencimento != nil && !c.DataVencimento.IsZero() {
		return ciclo.Normalizar(*c.DataVencimento)
	}
	if c.VencimentoTexto != nil {
		return ciclo.ParseData(*c.VencimentoTexto)
	}
	return time.Time{}, ciclo.ErrDataVazia
}

func (s *cobrancaService) dataPagamento(informada *string, agora time.Time) (time.Time, error) {
	if informada == nil || strings.TrimSpace(*informada) == "" {
		return ciclo.DataDe(agora, s.loc), nil
	}
	d, err := ciclo.ParseData(*informada)
	if err != nil {
		return time.Time{}, falha(ErrValidacao, "data_pagamento inválida: %v", err)
	}
	return d, nil
}

// proximaAutomatica picks the auto-generated invoice of the cycle, preferring
// the one that origem generated. Manually created invoices are never returned.
func proximaAutomatica(cobrancas []model.Cobranca, origem uuid.UUID) *model.Cobranca {
	var candidata *model.Cobranca
	for i := range cobrancas {
		c := &cobrancas[i]
		if !c.GeradaAutomaticamente {
			continue
		}
		if c.CobrancaOrigemID != nil && *c.CobrancaOrigemID == origem {
			return c
		}
		if candidata == nil {
			candidata = c
		}
	}
	return candidata
}

// travarCiclo takes the distributed lock of a billing cycle and returns its
// release func. Without a reachable Redis the rollover proceeds unlocked.
func (s *cobrancaService) travarCiclo(ctx context.Context, k model.ChaveCiclo) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	key := "ciclo:" + k.String()
	inicio := time.Now()

	var token string
	op := func() error {
		tok, ok, err := s.locker.TryLock(ctx, key, cicloLockTTL)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errCicloOcupado
		}
		token = tok
		return nil
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(cicloLockIntervalo), cicloLockTentativas), ctx)
	err := backoff.Retry(op, b)
	s.metrics.LockEspera(time.Since(inicio))

	switch {
	case err == nil:
		return func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
				log.Warn().Err(err).Str("lock", key).Msg("cobranca: falha ao liberar lock do ciclo")
			}
		}, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, errCicloOcupado):
		return nil, falha(ErrConflito, "outra operação está processando o ciclo %02d/%04d; tente novamente", k.Mes, k.Ano)
	default:
		log.Warn().Err(err).Str("lock", key).Msg("cobranca: lock indisponível, seguindo sem lock")
		return func() {}, nil
	}
}

func (s *cobrancaService) despachar(ctx context.Context, pagaID uuid.UUID, nova *model.Cobranca) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.EnqueueRecibo(ctx, pagaID); err != nil {
		log.Warn().Err(err).Str("cobranca_id", pagaID.String()).Msg("cobranca: falha ao enfileirar recibo")
	}
	if nova == nil {
		return
	}
	if err := s.dispatcher.EnqueueAvisoCobranca(ctx, nova.ID); err != nil {
		log.Warn().Err(err).Str("cobranca_id", nova.ID.String()).Msg("cobranca: falha ao enfileirar aviso")
	}
}

// registrarPagamento records the payment fields of a baixa on c.
func registrarPagamento(c *model.Cobranca, req dto.BaixaRequest, pagoEm time.Time, usuario string, em time.Time) {
	valorPago := c.Valor
	if req.ValorPago != nil {
		valorPago = *req.ValorPago
	}
	forma := req.FormaPagamento
	c.DataPagamento = &pagoEm
	c.FormaPagamento = &forma
	c.ValorPago = &valorPago
	c.Juros = req.Juros
	c.Status = model.StatusPago
	c.RegistrarEvento(model.EventoBaixa, usuario,
		fmt.Sprintf("pago %s via %s", valorPago.StringFixed(2), forma), em)
}

// contratoDe resolves contrato_id to an active assinatura, nil when blank.
// When the cobrança also names a cliente, the assinatura must belong to it.
func (s *cobrancaService) contratoDe(ctx context.Context, informado *string, clienteID *uuid.UUID) (*model.Assinatura, error) {
	if informado == nil || strings.TrimSpace(*informado) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*informado))
	if err != nil {
		return nil, falha(ErrValidacao, "contrato_id inválido")
	}
	a, err := s.assinaturas.FindByID(ctx, id)
	if err != nil {
		return nil, naoEncontrado(err, "assinatura %s não encontrada", id)
	}
	if clienteID != nil && a.ClienteID != *clienteID {
		return nil, falha(ErrValidacao, "assinatura %s não pertence ao cliente %s", id, *clienteID)
	}
	if !a.Ativo {
		return nil, falha(ErrConflito, "assinatura %s está inativa", id)
	}
	return a, nil
}

func formatarData(t *time.Time) *string {
	if t == nil {
		return nil
	}
	return lo.ToPtr(t.UTC().Format("2006-01-02"))
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	return lo.ToPtr(id.String())
}

func cobrancaToResponse(c *model.Cobranca) dto.CobrancaResponse {
	resp := dto.CobrancaResponse{
		ID:                    c.ID.String(),
		ClienteID:             uuidString(c.ClienteID),
		ContratoID:            uuidString(c.ContratoID),
		Tipo:                  c.Tipo,
		TipoRotulo:            model.RotuloTipo(c.Tipo),
		Valor:                 c.Valor,
		DataPagamento:         formatarData(c.DataPagamento),
		Status:                c.Status,
		FormaPagamento:        c.FormaPagamento,
		ValorPago:             c.ValorPago,
		Juros:                 c.Juros,
		GeradaAutomaticamente: c.GeradaAutomaticamente,
		CobrancaOrigemID:      uuidString(c.CobrancaOrigemID),
		AnoReferencia:         c.AnoReferencia,
		MesReferencia:         c.MesReferencia,
		Historico: lo.Map(c.Historico, func(e model.EventoCobranca, _ int) dto.EventoCobrancaResponse {
			return dto.EventoCobrancaResponse{
				Tipo:     e.Tipo,
				Data:     e.Data.UTC().Format(time.RFC3339),
				Usuario:  e.Usuario,
				Detalhes: e.Detalhes,
			}
		}),
	}
	if venc, err := vencimentoDe(c); err == nil {
		resp.Vencimento = lo.ToPtr(venc.Format("2006-01-02"))
	}
	return resp
}

package worker

// recibo_worker.go
// Processes recibo jobs from QueueRecibo: renders the PDF receipt of a paid
// cobrança and e-mails it to the cliente when an address is on file.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mvsat/internal/infra"
	"mvsat/internal/model"
	"mvsat/internal/repository"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Mailer is implemented by *infra.Mailer.
type Mailer interface {
	Enabled() bool
	Send(to, subject, body, anexo string) error
}

// ReciboWorker wires the repositories, the SMTP mailer and its breaker.
type ReciboWorker struct {
	cobrancas      repository.CobrancaRepository
	clientes       repository.ClienteRepository
	mailer         Mailer
	cb             *infra.CircuitBreaker
	pdfStoragePath string
}

func NewReciboWorker(
	cobrancas repository.CobrancaRepository,
	clientes repository.ClienteRepository,
	mailer Mailer,
	cb *infra.CircuitBreaker,
	pdfStoragePath string,
) *ReciboWorker {
	return &ReciboWorker{
		cobrancas:      cobrancas,
		clientes:       clientes,
		mailer:         mailer,
		cb:             cb,
		pdfStoragePath: pdfStoragePath,
	}
}

// Process handles a single recibo job:
//  1. Load the cobrança; a reopened one is skipped
//  2. Render the PDF
//  3. E-mail it through the breaker when the cliente has an address
func (w *ReciboWorker) Process(ctx context.Context, raw json.RawMessage) error {
	c, err := carregarCobranca(ctx, w.cobrancas, raw)
	if err != nil {
		return err
	}
	if c.Status != model.StatusPago {
		log.Info().Str("cobranca_id", c.ID.String()).Msg("recibo_worker: cobrança reaberta, recibo ignorado")
		return nil
	}

	cliente := carregarCliente(ctx, w.clientes, c.ClienteID)
	nome := ""
	if cliente != nil {
		nome = cliente.Nome
	}

	pdfPath, err := infra.GenerateReciboPDF(c, nome, w.pdfStoragePath)
	if err != nil {
		return fmt.Errorf("recibo_worker: pdf: %w", err)
	}
	log.Info().Str("pdf", pdfPath).Str("cobranca_id", c.ID.String()).Msg("recibo_worker: PDF generated")

	email := emailDe(cliente)
	if email == "" || w.mailer == nil || !w.mailer.Enabled() {
		return nil
	}
	assunto := fmt.Sprintf("Recibo MVSat - %s %02d/%04d", model.RotuloTipo(c.Tipo), c.MesReferencia, c.AnoReferencia)
	corpo := fmt.Sprintf("Olá %s,\n\nSegue em anexo o recibo do seu pagamento.\n\nMVSat", nome)
	if err := executar(w.cb, func() error { return w.mailer.Send(email, assunto, corpo, pdfPath) }); err != nil {
		return fmt.Errorf("recibo_worker: envio para %s: %w", email, err)
	}
	log.Info().Str("to", email).Str("cobranca_id", c.ID.String()).Msg("recibo_worker: recibo sent")
	return nil
}

// ── Shared helpers ────────────────────────────────────────────────────────────

func carregarCobranca(ctx context.Context, repo repository.CobrancaRepository, raw json.RawMessage) (*model.Cobranca, error) {
	var payload CobrancaJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("invalid payload: %w", err))
	}
	id, err := uuid.Parse(payload.CobrancaID)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("invalid cobranca_id %q", payload.CobrancaID))
	}
	c, err := repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, backoff.Permanent(fmt.Errorf("cobrança %s não encontrada", id))
	}
	return c, err
}

// carregarCliente returns nil when the cobrança has no cliente or it is gone.
func carregarCliente(ctx context.Context, repo repository.ClienteRepository, id *uuid.UUID) *model.Cliente {
	if id == nil || repo == nil {
		return nil
	}
	cliente, err := repo.FindByID(ctx, *id)
	if err != nil {
		log.Warn().Err(err).Str("cliente_id", id.String()).Msg("worker: cliente indisponível")
		return nil
	}
	return cliente
}

func emailDe(c *model.Cliente) string {
	if c == nil || c.Email == nil {
		return ""
	}
	return *c.Email
}

func executar(cb *infra.CircuitBreaker, fn func() error) error {
	if cb == nil {
		return fn()
	}
	return cb.Execute(fn)
}

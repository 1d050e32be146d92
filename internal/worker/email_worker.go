package worker

// email_worker.go
// Processes aviso jobs from QueueEmail: tells the cliente a new cobrança was
// issued for the next cycle.

import (
	"context"
	"encoding/json"
	"fmt"

	"mvsat/internal/ciclo"
	"mvsat/internal/infra"
	"mvsat/internal/model"
	"mvsat/internal/repository"

	"github.com/rs/zerolog/log"
)

type AvisoWorker struct {
	cobrancas repository.CobrancaRepository
	clientes  repository.ClienteRepository
	mailer    Mailer
	cb        *infra.CircuitBreaker
}

func NewAvisoWorker(cobrancas repository.CobrancaRepository, clientes repository.ClienteRepository, mailer Mailer, cb *infra.CircuitBreaker) *AvisoWorker {
	return &AvisoWorker{cobrancas: cobrancas, clientes: clientes, mailer: mailer, cb: cb}
}

func (w *AvisoWorker) Process(ctx context.Context, raw json.RawMessage) error {
	c, err := carregarCobranca(ctx, w.cobrancas, raw)
	if err != nil {
		return err
	}
	if c.Status == model.StatusPago {
		return nil
	}
	cliente := carregarCliente(ctx, w.clientes, c.ClienteID)
	email := emailDe(cliente)
	if email == "" || w.mailer == nil || !w.mailer.Enabled() {
		log.Debug().Str("cobranca_id", c.ID.String()).Msg("email_worker: sem e-mail, aviso ignorado")
		return nil
	}

	vencimento := "a definir"
	if c.DataVencimento != nil {
		if v, err := ciclo.Normalizar(c.DataVencimento); err == nil {
			vencimento = v.Format("02/01/2006")
		}
	}
	assunto := fmt.Sprintf("Nova cobrança MVSat - %s %02d/%04d", model.RotuloTipo(c.Tipo), c.MesReferencia, c.AnoReferencia)
	corpo := fmt.Sprintf("Olá %s,\n\nSua cobrança de R$ %s vence em %s.\n\nMVSat",
		cliente.Nome, c.Valor.StringFixed(2), vencimento)

	if err := executar(w.cb, func() error { return w.mailer.Send(email, assunto, corpo, "") }); err != nil {
		return fmt.Errorf("email_worker: envio para %s: %w", email, err)
	}
	log.Info().Str("to", email).Str("cobranca_id", c.ID.String()).Msg("email_worker: aviso sent")
	return nil
}

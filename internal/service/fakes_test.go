package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"mvsat/internal/dto"
	"mvsat/internal/model"
	"mvsat/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubCobrancaRepo is an in-memory CobrancaRepository. Reads return copies so
// the service cannot change stored rows without calling Update.
type stubCobrancaRepo struct {
	mu        sync.Mutex
	cobrancas map[uuid.UUID]model.Cobranca
	updates   int
	seq       time.Time
	// aposLeitura runs once after the next FindByID, standing in for a
	// concurrent writer that commits between the read and the transaction.
	aposLeitura func(r *stubCobrancaRepo)
}

func newStubCobrancaRepo() *stubCobrancaRepo {
	return &stubCobrancaRepo{
		cobrancas: make(map[uuid.UUID]model.Cobranca),
		seq:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func copiar(c model.Cobranca) model.Cobranca {
	c.Historico = append([]model.EventoCobranca(nil), c.Historico...)
	return c
}

func (r *stubCobrancaRepo) put(c *model.Cobranca) *model.Cobranca {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.seq = r.seq.Add(time.Second)
	c.CreatedAt = r.seq
	r.cobrancas[c.ID] = copiar(*c)
	return c
}

func (r *stubCobrancaRepo) get(id uuid.UUID) (model.Cobranca, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cobrancas[id]
	return copiar(c), ok
}

func (r *stubCobrancaRepo) Create(_ context.Context, _ *gorm.DB, c *model.Cobranca) error {
	r.put(c)
	return nil
}

func (r *stubCobrancaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cobranca, error) {
	c, ok := r.get(id)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if hook := r.aposLeitura; hook != nil {
		r.aposLeitura = nil
		hook(r)
	}
	return &c, nil
}

func (r *stubCobrancaRepo) FindByIDForUpdate(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.Cobranca, error) {
	c, ok := r.get(id)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *stubCobrancaRepo) Update(_ context.Context, _ *gorm.DB, c *model.Cobranca) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cobrancas[c.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.updates++
	r.cobrancas[c.ID] = copiar(*c)
	return nil
}

func (r *stubCobrancaRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cobrancas, id)
	return nil
}

func mesmoUUID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *stubCobrancaRepo) FindByCiclo(_ context.Context, _ *gorm.DB, k model.ChaveCiclo) ([]model.Cobranca, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Cobranca
	for _, c := range r.cobrancas {
		if c.Tipo == k.Tipo && c.AnoReferencia == k.Ano && c.MesReferencia == k.Mes &&
			mesmoUUID(c.ClienteID, k.ClienteID) && mesmoUUID(c.ContratoID, k.ContratoID) {
			out = append(out, copiar(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *stubCobrancaRepo) List(_ context.Context, f dto.CobrancaFilter) ([]model.Cobranca, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Cobranca
	for _, c := range r.cobrancas {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Tipo != "" && c.Tipo != f.Tipo {
			continue
		}
		if f.ContratoID != "" && (c.ContratoID == nil || c.ContratoID.String() != f.ContratoID) {
			continue
		}
		out = append(out, copiar(c))
	}
	return out, int64(len(out)), nil
}

func (r *stubCobrancaRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]int64{}
	for _, c := range r.cobrancas {
		out[c.Status]++
	}
	return out, nil
}

func (r *stubCobrancaRepo) SumRecebido(_ context.Context, desde, ate time.Time) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, c := range r.cobrancas {
		if c.Status != model.StatusPago || c.DataPagamento == nil {
			continue
		}
		if c.DataPagamento.Before(desde) || !c.DataPagamento.Before(ate) {
			continue
		}
		if c.ValorPago != nil {
			total = total.Add(*c.ValorPago)
		} else {
			total = total.Add(c.Valor)
		}
	}
	return total, nil
}

func (r *stubCobrancaRepo) DB() *gorm.DB { return nil }

// doCiclo returns every stored cobrança of the given reference month.
func (r *stubCobrancaRepo) doCiclo(ano, mes int) []model.Cobranca {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Cobranca
	for _, c := range r.cobrancas {
		if c.AnoReferencia == ano && c.MesReferencia == mes {
			out = append(out, copiar(c))
		}
	}
	return out
}

var _ repository.CobrancaRepository = (*stubCobrancaRepo)(nil)

// stubClienteRepo is an in-memory ClienteRepository.
type stubClienteRepo struct {
	clientes map[uuid.UUID]*model.Cliente
}

func newStubClienteRepo() *stubClienteRepo {
	return &stubClienteRepo{clientes: make(map[uuid.UUID]*model.Cliente)}
}

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.clientes[c.ID] = &cp
	return nil
}

func (r *stubClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubClienteRepo) List(_ context.Context, _ string, _, _ int) ([]model.Cliente, int64, error) {
	var out []model.Cliente
	for _, c := range r.clientes {
		if c.Ativo {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	cp := *c
	r.clientes[c.ID] = &cp
	return nil
}

func (r *stubClienteRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	c, ok := r.clientes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Ativo = false
	return nil
}

func (r *stubClienteRepo) CountAtivos(_ context.Context) (int64, error) {
	var n int64
	for _, c := range r.clientes {
		if c.Ativo {
			n++
		}
	}
	return n, nil
}

var _ repository.ClienteRepository = (*stubClienteRepo)(nil)

// stubAssinaturaRepo is an in-memory AssinaturaRepository.
type stubAssinaturaRepo struct {
	mu          sync.Mutex
	assinaturas map[uuid.UUID]model.Assinatura
}

func newStubAssinaturaRepo() *stubAssinaturaRepo {
	return &stubAssinaturaRepo{assinaturas: make(map[uuid.UUID]model.Assinatura)}
}

func (r *stubAssinaturaRepo) Create(_ context.Context, a *model.Assinatura) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.assinaturas[a.ID] = *a
	return nil
}

func (r *stubAssinaturaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Assinatura, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assinaturas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r *stubAssinaturaRepo) List(_ context.Context, f dto.AssinaturaFilter) ([]model.Assinatura, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Assinatura
	for _, a := range r.assinaturas {
		if f.ClienteID != "" && a.ClienteID.String() != f.ClienteID {
			continue
		}
		if f.SomenteAtivas && !a.Ativo {
			continue
		}
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (r *stubAssinaturaRepo) Update(_ context.Context, a *model.Assinatura) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assinaturas[a.ID] = *a
	return nil
}

func (r *stubAssinaturaRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assinaturas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Ativo = false
	r.assinaturas[id] = a
	return nil
}

func (r *stubAssinaturaRepo) UpdateUltimoVencimento(_ context.Context, _ *gorm.DB, id uuid.UUID, venc time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assinaturas[id]
	if !ok {
		return nil
	}
	if a.UltimoVencimentoGerado == nil || a.UltimoVencimentoGerado.Before(venc) {
		a.UltimoVencimentoGerado = &venc
		r.assinaturas[id] = a
	}
	return nil
}

var _ repository.AssinaturaRepository = (*stubAssinaturaRepo)(nil)

// stubLocker hands out a lock after `ocupado` failed attempts.
type stubLocker struct {
	mu         sync.Mutex
	ocupado    int
	err        error
	tentativas int
	chaves     []string
	liberados  []string
}

func (l *stubLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tentativas++
	if l.err != nil {
		return "", false, l.err
	}
	if l.ocupado > 0 {
		l.ocupado--
		return "", false, nil
	}
	l.chaves = append(l.chaves, key)
	return "tok-" + key, true, nil
}

func (l *stubLocker) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if token != "tok-"+key {
		return errors.New("token inválido")
	}
	l.liberados = append(l.liberados, key)
	return nil
}

// stubDispatcher records enqueued jobs.
type stubDispatcher struct {
	recibos []uuid.UUID
	avisos  []uuid.UUID
}

func (d *stubDispatcher) EnqueueRecibo(_ context.Context, id uuid.UUID) error {
	d.recibos = append(d.recibos, id)
	return nil
}

func (d *stubDispatcher) EnqueueAvisoCobranca(_ context.Context, id uuid.UUID) error {
	d.avisos = append(d.avisos, id)
	return nil
}

func relogio(t time.Time) func() time.Time { return func() time.Time { return t } }

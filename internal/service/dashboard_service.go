package service

import (
	"context"
	"time"

	"mvsat/internal/ciclo"
	"mvsat/internal/dto"
	"mvsat/internal/repository"

	"github.com/patrickmn/go-cache"
)

// JanelaRenovacoes is how far ahead the dashboard looks for TV-box renewals.
const JanelaRenovacoes = 7 * 24 * time.Hour

type DashboardService interface {
	Resumo(ctx context.Context) (*dto.DashboardResponse, error)
}

type DashboardOptions struct {
	Location *time.Location
	Clock    func() time.Time
	CacheTTL time.Duration // zero disables caching
}

type dashboardService struct {
	clientes  repository.ClienteRepository
	cobrancas repository.CobrancaRepository
	tvbox     repository.TvBoxRepository
	loc       *time.Location
	agora     func() time.Time
	cache     *cache.Cache
}

func NewDashboardService(
	clientes repository.ClienteRepository,
	cobrancas repository.CobrancaRepository,
	tvbox repository.TvBoxRepository,
	opts DashboardOptions,
) DashboardService {
	s := &dashboardService{
		clientes:  clientes,
		cobrancas: cobrancas,
		tvbox:     tvbox,
		loc:       opts.Location,
		agora:     opts.Clock,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.agora == nil {
		s.agora = time.Now
	}
	if opts.CacheTTL > 0 {
		s.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return s
}

// Resumo aggregates the figures of the current competência. Amounts are
// summed over canonical payment dates, so a month is [day 1, day 1 of next).
func (s *dashboardService) Resumo(ctx context.Context) (*dto.DashboardResponse, error) {
	agora := s.agora()
	competencia := ciclo.Competencia(agora, s.loc)
	if s.cache != nil {
		if v, ok := s.cache.Get(competencia); ok {
			resp := v.(dto.DashboardResponse)
			return &resp, nil
		}
	}

	hoje := ciclo.DataDe(agora, s.loc)
	desde := ciclo.Data(hoje.Year(), hoje.Month(), 1)
	ate := desde.AddDate(0, 1, 0)

	resp := dto.DashboardResponse{Competencia: competencia}
	var err error
	if resp.ClientesAtivos, err = s.clientes.CountAtivos(ctx); err != nil {
		return nil, err
	}
	if resp.CobrancasPorStatus, err = s.cobrancas.CountByStatus(ctx); err != nil {
		return nil, err
	}
	if resp.RecebidoCobrancas, err = s.cobrancas.SumRecebido(ctx, desde, ate); err != nil {
		return nil, err
	}
	if resp.RecebidoTvBox, err = s.tvbox.SumPagamentosCompetencia(ctx, competencia); err != nil {
		return nil, err
	}
	if resp.TvBoxAtivos, err = s.tvbox.CountAtivas(ctx); err != nil {
		return nil, err
	}
	if resp.RenovacoesProximas, err = s.tvbox.CountRenovacoesAte(ctx, hoje.Add(JanelaRenovacoes)); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetDefault(competencia, resp)
	}
	return &resp, nil
}

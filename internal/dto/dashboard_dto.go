package dto

import "github.com/shopspring/decimal"

type DashboardResponse struct {
	Competencia        string           `json:"competencia"`
	ClientesAtivos     int64            `json:"clientes_ativos"`
	CobrancasPorStatus map[string]int64 `json:"cobrancas_por_status"`
	RecebidoCobrancas  decimal.Decimal  `json:"recebido_cobrancas"`
	RecebidoTvBox      decimal.Decimal  `json:"recebido_tvbox"`
	TvBoxAtivos        int64            `json:"tvbox_ativos"`
	RenovacoesProximas int64            `json:"renovacoes_proximos_7_dias"`
}

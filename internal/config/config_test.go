package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "America/Sao_Paulo", cfg.BusinessTimezone)
	assert.False(t, cfg.IsProduction())

	taxa, err := cfg.TaxaRenovacao()
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("30").Equal(taxa))
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("TVBOX_TAXA_RENOVACAO", "45.50")
	t.Setenv("JWT_SECRET", "segredo")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "segredo", cfg.JWTSecret)

	taxa, err := cfg.TaxaRenovacao()
	require.NoError(t, err)
	assert.Equal(t, "45.5", taxa.String())
}

func TestLoad_ProducaoSemSegredo(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("APP_ENV", "development")
	_, err = Load()
	assert.NoError(t, err, "development may run without a secret")
}

func TestLoad_FusoInvalido(t *testing.T) {
	t.Setenv("BUSINESS_TIMEZONE", "Marte/Olympus")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_TaxaInvalida(t *testing.T) {
	t.Setenv("TVBOX_TAXA_RENOVACAO", "trinta")

	_, err := Load()
	assert.Error(t, err)
}

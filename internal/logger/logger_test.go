package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSON(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() { log.Logger = prev; zerolog.SetGlobalLevel(prevLevel) })

	var buf bytes.Buffer
	require.NoError(t, Setup(LogConfig{Level: "warn", Format: "json", Output: &buf}))

	log.Info().Msg("ignorado")
	l := WithComponent("renovacao")
	l.Warn().Str("assinatura", "abc").Msg("ciclo já quitado")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "renovacao", entry["component"])
	assert.Equal(t, "abc", entry["assinatura"])
}

func TestSetup_NivelInvalido(t *testing.T) {
	assert.Error(t, Setup(LogConfig{Level: "barulhento"}))
}

func TestDefaultConfig(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() { log.Logger = prev; zerolog.SetGlobalLevel(prevLevel) })

	cfg := DefaultConfig()
	var buf bytes.Buffer
	cfg.Output = &buf
	require.NoError(t, Setup(cfg))
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	log.Info().Msg("pronto")
	assert.Contains(t, buf.String(), "pronto")
}

// Package cli implements mvsatctl, the operations command line of the MVSat
// back office.
package cli

import (
	"fmt"
	"os"

	"mvsat/internal/config"
	"mvsat/internal/infra"
	"mvsat/internal/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var version = "1.0.0"

// NewRootCmd builds the command tree. Each call returns a fresh tree so tests
// can run commands in isolation.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mvsatctl",
		Short: "Ferramentas de operação do MVSat",
		Long: `mvsatctl agrupa as tarefas de operação do back office MVSat:
migrações, criação do primeiro administrador, importação dos dados legados,
exportação de cobranças, renovação de TV box e reprocessamento da DLQ.

A configuração vem das mesmas variáveis de ambiente do servidor
(DATABASE_URL, REDIS_URL, BUSINESS_TIMEZONE, ...).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := logger.DefaultConfig()
			cfg.Level, _ = cmd.Flags().GetString("log-level")
			cfg.Output = cmd.ErrOrStderr()
			return logger.Setup(cfg)
		},
	}
	root.PersistentFlags().String("log-level", "info", "Nível de log (debug, info, warn, error)")

	root.AddCommand(
		newMigrateCmd(),
		newSeedAdminCmd(),
		newHashSenhaCmd(),
		newImportarCmd(),
		newExportarCmd(),
		newRenovarCmd(),
		newDLQCmd(),
	)
	return root
}

// Execute runs mvsatctl and exits non-zero on failure.
func Execute() {
	log := logger.WithComponent("cmd")
	if err := NewRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Erro: %v\n", err)
		os.Exit(1)
	}
}

// ── Shared setup ──────────────────────────────────────────────────────────────

func carregar() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("configuração: %w", err)
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("conectando ao postgres: %w", err)
	}
	return cfg, db, nil
}

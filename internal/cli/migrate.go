package cli

import (
	"fmt"

	"mvsat/internal/infra"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Cria ou atualiza as tabelas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := carregar()
			if err != nil {
				return err
			}
			defer infra.CloseDatabase(db)

			if err := infra.RunMigrations(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrações aplicadas")
			return nil
		},
	}
}

package cli

import (
	"fmt"
	"io"
	"os"

	"mvsat/internal/dto"
	"mvsat/internal/infra"
	"mvsat/internal/relatorio"
	"mvsat/internal/repository"

	"github.com/spf13/cobra"
)

func newExportarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exportar",
		Short: "Exporta cobranças em CSV",
		Example: `  mvsatctl exportar --ano 2025 --mes 1 --saida janeiro.csv
  mvsatctl exportar --status PAGO > pagas.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ano, _ := cmd.Flags().GetInt("ano")
			mes, _ := cmd.Flags().GetInt("mes")
			status, _ := cmd.Flags().GetString("status")
			saida, _ := cmd.Flags().GetString("saida")
			if mes < 0 || mes > 12 {
				return fmt.Errorf("--mes deve estar entre 1 e 12")
			}

			_, db, err := carregar()
			if err != nil {
				return err
			}
			defer infra.CloseDatabase(db)

			var w io.Writer = cmd.OutOrStdout()
			if saida != "" {
				f, err := os.Create(saida)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			n, err := relatorio.ExportarCobrancas(cmd.Context(), repository.NewCobrancaRepository(db),
				dto.CobrancaFilter{Status: status, Ano: ano, Mes: mes}, w)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d cobranças exportadas\n", n)
			return nil
		},
	}
	cmd.Flags().Int("ano", 0, "Ano de referência")
	cmd.Flags().Int("mes", 0, "Mês de referência")
	cmd.Flags().String("status", "", "PENDENTE | EM_DIAS | VENCIDO | PAGO")
	cmd.Flags().String("saida", "", "Arquivo de saída (padrão: stdout)")
	return cmd
}

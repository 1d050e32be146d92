package cli

import (
	"fmt"

	"mvsat/internal/infra"
	"mvsat/internal/repository"
	"mvsat/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRenovarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "renovar <assinatura-id>",
		Short: "Registra a renovação de uma assinatura TV box na competência atual",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("id inválido: %w", err)
			}
			usuario, _ := cmd.Flags().GetString("usuario")

			cfg, db, err := carregar()
			if err != nil {
				return err
			}
			defer infra.CloseDatabase(db)

			loc, _ := cfg.Location()
			taxa, _ := cfg.TaxaRenovacao()
			svc := service.NewTvBoxService(repository.NewTvBoxRepository(db), service.TvBoxOptions{
				Taxa:     taxa,
				Location: loc,
			})
			resp, err := svc.Renovar(cmd.Context(), id, usuario)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "competência %s quitada (R$ %s), próximo vencimento %s\n",
				resp.Competencia, resp.Valor.StringFixed(2), resp.ProximoVencimento)
			return nil
		},
	}
	cmd.Flags().String("usuario", "mvsatctl", "Usuário registrado no pagamento")
	return cmd
}

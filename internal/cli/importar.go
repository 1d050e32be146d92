package cli

import (
	"fmt"
	"os"

	"mvsat/internal/importacao"
	"mvsat/internal/infra"

	"github.com/spf13/cobra"
)

func newImportarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "importar <arquivo.json>",
		Short: "Importa uma coleção exportada do sistema antigo",
		Long: `Lê um array JSON de documentos de uma coleção do sistema antigo e grava as
linhas válidas. Datas em qualquer formato aceito (timestamp do provedor,
texto DD/MM/AAAA ou ISO, epoch) são normalizadas antes da gravação.

Importe clientes antes de cobranças e TV boxes para manter as referências.
Documentos já importados são ignorados, então o comando pode ser repetido.`,
		Example: `  mvsatctl importar --colecao clientes clientes.json
  mvsatctl importar --colecao cobrancas --dry-run cobrancas.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			colecao, _ := cmd.Flags().GetString("colecao")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			_, db, err := carregar()
			if err != nil {
				return err
			}
			defer infra.CloseDatabase(db)

			resumo, err := importacao.NewImportador(db, dryRun).Importar(cmd.Context(), colecao, f)
			if err != nil {
				return err
			}
			imprimirResumo(cmd, resumo, dryRun)
			return nil
		},
	}
	cmd.Flags().String("colecao", "", "clientes | assinaturas | cobrancas | tvbox_assinaturas")
	cmd.Flags().Bool("dry-run", false, "Valida sem gravar")
	_ = cmd.MarkFlagRequired("colecao")
	return cmd
}

func imprimirResumo(cmd *cobra.Command, r *importacao.Resumo, dryRun bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "coleção:    %s\n", r.Colecao)
	fmt.Fprintf(out, "lidos:      %d\n", r.Lidos)
	fmt.Fprintf(out, "válidos:    %d\n", r.Validos)
	if !dryRun {
		fmt.Fprintf(out, "gravados:   %d\n", r.Gravados)
	}
	fmt.Fprintf(out, "rejeitados: %d\n", r.Rejeitados)
	for _, e := range r.Erros {
		fmt.Fprintf(out, "  %s\n", e)
	}
}

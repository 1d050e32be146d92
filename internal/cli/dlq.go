package cli

import (
	"fmt"

	"mvsat/internal/config"
	"mvsat/internal/infra"
	"mvsat/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newDLQCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dlq",
		Short: "Inspeciona e reprocessa jobs que falharam",
	}
	cmd.PersistentFlags().String("fila", worker.QueueRecibo, "Fila de origem (jobs:recibo | jobs:email)")

	cmd.AddCommand(&cobra.Command{
		Use:   "tamanho",
		Short: "Mostra quantos jobs estão na DLQ da fila",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fila, _ := cmd.Flags().GetString("fila")
			rdb, err := conectarRedis()
			if err != nil {
				return err
			}
			defer rdb.Close()

			n, err := worker.DLQLength(cmd.Context(), rdb, fila)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d jobs na DLQ\n", fila, n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reprocessar",
		Short: "Devolve todos os jobs da DLQ à fila com tentativas zeradas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fila, _ := cmd.Flags().GetString("fila")
			rdb, err := conectarRedis()
			if err != nil {
				return err
			}
			defer rdb.Close()

			n, err := worker.Reprocessar(cmd.Context(), rdb, fila)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d jobs devolvidos a %s\n", n, fila)
			return nil
		},
	})
	return cmd
}

func conectarRedis() (*redis.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("configuração: %w", err)
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL não configurada")
	}
	return infra.NewRedis(cfg.RedisURL)
}

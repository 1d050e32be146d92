package cli

import (
	"errors"
	"fmt"

	"mvsat/internal/dto"
	"mvsat/internal/infra"
	"mvsat/internal/model"
	"mvsat/internal/repository"
	"mvsat/internal/service"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func newSeedAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Cria o primeiro funcionário administrador",
		Example: `  mvsatctl seed-admin --email admin@mvsat.com.br --nome "Admin" --senha 'troque-esta-senha'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			nome, _ := cmd.Flags().GetString("nome")
			senha, _ := cmd.Flags().GetString("senha")
			if len(senha) < 8 {
				return errors.New("--senha precisa de pelo menos 8 caracteres")
			}

			cfg, db, err := carregar()
			if err != nil {
				return err
			}
			defer infra.CloseDatabase(db)

			auth := service.NewAuthService(repository.NewFuncionarioRepository(db), cfg)
			f, err := auth.CriarFuncionario(cmd.Context(), dto.CriarFuncionarioRequest{
				Email:    email,
				Nome:     nome,
				Password: senha,
				Papel:    model.PapelAdministrador,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "administrador %s criado (%s)\n", f.Email, f.ID)
			return nil
		},
	}
	cmd.Flags().String("email", "", "E-mail de login")
	cmd.Flags().String("nome", "Administrador", "Nome exibido")
	cmd.Flags().String("senha", "", "Senha inicial")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("senha")
	return cmd
}

func newHashSenhaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-senha <senha>",
		Short: "Imprime o hash bcrypt de uma senha",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(h))
			return nil
		},
	}
}

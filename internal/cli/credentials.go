package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"artistry/internal/infra"
	"artistry/internal/infra/credentials"
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage collaborator credentials stored in postgres",
}

var setCredentialCmd = &cobra.Command{
	Use:   "set PROVIDER",
	Short: "Store the token sent to a collaborator (gemini, detect, segment, condition, generate)",
	Example: `  roomctl credentials set gemini
  roomctl credentials set segment --token s3cret --header X-Api-Key`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := credentials.ParseProvider(args[0])
		if err != nil {
			return err
		}
		token, _ := cmd.Flags().GetString("token")
		token = strings.TrimSpace(token)
		if token == "" && provider == credentials.ProviderGemini {
			token = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		}
		if token == "" {
			return fmt.Errorf("%s token is required via --token", provider)
		}
		header, _ := cmd.Flags().GetString("header")

		return withCredentialStore(cmd, provider, func(ctx context.Context, store *credentials.Store) error {
			if err := store.Set(ctx, credentials.Credential{Provider: provider, Token: token, Header: header}); err != nil {
				return fmt.Errorf("failed to persist %s credential: %w", provider, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s credential stored successfully\n", provider)
			return nil
		})
	},
}

var listCredentialsCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credentials with masked tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCredentialStore(cmd, "", func(ctx context.Context, store *credentials.Store) error {
			list, err := store.List(ctx)
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				for i := range list {
					list[i].Token = list[i].Masked()
				}
				return printJSON(cmd, list)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-10s %-16s %-20s %s\n", "PROVIDER", "HEADER", "TOKEN", "UPDATED")
			for _, c := range list {
				fmt.Fprintf(w, "%-10s %-16s %-20s %s\n", c.Provider, c.Header, truncate(c.Masked(), 20), c.UpdatedAt.Format(time.RFC3339))
			}
			return nil
		})
	},
}

var deleteCredentialCmd = &cobra.Command{
	Use:   "delete PROVIDER",
	Short: "Remove a stored credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := credentials.ParseProvider(args[0])
		if err != nil {
			return err
		}
		return withCredentialStore(cmd, provider, func(ctx context.Context, store *credentials.Store) error {
			if err := store.Delete(ctx, provider); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s credential deleted\n", provider)
			return nil
		})
	},
}

func withCredentialStore(cmd *cobra.Command, provider credentials.Provider, fn func(context.Context, *credentials.Store) error) error {
	dbURL, _ := cmd.Flags().GetString("database-url")
	if dbURL == "" {
		dbURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("failed to create pool: %w", err)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "roomctl").Str("provider", string(provider)).Logger()
	runner := infra.NewSQLRunner(pool, logger)
	if err := infra.MigratePostgres(ctx, runner); err != nil {
		return err
	}
	return fn(ctx, credentials.NewStore(runner))
}

func init() {
	setCredentialCmd.Flags().String("token", "", "token or API key (gemini defaults to $GEMINI_API_KEY)")
	setCredentialCmd.Flags().String("header", credentials.DefaultHeader, "request header carrying the token")
	credentialsCmd.PersistentFlags().String("database-url", "", "postgres URL (default $DATABASE_URL)")
	credentialsCmd.AddCommand(setCredentialCmd, listCredentialsCmd, deleteCredentialCmd)
}

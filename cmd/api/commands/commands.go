package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/idlist/accounts-api/internal/adapters/repository"
	"github.com/idlist/accounts-api/internal/application/services"
	"github.com/idlist/accounts-api/internal/domain/entities"
	"github.com/idlist/accounts-api/internal/infrastructure/config"
	"github.com/idlist/accounts-api/internal/infrastructure/logger"
	"github.com/idlist/accounts-api/internal/infrastructure/server"
)

// Version is overridden at build time with -ldflags
var Version = "1.0.0"

const shutdownTimeout = 10 * time.Second

// NewRootCommand builds the command tree. Running it without a subcommand
// starts the server.
func NewRootCommand() *cobra.Command {
	serveCmd := NewServeCommand()

	rootCmd := &cobra.Command{
		Use:           "accounts-api",
		Short:         "Account list API server",
		Long:          `accounts-api serves a JSON list of account records stored in a single file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a config file (yaml, json or toml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(NewAccountsCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the API server serving GET and POST /api/accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg)
		},
	}
}

// NewAccountsCommand creates the accounts command with subcommands
func NewAccountsCommand() *cobra.Command {
	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Inspect or replace the stored account collection",
	}

	accountsCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := newAccountService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			result := svc.Get(cmd.Context())
			if result.Status == entities.ReadFailed {
				return result.Err
			}

			var out bytes.Buffer
			if err := json.Indent(&out, result.Body(), "", "  "); err != nil {
				return fmt.Errorf("format collection: %w", err)
			}
			out.WriteByte('\n')

			_, err = cmd.OutOrStdout().Write(out.Bytes())
			return err
		},
	})

	accountsCmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Replace the stored collection with the JSON array in file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			svc, closeFn, err := newAccountService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.Replace(cmd.Context(), body); err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", args[0])
			return nil
		},
	})

	return accountsCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "accounts-api v%s\n", Version)
		},
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newAccountService wires the store for one-shot CLI commands. Logs go to
// stderr so stdout carries only command output.
func newAccountService(cmd *cobra.Command) (*services.AccountService, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	cfg.Logger.Output = "stderr"
	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	repo := repository.NewAccountFileRepository(cfg.Storage.DataFile)
	svc := services.NewAccountService(repo, nil, appLogger)

	return svc, func() { _ = appLogger.Close() }, nil
}

func runServer(ctx context.Context, cfg *config.Config) error {
	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	srv, err := server.New(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	appLogger.Infow("Server started",
		"port", cfg.Server.Port,
		"url", fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
		"data_file", cfg.Storage.DataFile,
		"environment", cfg.App.Environment,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Address())
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

package seed

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/config"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/di"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/observability"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository/factory"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/service"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/tools/common"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/tools/ui"
)

type options struct {
	envFile string
	ci      bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "seed", Short: "Demo data tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(
		newCommand(opts, "apply", "Create demo users with profiles", func(ctx context.Context) ([]string, error) {
			return withUserService(ctx, opts.envFile, Apply)
		}),
		newCommand(opts, "dry-run", "Show what seeding would do", func(context.Context) ([]string, error) {
			cfg, err := loadConfig(opts.envFile)
			if err != nil {
				return nil, err
			}
			return Plan(cfg.DatabaseType), nil
		}),
		newCommand(opts, "schema", "Create collections, tables and unique indexes", func(context.Context) ([]string, error) {
			return withStores(opts.envFile, func(stores *factory.Factory, _ *slog.Logger) ([]string, error) {
				return []string{"schema ensured on " + stores.Backend()}, nil
			})
		}),
		newCommand(opts, "status", "Report backend connectivity", func(ctx context.Context) ([]string, error) {
			return withStores(opts.envFile, func(stores *factory.Factory, _ *slog.Logger) ([]string, error) {
				return Status(ctx, stores)
			})
		}),
		newCommand(opts, "stats", "Print user counts by status", func(ctx context.Context) ([]string, error) {
			return withUserService(ctx, opts.envFile, Stats)
		}),
	)
	return cmd
}

func newCommand(opts *options, use, short string, action func(context.Context) ([]string, error)) *cobra.Command {
	title := "seed " + use
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, title, common.Instrument("seed", use, action))
			if opts.ci {
				common.PrintCIResult(err == nil, title, details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		return fn(context.Background())
	}
	return ui.Run(title, fn)
}

func loadConfig(envFile string) (*config.Config, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	return config.Load()
}

// withStores opens the configured store, which also brings the schema up to
// date, and disconnects once fn returns.
func withStores(envFile string, fn func(*factory.Factory, *slog.Logger) ([]string, error)) ([]string, error) {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return nil, err
	}
	logger := observability.NewBootstrapLogger(cfg)
	stores, err := di.OpenStores(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = stores.Manager().Disconnect(context.Background()) }()
	return fn(stores, logger)
}

// withUserService hands fn a user service without avatar storage.
func withUserService(ctx context.Context, envFile string, fn func(context.Context, service.UserServiceInterface) ([]string, error)) ([]string, error) {
	return withStores(envFile, func(stores *factory.Factory, logger *slog.Logger) ([]string, error) {
		return runWithStores(ctx, stores, logger, fn)
	})
}

func runWithStores(ctx context.Context, stores *factory.Factory, logger *slog.Logger, fn func(context.Context, service.UserServiceInterface) ([]string, error)) ([]string, error) {
	repo, err := stores.UserRepository()
	if err != nil {
		return nil, err
	}
	return fn(ctx, service.NewUserService(repo, nil, logger))
}

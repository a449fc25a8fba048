package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	migrations "github.com/picrelay/picrelay/db"
	"github.com/picrelay/picrelay/internal/auth"
	"github.com/picrelay/picrelay/internal/boot"
	"github.com/picrelay/picrelay/internal/config"
	"github.com/picrelay/picrelay/internal/db"
	"github.com/picrelay/picrelay/internal/handlers"
	"github.com/picrelay/picrelay/internal/images"
	"github.com/picrelay/picrelay/internal/imagestore"
	"github.com/picrelay/picrelay/internal/logger"
	"github.com/picrelay/picrelay/internal/server"
	"github.com/picrelay/picrelay/internal/version"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "picrelay",
		Short:         "Image metadata API over a remote image store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to config.toml")

	root.AddCommand(newServeCommand())
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newTokenCommand())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("picrelay %s\n", version.GetInfo())
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		Run: func(cmd *cobra.Command, args []string) {
			fx.New(
				fx.Provide(
					provideConfig,
					provideLogger,
					boot.ProvideRuntimeConfig,
					provideDBConn,
					provideGateway,
					fx.Annotate(images.NewPostgresStore, fx.As(new(images.Store))),
					images.NewService,
					provideServerHandler(handlers.NewPingHandler),
					provideServerHandler(handlers.NewImagesHandler),
					provideServer,
				),
				fx.Invoke(startServer),
				fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
					return &fxevent.SlogLogger{Logger: log.With(slog.String("component", "fx"))}
				}),
			).Run()
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|version]",
		Short: "Apply database migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.Init(cfg.Log.Level, cfg.Log.Format)

			migrationsFS, err := fs.Sub(migrations.MigrationsFS, "migrations")
			if err != nil {
				return err
			}
			return db.RunMigrate(logger.L, cfg.Postgres, migrationsFS, args[0])
		},
	}
}

func newTokenCommand() *cobra.Command {
	var (
		subject    string
		givenName  string
		familyName string
		email      string
		level      int
		expiresIn  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			secret := cfg.Auth.JWTSecret
			if value := os.Getenv("ACCESS_TOKEN_SECRET"); value != "" {
				secret = value
			}
			if strings.TrimSpace(secret) == "" {
				return errors.New("jwt secret is required")
			}
			token, expiresAt, err := auth.GenerateToken(subject, givenName, familyName, email, auth.Level(level), secret, expiresIn)
			if err != nil {
				return err
			}
			fmt.Println(token)
			fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "dev-user", "subject (user id) claim")
	cmd.Flags().StringVar(&givenName, "given-name", "", "given name claim")
	cmd.Flags().StringVar(&familyName, "family-name", "", "family name claim")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().IntVar(&level, "level", 15, "permission level bitmask (READ=1 CREATE=2 UPDATE=4 DELETE=8)")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 24*time.Hour, "token lifetime")
	return cmd
}

// ---------------------------------------------------------------------------
// providers
// ---------------------------------------------------------------------------

func provideConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func provideGateway(log *slog.Logger, rc *boot.RuntimeConfig, cfg config.Config) imagestore.Gateway {
	timeout := time.Duration(cfg.ImageStore.TimeoutSeconds) * time.Second
	return imagestore.NewClient(log, rc.ImageStoreURL, rc.ImageStoreToken, timeout)
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	RuntimeConfig  *boot.RuntimeConfig
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(
		params.Logger,
		params.RuntimeConfig.ServerAddr,
		params.RuntimeConfig.JWTSecret,
		!params.Config.Server.IsProduction(),
		params.ServerHandlers...,
	)
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting picrelay %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"backend-storymap/internal/adventure"
	"backend-storymap/internal/client"
	"backend-storymap/internal/config"
	"backend-storymap/internal/db"
	"backend-storymap/internal/lock"

	"github.com/spf13/cobra"
)

// cli holds what every command shares once the root has loaded config.
type cli struct {
	deps   mainDeps
	cfg    config.Config
	logger *slog.Logger
	format string

	api *client.Client
}

func newRootCmd(deps mainDeps) *cobra.Command {
	app := &cli{deps: deps}

	cmd := &cobra.Command{
		Use:           "storymap",
		Short:         "Story Map API server and client",
		Long:          "Serve the Story Map API, or sign in and manage adventures against a running server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if app.format != "text" && app.format != "json" {
				return report(cmd, fmt.Errorf("invalid format %q: must be text or json", app.format))
			}
			cfg, err := deps.loadConfig()
			if err != nil {
				return report(cmd, err)
			}
			app.cfg = cfg
			app.logger = newLogger(cmd.ErrOrStderr(), app.cfg.LogLevel)
			return nil
		},
	}
	cmd.SetIn(deps.stdin)
	cmd.SetOut(deps.stdout)
	cmd.SetErr(deps.stderr)
	cmd.PersistentFlags().StringVar(&app.format, "format", "text", "output format (text|json)")

	cmd.AddCommand(
		newServeCmd(app),
		newMigrateCmd(app),
		newSignUpCmd(app),
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoAmICmd(app),
		newListCmd(app),
		newShowCmd(app),
		newCreateCmd(app),
		newEditCmd(app),
		newDeleteCmd(app),
		newAttachCmd(app),
	)
	return cmd
}

// newLogger builds the JSON slog handler used by every command.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func (a *cli) client() *client.Client {
	if a.api == nil {
		a.api = client.New(a.cfg.APIURL, a.cfg.SessionFile)
	}
	return a.api
}

// lifecycle runs the adventure flows against the API. The local guard keeps
// one command from submitting twice.
func (a *cli) lifecycle() *adventure.Lifecycle {
	c := a.client()
	return adventure.NewLifecycle(c, c, lock.NewLocalGuard(), nil, a.logger)
}

// report prints err for the user and hands it back to cobra.
func report(cmd *cobra.Command, err error) error {
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
	}
	return err
}

func newServeCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pg, err := app.deps.connectPostgres(app.cfg)
			if err != nil {
				app.logger.Error("postgres connection failed", "error", err)
				return report(cmd, err)
			}
			rdb := app.deps.connectRedis(app.cfg)

			signals := make(chan os.Signal, 1)
			app.deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

			app.logger.Info("listening", "addr", app.cfg.ServerPort, "redis", rdb != nil)
			if err := app.deps.run(cmd.Context(), app.cfg, pg, rdb, signals, nil, app.logger); err != nil {
				app.logger.Error("server exited with error", "error", err)
				return err
			}
			return nil
		},
	}
}

func newMigrateCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pg, err := app.deps.connectPostgres(app.cfg)
			if err != nil {
				return report(cmd, err)
			}
			defer pg.Close()
			if err := db.Migrate(cmd.Context(), pg); err != nil {
				return report(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

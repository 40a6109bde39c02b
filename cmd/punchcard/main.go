package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/punchcard/internal/api"
	"github.com/sandeepkv93/punchcard/internal/config"
	"github.com/sandeepkv93/punchcard/internal/logging"
)

// app is what every subcommand needs: loaded config, a logger and a client.
type app struct {
	configPath string
	cfg        config.Config
	logger     *log.Logger
	client     *api.Client
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:           "punchcard",
		Short:         "Terminal time tracker for the punchcard backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/punchcard/punchcard.yml)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations["skipClient"] == "true" {
			return nil
		}
		return a.load()
	}

	root.AddCommand(
		a.startCmd(),
		a.stopCmd(),
		a.statusCmd(),
		a.watchCmd(),
		a.logCmd(),
		a.entriesCmd(),
		a.reportCmd(),
		a.timesheetsCmd(),
		a.settingsCmd(),
		a.configCmd(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "punchcard: %s\n", api.Message(err, ""))
		os.Exit(1)
	}
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if a.logger == nil {
		a.logger = logging.Stderr(cfg.LogLevel)
	}
	client, err := api.New(cfg.APIURL, cfg.Token, api.WithTimeout(cfg.RequestTimeout), api.WithLogger(a.logger), api.WithLocation(cfg.Location))
	if err != nil {
		return fmt.Errorf("create api client: %w", err)
	}
	a.client = client
	a.logger.Debug("config loaded", "file", cfg.File, "api", cfg.APIURL, "tz", cfg.Timezone)
	return nil
}

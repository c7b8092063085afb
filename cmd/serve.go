package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/rams-cli/internal/history"
	"github.com/KaramelBytes/rams-cli/internal/logging"
	"github.com/KaramelBytes/rams-cli/internal/rams"
	"github.com/KaramelBytes/rams-cli/internal/render"
	"github.com/KaramelBytes/rams-cli/internal/server"
)

var (
	serveAddr       string
	serveProvider   string
	serveModel      string
	serveRatePerMin int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generate, normalize, render and preview HTTP API",
	Example: `  rams serve
  rams serve --addr 127.0.0.1:9090 --provider ollama --rate 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("configuration is required to serve")
		}
		addr := serveAddr
		if addr == "" {
			addr = cfg.ServerAddr
		}
		ratePerMin := cfg.ServerRatePerMin
		if cmd.Flags().Changed("rate") {
			ratePerMin = serveRatePerMin
		}
		layout, err := render.ParseLayout(cfg.Layout)
		if err != nil {
			return err
		}
		policy, err := rams.ParseListPolicy(cfg.ListPolicy)
		if err != nil {
			return err
		}

		client, providerName, err := buildRuntime(cfg, runtimeOptions{Provider: serveProvider})
		if err != nil {
			return err
		}
		var seed *int
		if cfg.Seed != 0 {
			s := cfg.Seed
			seed = &s
		}
		log := logging.L()
		templates := rams.NewTemplateStore(nil)
		gen := &rams.Generator{
			Runtime:     client,
			Templates:   templates,
			Model:       selectModel(nil, cfg, serveModel, providerName),
			Temperature: cfg.Temperature,
			Seed:        seed,
			Locale:      cfg.Locale,
			Strict:      cfg.Strict,
			Policy:      policy,
			MaxTokens:   cfg.MaxTokens,
			Logger:      log.With(zap.String("provider", providerName)),
		}

		var rec server.Recorder
		if path, err := historyPath(); err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: history disabled: %v\n", err)
		} else if path != "" {
			store, err := history.Open(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "⚠ Warning: history disabled: %v\n", err)
			} else {
				defer store.Close()
				rec = store
			}
		}

		srv := server.New(gen, templates, rec, server.Config{
			Addr:       addr,
			RatePerMin: ratePerMin,
			Burst:      cfg.ServerBurst,
			Layout:     layout,
			Policy:     policy,
			Provider:   providerName,
		}, log)

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving on %s (provider=%s model=%s)\n", addr, providerName, gen.Model)
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config server_addr)")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "completion provider ("+providerList()+")")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "model for /api/generate")
	serveCmd.Flags().IntVar(&serveRatePerMin, "rate", 0, "generate requests per minute (0 disables the limit)")
}

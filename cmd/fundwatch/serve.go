package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fundwatch-hq/fundwatch/pkg/cli"
	"fundwatch-hq/fundwatch/pkg/config"
	"fundwatch-hq/fundwatch/pkg/server"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	generate      bool
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Start the Fundwatch API server",
	Long: `Start the Fundwatch API server with the specified configuration.

The server answers the /api lookup routes through the request gate, serves
raw snapshots under the static path, and exposes /health, /ready, /version
and /metrics.

Examples:
  # Start with defaults
  fundwatch serve

  # Start with a config file and a different address
  fundwatch serve --config config.yaml --listen 0.0.0.0:8080

  # Regenerate snapshots before accepting traffic
  fundwatch serve --generate

  # Validate config without starting the server
  fundwatch serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.generate, "generate", false, "generate snapshots on start")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	}
	if serveFlags.generate {
		cfg.Snapshot.GenerateOnStart = true
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", err.Error())
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if serveFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	app, err := server.New(ctx, cfg, server.BuildInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	}, logger)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer app.Close()

	printBanner(out, cfg)
	go func() {
		select {
		case <-app.Server().Ready():
			addr := app.Server().Addr().String()
			fmt.Fprintf(out, "✓ Server listening on %s\n", addr)
			fmt.Fprintf(out, "✓ Health endpoint: http://%s%s\n", addr, cfg.Telemetry.Health.LivenessPath)
			if cfg.Telemetry.Metrics.Enabled {
				fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", addr, cfg.Telemetry.Metrics.Path)
			}
			fmt.Fprintln(out, "\nPress Ctrl+C to stop")
		case <-ctx.Done():
		}
	}()

	if err := app.Run(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}

	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

func printBanner(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Fundwatch v%s\n", Version)
	if cfgFile != "" {
		fmt.Fprintf(w, "Configuration: %s\n", cfgFile)
	} else {
		fmt.Fprintln(w, "Configuration: defaults")
	}
	fmt.Fprintf(w, "✓ Database: %s\n", cfg.Database.Path)

	if cfg.Limits.Enabled {
		fmt.Fprintf(w, "✓ Rate limits: %d tiers\n", len(cfg.Limits.Tiers))
	} else {
		fmt.Fprintln(w, "! Rate limits disabled")
	}
	if cfg.Cache.Redis.Enabled {
		fmt.Fprintf(w, "✓ Cache: memory + redis (%s)\n", cfg.Cache.Redis.Address)
	} else {
		fmt.Fprintln(w, "✓ Cache: memory")
	}
	fmt.Fprintf(w, "✓ Snapshots: %s backend\n", cfg.Snapshot.Backend)
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fundwatch-hq/fundwatch/pkg/cli"
	"fundwatch-hq/fundwatch/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration named by --config, apply FUNDWATCH_* environment
overrides and report every invalid field.

Examples:
  fundwatch validate --config config.yaml`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(out, "✗ Configuration invalid (%d errors)\n", len(verr.Errors))
			for _, fe := range verr.Errors {
				fmt.Fprintf(out, "  - %s: %s\n", fe.Field, fe.Message)
			}
			return cli.NewConfigError("", "validation failed")
		}
		return cli.NewConfigError("", err.Error())
	}

	fmt.Fprintln(out, "✓ Configuration valid")
	fmt.Fprintf(out, "  Listen address: %s\n", cfg.Server.ListenAddress)
	fmt.Fprintf(out, "  Rate limit tiers: %d\n", len(cfg.Limits.Tiers))
	fmt.Fprintf(out, "  Snapshot backend: %s\n", backendName(cfg.Snapshot.Backend))
	return nil
}

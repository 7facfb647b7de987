package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fundwatch-hq/fundwatch/pkg/cli"
	"fundwatch-hq/fundwatch/pkg/server"
	"fundwatch-hq/fundwatch/pkg/snapshot"
)

var snapshotFlags struct {
	output string
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage static snapshots",
	Long: `Generate and inspect the static snapshots served to rate-limited clients
and under the static path.

Examples:
  # Regenerate every snapshot from the holdings database
  fundwatch snapshot generate

  # List stored snapshots as CSV
  fundwatch snapshot list --output csv

  # Print one snapshot
  fundwatch snapshot show top_VOO_10`,
}

var snapshotGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate snapshots from the holdings database",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotGenerate,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotList,
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show KEY",
	Short: "Print a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotShow,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotGenerateCmd, snapshotListCmd, snapshotShowCmd)

	snapshotCmd.PersistentFlags().StringVarP(&snapshotFlags.output, "output", "o", "text", "output format: text, json, csv")
}

func runSnapshotGenerate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(snapshotFlags.output)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	repo, err := server.OpenHoldings(&cfg.Database)
	if err != nil {
		return cli.NewCommandError("snapshot generate", err)
	}
	defer repo.Close()

	snaps, err := server.OpenSnapshots(&cfg.Snapshot, logger)
	if err != nil {
		return cli.NewCommandError("snapshot generate", err)
	}
	defer snaps.Close()

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	start := time.Now()
	n, err := server.NewGenerator(repo, &cfg.Snapshot, logger).Run(ctx, snaps.Writer)
	if err != nil {
		return cli.NewCommandError("snapshot generate", err)
	}

	table := &cli.Table{Headers: []string{"backend", "snapshots", "duration"}}
	table.AddRow(backendName(cfg.Snapshot.Backend), n, time.Since(start).Round(time.Millisecond))
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), table)
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(snapshotFlags.output)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	snaps, err := server.OpenSnapshots(&cfg.Snapshot, nil)
	if err != nil {
		return cli.NewCommandError("snapshot list", err)
	}
	defer snaps.Close()

	ctx := context.Background()
	if snaps.Files == nil {
		n, err := snaps.Count(ctx)
		if err != nil {
			return cli.NewCommandError("snapshot list", err)
		}
		table := &cli.Table{Headers: []string{"backend", "snapshots"}}
		table.AddRow(backendName(cfg.Snapshot.Backend), n)
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), table)
	}

	table := &cli.Table{Headers: []string{"key", "generated_at", "bytes"}}
	for _, key := range snaps.Files.Keys() {
		s, ok := snaps.Files.Lookup(ctx, key)
		if !ok {
			continue
		}
		table.AddRow(key, s.GeneratedAt.UTC().Format(time.RFC3339), len(s.Value))
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), table)
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	key := args[0]
	if err := snapshot.ValidateKey(key); err != nil {
		return cli.NewCommandError("snapshot show", err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	snaps, err := server.OpenSnapshots(&cfg.Snapshot, nil)
	if err != nil {
		return cli.NewCommandError("snapshot show", err)
	}
	defer snaps.Close()

	s, ok := snaps.Store.Lookup(context.Background(), key)
	if !ok {
		return cli.NewCommandError("snapshot show", fmt.Errorf("snapshot %q not found", key))
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", s.Value)
	return err
}

func backendName(backend string) string {
	if backend == "" {
		return "file"
	}
	return backend
}

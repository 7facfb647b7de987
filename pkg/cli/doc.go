/*
Package cli provides helpers shared by the fundwatch commands.

Output Formatting:

Commands accept --output text|json|csv. Tabular results are built as a
Table and rendered by the matching formatter:

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	table := &cli.Table{Headers: []string{"key", "generated_at"}}
	table.AddRow(snap.Key, snap.GeneratedAt.Format(time.RFC3339))
	return cli.NewFormatter(format).FormatTo(os.Stdout, table)

Errors:

ConfigError and CommandError classify failures; ExitCode maps them to the
process exit status.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli

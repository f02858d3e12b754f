/*
Package cli provides command-line interface utilities for lantern.

The cli package includes output formatters, typed command errors with their
exit codes, and signal handling used by the lantern command.

Output Formatting:

Commands print results as text (the value's String method) or JSON:

	format, err := cli.ParseOutputFormat(outputFlag)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(os.Stdout, result)

Exit Codes:

Configuration problems exit with 2, everything else with 1:

	os.Exit(cli.ExitCode(err))

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli

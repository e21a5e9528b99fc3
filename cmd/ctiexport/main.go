// Command ctiexport downloads a threat export from the threat API into a
// local directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cti-console/cti-console/internal/app"
	"github.com/cti-console/cti-console/internal/export"
	"github.com/cti-console/cti-console/internal/threatapi"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("ctiexport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", string(threatapi.FormatCSV), "export format (csv or pdf)")
	limit := fs.String("limit", "1000", "maximum number of records")
	out := fs.String("out", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := app.LoadClientConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := app.NewCLILogger(cfg)

	client := threatapi.NewClient(cfg.ThreatAPIURL, cfg.ThreatAPITimeout)
	trigger := export.NewTrigger(client, logger)

	file, err := trigger.Export(ctx, *format, *limit)
	if err != nil {
		return err
	}
	path, err := export.Saver{Dir: *out}.Save(file)
	if err != nil {
		return err
	}
	logger.Info("export saved", slog.String("path", path))
	fmt.Fprintln(stdout, path)
	return nil
}

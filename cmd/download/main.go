package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/candle-downloader/internal/logger"
	"github.com/rxtech-lab/candle-downloader/internal/prompt"
	"github.com/rxtech-lab/candle-downloader/internal/types"
	"github.com/rxtech-lab/candle-downloader/internal/version"
	"github.com/rxtech-lab/candle-downloader/pkg/marketdata"
	"github.com/rxtech-lab/candle-downloader/pkg/marketdata/provider"
	"github.com/rxtech-lab/candle-downloader/pkg/marketdata/writer"
)

// loadConfig merges the config file, the SMARTAPI_* environment and the flags, in that order.
func loadConfig(cmd *cli.Command) (marketdata.FileConfig, error) {
	config, err := marketdata.LoadFileConfig(cmd.String("config"))
	if err != nil {
		return marketdata.FileConfig{}, err
	}

	if cmd.IsSet("writer") {
		config.Client.WriterType = writer.WriterType(cmd.String("writer"))
	}

	if cmd.IsSet("data") {
		config.Client.DataPath = cmd.String("data")
	}

	if cmd.IsSet("write-partial") {
		config.Client.WritePartial = cmd.Bool("write-partial")
	}

	if cmd.IsSet("exchange") {
		config.Download.Exchange = cmd.String("exchange")
	}

	if cmd.IsSet("symbol") {
		config.Download.Symbol = cmd.String("symbol")
	}

	if cmd.IsSet("from") {
		config.Download.FromDate = cmd.String("from")
	}

	if cmd.IsSet("to") {
		config.Download.ToDate = cmd.String("to")
	}

	if cmd.IsSet("intervals") {
		config.Download.Intervals = strings.Split(strings.ReplaceAll(cmd.String("intervals"), " ", ""), ",")
	}

	config.Download.Normalize()

	return config, nil
}

// downloadAction is the core logic executed by the CLI command.
// It collects missing inputs, sets up the market data client and runs the download.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger(logger.Options{
		Level:    cmd.String("log-level"),
		FilePath: cmd.String("log-file"),
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer func() { _ = log.Sync() }()

	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	download, err := prompt.Collect(ctx, config.Download, prompt.Options{})
	if err != nil {
		return err
	}

	params, err := download.ToDownloadParams(time.Now)
	if err != nil {
		return err
	}

	client, err := marketdata.NewClient(config.Client, log, nil)
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	log.Info("Starting download",
		zap.String("exchange", params.Exchange),
		zap.String("symbol", params.Symbol),
		zap.String("from", params.StartDate.Format("02-01-2006")),
		zap.String("to", params.EndDate.Format("02-01-2006")),
		zap.Strings("intervals", download.Intervals),
		zap.String("writer", string(config.Client.WriterType)),
	)

	report, err := client.Download(ctx, params)
	fmt.Println(RenderSummary(report, err))

	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	return nil
}

// schemaAction prints the JSON schema of the download section of the config file.
func schemaAction(_ context.Context, _ *cli.Command) error {
	schema, err := marketdata.GetDownloadConfigSchema()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

// providersAction lists the supported market data providers.
func providersAction(_ context.Context, _ *cli.Command) error {
	for _, name := range marketdata.GetSupportedProviders() {
		info, err := marketdata.GetProviderInfo(name)
		if err != nil {
			return err
		}

		fmt.Println(RenderProvider(info))
	}

	return nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "download",
		Usage:   "Download historical candles from Angel One SmartAPI into one sheet per interval",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
			},
			&cli.StringFlag{
				Name:    "exchange",
				Aliases: []string{"e"},
				Usage:   "Exchange (NSE, BSE)",
			},
			&cli.StringFlag{
				Name:    "symbol",
				Aliases: []string{"s"},
				Usage:   "Trading symbol, e.g. SBIN",
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "From date in `DD-MM-YYYY` format",
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "To date in `DD-MM-YYYY` format, or TODAY",
			},
			&cli.StringFlag{
				Name:    "intervals",
				Aliases: []string{"i"},
				Usage:   fmt.Sprintf("Comma separated intervals (%s)", strings.Join(types.SupportedIntervals(), ", ")),
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the data output directory",
				Value:   "data",
			},
			&cli.StringFlag{
				Name:    "writer",
				Aliases: []string{"w"},
				Usage:   fmt.Sprintf("Output format (%s, %s)", writer.WriterExcel, writer.WriterDuckDB),
				Value:   string(writer.WriterExcel),
			},
			&cli.BoolFlag{
				Name:  "write-partial",
				Usage: "Write fully downloaded intervals even when the download aborts",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "File receiving a copy of the log",
				Value: "debug.log",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
		},
		Action: downloadAction,
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the download config",
				Action: schemaAction,
			},
			{
				Name:   "providers",
				Usage:  fmt.Sprintf("List supported market data providers (default %s)", provider.ProviderSmartAPI),
				Action: providersAction,
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

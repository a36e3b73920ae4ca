package marketdata

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/rxtech-lab/candle-downloader/internal/logger"
	"github.com/rxtech-lab/candle-downloader/internal/types"
	"github.com/rxtech-lab/candle-downloader/pkg/errors"
	"github.com/rxtech-lab/candle-downloader/pkg/marketdata/instrument"
	"github.com/rxtech-lab/candle-downloader/pkg/marketdata/provider"
	"github.com/rxtech-lab/candle-downloader/pkg/marketdata/writer"
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType provider.ProviderType `yaml:"provider" validate:"required,oneof=smartapi"`
	WriterType   writer.WriterType     `yaml:"writer" validate:"required,oneof=excel duckdb"`
	DataPath     string                `yaml:"dataPath" validate:"required"`

	TokenCachePath   string        `yaml:"tokenCachePath"`
	TokenCacheMaxAge time.Duration `yaml:"tokenCacheMaxAge" jsonschema:"type=string" validate:"min=0"`

	// WritePartial writes the fully completed granularities of an aborted run.
	WritePartial bool `yaml:"writePartial"`

	SmartAPI provider.SmartAPIConfig `yaml:"smartapi"`
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Exchange      string              `validate:"required,oneof=NSE BSE"`
	Symbol        string              `validate:"required,alpha,max=16"`
	StartDate     time.Time           `validate:"required"`
	EndDate       time.Time           `validate:"required"`
	Granularities []types.Granularity `validate:"required,min=1"`
}

// WriterFactory opens the sink for a symbol.
type WriterFactory func(symbol string) (writer.TableWriter, error)

// DownloadReport describes what a download produced.
type DownloadReport struct {
	Symbol     string
	Token      int64
	Windows    []types.DateWindow
	Result     *AcquisitionResult
	OutputPath string
	// Sheets lists the sheets written, in order.
	Sheets []string
}

// Client is the market data client responsible for downloading data from providers and storing it using writers.
type Client struct {
	provider       provider.Provider
	resolver       instrument.Resolver
	newWriter      WriterFactory
	config         ClientConfig
	validate       *validator.Validate
	log            *logger.Logger
	onProgress     provider.OnDownloadProgress
	progressOutput io.Writer
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, log *logger.Logger, onProgress provider.OnDownloadProgress) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	marketProvider, err := provider.NewMarketDataProvider(config.ProviderType, config.SmartAPI, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", config.ProviderType, err)
	}

	resolver := instrument.NewScripMaster(afero.NewOsFs(), instrument.Config{
		CachePath: config.TokenCachePath,
		MaxAge:    config.TokenCacheMaxAge,
	}, log)

	newWriter := func(symbol string) (writer.TableWriter, error) {
		return writer.NewTableWriter(config.WriterType, config.DataPath, symbol)
	}

	return NewClientWithDependencies(config, marketProvider, resolver, newWriter, log, onProgress), nil
}

// NewClientWithDependencies creates a client over already constructed collaborators.
func NewClientWithDependencies(
	config ClientConfig,
	marketProvider provider.Provider,
	resolver instrument.Resolver,
	newWriter WriterFactory,
	log *logger.Logger,
	onProgress provider.OnDownloadProgress,
) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Client{
		provider:   marketProvider,
		resolver:   resolver,
		newWriter:  newWriter,
		config:     config,
		validate:   validator.New(),
		log:        log,
		onProgress: onProgress,
	}
}

// SetProgressOutput redirects the acquisition progress bar.
func (c *Client) SetProgressOutput(w io.Writer) {
	c.progressOutput = w
}

// Download chunks the range, logs in, resolves the symbol, acquires every
// (granularity, window) pair and writes one sheet per granularity.
//
// An invalid range is rejected before any network call. When acquisition aborts,
// nothing is written unless WritePartial is set; the partial report is returned with the error.
func (c *Client) Download(ctx context.Context, params DownloadParams) (*DownloadReport, error) {
	if err := c.validate.Struct(params); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	granularities := uniqueGranularities(params.Granularities)
	for _, g := range granularities {
		if err := g.Validate(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGranularity, "invalid download parameters", err)
		}
	}

	windows, err := ChunkDateRange(params.StartDate, params.EndDate)
	if err != nil {
		return nil, err
	}

	report := &DownloadReport{
		Symbol:  params.Symbol,
		Windows: windows,
	}

	session, err := c.provider.Login(ctx)
	if err != nil {
		return report, fmt.Errorf("login failed: %w", err)
	}

	c.log.Info("LOGIN SUCCESSFUL", zap.String("client_code", session.ClientCode))

	token, err := c.resolver.Resolve(ctx, params.Symbol, params.Exchange)
	if err != nil {
		return report, fmt.Errorf("token lookup failed: %w", err)
	}

	report.Token = token

	acquirer := NewAcquirer(c.provider, session, c.log, c.onProgress)
	if c.progressOutput != nil {
		acquirer.SetProgressOutput(c.progressOutput)
	}

	result, acquireErr := acquirer.Acquire(ctx, AcquisitionRequest{
		Symbol:        params.Symbol,
		Exchange:      params.Exchange,
		Token:         token,
		Granularities: granularities,
		Windows:       windows,
	})
	report.Result = result

	if acquireErr != nil {
		if result == nil || !c.config.WritePartial {
			return report, acquireErr
		}

		completed := result.CompletedGranularities()
		if len(completed) == 0 {
			return report, acquireErr
		}

		c.log.Warn("Writing completed granularities of an aborted acquisition",
			zap.Int("granularities", len(completed)))

		return report, multierr.Append(acquireErr, c.write(report, params.Symbol, completed))
	}

	return report, c.write(report, params.Symbol, granularities)
}

// write persists the given granularities of report.Result and finalizes the sink.
func (c *Client) write(report *DownloadReport, symbol string, granularities []types.Granularity) error {
	sink, err := c.newWriter(symbol)
	if err != nil {
		return fmt.Errorf("failed to setup writer: %w", err)
	}

	if err := sink.Initialize(); err != nil {
		return errors.Wrapf(errors.ErrCodeSinkWrite, err, "failed to initialize writer at %s", sink.GetOutputPath())
	}

	defer func() {
		if closeErr := sink.Close(); closeErr != nil {
			c.log.Warn("Failed to close writer", zap.Error(closeErr))
		}
	}()

	sheets, writeErr := WriteResult(sink, symbol, report.Result, granularities, c.log)
	report.Sheets = sheets

	if len(sheets) == 0 {
		return writeErr
	}

	outputPath, err := sink.Finalize()
	if err != nil {
		return multierr.Append(writeErr, errors.Wrapf(errors.ErrCodeSinkWrite, err, "failed to finalize %s", sink.GetOutputPath()))
	}

	report.OutputPath = outputPath
	c.log.Info("Saved market data", zap.String("path", outputPath), zap.Strings("sheets", sheets))

	return writeErr
}

// uniqueGranularities drops repeats, keeping first-seen order.
func uniqueGranularities(granularities []types.Granularity) []types.Granularity {
	unique := make([]types.Granularity, 0, len(granularities))
	for _, g := range granularities {
		if !slices.Contains(unique, g) {
			unique = append(unique, g)
		}
	}

	return unique
}

package marketdata

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/candle-downloader/internal/types"
	"github.com/rxtech-lab/candle-downloader/pkg/errors"
	"github.com/rxtech-lab/candle-downloader/pkg/marketdata/provider"
	"github.com/rxtech-lab/candle-downloader/pkg/marketdata/writer"
)

const (
	// InputDateLayout is the DD-MM-YYYY layout of user supplied dates. Single digit days and months are accepted.
	InputDateLayout = "2-1-2006"

	// Today stands for the current date in the to-date field.
	Today = "TODAY"

	// MaxSymbolLength keeps <SYMBOL>_FIFTEEN_MINUTE within the 31 character sheet name limit.
	MaxSymbolLength = 16

	EnvAPIKey     = "SMARTAPI_API_KEY"
	EnvClientCode = "SMARTAPI_CLIENT_CODE"
	EnvPassword   = "SMARTAPI_PASSWORD"
	EnvTOTPSecret = "SMARTAPI_TOTP_SECRET"
)

// MarketLocation is the exchange time zone used for date inputs.
var MarketLocation = time.FixedZone("IST", 5*60*60+30*60)

// DownloadConfig is the user facing description of one download, as typed on the CLI or stored in a file.
type DownloadConfig struct {
	Exchange  string   `json:"exchange" yaml:"exchange" jsonschema:"title=Exchange,description=Exchange the symbol is listed on,required,enum=NSE,enum=BSE" validate:"required,oneof=NSE BSE"`
	Symbol    string   `json:"symbol" yaml:"symbol" jsonschema:"title=Symbol,description=Trading symbol without the series suffix (e.g. SBIN),required,maxLength=16" validate:"required,alpha,max=16"`
	FromDate  string   `json:"fromDate" yaml:"fromDate" jsonschema:"title=From Date,description=First day to download (DD-MM-YYYY),required" validate:"required"`
	ToDate    string   `json:"toDate" yaml:"toDate" jsonschema:"title=To Date,description=Last day to download (DD-MM-YYYY or TODAY),required" validate:"required"`
	Intervals []string `json:"intervals" yaml:"intervals" jsonschema:"title=Intervals,description=Candle intervals to download,required,enum=1m,enum=3m,enum=5m,enum=10m,enum=15m,enum=30m,enum=1h,enum=1d" validate:"required,min=1,dive,oneof=1m 3m 5m 10m 15m 30m 1h 1d"`
}

// Normalize uppercases the exchange, symbol and TODAY literal and trims whitespace.
func (c *DownloadConfig) Normalize() {
	c.Exchange = strings.ToUpper(strings.TrimSpace(c.Exchange))
	c.Symbol = strings.ToUpper(strings.TrimSpace(c.Symbol))
	c.FromDate = strings.TrimSpace(c.FromDate)
	c.ToDate = strings.TrimSpace(c.ToDate)

	if strings.EqualFold(c.ToDate, Today) {
		c.ToDate = Today
	}

	for i, interval := range c.Intervals {
		c.Intervals[i] = strings.TrimSpace(interval)
	}
}

// Validate validates the DownloadConfig fields.
func (c *DownloadConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download config", err)
	}

	if _, err := ParseInputDate(c.FromDate, time.Now); err != nil {
		return err
	}

	if _, err := ParseInputDate(c.ToDate, time.Now); err != nil {
		return err
	}

	return nil
}

// ToDownloadParams converts a DownloadConfig to DownloadParams. now resolves TODAY.
func (c *DownloadConfig) ToDownloadParams(now func() time.Time) (DownloadParams, error) {
	if err := c.Validate(); err != nil {
		return DownloadParams{}, err
	}

	startDate, err := ParseInputDate(c.FromDate, now)
	if err != nil {
		return DownloadParams{}, err
	}

	endDate, err := ParseInputDate(c.ToDate, now)
	if err != nil {
		return DownloadParams{}, err
	}

	granularities := make([]types.Granularity, 0, len(c.Intervals))

	for _, interval := range c.Intervals {
		g, err := types.ParseInterval(interval)
		if err != nil {
			return DownloadParams{}, errors.Wrap(errors.ErrCodeInvalidGranularity, "invalid interval", err)
		}

		granularities = append(granularities, g)
	}

	return DownloadParams{
		Exchange:      c.Exchange,
		Symbol:        c.Symbol,
		StartDate:     startDate,
		EndDate:       endDate,
		Granularities: granularities,
	}, nil
}

// ParseInputDate parses a DD-MM-YYYY date, or TODAY, at midnight in MarketLocation.
func ParseInputDate(value string, now func() time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, Today) {
		return types.TruncateToDay(now().In(MarketLocation)), nil
	}

	date, err := time.ParseInLocation(InputDateLayout, value, MarketLocation)
	if err != nil {
		return time.Time{}, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid date %q, expected DD-MM-YYYY", value)
	}

	return date, nil
}

// ParseDownloadConfig parses JSON into a DownloadConfig.
func ParseDownloadConfig(jsonConfig string) (*DownloadConfig, error) {
	var config DownloadConfig
	if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}

	config.Normalize()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// GetDownloadConfigSchema returns the JSON schema of DownloadConfig.
func GetDownloadConfigSchema() (string, error) {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}

	schema := reflector.Reflect(&DownloadConfig{})

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal download config schema: %w", err)
	}

	return string(data), nil
}

// GetFileConfigSchema returns the JSON schema of the YAML configuration file.
func GetFileConfigSchema() (string, error) {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		FieldNameTag:   "yaml",
	}

	schema := reflector.Reflect(&FileConfig{})

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal config file schema: %w", err)
	}

	return string(data), nil
}

// FileConfig is the layout of the YAML configuration file.
type FileConfig struct {
	Client   ClientConfig   `yaml:"client"`
	Download DownloadConfig `yaml:"download"`
}

// DefaultClientConfig returns the configuration used when no file is given.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ProviderType: provider.ProviderSmartAPI,
		WriterType:   writer.WriterExcel,
		DataPath:     "data",
	}
}

// LoadFileConfig reads path (when set) on top of the defaults and applies the
// SMARTAPI_* environment overrides. The result is not validated.
func LoadFileConfig(path string) (FileConfig, error) {
	config := FileConfig{Client: DefaultClientConfig()}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return FileConfig{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return FileConfig{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config file %s", path)
		}
	}

	config.Client.SmartAPI = applyEnvOverrides(config.Client.SmartAPI, os.LookupEnv)
	config.Download.Normalize()

	return config, nil
}

// applyEnvOverrides replaces credentials with the non-empty SMARTAPI_* variables.
func applyEnvOverrides(config provider.SmartAPIConfig, lookup func(string) (string, bool)) provider.SmartAPIConfig {
	overrides := []struct {
		key   string
		field *string
	}{
		{EnvAPIKey, &config.APIKey},
		{EnvClientCode, &config.ClientCode},
		{EnvPassword, &config.Password},
		{EnvTOTPSecret, &config.TOTPSecret},
	}

	for _, override := range overrides {
		if value, ok := lookup(override.key); ok && value != "" {
			*override.field = value
		}
	}

	return config
}

// Package instrument resolves trading symbols to the numeric instrument tokens
// the broker API expects.
//
// Tokens come from the broker's published scrip master, a large JSON array
// that is cached on disk. The cache is reused while it is younger than MaxAge
// and refetched when it is stale, missing or unreadable.
package instrument

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/rxtech-lab/candle-downloader/internal/logger"
	"github.com/rxtech-lab/candle-downloader/pkg/errors"
)

const (
	// ScripMasterURL is the published OpenAPI instrument list.
	ScripMasterURL = "https://margincalculator.angelbroking.com/OpenAPI_File/files/OpenAPIScripMaster.json"

	DefaultCachePath = "token.json"
	DefaultMaxAge    = 24 * time.Hour

	// equitySuffix is appended to NSE cash-market symbols in the scrip master.
	equitySuffix = "-EQ"
)

// Resolver maps a symbol on an exchange to its instrument token.
type Resolver interface {
	Resolve(ctx context.Context, symbol string, exchange string) (int64, error)
}

// Instrument is one entry of the scrip master.
type Instrument struct {
	Token          string `json:"token"`
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	Expiry         string `json:"expiry"`
	Strike         string `json:"strike"`
	LotSize        string `json:"lotsize"`
	InstrumentType string `json:"instrumenttype"`
	ExchangeSeg    string `json:"exch_seg"`
	TickSize       string `json:"tick_size"`
}

// Config configures a ScripMaster.
type Config struct {
	URL       string
	CachePath string
	MaxAge    time.Duration
	Timeout   time.Duration
}

// ScripMaster is a Resolver backed by a cached copy of the scrip master.
type ScripMaster struct {
	fs     afero.Fs
	client *resty.Client
	config Config
	log    *logger.Logger
	now    func() time.Time

	instruments []Instrument
}

// NewScripMaster creates a resolver that caches the scrip master on fs.
func NewScripMaster(fs afero.Fs, config Config, log *logger.Logger) *ScripMaster {
	if config.URL == "" {
		config.URL = ScripMasterURL
	}

	if config.CachePath == "" {
		config.CachePath = DefaultCachePath
	}

	if config.MaxAge == 0 {
		config.MaxAge = DefaultMaxAge
	}

	if config.Timeout == 0 {
		config.Timeout = time.Minute
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &ScripMaster{
		fs:     fs,
		client: resty.New().SetTimeout(config.Timeout),
		config: config,
		log:    log,
		now:    time.Now,
	}
}

// Resolve implements Resolver. Matching is case-insensitive on the exact symbol
// within the exchange segment; NSE symbols are looked up with the -EQ suffix.
func (s *ScripMaster) Resolve(ctx context.Context, symbol string, exchange string) (int64, error) {
	s.log.Info("LOOKING FOR TOKEN", zap.String("symbol", symbol), zap.String("exchange", exchange))

	instruments, err := s.Instruments(ctx)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeLookupFailed, "failed to load scrip master", err)
	}

	lookup := strings.ToUpper(strings.TrimSpace(symbol))
	if strings.EqualFold(exchange, "NSE") && !strings.HasSuffix(lookup, equitySuffix) {
		lookup += equitySuffix
	}

	var matches []Instrument

	for _, inst := range instruments {
		if strings.EqualFold(inst.ExchangeSeg, exchange) && strings.EqualFold(inst.Symbol, lookup) {
			matches = append(matches, inst)
		}
	}

	switch len(matches) {
	case 0:
		s.log.Info("TOKEN NOT FOUND", zap.String("symbol", lookup), zap.String("exchange", exchange))

		return 0, errors.Newf(errors.ErrCodeLookupFailed, "token not found for %s in %s", lookup, exchange)
	case 1:
	default:
		return 0, errors.Newf(errors.ErrCodeLookupFailed, "symbol %s is ambiguous in %s: %d instruments match", lookup, exchange, len(matches))
	}

	token, err := strconv.ParseInt(matches[0].Token, 10, 64)
	if err != nil || token <= 0 {
		return 0, errors.Newf(errors.ErrCodeLookupFailed, "instrument %s has invalid token %q", lookup, matches[0].Token)
	}

	s.log.Info("TOKEN FOUND", zap.String("symbol", lookup), zap.Int64("token", token))

	return token, nil
}

// Instruments returns the scrip master, loading it from cache or the network on first use.
func (s *ScripMaster) Instruments(ctx context.Context) ([]Instrument, error) {
	if s.instruments != nil {
		return s.instruments, nil
	}

	instruments, err := s.loadCache()
	if err != nil {
		s.log.Info("scrip master cache unusable, downloading", zap.String("path", s.config.CachePath), zap.String("reason", err.Error()))

		instruments, err = s.refresh(ctx)
		if err != nil {
			return nil, err
		}
	}

	s.instruments = instruments

	return instruments, nil
}

// loadCache reads the cached file when it exists and is fresh.
func (s *ScripMaster) loadCache() ([]Instrument, error) {
	info, err := s.fs.Stat(s.config.CachePath)
	if err != nil {
		return nil, err
	}

	if age := s.now().Sub(info.ModTime()); age > s.config.MaxAge {
		return nil, fmt.Errorf("cache is %s old, max age is %s", age.Round(time.Second), s.config.MaxAge)
	}

	content, err := afero.ReadFile(s.fs, s.config.CachePath)
	if err != nil {
		return nil, err
	}

	var instruments []Instrument
	if err := json.Unmarshal(content, &instruments); err != nil {
		return nil, fmt.Errorf("cache is corrupt: %w", err)
	}

	if len(instruments) == 0 {
		return nil, fmt.Errorf("cache is empty")
	}

	return instruments, nil
}

// refresh downloads the scrip master and persists it before returning it.
func (s *ScripMaster) refresh(ctx context.Context) ([]Instrument, error) {
	resp, err := s.client.R().SetContext(ctx).Get(s.config.URL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCacheFailed, "failed to download scrip master", err)
	}

	if resp.IsError() {
		return nil, errors.Newf(errors.ErrCodeCacheFailed, "scrip master download returned HTTP %d", resp.StatusCode())
	}

	var instruments []Instrument
	if err := json.Unmarshal(resp.Body(), &instruments); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCacheFailed, "failed to decode scrip master", err)
	}

	if dir := filepath.Dir(s.config.CachePath); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCacheFailed, "failed to create cache directory", err)
		}
	}

	if err := afero.WriteFile(s.fs, s.config.CachePath, resp.Body(), os.FileMode(0o644)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCacheFailed, "failed to persist scrip master", err)
	}

	s.log.Info("scrip master cached", zap.String("path", s.config.CachePath), zap.Int("instruments", len(instruments)))

	return instruments, nil
}

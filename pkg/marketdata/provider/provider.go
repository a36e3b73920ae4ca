package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rxtech-lab/candle-downloader/internal/logger"
	"github.com/rxtech-lab/candle-downloader/internal/types"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderSmartAPI ProviderType = "smartapi"
)

type OnDownloadProgress = func(current float64, total float64, message string)

// Session is the authenticated handle returned by Login.
// It is created once per run and shared read-only by every fetch.
type Session struct {
	ClientCode   string
	JWTToken     string
	RefreshToken string
	FeedToken    string
	CreatedAt    time.Time
}

// Validate checks that the session can authorize requests.
func (s *Session) Validate() error {
	if s == nil {
		return fmt.Errorf("session is nil")
	}

	if s.JWTToken == "" {
		return fmt.Errorf("session has no auth token")
	}

	return nil
}

// HistoricalRequest identifies one provider call: a single granularity over a single window.
type HistoricalRequest struct {
	Exchange    string
	Token       int64
	Granularity types.Granularity
	Window      types.DateWindow
}

// Validate checks the request before it leaves the process.
func (r HistoricalRequest) Validate() error {
	if r.Exchange == "" {
		return fmt.Errorf("exchange is required")
	}

	if r.Token <= 0 {
		return fmt.Errorf("instrument token must be positive, got %d", r.Token)
	}

	if err := r.Granularity.Validate(); err != nil {
		return err
	}

	return r.Window.Validate()
}

type Authenticator interface {
	// Login opens a session with the provider.
	Login(ctx context.Context) (*Session, error)
}

type CandleFetcher interface {
	// FetchCandles performs exactly one historical data call.
	// A provider-reported failure returns an empty table together with a *errors.RemoteDataError;
	// every other error is fatal to the acquisition.
	FetchCandles(ctx context.Context, session *Session, req HistoricalRequest) (types.CandleTable, error)
}

// Provider is a market data source that can both log in and serve history.
type Provider interface {
	Authenticator
	CandleFetcher
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
func NewMarketDataProvider(providerType ProviderType, config SmartAPIConfig, log *logger.Logger) (Provider, error) {
	switch providerType {
	case ProviderSmartAPI:
		return NewSmartAPIClient(config, log)
	default:
		return nil, fmt.Errorf("unsupported market data provider: %s", providerType)
	}
}

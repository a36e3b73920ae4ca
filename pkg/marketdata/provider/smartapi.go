package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/rxtech-lab/candle-downloader/internal/logger"
)

const (
	// SmartAPIBaseURL is the production REST endpoint.
	SmartAPIBaseURL = "https://apiconnect.angelone.in"

	loginPath      = "/rest/auth/angelbroking/user/v1/loginByPassword"
	candleDataPath = "/rest/secure/angelbroking/historical/v1/getCandleData"

	defaultRequestTimeout    = 30 * time.Second
	defaultRequestsPerSecond = 3
)

// SmartAPIConfig holds credentials and transport settings for the Angel One SmartAPI.
type SmartAPIConfig struct {
	APIKey     string `yaml:"apiKey" validate:"required"`
	ClientCode string `yaml:"clientCode" validate:"required"`
	Password   string `yaml:"password" validate:"required"`
	TOTPSecret string `yaml:"totpSecret" validate:"required"`

	BaseURL           string        `yaml:"baseUrl" validate:"omitempty,url"`
	Timeout           time.Duration `yaml:"timeout" jsonschema:"type=string" validate:"min=0"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond" validate:"min=0"`

	ClientLocalIP  string `yaml:"clientLocalIp" validate:"omitempty,ip"`
	ClientPublicIP string `yaml:"clientPublicIp" validate:"omitempty,ip"`
	MACAddress     string `yaml:"macAddress" validate:"omitempty,mac"`
}

// withDefaults fills the optional transport fields.
func (c SmartAPIConfig) withDefaults() SmartAPIConfig {
	if c.BaseURL == "" {
		c.BaseURL = SmartAPIBaseURL
	}

	if c.Timeout == 0 {
		c.Timeout = defaultRequestTimeout
	}

	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = defaultRequestsPerSecond
	}

	if c.ClientLocalIP == "" {
		c.ClientLocalIP = "127.0.0.1"
	}

	if c.ClientPublicIP == "" {
		c.ClientPublicIP = "127.0.0.1"
	}

	if c.MACAddress == "" {
		c.MACAddress = "00:00:00:00:00:00"
	}

	return c
}

// SmartAPIClient talks to the SmartAPI REST endpoints.
// Calls are serialized by the caller; the limiter only spaces them out.
type SmartAPIClient struct {
	client  *resty.Client
	limiter *rate.Limiter
	config  SmartAPIConfig
	log     *logger.Logger
	now     func() time.Time
}

// NewSmartAPIClient validates config and builds a client.
func NewSmartAPIClient(config SmartAPIConfig, log *logger.Logger) (*SmartAPIClient, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid smartapi configuration: %w", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	config = config.withDefaults()

	client := resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(config.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("X-UserType", "USER").
		SetHeader("X-SourceID", "WEB").
		SetHeader("X-ClientLocalIP", config.ClientLocalIP).
		SetHeader("X-ClientPublicIP", config.ClientPublicIP).
		SetHeader("X-MACAddress", config.MACAddress).
		SetHeader("X-PrivateKey", config.APIKey)

	return &SmartAPIClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		config:  config,
		log:     log,
		now:     time.Now,
	}, nil
}

// envelope is the response wrapper shared by every SmartAPI endpoint.
type envelope struct {
	Status    bool            `json:"status"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"errorcode"`
	Data      json.RawMessage `json:"data"`
}

func decodeEnvelope(resp *resty.Response) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return envelope{}, fmt.Errorf("unexpected response (HTTP %d): %w", resp.StatusCode(), err)
	}

	return env, nil
}

// isTimeout reports whether err came from a connectivity timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

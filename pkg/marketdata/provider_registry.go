package marketdata

import (
	"fmt"
	"sort"

	"github.com/rxtech-lab/candle-downloader/pkg/marketdata/provider"
)

// ProviderInfo contains metadata about a market data provider.
type ProviderInfo struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"displayName"`
	Description  string   `json:"description"`
	Exchanges    []string `json:"exchanges"`
	RequiresAuth bool     `json:"requiresAuth"`
}

// providerRegistry holds metadata about all supported providers.
var providerRegistry = map[provider.ProviderType]ProviderInfo{
	provider.ProviderSmartAPI: {
		Name:         string(provider.ProviderSmartAPI),
		DisplayName:  "Angel One SmartAPI",
		Description:  "Indian equity historical candles, fetched in windows of at most seven days",
		Exchanges:    []string{"NSE", "BSE"},
		RequiresAuth: true,
	},
}

// GetSupportedProviders returns a sorted list of all supported provider names.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	sort.Strings(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[provider.ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, fmt.Errorf("unsupported provider: %s", providerName)
	}

	return info, nil
}

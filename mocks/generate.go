package mocks

//go:generate mockgen -destination=./mock_candle_fetcher.go -package=mocks github.com/rxtech-lab/candle-downloader/pkg/marketdata/provider CandleFetcher
//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/candle-downloader/pkg/marketdata/provider Provider
//go:generate mockgen -destination=./mock_resolver.go -package=mocks github.com/rxtech-lab/candle-downloader/pkg/marketdata/instrument Resolver
//go:generate mockgen -destination=./mock_table_writer.go -package=mocks github.com/rxtech-lab/candle-downloader/pkg/marketdata/writer TableWriter

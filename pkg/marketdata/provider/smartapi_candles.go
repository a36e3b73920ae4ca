package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/candle-downloader/internal/types"
	"github.com/rxtech-lab/candle-downloader/pkg/errors"
)

// candleTimeLayout is the RFC 3339 variant SmartAPI uses for row timestamps,
// e.g. 2024-01-08T09:15:00+05:30.
const candleTimeLayout = "2006-01-02T15:04:05-07:00"

type candleRequest struct {
	Exchange    string `json:"exchange"`
	SymbolToken string `json:"symboltoken"`
	Interval    string `json:"interval"`
	FromDate    string `json:"fromdate"`
	ToDate      string `json:"todate"`
}

// FetchCandles implements CandleFetcher.
func (c *SmartAPIClient) FetchCandles(ctx context.Context, session *Session, req HistoricalRequest) (types.CandleTable, error) {
	table := types.NewCandleTable(req.Granularity, req.Window)

	if err := session.Validate(); err != nil {
		return table, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid session", err)
	}

	if err := req.Validate(); err != nil {
		return table, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid historical request", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return table, errors.Wrap(errors.ErrCodeHistoricalDataFailed, "rate limiter wait failed", err)
	}

	body := candleRequest{
		Exchange:    req.Exchange,
		SymbolToken: strconv.FormatInt(req.Token, 10),
		Interval:    string(req.Granularity),
		FromDate:    req.Window.FromParam(),
		ToDate:      req.Window.ToParam(),
	}

	c.log.Debug("fetching candles",
		zap.String("exchange", body.Exchange),
		zap.String("token", body.SymbolToken),
		zap.String("interval", body.Interval),
		zap.String("from", body.FromDate),
		zap.String("to", body.ToDate),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(session.JWTToken).
		SetBody(body).
		Post(candleDataPath)
	if err != nil {
		if isTimeout(err) {
			return table, errors.Wrapf(errors.ErrCodeTimeout, err, "historical data request for %s %s timed out", req.Granularity, req.Window)
		}

		return table, errors.Wrapf(errors.ErrCodeHistoricalDataFailed, err, "historical data request for %s %s failed", req.Granularity, req.Window)
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		return table, errors.Wrap(errors.ErrCodeHistoricalDataFailed, "failed to decode historical data response", err)
	}

	if !env.Status {
		return table, errors.NewRemoteDataError(env.ErrorCode, env.Message, string(req.Granularity), body.FromDate, body.ToDate)
	}

	rows, err := decodeRows(env.Data)
	if err != nil {
		return table, errors.Wrap(errors.ErrCodeMalformedRow, "historical data rows are not an array of arrays", err)
	}

	candles := make([]types.Candle, 0, len(rows))

	for i, row := range rows {
		candle, err := parseCandleRow(row)
		if err != nil {
			return table, errors.Wrapf(errors.ErrCodeMalformedRow, err, "row %d of %s %s", i, req.Granularity, req.Window)
		}

		candles = append(candles, candle)
	}

	table.Candles = candles

	return table, nil
}

func decodeRows(data json.RawMessage) ([][]any, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var rows [][]any
	if err := decoder.Decode(&rows); err != nil {
		return nil, err
	}

	return rows, nil
}

// parseCandleRow converts [timestamp, open, high, low, close, volume] into a Candle.
func parseCandleRow(row []any) (types.Candle, error) {
	if len(row) < 6 {
		return types.Candle{}, fmt.Errorf("expected 6 fields, got %d", len(row))
	}

	for i := 0; i < 6; i++ {
		if row[i] == nil {
			return types.Candle{}, fmt.Errorf("field %d is null", i)
		}
	}

	rawTime, ok := row[0].(string)
	if !ok {
		return types.Candle{}, fmt.Errorf("timestamp is %T, expected string", row[0])
	}

	ts, err := time.Parse(candleTimeLayout, rawTime)
	if err != nil {
		return types.Candle{}, fmt.Errorf("invalid timestamp %q: %w", rawTime, err)
	}

	values := make([]float64, 5)

	for i := range values {
		v, err := toFloat(row[i+1])
		if err != nil {
			return types.Candle{}, fmt.Errorf("field %d: %w", i+1, err)
		}

		values[i] = v
	}

	return types.Candle{
		Time:   ts,
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Float64()
	case float64:
		return n, nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("value %v is %T, expected a number", v, v)
	}
}

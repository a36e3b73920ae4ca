package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/candle-downloader/internal/types"
	"github.com/rxtech-lab/candle-downloader/pkg/errors"
)

const testTOTPSecret = "JBSWY3DPEHPK3PXP"

// fakeSmartAPI is a minimal SmartAPI stand-in. Each test swaps the handlers it needs.
type fakeSmartAPI struct {
	mu            sync.Mutex
	server        *httptest.Server
	loginHandler  http.HandlerFunc
	candleHandler http.HandlerFunc
	candleBodies  []candleRequest
	authHeaders   []string
}

func newFakeSmartAPI() *fakeSmartAPI {
	f := &fakeSmartAPI{}

	router := mux.NewRouter()
	router.HandleFunc(loginPath, func(w http.ResponseWriter, r *http.Request) {
		f.loginHandler(w, r)
	}).Methods(http.MethodPost)
	router.HandleFunc(candleDataPath, func(w http.ResponseWriter, r *http.Request) {
		var body candleRequest
		_ = json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		f.candleBodies = append(f.candleBodies, body)
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
		f.mu.Unlock()

		f.candleHandler(w, r)
	}).Methods(http.MethodPost)

	f.server = httptest.NewServer(router)

	return f
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type SmartAPITestSuite struct {
	suite.Suite
	fake    *fakeSmartAPI
	client  *SmartAPIClient
	session *Session
	request HistoricalRequest
}

func TestSmartAPISuite(t *testing.T) {
	suite.Run(t, new(SmartAPITestSuite))
}

func (suite *SmartAPITestSuite) SetupTest() {
	suite.fake = newFakeSmartAPI()

	client, err := NewSmartAPIClient(SmartAPIConfig{
		APIKey:            "api-key",
		ClientCode:        "A123",
		Password:          "1234",
		TOTPSecret:        testTOTPSecret,
		BaseURL:           suite.fake.server.URL,
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
	}, nil)
	suite.Require().NoError(err)
	suite.client = client

	suite.session = &Session{ClientCode: "A123", JWTToken: "jwt-token", RefreshToken: "refresh"}
	suite.request = HistoricalRequest{
		Exchange:    "NSE",
		Token:       3045,
		Granularity: types.GranularityFiveMinute,
		Window:      types.NewDateWindow(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)),
	}
}

func (suite *SmartAPITestSuite) TearDownTest() {
	suite.fake.server.Close()
}

func (suite *SmartAPITestSuite) TestNewSmartAPIClientValidatesConfig() {
	_, err := NewSmartAPIClient(SmartAPIConfig{APIKey: "key"}, nil)
	suite.Error(err)

	_, err = NewSmartAPIClient(SmartAPIConfig{
		APIKey: "key", ClientCode: "A1", Password: "p", TOTPSecret: testTOTPSecret, ClientLocalIP: "not-an-ip",
	}, nil)
	suite.Error(err)
}

func (suite *SmartAPITestSuite) TestLoginSuccess() {
	suite.fake.loginHandler = func(w http.ResponseWriter, r *http.Request) {
		suite.Equal("api-key", r.Header.Get("X-PrivateKey"))
		suite.Equal("USER", r.Header.Get("X-UserType"))

		var body loginRequest
		suite.NoError(json.NewDecoder(r.Body).Decode(&body))
		suite.Equal("A123", body.ClientCode)
		suite.Equal("1234", body.Password)
		suite.Len(body.TOTP, 6)

		writeJSON(w, map[string]any{
			"status":    true,
			"message":   "SUCCESS",
			"errorcode": "",
			"data": map[string]string{
				"jwtToken":     "jwt-token",
				"refreshToken": "refresh-token",
				"feedToken":    "feed-token",
			},
		})
	}

	session, err := suite.client.Login(context.Background())
	suite.Require().NoError(err)
	suite.Equal("A123", session.ClientCode)
	suite.Equal("jwt-token", session.JWTToken)
	suite.Equal("refresh-token", session.RefreshToken)
	suite.Equal("feed-token", session.FeedToken)
	suite.NoError(session.Validate())
	suite.NotContains(session.String(), "jwt-token")
}

func (suite *SmartAPITestSuite) TestLoginRejected() {
	suite.fake.loginHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"status": false, "message": "Invalid totp", "errorcode": "AB1050", "data": nil})
	}

	session, err := suite.client.Login(context.Background())
	suite.Nil(session)
	suite.True(errors.HasCode(err, errors.ErrCodeLoginFailed))
	suite.Contains(err.Error(), "AB1050")
}

func (suite *SmartAPITestSuite) TestLoginMissingData() {
	suite.fake.loginHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"status": true, "message": "SUCCESS", "data": nil})
	}

	_, err := suite.client.Login(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeLoginFailed))
}

func (suite *SmartAPITestSuite) TestFetchCandlesSuccess() {
	suite.fake.candleHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"status":    true,
			"message":   "SUCCESS",
			"errorcode": "",
			"data": [][]any{
				{"2024-01-01T09:15:00+05:30", 100.5, 101.25, 99.75, 100.0, 12000},
				{"2024-01-01T09:20:00+05:30", "100.0", "102", "99.5", "101.5", "8000"},
			},
		})
	}

	table, err := suite.client.FetchCandles(context.Background(), suite.session, suite.request)
	suite.Require().NoError(err)

	suite.Equal(types.GranularityFiveMinute, table.Granularity)
	suite.Equal(suite.request.Window, table.Window)
	suite.Require().Len(table.Candles, 2)
	suite.Equal("01-01-2024 09:15:00", table.Candles[0].FormattedTime())
	suite.Equal(100.5, table.Candles[0].Open)
	suite.Equal(101.25, table.Candles[0].High)
	suite.Equal(99.75, table.Candles[0].Low)
	suite.Equal(100.0, table.Candles[0].Close)
	suite.Equal(12000.0, table.Candles[0].Volume)
	suite.Equal(101.5, table.Candles[1].Close)
	suite.Equal(8000.0, table.Candles[1].Volume)
	suite.True(table.IsStrictlyIncreasing())

	suite.Require().Len(suite.fake.candleBodies, 1)
	sent := suite.fake.candleBodies[0]
	suite.Equal("NSE", sent.Exchange)
	suite.Equal("3045", sent.SymbolToken)
	suite.Equal("FIVE_MINUTE", sent.Interval)
	suite.Equal("2024-01-01 00:00", sent.FromDate)
	suite.Equal("2024-01-07 23:59", sent.ToDate)
	suite.Equal("Bearer jwt-token", suite.fake.authHeaders[0])
}

func (suite *SmartAPITestSuite) TestFetchCandlesEmptyData() {
	suite.fake.candleHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"status": true, "message": "SUCCESS", "data": []any{}})
	}

	table, err := suite.client.FetchCandles(context.Background(), suite.session, suite.request)
	suite.NoError(err)
	suite.True(table.IsEmpty())
}

func (suite *SmartAPITestSuite) TestFetchCandlesRemoteFailure() {
	suite.fake.candleHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"status":    false,
			"message":   "Something Went Wrong, Please Try After Sometime",
			"errorcode": "AB1004",
			"data":      nil,
		})
	}

	table, err := suite.client.FetchCandles(context.Background(), suite.session, suite.request)
	suite.Require().Error(err)
	suite.True(errors.IsRemoteDataError(err))
	suite.True(errors.IsRecoverable(err))
	suite.Contains(err.Error(), "AB1004")
	suite.True(table.IsEmpty())
	suite.Equal(types.GranularityFiveMinute, table.Granularity)
}

func (suite *SmartAPITestSuite) TestFetchCandlesMalformedRows() {
	testCases := []struct {
		name string
		row  []any
	}{
		{name: "missing volume", row: []any{"2024-01-01T09:15:00+05:30", 1, 2, 0.5, 1.5}},
		{name: "null close", row: []any{"2024-01-01T09:15:00+05:30", 1, 2, 0.5, nil, 10}},
		{name: "bad timestamp", row: []any{"01/01/2024 09:15", 1, 2, 0.5, 1.5, 10}},
		{name: "numeric timestamp", row: []any{1704080700, 1, 2, 0.5, 1.5, 10}},
		{name: "non numeric price", row: []any{"2024-01-01T09:15:00+05:30", "abc", 2, 0.5, 1.5, 10}},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			suite.fake.candleHandler = func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, map[string]any{
					"status": true,
					"data": [][]any{
						{"2024-01-01T09:10:00+05:30", 1, 2, 0.5, 1.5, 10},
						tc.row,
					},
				})
			}

			_, err := suite.client.FetchCandles(context.Background(), suite.session, suite.request)
			suite.Require().Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeMalformedRow))
			suite.False(errors.IsRecoverable(err))
		})
	}
}

func (suite *SmartAPITestSuite) TestFetchCandlesTimeout() {
	client, err := NewSmartAPIClient(SmartAPIConfig{
		APIKey:            "api-key",
		ClientCode:        "A123",
		Password:          "1234",
		TOTPSecret:        testTOTPSecret,
		BaseURL:           suite.fake.server.URL,
		Timeout:           50 * time.Millisecond,
		RequestsPerSecond: 1000,
	}, nil)
	suite.Require().NoError(err)

	suite.fake.candleHandler = func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}

	_, err = client.FetchCandles(context.Background(), suite.session, suite.request)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeTimeout))
	suite.False(errors.IsRecoverable(err))
}

func (suite *SmartAPITestSuite) TestFetchCandlesUndecodableBody() {
	suite.fake.candleHandler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Access denied because of exceeding access rate"))
	}

	_, err := suite.client.FetchCandles(context.Background(), suite.session, suite.request)
	suite.True(errors.HasCode(err, errors.ErrCodeHistoricalDataFailed))
}

func (suite *SmartAPITestSuite) TestFetchCandlesValidatesInput() {
	suite.fake.candleHandler = func(w http.ResponseWriter, r *http.Request) {
		suite.Fail("request must not reach the server")
	}

	badToken := suite.request
	badToken.Token = 0
	_, err := suite.client.FetchCandles(context.Background(), suite.session, badToken)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	badGranularity := suite.request
	badGranularity.Granularity = "TWO_HOUR"
	_, err = suite.client.FetchCandles(context.Background(), suite.session, badGranularity)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	_, err = suite.client.FetchCandles(context.Background(), &Session{}, suite.request)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	suite.Empty(suite.fake.candleBodies)
}

func (suite *SmartAPITestSuite) TestNewMarketDataProvider() {
	p, err := NewMarketDataProvider(ProviderSmartAPI, SmartAPIConfig{
		APIKey: "key", ClientCode: "A1", Password: "p", TOTPSecret: testTOTPSecret,
	}, nil)
	suite.NoError(err)
	suite.NotNil(p)

	_, err = NewMarketDataProvider("polygon", SmartAPIConfig{}, nil)
	suite.Error(err)
}

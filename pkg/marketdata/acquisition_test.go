package marketdata

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/rxtech-lab/candle-downloader/internal/types"
	"github.com/rxtech-lab/candle-downloader/mocks"
	"github.com/rxtech-lab/candle-downloader/pkg/errors"
	"github.com/rxtech-lab/candle-downloader/pkg/marketdata/provider"
)

type AcquirerTestSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockFetcher *mocks.MockCandleFetcher
	generator   *mocks.DataGenerator
	session     *provider.Session
	windows     []types.DateWindow
}

func TestAcquirerTestSuite(t *testing.T) {
	suite.Run(t, new(AcquirerTestSuite))
}

func (suite *AcquirerTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.mockFetcher = mocks.NewMockCandleFetcher(suite.ctrl)
	suite.generator = mocks.NewDataGenerator(42)
	suite.session = &provider.Session{ClientCode: "A123", JWTToken: "jwt"}

	windows, err := ChunkDateRange(date(2024, 1, 1), date(2024, 1, 19))
	suite.Require().NoError(err)
	suite.Require().Len(windows, 3)
	suite.windows = windows
}

func (suite *AcquirerTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *AcquirerTestSuite) newAcquirer(onProgress provider.OnDownloadProgress) *Acquirer {
	acquirer := NewAcquirer(suite.mockFetcher, suite.session, nil, onProgress)
	acquirer.SetProgressOutput(io.Discard)

	return acquirer
}

func (suite *AcquirerTestSuite) request(granularities ...types.Granularity) AcquisitionRequest {
	return AcquisitionRequest{
		Symbol:        "SBIN",
		Exchange:      "NSE",
		Token:         3045,
		Granularities: granularities,
		Windows:       suite.windows,
	}
}

// expectWindow expects one fetch for (g, window i) and returns the given result.
func (suite *AcquirerTestSuite) expectWindow(g types.Granularity, i int, table types.CandleTable, err error) *gomock.Call {
	return suite.mockFetcher.EXPECT().
		FetchCandles(gomock.Any(), suite.session, provider.HistoricalRequest{
			Exchange:    "NSE",
			Token:       3045,
			Granularity: g,
			Window:      suite.windows[i],
		}).
		Return(table, err).
		Times(1)
}

func (suite *AcquirerTestSuite) table(g types.Granularity, i int) types.CandleTable {
	return suite.generator.GenerateTable(g, suite.windows[i], 3)
}

func (suite *AcquirerTestSuite) TestAllWindowsSucceed() {
	g := types.GranularityFifteenMinute
	tables := []types.CandleTable{suite.table(g, 0), suite.table(g, 1), suite.table(g, 2)}

	gomock.InOrder(
		suite.expectWindow(g, 0, tables[0], nil),
		suite.expectWindow(g, 1, tables[1], nil),
		suite.expectWindow(g, 2, tables[2], nil),
	)

	var progress []float64

	result, err := suite.newAcquirer(func(current, total float64, message string) {
		progress = append(progress, current)
		suite.Equal(float64(3), total)
		suite.Equal("GETTING DATA OF : SBIN OF INTERVAL FIFTEEN_MINUTE", message)
	}).Acquire(context.Background(), suite.request(g))

	suite.Require().NoError(err)
	suite.True(result.Success())
	suite.Equal(PipelineAllDone, result.State)
	suite.Equal([]float64{1, 2, 3}, progress)
	suite.Len(result.Windows(g), 3)
	suite.Equal(map[ItemState]int{ItemCompleted: 3}, result.Summary())
	suite.Equal([]types.Granularity{g}, result.CompletedGranularities())

	merged := result.Merged(g)
	suite.Require().True(merged.IsSome())
	suite.Equal(tables[0].Len()+tables[1].Len()+tables[2].Len(), merged.Unwrap().Len())
	suite.True(merged.Unwrap().IsStrictlyIncreasing())
}

func (suite *AcquirerTestSuite) TestRemoteFailureIsSkipped() {
	g := types.GranularityOneDay
	first := suite.table(g, 0)
	third := suite.table(g, 2)
	remoteErr := errors.NewRemoteDataError("AB1004", "Something Went Wrong", string(g),
		suite.windows[1].FromParam(), suite.windows[1].ToParam())

	gomock.InOrder(
		suite.expectWindow(g, 0, first, nil),
		suite.expectWindow(g, 1, types.CandleTable{}, remoteErr),
		suite.expectWindow(g, 2, third, nil),
	)

	result, err := suite.newAcquirer(nil).Acquire(context.Background(), suite.request(g))
	suite.Require().NoError(err)
	suite.True(result.Success())

	windows := result.Windows(g)
	suite.Require().Len(windows, 3)
	suite.True(windows[1].IsEmpty())
	suite.Equal(suite.windows[1], windows[1].Window)
	suite.Equal(g, windows[1].Granularity)

	failures := result.RemoteFailures()
	suite.Require().Len(failures, 1)
	suite.Equal(suite.windows[1], failures[0].Window)
	suite.True(errors.IsRemoteDataError(failures[0].Err))

	merged := result.Merged(g).Unwrap()
	suite.Equal(append(append([]types.Candle{}, first.Candles...), third.Candles...), merged.Candles)
	suite.True(merged.IsStrictlyIncreasing())
}

func (suite *AcquirerTestSuite) TestTimeoutAbortsRemainingItems() {
	g := types.GranularityFiveMinute
	daily := types.GranularityOneDay
	timeoutErr := errors.New(errors.ErrCodeTimeout, "request timed out")

	gomock.InOrder(
		suite.expectWindow(g, 0, suite.table(g, 0), nil),
		suite.expectWindow(g, 1, types.CandleTable{}, timeoutErr),
	)

	result, err := suite.newAcquirer(nil).Acquire(context.Background(), suite.request(g, daily))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeTimeout))
	suite.Equal(err, result.Err)

	suite.False(result.Success())
	suite.Equal(PipelineAborted, result.State)
	suite.Equal(map[ItemState]int{
		ItemCompleted: 1,
		ItemFailed:    1,
		ItemAborted:   4,
	}, result.Summary())

	suite.Equal(ItemFailed, result.Items[1].State)
	suite.Equal(timeoutErr, result.Items[1].Err)

	for _, item := range result.Items[2:] {
		suite.Equal(ItemAborted, item.State)
	}

	suite.Empty(result.CompletedGranularities())
	suite.True(result.Merged(daily).IsNone())
}

func (suite *AcquirerTestSuite) TestMalformedRowAborts() {
	g := types.GranularityOneDay
	daily := suite.table(g, 0)

	gomock.InOrder(
		suite.expectWindow(g, 0, daily, nil),
		suite.expectWindow(g, 1, suite.table(g, 1), nil),
		suite.expectWindow(g, 2, types.CandleTable{}, errors.New(errors.ErrCodeMalformedRow, "bad row")),
	)

	result, err := suite.newAcquirer(nil).Acquire(context.Background(),
		suite.request(g, types.GranularityOneHour))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMalformedRow))
	suite.Equal(PipelineAborted, result.State)
	suite.Equal(3, result.Summary()[ItemAborted])
	suite.Empty(result.CompletedGranularities())
}

func (suite *AcquirerTestSuite) TestCompletedGranularitiesOnLaterAbort() {
	daily := types.GranularityOneDay
	hourly := types.GranularityOneHour

	gomock.InOrder(
		suite.expectWindow(daily, 0, suite.table(daily, 0), nil),
		suite.expectWindow(daily, 1, suite.table(daily, 1), nil),
		suite.expectWindow(daily, 2, suite.table(daily, 2), nil),
		suite.expectWindow(hourly, 0, types.CandleTable{}, errors.New(errors.ErrCodeHistoricalDataFailed, "boom")),
	)

	result, err := suite.newAcquirer(nil).Acquire(context.Background(), suite.request(daily, hourly))
	suite.Require().Error(err)
	suite.Equal([]types.Granularity{daily}, result.CompletedGranularities())
	suite.True(result.Merged(daily).IsSome())
}

func (suite *AcquirerTestSuite) TestCancelledContextAbortsBeforeFetching() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := suite.newAcquirer(nil).Acquire(ctx, suite.request(types.GranularityOneDay))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeAcquisitionAborted))
	suite.ErrorIs(err, context.Canceled)
	suite.Equal(ItemFailed, result.Items[0].State)
	suite.Equal(2, result.Summary()[ItemAborted])
}

func (suite *AcquirerTestSuite) TestInvalidRequest() {
	testCases := []struct {
		name    string
		request AcquisitionRequest
	}{
		{name: "missing token", request: AcquisitionRequest{Symbol: "SBIN", Exchange: "NSE", Granularities: []types.Granularity{types.GranularityOneDay}, Windows: suite.windows}},
		{name: "no granularities", request: AcquisitionRequest{Symbol: "SBIN", Exchange: "NSE", Token: 1, Windows: suite.windows}},
		{name: "no windows", request: AcquisitionRequest{Symbol: "SBIN", Exchange: "NSE", Token: 1, Granularities: []types.Granularity{types.GranularityOneDay}}},
		{name: "unknown granularity", request: AcquisitionRequest{Symbol: "SBIN", Exchange: "NSE", Token: 1, Granularities: []types.Granularity{"TWO_DAY"}, Windows: suite.windows}},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			result, err := suite.newAcquirer(nil).Acquire(context.Background(), tc.request)
			suite.Error(err)
			suite.Nil(result)
		})
	}
}

func (suite *AcquirerTestSuite) TestWorkListOrder() {
	items := buildWorkList([]types.Granularity{types.GranularityOneDay, types.GranularityOneHour}, suite.windows)
	suite.Require().Len(items, 6)

	for i, item := range items {
		suite.Equal(ItemPending, item.State)
		suite.Equal(suite.windows[i%3], item.Window)
	}

	suite.Equal(types.GranularityOneDay, items[2].Granularity)
	suite.Equal(types.GranularityOneHour, items[3].Granularity)
}

func (suite *AcquirerTestSuite) TestStateNames() {
	suite.Equal("FAILED_ITEM", ItemFailed.String())
	suite.Equal("ABORTED", ItemAborted.String())
	suite.Equal("ALL_DONE", PipelineAllDone.String())
}

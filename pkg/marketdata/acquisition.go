package marketdata

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/candle-downloader/internal/logger"
	"github.com/rxtech-lab/candle-downloader/internal/types"
	"github.com/rxtech-lab/candle-downloader/pkg/errors"
	"github.com/rxtech-lab/candle-downloader/pkg/marketdata/provider"
)

// ItemState tracks one (granularity, window) pair through the acquisition.
type ItemState int

const (
	ItemPending ItemState = iota
	ItemInProgress
	ItemCompleted
	ItemFailed
	ItemAborted
)

func (s ItemState) String() string {
	switch s {
	case ItemPending:
		return "PENDING"
	case ItemInProgress:
		return "IN_PROGRESS"
	case ItemCompleted:
		return "COMPLETED"
	case ItemFailed:
		return "FAILED_ITEM"
	case ItemAborted:
		return "ABORTED"
	default:
		return fmt.Sprintf("ItemState(%d)", int(s))
	}
}

// PipelineState is the overall state of an acquisition.
type PipelineState int

const (
	PipelineRunning PipelineState = iota
	PipelineAllDone
	PipelineAborted
)

func (s PipelineState) String() string {
	switch s {
	case PipelineRunning:
		return "RUNNING"
	case PipelineAllDone:
		return "ALL_DONE"
	case PipelineAborted:
		return "ABORTED"
	default:
		return fmt.Sprintf("PipelineState(%d)", int(s))
	}
}

// WorkItem is one provider call in the work list.
type WorkItem struct {
	Granularity types.Granularity
	Window      types.DateWindow
	State       ItemState
	Rows        int
	// Err holds the provider-reported failure of a completed item, or the fatal error of a failed one.
	Err error
}

// AcquisitionRequest describes what to fetch once the token is resolved and the range chunked.
type AcquisitionRequest struct {
	Symbol        string              `validate:"required"`
	Exchange      string              `validate:"required"`
	Token         int64               `validate:"gt=0"`
	Granularities []types.Granularity `validate:"required,min=1"`
	Windows       []types.DateWindow  `validate:"required,min=1"`
}

// AcquisitionResult accumulates per-window tables keyed by granularity.
type AcquisitionResult struct {
	Symbol        string
	Granularities []types.Granularity
	Items         []WorkItem
	State         PipelineState
	// Err is the fatal error that aborted the pipeline.
	Err error

	tables map[types.Granularity][]types.CandleTable
}

// Success reports whether every item completed.
func (r *AcquisitionResult) Success() bool {
	return r.State == PipelineAllDone
}

// Windows returns the per-window tables collected for g, in window order.
func (r *AcquisitionResult) Windows(g types.Granularity) []types.CandleTable {
	return r.tables[g]
}

// Merged concatenates the window tables of g. None when nothing was collected for g.
func (r *AcquisitionResult) Merged(g types.Granularity) optional.Option[types.CandleTable] {
	tables, ok := r.tables[g]
	if !ok || len(tables) == 0 {
		return optional.None[types.CandleTable]()
	}

	return optional.Some(Concatenate(g, tables))
}

// CompletedGranularities returns, in request order, the granularities whose every item completed.
func (r *AcquisitionResult) CompletedGranularities() []types.Granularity {
	incomplete := make(map[types.Granularity]bool)
	for _, item := range r.Items {
		if item.State != ItemCompleted {
			incomplete[item.Granularity] = true
		}
	}

	completed := make([]types.Granularity, 0, len(r.Granularities))
	for _, g := range r.Granularities {
		if !incomplete[g] {
			completed = append(completed, g)
		}
	}

	return completed
}

// Summary counts items per state.
func (r *AcquisitionResult) Summary() map[ItemState]int {
	summary := make(map[ItemState]int)
	for _, item := range r.Items {
		summary[item.State]++
	}

	return summary
}

// RemoteFailures returns the completed items the provider reported as failed.
func (r *AcquisitionResult) RemoteFailures() []WorkItem {
	var failures []WorkItem

	for _, item := range r.Items {
		if item.State == ItemCompleted && item.Err != nil {
			failures = append(failures, item)
		}
	}

	return failures
}

// Acquirer drives the work list strictly sequentially: one fetch at a time,
// granularity in the outer loop and window in the inner loop.
type Acquirer struct {
	fetcher        provider.CandleFetcher
	session        *provider.Session
	log            *logger.Logger
	validate       *validator.Validate
	onProgress     provider.OnDownloadProgress
	progressOutput io.Writer
}

// NewAcquirer creates an Acquirer that fetches with session.
func NewAcquirer(fetcher provider.CandleFetcher, session *provider.Session, log *logger.Logger, onProgress provider.OnDownloadProgress) *Acquirer {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Acquirer{
		fetcher:        fetcher,
		session:        session,
		log:            log,
		validate:       validator.New(),
		onProgress:     onProgress,
		progressOutput: os.Stderr,
	}
}

// SetProgressOutput redirects the progress bar.
func (a *Acquirer) SetProgressOutput(w io.Writer) {
	a.progressOutput = w
}

// Acquire runs every (granularity, window) pair of req.
//
// Provider-reported failures are logged and leave an empty table for that window.
// Any other failure marks the item FAILED_ITEM, every remaining item ABORTED,
// and is returned together with the partial result.
func (a *Acquirer) Acquire(ctx context.Context, req AcquisitionRequest) (*AcquisitionResult, error) {
	if err := a.validate.Struct(req); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid acquisition request", err)
	}

	for _, g := range req.Granularities {
		if err := g.Validate(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGranularity, "invalid acquisition request", err)
		}
	}

	result := &AcquisitionResult{
		Symbol:        req.Symbol,
		Granularities: req.Granularities,
		Items:         buildWorkList(req.Granularities, req.Windows),
		State:         PipelineRunning,
		tables:        make(map[types.Granularity][]types.CandleTable, len(req.Granularities)),
	}

	total := len(result.Items)
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Fetching data"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(a.progressOutput),
	)

	a.log.Info("GETTING DATA",
		zap.String("symbol", req.Symbol),
		zap.Int("granularities", len(req.Granularities)),
		zap.Int("windows", len(req.Windows)),
		zap.Int("requests", total),
	)

	for i := range result.Items {
		item := &result.Items[i]
		message := fmt.Sprintf("GETTING DATA OF : %s OF INTERVAL %s", req.Symbol, item.Granularity)

		if err := ctx.Err(); err != nil {
			a.abort(result, i, errors.Wrap(errors.ErrCodeAcquisitionAborted, "acquisition cancelled", err))

			return result, result.Err
		}

		item.State = ItemInProgress
		bar.Describe(message)

		table, err := a.fetcher.FetchCandles(ctx, a.session, provider.HistoricalRequest{
			Exchange:    req.Exchange,
			Token:       req.Token,
			Granularity: item.Granularity,
			Window:      item.Window,
		})

		_ = bar.Add(1)
		if a.onProgress != nil {
			a.onProgress(float64(i+1), float64(total), message)
		}

		if err != nil && !errors.IsRecoverable(err) {
			a.abort(result, i, err)

			return result, result.Err
		}

		if err != nil {
			a.log.Error("ERROR GETTING DATA",
				zap.String("symbol", req.Symbol),
				zap.String("interval", string(item.Granularity)),
				zap.String("from", item.Window.FromParam()),
				zap.String("to", item.Window.ToParam()),
				zap.Error(err),
			)

			table = types.NewCandleTable(item.Granularity, item.Window)
		}

		table.Granularity = item.Granularity
		table.Window = item.Window

		item.State = ItemCompleted
		item.Rows = table.Len()
		item.Err = err
		result.tables[item.Granularity] = append(result.tables[item.Granularity], table)
	}

	_ = bar.Finish()
	result.State = PipelineAllDone

	a.log.Info("GETTING DATA (SUCCESSFULLY)",
		zap.String("symbol", req.Symbol),
		zap.Int("remote_failures", len(result.RemoteFailures())),
	)

	return result, nil
}

// abort fails item i, aborts every item after it and closes the pipeline.
func (a *Acquirer) abort(result *AcquisitionResult, i int, cause error) {
	item := &result.Items[i]
	item.State = ItemFailed
	item.Err = cause

	for j := i + 1; j < len(result.Items); j++ {
		result.Items[j].State = ItemAborted
	}

	result.State = PipelineAborted
	result.Err = fmt.Errorf("acquisition aborted at %s %s: %w", item.Granularity, item.Window, cause)

	a.log.Error("ACQUISITION ABORTED",
		zap.String("symbol", result.Symbol),
		zap.String("interval", string(item.Granularity)),
		zap.String("window", item.Window.String()),
		zap.Int("aborted_items", len(result.Items)-i-1),
		zap.Error(cause),
	)
}

// buildWorkList returns the cross product with granularity as the outer loop.
func buildWorkList(granularities []types.Granularity, windows []types.DateWindow) []WorkItem {
	items := make([]WorkItem, 0, len(granularities)*len(windows))

	for _, g := range granularities {
		for _, w := range windows {
			items = append(items, WorkItem{
				Granularity: g,
				Window:      w,
				State:       ItemPending,
			})
		}
	}

	return items
}

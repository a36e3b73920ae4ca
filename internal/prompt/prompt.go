package prompt

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rxtech-lab/candle-downloader/pkg/errors"
	"github.com/rxtech-lab/candle-downloader/pkg/marketdata"
)

// Options redirects the program's terminal. Nil fields use the process terminal.
type Options struct {
	Input  io.Reader
	Output io.Writer
	Now    func() time.Time
}

// NeedsInput reports whether any field of config has to be asked for.
func NeedsInput(config marketdata.DownloadConfig) bool {
	return len(missingSteps(config)) > 0
}

// Collect asks for every field config leaves empty and returns the completed config.
// Fields already set are kept as they are.
func Collect(ctx context.Context, config marketdata.DownloadConfig, opts Options) (marketdata.DownloadConfig, error) {
	if !NeedsInput(config) {
		return config, nil
	}

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}

	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}

	final, err := tea.NewProgram(NewModel(config, opts.Now), programOpts...).Run()
	if err != nil {
		return config, errors.Wrap(errors.ErrCodeMissingParameter, "prompt failed", err)
	}

	model, ok := final.(Model)
	if !ok || model.Cancelled() || model.State() != StateDone {
		return config, errors.New(errors.ErrCodeMissingParameter, "input cancelled")
	}

	return model.Config(), nil
}

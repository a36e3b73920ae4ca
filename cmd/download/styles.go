package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rxtech-lab/candle-downloader/pkg/marketdata"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// LabelStyle for field names.
	LabelStyle = lipgloss.NewStyle().Faint(true).Width(14)

	// SuccessStyle for completed runs.
	SuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))

	// WarnStyle for skipped windows.
	WarnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func field(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(label), value)
}

// RenderSummary formats the outcome of a download. report may be nil when the run failed early.
func RenderSummary(report *marketdata.DownloadReport, err error) string {
	lines := []string{}

	if report == nil {
		lines = append(lines, TitleStyle.Render("Download failed"))
	} else {
		lines = append(lines,
			TitleStyle.Render(fmt.Sprintf("Download of %s", report.Symbol)),
			field("Token", fmt.Sprintf("%d", report.Token)),
			field("Windows", fmt.Sprintf("%d", len(report.Windows))),
		)

		if result := report.Result; result != nil {
			summary := result.Summary()
			lines = append(lines, field("State", result.State.String()))

			for _, state := range []marketdata.ItemState{
				marketdata.ItemCompleted,
				marketdata.ItemFailed,
				marketdata.ItemAborted,
			} {
				if summary[state] > 0 {
					lines = append(lines, field(state.String(), fmt.Sprintf("%d", summary[state])))
				}
			}

			for _, item := range result.RemoteFailures() {
				lines = append(lines, WarnStyle.Render(fmt.Sprintf("skipped %s %s: %v", item.Granularity, item.Window, item.Err)))
			}
		}

		if len(report.Sheets) > 0 {
			lines = append(lines, field("Sheets", strings.Join(report.Sheets, ", ")))
		}

		if report.OutputPath != "" {
			lines = append(lines, field("Output", report.OutputPath))
		}
	}

	if err != nil {
		lines = append(lines, ErrorStyle.Render(err.Error()))
	} else {
		lines = append(lines, SuccessStyle.Render("GETTING DATA (SUCCESSFULLY)"))
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// RenderProvider formats one provider entry.
func RenderProvider(info marketdata.ProviderInfo) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render(fmt.Sprintf("%s (%s)", info.DisplayName, info.Name)),
		field("Exchanges", strings.Join(info.Exchanges, ", ")),
		field("Auth", fmt.Sprintf("%t", info.RequiresAuth)),
		info.Description,
	)
}

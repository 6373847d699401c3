package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rubiojr/gsuggest/pkg/coordinator"
	"github.com/rubiojr/gsuggest/pkg/progress"
	"github.com/rubiojr/gsuggest/pkg/storage"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	indexStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(4).
			Align(lipgloss.Right)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)
)

// formatTime formats a time relative to now or as an absolute date
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	if diff < 24*time.Hour {
		if diff < time.Hour {
			minutes := int(diff.Minutes())
			if minutes < 1 {
				return "just now"
			}
			return fmt.Sprintf("%d minutes ago", minutes)
		}
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	}

	if diff < 7*24*time.Hour {
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	}

	if t.Year() == now.Year() {
		return t.Format("Jan 2, 15:04")
	}
	return t.Format("Jan 2, 2006")
}

// formatElapsed renders round durations, which are seconds at most.
func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// printProgress rewrites the progress line in place; the final line ends
// with a newline.
func printProgress(out io.Writer, phrase string, completed, total int) {
	pct := progress.Percent(completed, total)
	if completed >= total {
		fmt.Fprintf(out, "\r%s %s\n", progress.Bar(pct, 30), progress.Format(phrase, pct))
		return
	}
	fmt.Fprintf(out, "\r%s %d/%d regions", progress.Bar(pct, 30), completed, total)
}

func printSnapshot(out io.Writer, snap coordinator.Snapshot) {
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Suggestions for %q", snap.Phrase)))

	if len(snap.Results) == 0 {
		fmt.Fprintln(out, noDataStyle.Render("No suggestions returned."))
	}
	for i, s := range snap.Results {
		fmt.Fprintf(out, "%s %s\n", indexStyle.Render(fmt.Sprintf("%d.", i+1)), s)
	}

	summary := fmt.Sprintf("%d suggestions from %d/%d regions, status %s",
		len(snap.Results), snap.Completed, snap.Total, snap.Status)
	if snap.FinishedAt != nil {
		summary += ", took " + formatElapsed(snap.FinishedAt.Sub(snap.StartedAt))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, metaStyle.Render(summary))

	if len(snap.Failures) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, headerStyle.Render("Regions without suggestions"))
		for _, f := range snap.Failures {
			fmt.Fprintln(out, failureStyle.Render(fmt.Sprintf("  %-6s %-18s %s", f.RegionID, f.Kind, f.Message)))
		}
	}
}

func printHistory(out io.Writer, records []storage.RoundRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, noDataStyle.Render("No searches stored yet."))
		return
	}
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Last %d searches", len(records))))
	for _, rec := range records {
		fmt.Fprintf(out, "%s %s\n", headerStyle.Render(rec.Phrase),
			metaStyle.Render(fmt.Sprintf("%s, %d suggestions, %d/%d regions, %s",
				formatTime(rec.StartedAt), len(rec.Results), rec.Completed, rec.Total, rec.ID)))
		preview := rec.Results
		if len(preview) > 5 {
			preview = preview[:5]
		}
		for _, s := range preview {
			fmt.Fprintf(out, "    %s\n", s)
		}
		if extra := len(rec.Results) - len(preview); extra > 0 {
			fmt.Fprintln(out, metaStyle.Render(fmt.Sprintf("    ... and %d more", extra)))
		}
		fmt.Fprintln(out)
	}
}

func printHits(out io.Writer, query string, hits []storage.SuggestionHit) {
	if len(hits) == 0 {
		fmt.Fprintln(out, noDataStyle.Render(fmt.Sprintf("No stored suggestions match %q.", query)))
		return
	}
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d stored suggestions matching %q", len(hits), query)))
	for _, h := range hits {
		fmt.Fprintf(out, "  %s %s\n", h.Suggestion, metaStyle.Render("("+strings.TrimSpace(h.Phrase)+")"))
	}
}

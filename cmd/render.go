package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/azhovan/rangeprobe/pkg/verify"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))

	outcomeStyles = map[verify.Outcome]lipgloss.Style{
		verify.OutcomeMatched:       lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true),
		verify.OutcomeMismatched:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true),
		verify.OutcomeRejected:      lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Bold(true),
		verify.OutcomeIndeterminate: lipgloss.NewStyle().Foreground(lipgloss.Color("#444444")).Bold(true),
	}
)

func renderReport(r *verify.Report) string {
	blocks := []string{
		titleStyle.Render("rangeprobe " + r.RunID),
		dimStyle.Render(fmt.Sprintf("%s  media_file=%s", r.BaseURL, r.Resource)),
	}

	for _, res := range r.Results {
		blocks = append(blocks, boxStyle.Render(renderResult(res)))
	}

	blocks = append(blocks, renderSummary(r))
	return lipgloss.JoinVertical(lipgloss.Left, blocks...) + "\n"
}

func renderResult(res verify.ScenarioResult) string {
	rng := res.Range
	if rng == "" {
		rng = "(no Range header)"
	}

	lines := []string{
		fmt.Sprintf("%s  %s  %s",
			labelStyle.Render(res.Label),
			dimStyle.Render(rng),
			outcomeStyles[res.Outcome].Render(res.Outcome.String())),
	}

	for _, o := range []struct {
		name string
		obs  *verify.Observation
	}{{"static", res.Static}, {"live", res.Live}} {
		if o.obs == nil {
			lines = append(lines, fmt.Sprintf("%-6s no response", o.name))
			continue
		}
		d := o.obs.Digest
		lines = append(lines,
			fmt.Sprintf("%-6s status=%d length=%d sha1=%s", o.name, o.obs.StatusCode, d.Length, d.Full),
			dimStyle.Render(fmt.Sprintf("       prefix=%s suffix=%s", d.Prefix, d.Suffix)),
		)
		for _, h := range verify.DiagnosticHeaders {
			if v, ok := o.obs.Headers[h]; ok {
				lines = append(lines, dimStyle.Render(fmt.Sprintf("       %s: %s", h, v)))
			}
		}
	}

	if res.Static != nil && res.Live != nil {
		lines = append(lines, fmt.Sprintf("match=%t prefix_match=%t suffix_match=%t status_match=%t",
			res.Matched, res.PrefixMatched, res.SuffixMatched, res.StatusMatched))
	}
	if res.Outcome == verify.OutcomeMismatched {
		lines = append(lines, fmt.Sprintf("divergence=%s first_difference=%d", res.Divergence, res.FirstDifference))
	}
	if res.Err != nil {
		lines = append(lines, outcomeStyles[res.Outcome].Render("error: "+res.Err.Error()))
	}

	return strings.Join(lines, "\n")
}

func renderSummary(r *verify.Report) string {
	parts := make([]string, 0, 4)
	for _, o := range []verify.Outcome{verify.OutcomeMatched, verify.OutcomeMismatched, verify.OutcomeRejected, verify.OutcomeIndeterminate} {
		parts = append(parts, outcomeStyles[o].Render(fmt.Sprintf("%d %s", r.Count(o), o)))
	}
	return strings.Join(parts, "  ") + dimStyle.Render(fmt.Sprintf("  in %s", r.Elapsed.Round(time.Millisecond)))
}

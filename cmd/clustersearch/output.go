package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/TrevorS/clustersearch/internal/experiment"
	"github.com/TrevorS/clustersearch/internal/export"
)

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorMuted  = lipgloss.Color("#2C4A54")
	colorWarn   = lipgloss.Color("#F4D03F")
)

var styles = struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Value lipgloss.Style
	Muted lipgloss.Style
	Warn  lipgloss.Style
	Box   lipgloss.Style
}{
	Title: lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	Label: lipgloss.NewStyle().Bold(true),
	Value: lipgloss.NewStyle().Foreground(colorAccent),
	Muted: lipgloss.NewStyle().Foreground(colorMuted),
	Warn:  lipgloss.NewStyle().Foreground(colorWarn),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1),
}

// printer writes summaries, styled only when w is a terminal.
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer) *printer {
	p := &printer{w: w}
	if f, ok := w.(*os.File); ok {
		p.color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return p
}

func (p *printer) render(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p *printer) heading(text string) {
	fmt.Fprintln(p.w, p.render(styles.Title, text))
}

func (p *printer) item(name, detail string) {
	if detail == "" {
		fmt.Fprintf(p.w, "  %s\n", name)
		return
	}
	fmt.Fprintf(p.w, "  %-24s %s\n", name, p.render(styles.Muted, detail))
}

func (p *printer) field(label, value string) string {
	return fmt.Sprintf("%s %s", p.render(styles.Label, label+":"), p.render(styles.Value, value))
}

func (p *printer) box(text string) {
	if p.color {
		text = styles.Box.Render(text)
	}
	fmt.Fprintln(p.w, text)
}

func (p *printer) summary(sum *experiment.Summary) {
	p.heading(fmt.Sprintf("%s on %s", sum.Algorithm, sum.Dataset))
	for _, run := range sum.Runs {
		lines := []string{
			p.field("run", fmt.Sprint(run.Index)),
			p.field(sum.Criterion, export.FormatFloat(run.Score)),
			p.field("clusters", fmt.Sprint(run.Best.Size())),
			p.field("config", run.Best.Params.String()),
			p.field("evaluated", fmt.Sprint(run.Evaluated)),
		}
		if run.Failures > 0 {
			lines = append(lines, p.render(styles.Warn, fmt.Sprintf("%d candidates could not be scored", run.Failures)))
		}
		p.box(lipgloss.JoinVertical(lipgloss.Left, lines...))
	}
	if len(sum.Runs) > 1 {
		p.stats(sum.Stats)
	}
	fmt.Fprintln(p.w, p.render(styles.Muted, "results in "+sum.Dir))
}

func (p *printer) stats(stats []experiment.Stat) {
	p.heading("Over all runs")
	for _, s := range stats {
		p.item(s.Name, fmt.Sprintf("mean %s  sd %s  [%s, %s]",
			export.FormatFloat(s.Mean), export.FormatFloat(s.StdDev),
			export.FormatFloat(s.Min), export.FormatFloat(s.Max)))
	}
}

func (p *printer) metaSummary(sum *experiment.MetaSummary) {
	p.heading("Meta-search on " + sum.Dataset)
	for _, run := range sum.Runs {
		lines := []string{
			p.field("run", fmt.Sprint(run.Index)),
			p.field("candidates", fmt.Sprint(run.Candidates)),
		}
		if run.Best != nil {
			lines = append(lines,
				p.field("best", run.Best.Algorithm+" "+run.Best.Params.String()),
				p.field("clusters", fmt.Sprint(run.Best.Size())))
		}
		if run.Report != nil {
			refs := make([]string, 0, len(run.Report.Best))
			for ref := range run.Report.Best {
				refs = append(refs, ref)
			}
			sort.Strings(refs)
			for _, ref := range refs {
				row := run.Report.Best[ref]
				lines = append(lines, p.field("vs "+ref, fmt.Sprintf("%s (%s %s)",
					row.Label, row.Method, export.FormatFloat(row.Correlation))))
			}
		}
		p.box(lipgloss.JoinVertical(lipgloss.Left, lines...))
	}
	if len(sum.Runs) > 1 {
		p.stats(sum.Stats)
	}
	fmt.Fprintln(p.w, p.render(styles.Muted, "results in "+sum.Dir))
}

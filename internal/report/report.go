// Package report renders sync results for terminal output.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/alorle/iptv-sync/internal/application"
)

// Palette is a small stylesheet for report output.
type Palette struct {
	title  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	help   lipgloss.Style
}

// NewPalette builds the report styles on the renderer bound to w, so color
// support is detected for the actual destination.
func NewPalette(w io.Writer) *Palette {
	r := lipgloss.NewRenderer(w)
	return &Palette{
		title:  r.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true),
		header: r.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true).Padding(0, 1),
		cell:   r.NewStyle().Padding(0, 1),
		ok:     r.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true),
		err:    r.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true),
		help:   r.NewStyle().Foreground(lipgloss.Color("#626262")).Italic(true),
	}
}

var headers = []string{"SOURCE", "DIALECT", "KEPT", "DROPPED", "RENAMED", "ARTIFACTS", "RESULT"}

// Render writes a summary table of rep to w, followed by one line per failure.
func Render(w io.Writer, rep application.Report) error {
	p := NewPalette(w)

	rows := make([][]string, 0, len(rep.Results))
	for _, res := range rep.Results {
		rows = append(rows, []string{
			res.Source.ID,
			res.Source.Dialect.String(),
			strconv.Itoa(res.Stats.Kept),
			strconv.Itoa(res.Stats.Dropped),
			strconv.Itoa(res.Stats.Renamed),
			artifactNames(res.Artifacts),
			result(res),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.help).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header
			}
			if col == len(headers)-1 && row >= 0 && row < len(rep.Results) {
				if rep.Results[row].Err != nil {
					return p.err.Padding(0, 1)
				}
				return p.ok.Padding(0, 1)
			}
			return p.cell
		})

	var b strings.Builder
	b.WriteString(p.title.Render("Sync run " + rep.RunID.String()))
	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n")

	failed := rep.Failed()
	summary := fmt.Sprintf("%d sources, %d failed in %s",
		len(rep.Results), len(failed), rep.Elapsed.Round(time.Millisecond))
	b.WriteString(p.help.Render(summary))
	b.WriteString("\n")

	for _, res := range failed {
		b.WriteString(p.err.Render("✗ " + res.Err.Error()))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func result(res application.SourceResult) string {
	if res.Err == nil {
		return "ok"
	}
	return "failed (" + string(res.Stage()) + ")"
}

func artifactNames(artifacts []application.Artifact) string {
	if len(artifacts) == 0 {
		return "-"
	}
	names := make([]string, len(artifacts))
	for i, a := range artifacts {
		names[i] = a.Name()
	}
	return strings.Join(names, " ")
}

package commands

import (
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"reviewsync/internal/domain"
)

type runSummary struct {
	Processed int // success or partial
	Partial   int
	Failed    int
	Reviews   int // retained across every business
	Stats     int
}

func summarize(outs []domain.BusinessOutcome) runSummary {
	var s runSummary
	for _, o := range outs {
		switch o.Status {
		case domain.StatusFailure:
			s.Failed++
			continue
		case domain.StatusPartial:
			s.Partial++
		}
		s.Processed++
		s.Reviews += len(o.ReviewList())
		s.Stats += len(o.StatsList())
	}
	return s
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// renderSummary prints one row per business followed by run totals.
func renderSummary(w io.Writer, outs []domain.BusinessOutcome, s runSummary) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Business", "Status", "Reviews", "Stats", "Warnings", "Saved", "Cause"})
	for _, o := range outs {
		t.AppendRow(table.Row{
			string(o.Business),
			string(o.Status),
			len(o.ReviewList()),
			len(o.StatsList()),
			len(o.Warnings()),
			o.Persisted,
			cause(o.Err),
		})
	}
	t.AppendFooter(table.Row{"Total", "", s.Reviews, s.Stats, "", "", ""})
	t.Render()

	tt := newTable(w)
	tt.AppendHeader(table.Row{"Processed", "Partial", "Failed", "Reviews retained"})
	tt.AppendRow(table.Row{s.Processed, s.Partial, s.Failed, s.Reviews})
	tt.Render()
}

// cause shortens a joined error to its first line for the table.
func cause(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i] + " (+more)"
	}
	if len(msg) > 80 {
		msg = msg[:77] + "..."
	}
	return msg
}

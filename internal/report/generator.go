// Package report renders patient behavior summaries and delivers them through
// object storage and SMS.
package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ashureev/neurosync/internal/domain"
	"github.com/ashureev/neurosync/internal/shared"
	"github.com/go-pdf/fpdf"
)

const (
	reportTitle    = "NeuroSync Weekly Report"
	noLogsLine     = "No logs recorded for this period."
	noNotesLine    = "No notes provided."
	missingValue   = "N/A"
	entryTimeFmt   = "Jan 2, 2006 3:04 PM"
	generatedOnFmt = "Jan 2, 2006 3:04 PM MST"
)

// Generator renders a PDF report from an ordered list of log entries.
type Generator struct {
	now      func() time.Time
	loc      *time.Location
	compress bool
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithLocation renders timestamps in loc instead of UTC.
func WithLocation(loc *time.Location) GeneratorOption {
	return func(g *Generator) {
		if loc != nil {
			g.loc = loc
		}
	}
}

// WithCompression toggles PDF stream compression. Uncompressed output keeps the
// text searchable in the raw bytes.
func WithCompression(on bool) GeneratorOption {
	return func(g *Generator) { g.compress = on }
}

// WithClock overrides the wall clock used for the "Generated on" line.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a Generator.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{now: time.Now, loc: time.UTC, compress: true}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders the report for patientID. Entries are rendered in the given
// order. It returns a render error and no bytes if the document cannot be built.
func (g *Generator) Generate(ctx context.Context, patientID string, entries []domain.LogEntry) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, shared.Wrap(shared.KindRender, "render report", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(g.compress)
	pdf.SetTitle(reportTitle, true)
	pdf.SetCreator("NeuroSync", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, reportTitle, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 6, tr("Patient ID: "+patientID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Generated on: "+g.now().In(g.loc).Format(generatedOnFmt), "", 1, "L", false, 0, "")
	pdf.Ln(3)
	left, _, right, _ := pdf.GetMargins()
	pageW, _ := pdf.GetPageSize()
	pdf.Line(left, pdf.GetY(), pageW-right, pdf.GetY())
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 8, "Behavior Log Summary", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(entries) == 0 {
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 6, noLogsLine, "", 1, "L", false, 0, "")
	}
	for i, e := range entries {
		g.renderEntry(pdf, tr, i+1, e)
	}

	if err := pdf.Error(); err != nil {
		return nil, shared.Wrap(shared.KindRender, "render report", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, shared.Wrap(shared.KindRender, "render report", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) renderEntry(pdf *fpdf.Fpdf, tr func(string) string, n int, e domain.LogEntry) {
	when := missingValue
	if t := e.Time(); !t.IsZero() {
		when = t.In(g.loc).Format(entryTimeFmt)
	}
	mood := e.Mood
	if mood == "" {
		mood = missingValue
	}
	notes := e.Notes
	if notes == "" {
		notes = noNotesLine
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 6, fmt.Sprintf("Entry #%d - %s", n, when), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, tr("Mood: "+mood), "", 1, "L", false, 0, "")
	pdf.MultiCell(0, 5, tr("Notes: "+notes), "", "L", false)
	pdf.Ln(2)
}

package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/scrapesynth/internal/chart"
	"github.com/nao1215/scrapesynth/internal/database"
)

// SimpleWriter outputs plain text. The model reply is printed as-is and the
// chart, if any, as a labelled value list.
type SimpleWriter struct {
	baseWriter

	// verbose adds model attempts and per-source details.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables model attempts and source details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report.
func (w *SimpleWriter) Write(report *Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSources(&sb, report)
	if w.verbose {
		w.writeAttempts(&sb, report)
	}
	w.writeResult(&sb, report)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *Report) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Run:          %s\n", report.RunID)
	if !report.CreatedAt.IsZero() {
		fmt.Fprintf(sb, "Date:         %s\n", report.CreatedAt.Local().Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(sb, "Instruction:  %s\n", report.Instruction)
	fmt.Fprintf(sb, "Mode:         %s\n", modeLabel(report))
	if report.Model != "" {
		fmt.Fprintf(sb, "Model:        %s (%s)\n", report.Model, report.Provider)
	}
	if report.Failed() {
		fmt.Fprintf(sb, "Status:       FAILED - %s\n", report.Error)
	}

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeSources(sb *strings.Builder, report *Report) {
	failed := 0
	for _, o := range report.Sources {
		if !o.OK {
			failed++
		}
	}
	if failed == 0 && !w.verbose {
		return
	}

	sb.WriteString("SOURCES\n")
	for _, o := range report.Sources {
		if o.OK {
			fmt.Fprintf(sb, "  [+] %d. %s\n", o.Position+1, sourceLabel(o))
			if w.verbose && o.Record != nil && o.Record.IsArchived() {
				fmt.Fprintf(sb, "      snapshot: %s\n", o.Record.ArchivedAddress)
			}
			continue
		}
		fmt.Fprintf(sb, "  [-] %d. %s\n", o.Position+1, o.Address)
		fmt.Fprintf(sb, "      %s\n", o.Reason)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeAttempts(sb *strings.Builder, report *Report) {
	if len(report.Attempts) == 0 {
		return
	}
	sb.WriteString("MODEL ATTEMPTS\n")
	for _, a := range report.Attempts {
		if a.OK {
			fmt.Fprintf(sb, "  [+] %s (%s)\n", a.Model, a.Elapsed.Round(time.Millisecond))
			continue
		}
		fmt.Fprintf(sb, "  [-] %s: %s\n", a.Model, a.Reason)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeResult(sb *strings.Builder, report *Report) {
	res := report.Result
	if text := strings.TrimSpace(res.LeadingText); text != "" {
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	if res.HasPayload() {
		if c, err := chart.Decode(res.StructuredPayload); err == nil {
			sb.WriteString(strings.ToUpper(chartHeading(c)))
			sb.WriteString("\n")
			for _, p := range c.Data {
				fmt.Fprintf(sb, "  %-30s %s\n", truncateString(p.Name, 30), formatValue(p.Value))
			}
			sb.WriteString("\n")
		}
	}

	if text := strings.TrimSpace(res.TrailingText); text != "" {
		sb.WriteString(text)
		sb.WriteString("\n")
	}
}

// WriteHistory outputs one line per run.
func (w *SimpleWriter) WriteHistory(runs []database.RunSummary) (int, error) {
	if len(runs) == 0 {
		return io.WriteString(w.output, "No runs recorded yet.\n")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-36s  %-19s  %-6s  %-7s  %-24s  %s\n", "RUN ID", "DATE", "STATUS", "SOURCES", "MODEL", "INSTRUCTION")
	for _, r := range runs {
		status := "ok"
		if !r.OK {
			status = "failed"
		}
		modelName := r.Model
		if modelName == "" {
			modelName = "-"
		}
		fmt.Fprintf(&sb, "%-36s  %-19s  %-6s  %-7d  %-24s  %s\n",
			r.RunID,
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			status,
			r.SourceCount,
			truncateString(modelName, 24),
			truncateString(r.Instruction, 50),
		)
	}
	return io.WriteString(w.output, sb.String())
}

// formatValue prints integral values without a fraction.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

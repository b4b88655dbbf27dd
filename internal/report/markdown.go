package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/scrapesynth/internal/chart"
	"github.com/nao1215/scrapesynth/internal/database"
)

// MarkdownWriter outputs reports as Markdown. Pie charts become mermaid pie
// charts; other chart kinds become tables.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report.
func (w *MarkdownWriter) Write(report *Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSources(md, report)
	w.writeResult(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *Report) {
	md.H1("Synthesis Report")
	md.PlainText("")

	rows := [][]string{
		{"Run", "`" + report.RunID + "`"},
		{"Instruction", escapeCell(report.Instruction)},
		{"Mode", modeLabel(report)},
	}
	if !report.CreatedAt.IsZero() {
		rows = append(rows, []string{"Date", report.CreatedAt.Local().Format("2006-01-02 15:04:05 MST")})
	}
	if report.Model != "" {
		rows = append(rows, []string{"Model", report.Model + " (" + report.Provider + ")"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if report.Failed() {
		md.Cautionf("Synthesis failed: %s", report.Error)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeSources(md *markdown.Markdown, report *Report) {
	if len(report.Sources) == 0 {
		return
	}
	md.H2("Sources")
	md.PlainText("")

	rows := make([][]string, len(report.Sources))
	for i, o := range report.Sources {
		status := "✅"
		detail := "-"
		if !o.OK {
			status = "❌"
			detail = truncateString(o.Reason, 60)
		} else if o.Record != nil && o.Record.IsArchived() {
			detail = o.Record.ArchivedAddress
		}
		rows[i] = []string{
			strconv.Itoa(o.Position + 1),
			status,
			escapeCell(truncateString(sourceLabel(o), 60)),
			escapeCell(detail),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Status", "Source", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeResult(md *markdown.Markdown, report *Report) {
	res := report.Result
	if report.Failed() && res.LeadingText == "" {
		return
	}

	md.H2("Result")
	md.PlainText("")

	if text := strings.TrimSpace(res.LeadingText); text != "" {
		md.PlainText(text)
		md.PlainText("")
	}

	if res.HasPayload() {
		if c, err := chart.Decode(res.StructuredPayload); err == nil {
			w.writeChart(md, c)
		}
	}

	if text := strings.TrimSpace(res.TrailingText); text != "" {
		md.PlainText(text)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeChart(md *markdown.Markdown, c chart.Chart) {
	md.H3(chartHeading(c))
	md.PlainText("")

	if c.Type == chart.KindPie {
		pie := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle(c.Title),
			piechart.WithShowData(true),
		)
		for _, p := range c.Data {
			pie.LabelAndFloatValue(p.Name, p.Value)
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, pie.String())
		md.PlainText("")
		return
	}

	rows := make([][]string, len(c.Data))
	for i, p := range c.Data {
		rows[i] = []string{escapeCell(p.Name), formatValue(p.Value)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Name", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by scrapesynth*")
}

// WriteHistory outputs the run list as a table.
func (w *MarkdownWriter) WriteHistory(runs []database.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Run History")
	md.PlainText("")

	if len(runs) == 0 {
		md.PlainText("No runs recorded yet.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		status := "✅"
		if !r.OK {
			status = "❌"
		}
		rows[i] = []string{
			"`" + r.RunID + "`",
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			status,
			strconv.Itoa(r.SourceCount),
			escapeCell(truncateString(r.Instruction, 60)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Run", "Date", "Status", "Sources", "Instruction"},
		Rows:   rows,
	})
	return len(md.String()), md.Build()
}

// escapeCell keeps a value on one table row.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// Package report renders synthesis results and run history.
//
// Writers:
//   - SimpleWriter: plain text for the terminal or a pipe (default)
//   - JSONWriter: structured output for tool integration
//   - MarkdownWriter: a document with the chart drawn as a mermaid pie
//     chart or a table
//   - TerminalWriter: the Markdown document rendered with glamour
//
// A Report is built either from a fresh synth.Result or from a stored
// database.Run, so `ask` and `history --show` print the same layout.
package report

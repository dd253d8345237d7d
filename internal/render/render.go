// Package render prints search results for terminals and file exports.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
)

const noResultsMessage = "No results found for your query."

// ParseFormat accepts the names the CLI exposes; empty means table.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json, csv or md)", s)
	}
}

// Summary is the one-line result headline shown above a table.
func Summary(rowCount int) string {
	if rowCount == 0 {
		return noResultsMessage
	}
	return fmt.Sprintf("Found %d results", rowCount)
}

// Results writes cols and rows to w in format.
func Results(w io.Writer, cols []string, rows [][]any, format Format) error {
	switch format {
	case FormatJSON:
		return JSON(w, cols, rows)
	case FormatCSV:
		return CSV(w, cols, rows)
	case FormatMarkdown:
		return Markdown(w, cols, rows)
	default:
		return Table(w, cols, rows)
	}
}

func Table(w io.Writer, cols []string, rows [][]any) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, noResultsMessage)
		return nil
	}

	t := newWriter(cols, rows)
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}

func Markdown(w io.Writer, cols []string, rows [][]any) error {
	t := newWriter(cols, rows)
	_, err := fmt.Fprintln(w, t.RenderMarkdown())
	return err
}

// CSV writes RFC 4180 output with a header row; NULLs become empty fields.
func CSV(w io.Writer, cols []string, rows [][]any) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for _, row := range rows {
		for i := range record {
			record[i] = ""
			if i < len(row) && row[i] != nil {
				record[i] = FormatValue(row[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSON writes the columns and the rows as positional arrays, so repeated
// column names such as e.name and d.name both survive.
func JSON(w io.Writer, cols []string, rows [][]any) error {
	out := struct {
		Columns []string `json:"columns"`
		Rows    [][]any  `json:"rows"`
	}{Columns: cols, Rows: rows}
	if out.Columns == nil {
		out.Columns = []string{}
	}
	if out.Rows == nil {
		out.Rows = [][]any{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", val)
	}
}

func newWriter(cols []string, rows [][]any) table.Writer {
	t := table.NewWriter()

	header := make(table.Row, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = FormatValue(v)
		}
		t.AppendRow(r)
	}
	return t
}

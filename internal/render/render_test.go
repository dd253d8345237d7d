package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testCols = []string{"name", "salary", "hire_date"}
	testRows = [][]any{
		{"John Doe", int64(75000), time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"Smith, Jane", "82000.00", nil},
	}
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"":         FormatTable,
		"table":    FormatTable,
		"JSON":     FormatJSON,
		"csv":      FormatCSV,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "No results found for your query.", Summary(0))
	assert.Equal(t, "Found 1 results", Summary(1))
	assert.Equal(t, "Found 5 results", Summary(5))
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, testCols, testRows))

	out := buf.String()
	assert.Contains(t, out, "John Doe")
	assert.Contains(t, out, "2021-03-01")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(2 rows)")
}

func TestTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, testCols, nil))
	assert.Equal(t, "No results found for your query.\n", buf.String())
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, testCols, testRows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "|"))
	assert.Contains(t, lines[1], "---")
	assert.Contains(t, lines[2], "| John Doe |")
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, testCols, testRows))

	assert.Equal(t,
		"name,salary,hire_date\n"+
			"John Doe,75000,2021-03-01\n"+
			"\"Smith, Jane\",82000.00,\n",
		buf.String())
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, testCols[:2], [][]any{{"John Doe", 75000}}))

	var decoded struct {
		Columns []string `json:"columns"`
		Rows    [][]any  `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []string{"name", "salary"}, decoded.Columns)
	assert.Equal(t, [][]any{{"John Doe", float64(75000)}}, decoded.Rows)
}

func TestJSON_KeepsDuplicateColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, []string{"name", "name"}, [][]any{{"Alice", "Engineering"}}))

	var decoded struct {
		Columns []string `json:"columns"`
		Rows    [][]any  `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []string{"name", "name"}, decoded.Columns)
	assert.Equal(t, [][]any{{"Alice", "Engineering"}}, decoded.Rows)
}

func TestResults_EmptyJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Results(&buf, testCols, nil, FormatJSON))
	assert.JSONEq(t, `{"columns":["name","salary","hire_date"],"rows":[]}`, buf.String())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", FormatValue(nil))
	assert.Equal(t, "abc", FormatValue([]byte("abc")))
	assert.Equal(t, "2024-05-06 07:08:09", FormatValue(time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)))
	assert.Equal(t, "3.5", FormatValue(3.5))
}

func TestStatusLines(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	var buf bytes.Buffer
	Success(&buf, "Found %d results", 3)
	Error(&buf, "Security Error: %s", "Only SELECT queries are allowed")
	SQL(&buf, "SELECT 1")

	assert.Equal(t,
		"✓ Found 3 results\n"+
			"✗ Security Error: Only SELECT queries are allowed\n"+
			"Generated SQL:\nSELECT 1\n",
		buf.String())
}

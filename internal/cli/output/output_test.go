package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/feedpager/pkg/cachestore"
	"github.com/marmos91/feedpager/pkg/feed"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "table", input: "table", want: FormatTable},
		{name: "empty defaults to table", input: "", want: FormatTable},
		{name: "JSON uppercase", input: "JSON", want: FormatJSON},
		{name: "yml alias", input: "yml", want: FormatYAML},
		{name: "whitespace trimmed", input: "  yaml  ", want: FormatYAML},
		{name: "invalid format", input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrinterStatusLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable, false)

	p.Success("saved")
	p.Warning("stale")
	p.Error("failed")
	p.Hint("preview")

	assert.Equal(t, "saved\nstale\nfailed\npreview\n", buf.String())
}

func TestPrinterColor(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable, true)

	p.Success("ok")
	assert.Equal(t, colorGreen+"ok"+colorReset+"\n", buf.String())
}

func testPosts() []feed.Post {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return []feed.Post{
		{ID: 2, ItemType: feed.ItemImage, AuthorID: 3, Text: "second", CreatedAt: created},
		{ID: 1, ItemType: feed.ItemText, AuthorID: 2, Text: strings.Repeat("x", 60), CreatedAt: created},
	}
}

func TestPrintPostTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable, false)

	require.NoError(t, p.Print(PostTable(testPosts())))

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "TEXT")
	assert.Contains(t, out, "image")
	assert.Contains(t, out, "second")
	assert.Contains(t, out, strings.Repeat("x", 47)+"…")
	assert.NotContains(t, out, strings.Repeat("x", 49))
}

func TestPrintPostsJSONAndYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatJSON, false).Print(testPosts()))
	assert.Contains(t, buf.String(), `"feeds_text": "second"`)

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatYAML, false).Print(map[string]int{"items": 2}))
	assert.Equal(t, "items: 2\n", buf.String())
}

func TestPrintFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(map[string]string{"a": "b"}))
	assert.Contains(t, buf.String(), `"a": "b"`)
}

func TestEntryTable(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	table := EntryTable{
		Now: now,
		Entries: []cachestore.EntryInfo{
			{Key: "feed/a", Size: 512, UpdatedAt: now.Add(-90 * time.Second)},
			{Key: "feed/b", Size: 3 * 1024 * 1024, UpdatedAt: now.Add(-26 * time.Hour)},
		},
	}

	assert.Equal(t, [][]string{
		{"feed/a", "512B", "1m 30s"},
		{"feed/b", "3.0MiB", "1d 2h"},
	}, table.Rows())
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "0s", FormatAge(-time.Second))
	assert.Equal(t, "12s", FormatAge(12*time.Second))
	assert.Equal(t, "2h 5m", FormatAge(2*time.Hour+5*time.Minute))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0B", FormatBytes(-5))
	assert.Equal(t, "1.5KiB", FormatBytes(1536))
	assert.Equal(t, "1.0GiB", FormatBytes(1<<30))
}

func TestKeyValuesAndTableData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, KeyValues(&buf, [][2]string{{"strategy", "cache_then_net"}, {"items", "10"}}))
	assert.Contains(t, buf.String(), "strategy")
	assert.Contains(t, buf.String(), "cache_then_net")

	td := NewTableData("A", "B")
	td.AddRow("1", "2")
	assert.Equal(t, []string{"A", "B"}, td.Headers())
	assert.Equal(t, [][]string{{"1", "2"}}, td.Rows())
}

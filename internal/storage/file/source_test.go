package file

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {

	type test struct {
		input     string
		delimiter rune
		lines     []int
		fields    [][]string
	}

	tests := map[string]test{
		"comma": {
			input:     "label,x,y\na,1,2\nb,3,4\n",
			delimiter: Comma,
			lines:     []int{1, 2, 3},
			fields:    [][]string{{"label", "x", "y"}, {"a", "1", "2"}, {"b", "3", "4"}},
		},
		"tab": {
			input:     "a\t1\t2\nb\t3\t4\n",
			delimiter: Tab,
			lines:     []int{1, 2},
			fields:    [][]string{{"a", "1", "2"}, {"b", "3", "4"}},
		},
		"blank-lines-and-ragged-rows": {
			input:     "a,1,2\n\nb,3\n\nc, 5, 6\n",
			delimiter: Comma,
			lines:     []int{1, 3, 5},
			fields:    [][]string{{"a", "1", "2"}, {"b", "3"}, {"c", "5", "6"}},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			records, err := Read(strings.NewReader(tt.input), tt.delimiter)
			require.NoError(t, err)
			require.Equal(t, len(tt.lines), len(records))
			for i, r := range records {
				assert.Equal(t, tt.lines[i], r.Line)
				assert.Equal(t, tt.fields[i], r.Fields)
			}
		})
	}
}

func TestRecord_Empty(t *testing.T) {
	assert.True(t, Record{}.Empty())
	assert.True(t, Record{Fields: []string{"", " ", ""}}.Empty())
	assert.False(t, Record{Fields: []string{"", "1"}}.Empty())
}

func TestDelimiter(t *testing.T) {

	type test struct {
		path  string
		name  string
		d     rune
		error bool
	}

	tests := map[string]test{
		"auto-csv":    {path: "data.csv", name: Auto, d: Comma},
		"auto-tsv":    {path: "data.TSV", name: Auto, d: Tab},
		"empty-tab":   {path: "data.tab", name: "", d: Tab},
		"explicit":    {path: "data.tsv", name: ",", d: Comma},
		"tab-name":    {path: "data.csv", name: "tab", d: Tab},
		"unsupported": {path: "data.csv", name: ";", error: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			d, err := Delimiter(tt.path, tt.name)
			if tt.error {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.d, d)
		})
	}
}

func TestOpen(t *testing.T) {
	p := filepath.Join(t.TempDir(), "input.csv")
	err := os.WriteFile(p, []byte("a,1\nb,2\n"), 0600)
	require.NoError(t, err)

	records, err := Open(p, Comma)
	require.NoError(t, err)
	assert.Equal(t, 2, len(records))

	_, err = Open(filepath.Join(t.TempDir(), "missing.csv"), Comma)
	assert.Error(t, err)
}

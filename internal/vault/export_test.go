package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeExportFilename(t *testing.T) {
	assert.Equal(t, "report.csv", SanitizeExportFilename("report.csv"))
	assert.Equal(t, "report.CSV", SanitizeExportFilename("report.CSV"))
	assert.Equal(t, "report.csv", SanitizeExportFilename("  report  "))
	assert.Equal(t, "my_report.csv", SanitizeExportFilename("my report"))
	assert.Equal(t, DefaultExportFilename, SanitizeExportFilename("   "))
	assert.Equal(t, DefaultExportFilename, SanitizeExportFilename("///"))
}

func TestRowsToCSV(t *testing.T) {
	columns := []string{"name", TableRowID, "note", ""}
	rows := []TableRow{
		{TableRowID: "r1", "name": "plain", "note": "a,b"},
		{TableRowID: "r2", "name": `quote "me"`, "note": "line\nbreak"},
	}

	out := RowsToCSV(columns, rows)

	lines := []string{
		"name,note",
		`plain,"a,b"`,
		`"quote ""me""","line` + "\n" + `break"`,
	}
	assert.Equal(t, lines[0]+"\n"+lines[1]+"\n"+lines[2], out)
}

func TestRowsToCSVFormulaNeutralization(t *testing.T) {
	rows := []TableRow{{
		"a": "=SUM(A1)",
		"b": "+1",
		"c": "-2",
		"d": "@cmd",
		"e": "  =indented",
		"f": "'already quoted",
		"g": "safe",
	}}

	out := RowsToCSV([]string{"a", "b", "c", "d", "e", "f", "g"}, rows)

	assert.Contains(t, out, "'=SUM(A1)")
	assert.Contains(t, out, "'+1")
	assert.Contains(t, out, "'-2")
	assert.Contains(t, out, "'@cmd")
	assert.Contains(t, out, "'  =indented")
	assert.Contains(t, out, "'already quoted")
	assert.NotContains(t, out, "''already quoted")
	assert.Contains(t, out, "safe")
}

func TestRowsToCSVInfersColumns(t *testing.T) {
	rows := []TableRow{
		{TableRowID: "r1", "zeta": "z", "alpha": "a"},
		{"alpha": "a2", "zeta": "z2"},
	}

	out := RowsToCSV(nil, rows)

	assert.Equal(t, "alpha,zeta\na,z\na2,z2", out, "inferred columns come sorted and skip the row id")
}

func TestRowsToCSVValueRendering(t *testing.T) {
	rows := []TableRow{{
		"s": "text",
		"b": true,
		"i": int64(7),
		"f": 1.5,
		"n": nil,
		"l": []any{"x", int64(2)},
		"o": map[string]any{"k": "v"},
	}}

	out := RowsToCSV([]string{"s", "b", "i", "f", "n", "l", "o"}, rows)

	assert.Equal(t, "s,b,i,f,n,l,o\ntext,true,7,1.5,,\"x,2\",[object Object]", out)
}

func TestRowsToCSVEmpty(t *testing.T) {
	assert.Equal(t, "", RowsToCSV(nil, nil))
	assert.Equal(t, "name", RowsToCSV([]string{"name"}, nil))
}

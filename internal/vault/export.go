package vault

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dcitarelli/workflow/internal/filex"
)

const (
	// DefaultExportFilename is used when a requested name sanitizes to nothing.
	DefaultExportFilename = "workflow-export.csv"

	maxExportRows = 50_000
)

// SanitizeExportFilename clamps and sanitizes a requested export name and
// guarantees a .csv suffix.
func SanitizeExportFilename(name string) string {
	cleaned := filex.SanitizeFilename(ClampString(name, 255, true), DefaultExportFilename)
	if !strings.HasSuffix(strings.ToLower(cleaned), ".csv") {
		cleaned += ".csv"
	}
	return cleaned
}

// RowsToCSV renders table rows as CSV text. Column names are clamped and
// the synthetic row id column is dropped; when no columns are given they
// are inferred from the first row. Output is capped at 50,000 rows and
// every cell is escaped and neutralized against spreadsheet formula
// injection.
func RowsToCSV(columns []string, rows []TableRow) string {
	cleaned := make([]string, 0, len(columns))
	for _, column := range columns {
		name := ClampString(column, 80, false)
		if name == "" || name == TableRowID {
			continue
		}
		cleaned = append(cleaned, name)
	}

	if len(rows) > maxExportRows {
		rows = rows[:maxExportRows]
	}

	if len(cleaned) == 0 && len(rows) > 0 {
		keys := make([]string, 0, len(rows[0]))
		for key := range rows[0] {
			name := ClampString(key, 80, false)
			if name == "" || name == TableRowID {
				continue
			}
			keys = append(keys, name)
		}
		sort.Strings(keys)
		cleaned = keys
	}

	var lines []string
	if len(cleaned) > 0 {
		header := make([]string, 0, len(cleaned))
		for _, column := range cleaned {
			header = append(header, csvEscape(neutralizeCell(column)))
		}
		lines = append(lines, strings.Join(header, ","))
	}
	for _, row := range rows {
		cells := make([]string, 0, len(cleaned))
		for _, column := range cleaned {
			cells = append(cells, csvEscape(neutralizeCell(csvValueString(row[column]))))
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, "\n")
}

// csvValueString renders a cell value the way a loosely typed frontend
// would stringify it.
func csvValueString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, csvValueString(item))
		}
		return strings.Join(parts, ",")
	default:
		return "[object Object]"
	}
}

// neutralizeCell prefixes cells that spreadsheet apps would otherwise
// evaluate as formulas.
func neutralizeCell(value string) string {
	trimmed := strings.TrimLeft(value, " \t\r\n")
	if trimmed == "" || strings.HasPrefix(trimmed, "'") {
		return value
	}
	switch trimmed[0] {
	case '=', '+', '-', '@':
		return "'" + value
	}
	return value
}

func csvEscape(value string) string {
	if strings.ContainsAny(value, ",\"\n\r") {
		return "\"" + strings.ReplaceAll(value, "\"", "\"\"") + "\""
	}
	return value
}

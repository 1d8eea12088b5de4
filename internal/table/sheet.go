package table

import (
	"strings"
)

// Sheet raw tabular data as read from an upload or written to an export
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// NewSheet creates an empty sheet with the given header.
func NewSheet(name string, columns ...string) *Sheet {
	return &Sheet{Name: name, Columns: columns}
}

// Append adds a row.
func (s *Sheet) Append(cells ...string) {
	s.Rows = append(s.Rows, cells)
}

// Len returns the number of data rows.
func (s *Sheet) Len() int {
	return len(s.Rows)
}

// ColumnIndex maps column labels to their positions. Labels match exactly;
// later duplicates do not override earlier ones.
func (s *Sheet) ColumnIndex() map[string]int {
	index := make(map[string]int, len(s.Columns))
	for i, name := range s.Columns {
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	return index
}

// Missing returns the required labels absent from the header, in required order.
func (s *Sheet) Missing(required []string) []string {
	index := s.ColumnIndex()
	var missing []string
	for _, col := range required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// Cell returns the trimmed value of a row's column, or "" when the row is short.
func Cell(row []string, index map[string]int, col string) string {
	pos, ok := index[col]
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

package common

import (
	"fmt"
	"regexp"
)

// Template describes where a known spreadsheet layout keeps its labelled
// figures: a marker row found by pattern and named column offsets on that row.
// A negative offset disables the field.
type Template struct {
	Marker *regexp.Regexp
	Fields map[string]int
}

// NewTemplate compiles pattern. It fails on an empty or invalid pattern so a
// broken template is caught when configuration is loaded.
func NewTemplate(pattern string, fields map[string]int) (Template, error) {
	if pattern == "" {
		return Template{}, fmt.Errorf("template marker pattern is empty")
	}
	marker, err := regexp.Compile(pattern)
	if err != nil {
		return Template{}, fmt.Errorf("template marker %q: %w", pattern, err)
	}
	copied := make(map[string]int, len(fields))
	for name, offset := range fields {
		copied[name] = offset
	}
	return Template{Marker: marker, Fields: copied}, nil
}

// MarkerRow is the row a Template matched.
type MarkerRow struct {
	Index    int
	template Template
	table    Table
}

// Locate returns the first row where any cell matches the marker.
func (tpl Template) Locate(table Table) (MarkerRow, bool) {
	if tpl.Marker == nil {
		return MarkerRow{Index: -1}, false
	}
	for r, row := range table.Rows {
		for _, cell := range row {
			if tpl.Marker.MatchString(cell) {
				return MarkerRow{Index: r, template: tpl, table: table}, true
			}
		}
	}
	return MarkerRow{Index: -1}, false
}

// Field returns the cell at the named offset. ok is false when the field is
// not configured, disabled, or outside the row.
func (m MarkerRow) Field(name string) (value string, ok bool) {
	offset, configured := m.template.Fields[name]
	if !configured || offset < 0 || m.Index < 0 {
		return "", false
	}
	if offset >= len(m.table.Rows[m.Index]) {
		return "", false
	}
	return m.table.Cell(m.Index, offset), true
}

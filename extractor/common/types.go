package common

import (
	"strings"
)

// Role is the part a file plays in a reconciliation run.
type Role string

const (
	RoleTiket    Role = "tiket"
	RoleInvoice  Role = "invoice"
	RoleSummary  Role = "summary"
	RoleRekening Role = "rekening"
)

// Roles lists every role a run requires, in display order.
var Roles = []Role{RoleTiket, RoleInvoice, RoleSummary, RoleRekening}

// Valid reports whether r is one of Roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Port is a canonical port name such as "Merak".
type Port string

// NoPort marks a record whose port could not be resolved.
const NoPort Port = ""

// ResolvePort maps free text onto one of ports. The normalized text must equal
// the normalized port name or contain it as a whole word.
func ResolvePort(text string, ports []Port) (Port, bool) {
	normalized := NormalizePort(text)
	if normalized == "" {
		return NoPort, false
	}
	for _, p := range ports {
		if NormalizePort(string(p)) == normalized {
			return p, true
		}
	}
	words := strings.FieldsFunc(normalized, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for _, p := range ports {
		name := NormalizePort(string(p))
		for _, w := range words {
			if w == name {
				return p, true
			}
		}
	}
	return NoPort, false
}

// Table is a raw, weakly typed grid as read from one sheet. Rows may be ragged.
type Table struct {
	Name string
	Rows [][]string
}

// Cell returns the trimmed cell text, or "" when (r, c) is outside the grid.
func (t Table) Cell(r, c int) string {
	if r < 0 || r >= len(t.Rows) || c < 0 || c >= len(t.Rows[r]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[r][c])
}

// Width is the length of the longest row.
func (t Table) Width() int {
	width := 0
	for _, row := range t.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// Header locates named columns within a Table.
type Header struct {
	Row     int
	Columns map[string]int
}

// FindHeader returns the first row that carries a cell labelled key. Header
// rows do not have to be the first row of the sheet.
func (t Table) FindHeader(key string) (Header, bool) {
	want := NormalizeColumnName(key)
	for r, row := range t.Rows {
		for _, cell := range row {
			if NormalizeColumnName(cell) != want {
				continue
			}
			h := Header{Row: r, Columns: make(map[string]int, len(row))}
			for c, label := range row {
				name := NormalizeColumnName(label)
				if _, dup := h.Columns[name]; name != "" && !dup {
					h.Columns[name] = c
				}
			}
			return h, true
		}
	}
	return Header{Row: -1}, false
}

// Index returns the column of name, or -1.
func (h Header) Index(name string) int {
	if name == "" {
		return -1
	}
	if c, ok := h.Columns[NormalizeColumnName(name)]; ok {
		return c
	}
	return -1
}

// Get returns the cell under column name on row r, or "" when the column is absent.
func (h Header) Get(t Table, r int, name string) string {
	c := h.Index(name)
	if c < 0 {
		return ""
	}
	return t.Cell(r, c)
}

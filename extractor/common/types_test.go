package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testPorts = []Port{"Merak", "Bakauheni", "Ketapang", "Gilimanuk", "Ciwandan", "Panjang"}

func TestResolvePort(t *testing.T) {
	tests := []struct {
		text string
		want Port
		ok   bool
	}{
		{"PELABUHAN MERAK", "Merak", true},
		{"bakauheni", "Bakauheni", true},
		{"0412 DARI MIDI UTAMA INDONESIA KETAPANG", "Ketapang", true},
		{"Pelabuhan Tanjung Priok", NoPort, false},
		{"", NoPort, false},
	}
	for _, tt := range tests {
		got, ok := ResolvePort(tt.text, testPorts)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleTiket.Valid())
	assert.True(t, RoleRekening.Valid())
	assert.False(t, Role("laporan").Valid())
}

func TestTableCell(t *testing.T) {
	table := Table{Rows: [][]string{{" a ", "b"}, {"c"}}}
	assert.Equal(t, "a", table.Cell(0, 0))
	assert.Equal(t, "", table.Cell(1, 1))
	assert.Equal(t, "", table.Cell(5, 0))
	assert.Equal(t, "", table.Cell(0, -1))
	assert.Equal(t, 2, table.Width())
}

func TestFindHeader(t *testing.T) {
	table := Table{Rows: [][]string{
		{"LAPORAN INVOICE"},
		{""},
		{"No", "Nomor  Invoice", "status", "HARGA"},
		{"1", "INV1", "Dibayar", "100000"},
	}}

	h, ok := table.FindHeader("NOMOR INVOICE")
	assert.True(t, ok)
	assert.Equal(t, 2, h.Row)
	assert.Equal(t, 2, h.Index("Status"))
	assert.Equal(t, -1, h.Index("PELABUHAN ASAL"))
	assert.Equal(t, "INV1", h.Get(table, 3, "nomor invoice"))
	assert.Equal(t, "", h.Get(table, 3, "PELABUHAN ASAL"))

	_, ok = table.FindHeader("Tarif")
	assert.False(t, ok)
}

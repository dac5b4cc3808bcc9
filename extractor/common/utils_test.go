package common

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadTable_Workbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Nomor Invoice", "STATUS", "HARGA"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"INV1", "Dibayar", 100000}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := ReadTable(bytes.NewReader(buf.Bytes()), "invoice.xlsx")
	require.NoError(t, err)

	assert.Equal(t, "invoice.xlsx", table.Name)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "INV1", table.Cell(1, 0))
	assert.Equal(t, "100000", table.Cell(1, 2))
}

func TestReadTable_CSV(t *testing.T) {
	data := "\xef\xbb\xbfNomor Invoice,STATUS,HARGA\nINV1,Dibayar,100000\nINV2,Pending\n"

	table, err := ReadTable(strings.NewReader(data), "invoice.CSV")
	require.NoError(t, err)

	require.Len(t, table.Rows, 3)
	assert.Equal(t, "Nomor Invoice", table.Cell(0, 0))
	assert.Equal(t, "", table.Cell(2, 2))
}

func TestReadTable_SemicolonCSV(t *testing.T) {
	data := "Nomor Invoice;STATUS;HARGA\nINV1;Dibayar;\"1.000,00\"\n"

	table, err := ReadTable(strings.NewReader(data), "invoice.csv")
	require.NoError(t, err)
	assert.Equal(t, "1.000,00", table.Cell(1, 2))
}

func TestReadTable_Unsupported(t *testing.T) {
	_, err := ReadTable(strings.NewReader("%PDF"), "rekening.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReadTable_CorruptWorkbook(t *testing.T) {
	_, err := ReadTable(strings.NewReader("not a zip"), "tiket.xlsx")
	assert.Error(t, err)
}

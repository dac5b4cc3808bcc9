package invoice

import (
	"testing"

	"github.com/aqlanhadi/rekon/config"
	"github.com/aqlanhadi/rekon/extractor/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ports = []common.Port{"Merak", "Bakauheni", "Ketapang"}

func setupTestConfig(t *testing.T) *Extractor {
	t.Helper()
	require.NoError(t, config.UseDefaults())
	e, err := New(ports)
	require.NoError(t, err)
	return e
}

func getTestTable() common.Table {
	return common.Table{
		Name: "invoice.xlsx",
		Rows: [][]string{
			{"DAFTAR INVOICE"},
			{},
			{"Nomor Invoice", "TANGGAL INVOICE", "PELABUHAN ASAL", "STATUS", "HARGA"},
			{"INV1", "10/04/2025", "Pelabuhan Merak", "Dibayar", "100000"},
			{"INV2", "11/04/2025", "Merak", "Pending", "50000"},
			{"INV3", "14/04/2025", "BAKAUHENI", "DIBAYAR", "75000"},
			{"", "", "", "", ""},
		},
	}
}

func TestExtractRows(t *testing.T) {
	e := setupTestConfig(t)

	rows := e.ExtractRows(getTestTable())

	require.Len(t, rows, 3)
	assert.True(t, rows[0].Paid)
	assert.False(t, rows[1].Paid)
	assert.True(t, rows[2].Paid, "status match ignores case")
	assert.Equal(t, common.Port("Merak"), rows[0].Port)
	assert.Equal(t, common.Port("Bakauheni"), rows[2].Port)
	assert.Equal(t, "2025-04-10", rows[0].Date.Format("2006-01-02"))
}

func TestTotalPaid(t *testing.T) {
	e := setupTestConfig(t)

	total := TotalPaid(e.ExtractRows(getTestTable()))

	assert.True(t, total.Equal(decimal.NewFromInt(175000)), "got %s", total)
}

func TestTotalPaid_NoPaidRows(t *testing.T) {
	rows := []Row{{InvoiceNo: "INV1", Status: "Pending", Price: decimal.NewNullDecimal(decimal.NewFromInt(10))}}
	assert.True(t, TotalPaid(rows).IsZero())
	assert.True(t, TotalPaid(nil).IsZero())
}

func TestPaidByPort(t *testing.T) {
	e := setupTestConfig(t)
	rows := e.ExtractRows(getTestTable())
	rows = append(rows, Row{InvoiceNo: "INV4", PortText: "Lembar", Paid: true, Price: decimal.NewNullDecimal(decimal.NewFromInt(5))})

	totals := PaidByPort(rows)

	require.Len(t, totals, 3)
	assert.Equal(t, "bakauheni", totals[0].Label)
	assert.Equal(t, "lembar", totals[1].Label)
	assert.Equal(t, common.NoPort, totals[1].Port)
	assert.Equal(t, "merak", totals[2].Label)
	assert.True(t, totals[2].Total.Equal(decimal.NewFromInt(100000)))
}

func TestDateRange(t *testing.T) {
	e := setupTestConfig(t)
	rows := e.ExtractRows(getTestTable())

	from, to := DateRange(rows, nil)
	require.NotNil(t, from)
	assert.Equal(t, "2025-04-10", from.Format("2006-01-02"))
	assert.Equal(t, "2025-04-14", to.Format("2006-01-02"))

	from, to = DateRange(rows, func(r Row) bool { return r.Port == "Merak" })
	assert.Equal(t, "2025-04-10", from.Format("2006-01-02"))
	assert.Equal(t, "2025-04-10", to.Format("2006-01-02"), "pending rows are ignored")

	from, to = DateRange(nil, nil)
	assert.Nil(t, from)
	assert.Nil(t, to)
}

func TestExtractRows_MissingHeader(t *testing.T) {
	e := setupTestConfig(t)
	assert.Empty(t, e.ExtractRows(common.Table{Rows: [][]string{{"foo", "bar"}}}))
}

func TestNew_EmptyPaidStatuses(t *testing.T) {
	require.NoError(t, config.UseDefaults())
	viper.Set("templates.invoice.paid_statuses", []string{})

	_, err := New(ports)
	assert.Error(t, err)
}

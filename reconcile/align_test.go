package reconcile

import (
	"testing"
	"time"

	"github.com/aqlanhadi/rekon/extractor/common"
	"github.com/aqlanhadi/rekon/extractor/invoice"
	"github.com/aqlanhadi/rekon/extractor/rekening_koran"
	"github.com/aqlanhadi/rekon/extractor/ticket_summary"
	"github.com/aqlanhadi/rekon/extractor/tiket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	return &t
}

func TestKey(t *testing.T) {
	k, ok := Key(" inv-001 ", "Merak", nil)
	assert.True(t, ok)
	assert.Equal(t, "INV-001", k)

	k, ok = Key("", "Merak", day(2025, 4, 12))
	assert.True(t, ok)
	assert.Equal(t, "MERAK|2025-04-12", k)

	_, ok = Key("", common.NoPort, nil)
	assert.False(t, ok)
}

func TestAlign_OuterJoin(t *testing.T) {
	tickets := []tiket.Row{{InvoiceNo: "INV-002", Amount: amount(200)}, {InvoiceNo: "INV-001", Amount: amount(100)}}
	invoices := []invoice.Row{{InvoiceNo: "inv-001", Price: amount(100), Status: "Dibayar"}, {InvoiceNo: "INV-003", Price: amount(300)}}
	summary := []ticket_summary.Row{{InvoiceNo: "INV-004", Fare: amount(400)}}
	entries := []rekening_koran.Entry{{Description: "INV-001", Credit: amount(100), Remark: "0412 DARI MIDI"}}

	rows := Align(tickets, invoices, summary, entries)

	require.Len(t, rows, 4)
	keys := []string{}
	for _, r := range rows {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"INV-001", "INV-002", "INV-003", "INV-004"}, keys)

	first := rows[0]
	assert.Equal(t, []common.Role{common.RoleTiket, common.RoleInvoice, common.RoleRekening}, first.Sources)
	assert.True(t, first.BankAmount.Decimal.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "Dibayar", first.InvoiceStatus)
	assert.Equal(t, "0412 DARI MIDI", first.BankRemark)

	assert.False(t, rows[1].InvoiceAmount.Valid, "missing side stays null")
	assert.True(t, rows[2].Has(common.RoleInvoice))
	assert.False(t, rows[2].Has(common.RoleTiket))
	assert.True(t, rows[3].Fare.Valid)
}

func TestAlign_DuplicatesSummed(t *testing.T) {
	tickets := []tiket.Row{{InvoiceNo: "INV-001", Amount: amount(100)}, {InvoiceNo: "INV-001", Amount: amount(50)}}

	rows := Align(tickets, nil, nil, nil)

	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Duplicates)
	assert.True(t, rows[0].TicketAmount.Decimal.Equal(decimal.NewFromInt(150)))
}

func TestAlign_FallbackKey(t *testing.T) {
	tickets := []tiket.Row{{Port: "Merak", Date: day(2025, 4, 12), Amount: amount(500)}}
	entries := []rekening_koran.Entry{
		{Port: "Merak", TxDate: day(2025, 4, 12), Credit: amount(500)},
		{Remark: "SETORAN", Credit: amount(1)},
	}

	rows := Align(tickets, nil, nil, entries)

	require.Len(t, rows, 2)
	assert.Equal(t, "#rekening-0002", rows[0].Key, "unkeyed records are kept")
	assert.Equal(t, "MERAK|2025-04-12", rows[1].Key)
	assert.True(t, rows[1].TicketAmount.Valid)
	assert.True(t, rows[1].BankAmount.Valid)
}

func TestAlign_OrderIndependent(t *testing.T) {
	a := []invoice.Row{{InvoiceNo: "B", Price: amount(1)}, {InvoiceNo: "A", Price: amount(2)}, {InvoiceNo: "B", Price: amount(3)}}
	b := []invoice.Row{a[2], a[1], a[0]}

	assert.Equal(t, Align(nil, a, nil, nil), Align(nil, b, nil, nil))
}

package reconcile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aqlanhadi/rekon/extractor/common"
	"github.com/aqlanhadi/rekon/extractor/invoice"
	"github.com/aqlanhadi/rekon/extractor/rekening_koran"
	"github.com/aqlanhadi/rekon/extractor/tiket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPorts = []common.Port{"Merak", "Bakauheni", "Ketapang", "Gilimanuk", "Ciwandan", "Panjang"}

func TestSummarize_Selisih(t *testing.T) {
	ports, grand := Summarize(SummaryInput{
		Ports:    testPorts,
		Tickets:  []tiket.Result{{Port: "Merak", Totals: tiket.Totals{Found: true, Revenue: amount(500000)}}},
		Invoices: []invoice.Row{{InvoiceNo: "INV1", PortText: "Merak", Port: "Merak", Paid: true, Price: amount(500000), Date: day(2025, 4, 12)}},
		Entries:  []rekening_koran.Entry{{Port: "Merak", Credit: amount(480000), Counterparty: true}},
	})

	require.Len(t, ports, 6)
	assert.Equal(t, 1, ports[0].No)
	assert.Equal(t, "12/04/2025", ports[0].Period)
	assert.True(t, ports[0].Selisih().Equal(decimal.NewFromInt(20000)))
	for _, p := range ports[1:] {
		assert.True(t, p.Selisih().IsZero(), p.Port)
	}
	assert.True(t, grand.Selisih().Equal(decimal.NewFromInt(20000)))
	assert.Equal(t, GrandTotal, grand.Port)
}

func TestSummarize_GrandIsSumOfPorts(t *testing.T) {
	ports, grand := Summarize(SummaryInput{
		Ports: testPorts,
		Tickets: []tiket.Result{
			{Port: "Merak", Totals: tiket.Totals{Revenue: amount(100)}},
			{Port: "Ketapang", Totals: tiket.Totals{Revenue: amount(250)}},
			{Port: common.NoPort, Totals: tiket.Totals{Revenue: amount(7)}},
		},
		Invoices: []invoice.Row{
			{PortText: "Bakauheni", Port: "Bakauheni", Paid: true, Price: amount(300)},
			{PortText: "Lembar", Paid: true, Price: amount(11)},
			{PortText: "Merak", Port: "Merak", Paid: false, Price: amount(999)},
		},
		Entries: []rekening_koran.Entry{
			{Port: "Panjang", Credit: amount(40)},
			{Credit: amount(60)},
		},
	})

	sum := func(f func(PortSummary) decimal.Decimal) decimal.Decimal {
		total := decimal.Zero
		for _, p := range ports {
			total = total.Add(f(p))
		}
		return total
	}
	assert.True(t, grand.TicketRevenue.Equal(sum(func(p PortSummary) decimal.Decimal { return p.TicketRevenue })))
	assert.True(t, grand.InvoiceTotal.Equal(sum(func(p PortSummary) decimal.Decimal { return p.InvoiceTotal })))
	assert.True(t, grand.CashReceived.Equal(sum(func(p PortSummary) decimal.Decimal { return p.CashReceived })))
	assert.True(t, grand.Selisih().Equal(grand.InvoiceTotal.Sub(grand.CashReceived)))

	assert.Equal(t, "107", ports[0].TicketRevenue.String(), "unattributed tickets go to the first port")
	assert.Equal(t, "11", ports[0].InvoiceTotal.String(), "unknown invoice ports go to the first port")
	assert.Equal(t, "60", ports[0].CashReceived.String())
	assert.Equal(t, "40", ports[5].CashReceived.String())
}

func TestSummarize_PeriodFallback(t *testing.T) {
	ports, grand := Summarize(SummaryInput{
		Ports: testPorts[:2],
		Tickets: []tiket.Result{
			{Port: "Bakauheni", Rows: []tiket.Row{{Date: day(2025, 4, 3)}, {Date: day(2025, 4, 1)}}},
		},
		Invoices: []invoice.Row{
			{Port: "Merak", Paid: true, Price: amount(1), Date: day(2025, 4, 10)},
			{Port: "Merak", Paid: true, Price: amount(1), Date: day(2025, 4, 12)},
		},
	})

	assert.Equal(t, "10/04/2025 - 12/04/2025", ports[0].Period)
	assert.Equal(t, "01/04/2025 - 03/04/2025", ports[1].Period)
	assert.Equal(t, "10/04/2025 - 12/04/2025", grand.Period)
}

func TestFormatPeriod(t *testing.T) {
	a := time.Date(2025, 4, 1, 9, 0, 0, 0, time.Local)
	b := time.Date(2025, 4, 1, 17, 0, 0, 0, time.Local)

	assert.Equal(t, "", FormatPeriod(nil, nil))
	assert.Equal(t, "01/04/2025", FormatPeriod(&a, &b))
	assert.Equal(t, "01/04/2025 - 12/04/2025", FormatPeriod(&a, day(2025, 4, 12)))
}

func TestPortSummary_JSON(t *testing.T) {
	p := PortSummary{No: 1, Port: "Merak", InvoiceTotal: decimal.NewFromInt(500), CashReceived: decimal.NewFromInt(480)}

	out, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "20", decoded["selisih"])
	assert.Equal(t, "Merak", decoded["port"])
}

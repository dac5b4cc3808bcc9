package reconcile

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatRupiah renders an amount as "Rp 1,250,000". Zero renders empty.
func FormatRupiah(d decimal.Decimal) string {
	rounded := d.Round(0)
	if rounded.IsZero() {
		return ""
	}
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	return "Rp " + sign + groupThousands(rounded.String())
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// DisplayRow is a recap line ready for printing.
type DisplayRow struct {
	No            string `json:"no"`
	Period        string `json:"period"`
	Port          string `json:"port"`
	TicketRevenue string `json:"ticket_revenue"`
	InvoiceTotal  string `json:"invoice_total"`
	CashReceived  string `json:"cash_received"`
	Selisih       string `json:"selisih"`
}

// DisplayHeaders are the recap column titles.
var DisplayHeaders = []string{"No", "Tanggal", "Pelabuhan", "Pendapatan Tiket", "Invoice", "Uang Masuk", "Selisih"}

// Display formats the port rows followed by the grand total. Selisih is
// computed from the raw figures, never from formatted text.
func Display(ports []PortSummary, grand PortSummary) []DisplayRow {
	rows := make([]DisplayRow, 0, len(ports)+1)
	for _, p := range ports {
		rows = append(rows, displayRow(strconv.Itoa(p.No), p))
	}
	return append(rows, displayRow("", grand))
}

func displayRow(no string, p PortSummary) DisplayRow {
	return DisplayRow{
		No:            no,
		Period:        p.Period,
		Port:          string(p.Port),
		TicketRevenue: FormatRupiah(p.TicketRevenue),
		InvoiceTotal:  FormatRupiah(p.InvoiceTotal),
		CashReceived:  FormatRupiah(p.CashReceived),
		Selisih:       FormatRupiah(p.Selisih()),
	}
}

// Cells returns the row in DisplayHeaders order.
func (d DisplayRow) Cells() []string {
	return []string{d.No, d.Period, d.Port, d.TicketRevenue, d.InvoiceTotal, d.CashReceived, d.Selisih}
}

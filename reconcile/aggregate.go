package reconcile

import (
	"encoding/json"
	"time"

	"github.com/aqlanhadi/rekon/extractor/common"
	"github.com/aqlanhadi/rekon/extractor/invoice"
	"github.com/aqlanhadi/rekon/extractor/rekening_koran"
	"github.com/aqlanhadi/rekon/extractor/tiket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GrandTotal is the port label of the grand-total row.
const GrandTotal common.Port = "Total Keseluruhan"

// PortSummary is one line of the recap table.
type PortSummary struct {
	No            int             `json:"no"`
	Period        string          `json:"period"`
	Port          common.Port     `json:"port"`
	TicketRevenue decimal.Decimal `json:"ticket_revenue"`
	InvoiceTotal  decimal.Decimal `json:"invoice_total"`
	CashReceived  decimal.Decimal `json:"cash_received"`
}

// Selisih is the invoiced amount not yet received.
func (p PortSummary) Selisih() decimal.Decimal {
	return p.InvoiceTotal.Sub(p.CashReceived)
}

func (p PortSummary) MarshalJSON() ([]byte, error) {
	type plain PortSummary
	return json.Marshal(struct {
		plain
		Selisih decimal.Decimal `json:"selisih"`
	}{plain(p), p.Selisih()})
}

// SummaryInput is what the recap is built from. Entries must already be
// limited to the counterparty credits in range.
type SummaryInput struct {
	Ports    []common.Port
	Tickets  []tiket.Result
	Invoices []invoice.Row
	Entries  []rekening_koran.Entry
}

// Summarize returns one row per port in configured order and the grand
// total. Figures with no known port go to the first port.
func Summarize(in SummaryInput) ([]PortSummary, PortSummary) {
	rows := make([]PortSummary, len(in.Ports))
	index := map[common.Port]int{}
	for i, p := range in.Ports {
		rows[i] = PortSummary{No: i + 1, Port: p, TicketRevenue: decimal.Zero, InvoiceTotal: decimal.Zero, CashReceived: decimal.Zero}
		index[p] = i
	}
	attribute := func(p common.Port) (int, bool) {
		if i, ok := index[p]; ok {
			return i, true
		}
		return 0, len(rows) > 0
	}

	for _, t := range in.Tickets {
		i, ok := attribute(t.Port)
		if !ok || !t.Totals.Revenue.Valid {
			continue
		}
		rows[i].TicketRevenue = rows[i].TicketRevenue.Add(t.Totals.Revenue.Decimal)
	}

	for _, g := range invoice.PaidByPort(in.Invoices) {
		i, ok := attribute(g.Port)
		if !ok {
			continue
		}
		if g.Port == common.NoPort {
			zap.L().Warn("invoice port not recognised, using default port",
				zap.String("label", g.Label), zap.String("port", string(rows[i].Port)))
		}
		rows[i].InvoiceTotal = rows[i].InvoiceTotal.Add(g.Total)
	}

	for _, e := range in.Entries {
		i, ok := attribute(e.Port)
		if !ok || !e.Credit.Valid {
			continue
		}
		rows[i].CashReceived = rows[i].CashReceived.Add(e.Credit.Decimal)
	}

	overallFrom, overallTo := invoice.DateRange(in.Invoices, nil)
	if overallFrom == nil {
		overallFrom, overallTo = ticketRange(in.Tickets, nil)
	}
	for i := range rows {
		port := rows[i].Port
		portOf := func(p common.Port) bool {
			j, _ := attribute(p)
			return j == i
		}
		from, to := invoice.DateRange(in.Invoices, func(r invoice.Row) bool { return portOf(r.Port) })
		if from == nil {
			from, to = ticketRange(in.Tickets, portOf)
		}
		if from == nil {
			from, to = overallFrom, overallTo
		}
		rows[i].Period = FormatPeriod(from, to)
		zap.L().Debug("port summary", zap.String("port", string(port)), zap.String("period", rows[i].Period))
	}

	grand := PortSummary{Port: GrandTotal, Period: FormatPeriod(overallFrom, overallTo), TicketRevenue: decimal.Zero, InvoiceTotal: decimal.Zero, CashReceived: decimal.Zero}
	for _, r := range rows {
		grand.TicketRevenue = grand.TicketRevenue.Add(r.TicketRevenue)
		grand.InvoiceTotal = grand.InvoiceTotal.Add(r.InvoiceTotal)
		grand.CashReceived = grand.CashReceived.Add(r.CashReceived)
	}
	return rows, grand
}

func ticketRange(results []tiket.Result, keep func(common.Port) bool) (from, to *time.Time) {
	widen := func(d *time.Time) {
		if d == nil {
			return
		}
		day := *d
		if from == nil || day.Before(*from) {
			from = &day
		}
		if to == nil || day.After(*to) {
			to = &day
		}
	}
	for _, res := range results {
		if keep != nil && !keep(res.Port) {
			continue
		}
		widen(res.Totals.Date)
		for _, row := range res.Rows {
			widen(row.Date)
		}
	}
	return from, to
}

// FormatPeriod renders a day range as "02/01/2006" or "02/01/2006 - 02/01/2006".
func FormatPeriod(from, to *time.Time) string {
	const layout = "02/01/2006"
	switch {
	case from == nil && to == nil:
		return ""
	case from == nil:
		return to.Format(layout)
	case to == nil || from.Format(layout) == to.Format(layout):
		return from.Format(layout)
	default:
		return from.Format(layout) + " - " + to.Format(layout)
	}
}

// Package reconcile aligns the four sources on invoice number, checks every
// row against the reference totals and rolls the money up per port.
package reconcile

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aqlanhadi/rekon/extractor/common"
	"github.com/aqlanhadi/rekon/extractor/invoice"
	"github.com/aqlanhadi/rekon/extractor/rekening_koran"
	"github.com/aqlanhadi/rekon/extractor/ticket_summary"
	"github.com/aqlanhadi/rekon/extractor/tiket"
	"github.com/shopspring/decimal"
)

// Row is one aligned record. A side that had no record for the key stays null.
type Row struct {
	Key           string              `json:"key"`
	InvoiceNo     string              `json:"invoice_no,omitempty"`
	Port          common.Port         `json:"port,omitempty"`
	Date          *time.Time          `json:"date,omitempty"`
	TicketAmount  decimal.NullDecimal `json:"ticket_amount"`
	InvoiceAmount decimal.NullDecimal `json:"invoice_amount"`
	InvoiceStatus string              `json:"invoice_status,omitempty"`
	Fare          decimal.NullDecimal `json:"fare"`
	PrintedAt     *time.Time          `json:"printed_at,omitempty"`
	BankAmount    decimal.NullDecimal `json:"bank_amount"`
	BankRemark    string              `json:"bank_remark,omitempty"`
	Sources       []common.Role       `json:"sources"`
	Duplicates    int                 `json:"duplicates,omitempty"`
	Checks        []NamedCheck        `json:"checks,omitempty"`
	Status        Status              `json:"status,omitempty"`

	seen map[common.Role]bool
}

// Has reports whether role contributed to the row.
func (r Row) Has(role common.Role) bool {
	for _, s := range r.Sources {
		if s == role {
			return true
		}
	}
	return false
}

// Key builds the join key: the normalized invoice number, else port and day.
// ok is false when there is nothing to key on.
func Key(invoiceNo string, port common.Port, date *time.Time) (string, bool) {
	if k := common.NormalizeKey(invoiceNo); k != "" {
		return k, true
	}
	if port == common.NoPort && date == nil {
		return "", false
	}
	day := ""
	if date != nil {
		day = date.Format("2006-01-02")
	}
	return strings.ToUpper(string(port)) + "|" + day, true
}

type aligner struct {
	rows map[string]*Row
}

func (a *aligner) row(role common.Role, index int, invoiceNo string, port common.Port, date *time.Time) *Row {
	key, ok := Key(invoiceNo, port, date)
	if !ok {
		key = fmt.Sprintf("#%s-%04d", role, index+1)
	}
	r, ok := a.rows[key]
	if !ok {
		r = &Row{Key: key, seen: map[common.Role]bool{}}
		a.rows[key] = r
	}
	if r.seen[role] {
		r.Duplicates++
	}
	r.seen[role] = true
	if r.InvoiceNo == "" {
		r.InvoiceNo = strings.TrimSpace(invoiceNo)
	}
	if r.Port == common.NoPort {
		r.Port = port
	}
	if r.Date == nil && date != nil {
		d := *date
		r.Date = &d
	}
	return r
}

func addNull(a, b decimal.NullDecimal) decimal.NullDecimal {
	switch {
	case !b.Valid:
		return a
	case !a.Valid:
		return b
	default:
		return decimal.NewNullDecimal(a.Decimal.Add(b.Decimal))
	}
}

// Align outer-joins the sources. Every key from any source appears exactly
// once; duplicates within a source are summed. Rows are sorted by key.
func Align(tickets []tiket.Row, invoices []invoice.Row, summary []ticket_summary.Row, entries []rekening_koran.Entry) []Row {
	a := &aligner{rows: map[string]*Row{}}

	for i, t := range tickets {
		r := a.row(common.RoleTiket, i, t.InvoiceNo, t.Port, t.Date)
		r.TicketAmount = addNull(r.TicketAmount, t.Amount)
	}
	for i, inv := range invoices {
		r := a.row(common.RoleInvoice, i, inv.InvoiceNo, inv.Port, inv.Date)
		r.InvoiceAmount = addNull(r.InvoiceAmount, inv.Price)
		if r.InvoiceStatus == "" {
			r.InvoiceStatus = inv.Status
		}
	}
	for i, s := range summary {
		r := a.row(common.RoleSummary, i, s.InvoiceNo, common.NoPort, nil)
		r.Fare = addNull(r.Fare, s.Fare)
		if r.PrintedAt == nil && s.PrintedAt != nil {
			d := *s.PrintedAt
			r.PrintedAt = &d
		}
	}
	for i, e := range entries {
		r := a.row(common.RoleRekening, i, e.Description, e.Port, e.Date())
		r.BankAmount = addNull(r.BankAmount, e.Credit)
		if r.BankRemark == "" {
			r.BankRemark = e.Remark
		}
	}

	keys := make([]string, 0, len(a.rows))
	for k := range a.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		r := a.rows[k]
		for _, role := range common.Roles {
			if r.seen[role] {
				r.Sources = append(r.Sources, role)
			}
		}
		r.seen = nil
		rows = append(rows, *r)
	}
	return rows
}

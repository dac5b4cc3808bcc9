package reconcile

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Check is the outcome of one comparison. NotApplicable means there was no
// reference to compare against.
type Check int

const (
	NotApplicable Check = iota
	Passed
	Failed
)

func (c Check) String() string {
	switch c {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	default:
		return "not_applicable"
	}
}

// Label is the text shown in reports.
func (c Check) Label() string {
	switch c {
	case Passed:
		return "Sesuai"
	case Failed:
		return "Tidak Sesuai"
	default:
		return "-"
	}
}

func (c Check) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Check) UnmarshalText(text []byte) error {
	switch string(text) {
	case "passed":
		*c = Passed
	case "failed":
		*c = Failed
	case "not_applicable", "":
		*c = NotApplicable
	default:
		return fmt.Errorf("unknown check result %q", text)
	}
	return nil
}

// Row check names.
const (
	CheckTicketCount = "Validasi Jumlah Tiket"
	CheckRevenue     = "Validasi Pendapatan"
	CheckInvoice     = "Validasi Invoice"
	CheckBank        = "Validasi Rekening"
	CheckConsistency = "Konsistensi"
)

// RowChecks lists the row check names in report order.
var RowChecks = []string{CheckTicketCount, CheckRevenue, CheckInvoice, CheckBank, CheckConsistency}

// Run-level cross-check names.
const (
	CrossFareInvoice = "Tarif vs Invoice"
	CrossB2BInvoice  = "B2B vs Invoice"
	CrossInvoiceBank = "Invoice vs Rekening"
)

// NamedCheck pairs a check name with its outcome.
type NamedCheck struct {
	Name   string `json:"name"`
	Result Check  `json:"result"`
}

// Status is the overall verdict of a row.
type Status string

const (
	StatusMatched    Status = "Cocok"
	StatusMismatched Status = "Tidak Cocok"
)

// Reference selects which run totals the row checks compare against.
type Reference string

const (
	RefTicketCount  Reference = "ticket_count"
	RefRevenue      Reference = "revenue"
	RefInvoiceTotal Reference = "invoice_total"
	RefBankTotal    Reference = "bank_total"
)

// ReferenceSet is the set of enabled references.
type ReferenceSet map[Reference]bool

// ParseReferences validates reference names.
func ParseReferences(names []string) (ReferenceSet, error) {
	set := ReferenceSet{}
	for _, name := range names {
		ref := Reference(strings.ToLower(strings.TrimSpace(name)))
		switch ref {
		case RefTicketCount, RefRevenue, RefInvoiceTotal, RefBankTotal:
			set[ref] = true
		default:
			return nil, fmt.Errorf("validation.references: unknown reference %q", name)
		}
	}
	return set, nil
}

// References are the values rows are compared against. A null reference
// makes its check NotApplicable.
type References struct {
	TicketCount  decimal.NullDecimal `json:"ticket_count"`
	Revenue      decimal.NullDecimal `json:"revenue"`
	InvoiceTotal decimal.NullDecimal `json:"invoice_total"`
	BankTotal    decimal.NullDecimal `json:"bank_total"`
}

// Compare checks value against ref.
func Compare(value, ref decimal.NullDecimal) Check {
	if !ref.Valid {
		return NotApplicable
	}
	if !value.Valid || !value.Decimal.Equal(ref.Decimal) {
		return Failed
	}
	return Passed
}

// Consistent passes only when all values are present and equal.
func Consistent(values ...decimal.NullDecimal) Check {
	for _, v := range values {
		if !v.Valid || !v.Decimal.Equal(values[0].Decimal) {
			return Failed
		}
	}
	return Passed
}

// Verdict is Cocok when nothing failed and the consistency check passed.
func Verdict(checks []NamedCheck) Status {
	consistent := false
	for _, c := range checks {
		if c.Result == Failed {
			return StatusMismatched
		}
		if c.Name == CheckConsistency && c.Result == Passed {
			consistent = true
		}
	}
	if !consistent {
		return StatusMismatched
	}
	return StatusMatched
}

// Validate fills in Checks and Status of every row.
func Validate(rows []Row, refs References) []Row {
	for i := range rows {
		r := &rows[i]
		r.Checks = []NamedCheck{
			{Name: CheckTicketCount, Result: Compare(r.TicketAmount, refs.TicketCount)},
			{Name: CheckRevenue, Result: Compare(r.InvoiceAmount, refs.Revenue)},
			{Name: CheckInvoice, Result: Compare(r.InvoiceAmount, refs.InvoiceTotal)},
			{Name: CheckBank, Result: Compare(r.BankAmount, refs.BankTotal)},
			{Name: CheckConsistency, Result: Consistent(r.TicketAmount, r.InvoiceAmount, r.BankAmount)},
		}
		r.Status = Verdict(r.Checks)
	}
	return rows
}

// Check returns the outcome of the named check, or NotApplicable.
func (r Row) Check(name string) Check {
	for _, c := range r.Checks {
		if c.Name == name {
			return c.Result
		}
	}
	return NotApplicable
}

// CrossCheck compares the run totals with each other.
func CrossCheck(t Totals) []NamedCheck {
	fare := decimal.NewNullDecimal(t.Fare)
	paid := decimal.NewNullDecimal(t.PaidInvoice)
	bank := decimal.NewNullDecimal(t.BankCredit)
	return []NamedCheck{
		{Name: CrossFareInvoice, Result: Compare(fare, paid)},
		{Name: CrossB2BInvoice, Result: Compare(paid, t.B2BRevenue)},
		{Name: CrossInvoiceBank, Result: Compare(paid, bank)},
	}
}

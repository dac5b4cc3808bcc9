package reconcile

import (
	"fmt"
	"time"

	"github.com/aqlanhadi/rekon/extractor"
	"github.com/aqlanhadi/rekon/extractor/common"
	"github.com/aqlanhadi/rekon/extractor/invoice"
	"github.com/aqlanhadi/rekon/extractor/rekening_koran"
	"github.com/aqlanhadi/rekon/extractor/ticket_summary"
	"github.com/aqlanhadi/rekon/extractor/tiket"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Options control one run.
type Options struct {
	Range      rekening_koran.Range
	References ReferenceSet
}

// DefaultOptions reads the enabled references from configuration.
func DefaultOptions() (Options, error) {
	refs, err := ParseReferences(viper.GetStringSlice("validation.references"))
	if err != nil {
		return Options{}, err
	}
	return Options{References: refs}, nil
}

// Totals are the run-level figures.
type Totals struct {
	B2BTicketCount decimal.NullDecimal `json:"b2b_ticket_count"`
	B2BRevenue     decimal.NullDecimal `json:"b2b_revenue"`
	PaidInvoice    decimal.Decimal     `json:"paid_invoice"`
	Fare           decimal.Decimal     `json:"fare"`
	BankCredit     decimal.Decimal     `json:"bank_credit"`
	BankEntries    int                 `json:"bank_entries"`
}

// Result is the outcome of a run.
type Result struct {
	Totals      Totals        `json:"totals"`
	References  References    `json:"references"`
	Rows        []Row         `json:"rows"`
	Summary     []PortSummary `json:"summary"`
	Grand       PortSummary   `json:"grand"`
	CrossChecks []NamedCheck  `json:"cross_checks"`
}

// Counts returns how many rows matched and how many did not.
func (r *Result) Counts() (matched, mismatched int) {
	for _, row := range r.Rows {
		if row.Status == StatusMatched {
			matched++
		} else {
			mismatched++
		}
	}
	return matched, mismatched
}

// Display formats the recap of r.
func (r *Result) Display() []DisplayRow {
	return Display(r.Summary, r.Grand)
}

// Engine holds the validated extractors. It is safe for concurrent runs.
type Engine struct {
	ports    []common.Port
	tiket    *tiket.Extractor
	invoice  *invoice.Extractor
	summary  *ticket_summary.Extractor
	rekening *rekening_koran.Extractor
}

// NewEngine builds every extractor from the current configuration so a bad
// template fails before any file is read.
func NewEngine(ports []common.Port) (*Engine, error) {
	if len(ports) == 0 {
		return nil, fmt.Errorf("no ports configured")
	}
	e := &Engine{ports: ports}
	var err error
	if e.tiket, err = tiket.New(ports); err != nil {
		return nil, err
	}
	if e.invoice, err = invoice.New(ports); err != nil {
		return nil, err
	}
	if e.summary, err = ticket_summary.New(); err != nil {
		return nil, err
	}
	if e.rekening, err = rekening_koran.New(ports); err != nil {
		return nil, err
	}
	return e, nil
}

// Run reconciles a complete set of inputs with an engine built from the
// current configuration.
func Run(in extractor.Inputs, opts Options) (*Result, error) {
	e, err := NewEngine(extractor.Ports())
	if err != nil {
		return nil, err
	}
	return e.Run(in, opts)
}

// Run reconciles in. It returns a *extractor.MissingSourceError without doing
// any work when a source is missing.
func (e *Engine) Run(in extractor.Inputs, opts Options) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	startTime := time.Now()

	var (
		tickets    []tiket.Result
		ticketRows []tiket.Row
		totals     Totals
	)
	for _, f := range in.Tickets {
		res := e.tiket.Extract(f.Table, f.Port)
		tickets = append(tickets, res)
		ticketRows = append(ticketRows, res.Rows...)
		if res.Totals.Found {
			totals.B2BTicketCount = addNull(totals.B2BTicketCount, res.Totals.TicketCount)
			totals.B2BRevenue = addNull(totals.B2BRevenue, res.Totals.Revenue)
		}
	}

	invoices := e.invoice.ExtractRows(in.Invoice.Table)
	totals.PaidInvoice = invoice.TotalPaid(invoices)

	summary := e.summary.Extract(in.Summary.Table)
	totals.Fare = summary.TotalFare

	entries := rekening_koran.InScope(e.rekening.Extract(in.Rekening.Table), opts.Range)
	bank := rekening_koran.CounterpartyTotals(entries, rekening_koran.Range{})
	totals.BankCredit = bank.TotalCredit
	totals.BankEntries = bank.Count

	refs := opts.references(totals)
	rows := Validate(Align(ticketRows, invoices, summary.Rows, entries), refs)
	ports, grand := Summarize(SummaryInput{Ports: e.ports, Tickets: tickets, Invoices: invoices, Entries: entries})

	result := &Result{
		Totals:      totals,
		References:  refs,
		Rows:        rows,
		Summary:     ports,
		Grand:       grand,
		CrossChecks: CrossCheck(totals),
	}

	matched, mismatched := result.Counts()
	zap.L().Info("reconciliation done",
		zap.Int("rows", len(rows)),
		zap.Int("matched", matched),
		zap.Int("mismatched", mismatched),
		zap.String("paid_invoice", totals.PaidInvoice.String()),
		zap.String("bank_credit", totals.BankCredit.String()),
		zap.Duration("took", time.Since(startTime)))
	return result, nil
}

func (o Options) references(t Totals) References {
	var refs References
	if o.References[RefTicketCount] {
		refs.TicketCount = t.B2BTicketCount
	}
	if o.References[RefRevenue] {
		refs.Revenue = t.B2BRevenue
	}
	if o.References[RefInvoiceTotal] {
		refs.InvoiceTotal = decimal.NewNullDecimal(t.PaidInvoice)
	}
	if o.References[RefBankTotal] {
		refs.BankTotal = decimal.NewNullDecimal(t.BankCredit)
	}
	return refs
}

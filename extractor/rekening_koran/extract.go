// Package rekening_koran reads bank statements and totals the credits received
// from the ticketing counterparty.
package rekening_koran

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aqlanhadi/rekon/extractor/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type settings struct {
	SkipRows          int
	DateColumn        int
	RemarkColumn      int
	DebitColumn       int
	CreditColumn      int
	DescriptionColumn int
	Counterparty      string
	DateCodeOffset    int
	AssumedYear       int
	InvoicePattern    *regexp.Regexp
}

func loadConfig() (settings, error) {
	cfg := settings{
		SkipRows:          viper.GetInt("templates.rekening_koran.skip_rows"),
		DateColumn:        viper.GetInt("templates.rekening_koran.columns.date"),
		RemarkColumn:      viper.GetInt("templates.rekening_koran.columns.remark"),
		DebitColumn:       viper.GetInt("templates.rekening_koran.columns.debit"),
		CreditColumn:      viper.GetInt("templates.rekening_koran.columns.credit"),
		DescriptionColumn: viper.GetInt("templates.rekening_koran.columns.description"),
		Counterparty:      strings.ToUpper(strings.TrimSpace(viper.GetString("templates.rekening_koran.counterparty_marker"))),
		DateCodeOffset:    viper.GetInt("templates.rekening_koran.date_code_offset"),
		AssumedYear:       viper.GetInt("templates.rekening_koran.assumed_year"),
	}

	if cfg.SkipRows < 0 {
		return settings{}, fmt.Errorf("templates.rekening_koran.skip_rows must not be negative")
	}
	if cfg.DateColumn < 0 || cfg.RemarkColumn < 0 || cfg.CreditColumn < 0 {
		return settings{}, fmt.Errorf("templates.rekening_koran.columns: date, remark and credit are required")
	}
	if cfg.Counterparty == "" {
		return settings{}, fmt.Errorf("templates.rekening_koran.counterparty_marker is empty")
	}
	if cfg.DateCodeOffset < 0 {
		return settings{}, fmt.Errorf("templates.rekening_koran.date_code_offset must not be negative")
	}
	if pattern := viper.GetString("templates.rekening_koran.invoice_pattern"); pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return settings{}, fmt.Errorf("templates.rekening_koran.invoice_pattern: %w", err)
		}
		cfg.InvoicePattern = re
	}
	return cfg, nil
}

// Entry is one cleaned statement line.
type Entry struct {
	Row          int                 `json:"row"`
	PostedAt     *time.Time          `json:"posted_at,omitempty"`
	TxDate       *time.Time          `json:"tx_date,omitempty"`
	Remark       string              `json:"remark"`
	Description  string              `json:"description,omitempty"`
	Debit        decimal.NullDecimal `json:"debit"`
	Credit       decimal.NullDecimal `json:"credit"`
	Port         common.Port         `json:"port,omitempty"`
	Counterparty bool                `json:"counterparty"`
}

// Date is the transaction date from the remark code, or the posting date when
// the code is unreadable.
func (e Entry) Date() *time.Time {
	if e.TxDate != nil {
		return e.TxDate
	}
	return e.PostedAt
}

// Range is an inclusive day range. A nil bound is open.
type Range struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Contains reports whether t falls inside the range. A nil t is only
// contained by a fully open range.
func (r Range) Contains(t *time.Time) bool {
	if r.From == nil && r.To == nil {
		return true
	}
	if t == nil {
		return false
	}
	day := common.DayOf(*t)
	if r.From != nil && day.Before(common.DayOf(*r.From)) {
		return false
	}
	if r.To != nil && day.After(common.DayOf(*r.To)) {
		return false
	}
	return true
}

// ParseRange reads optional YYYY-MM-DD bounds. Empty strings leave a bound open.
func ParseRange(from, to string) (Range, error) {
	var rng Range
	for _, b := range []struct {
		name  string
		value string
		dst   **time.Time
	}{{"from", from, &rng.From}, {"to", to, &rng.To}} {
		if b.value == "" {
			continue
		}
		t, err := common.ParseDate("2006-01-02", b.value)
		if err != nil {
			return Range{}, fmt.Errorf("invalid %s date %q, expected YYYY-MM-DD", b.name, b.value)
		}
		*b.dst = &t
	}
	if rng.From != nil && rng.To != nil && rng.To.Before(*rng.From) {
		return Range{}, fmt.Errorf("to date is before from date")
	}
	return rng, nil
}

// Totals is the credit received from the counterparty within a range.
type Totals struct {
	TotalCredit decimal.Decimal `json:"total_credit"`
	Count       int             `json:"count"`
	From        *time.Time      `json:"from,omitempty"`
	To          *time.Time      `json:"to,omitempty"`
}

// Extractor holds the statement layout.
type Extractor struct {
	cfg   settings
	ports []common.Port
	now   func() time.Time
}

// New builds an Extractor from the current configuration.
func New(ports []common.Port) (*Extractor, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return &Extractor{cfg: cfg, ports: ports, now: time.Now}, nil
}

// Extract skips the statement preamble, drops lines missing a date, remark
// or credit, and reads the rest.
func (e *Extractor) Extract(table common.Table) []Entry {
	startTime := time.Now()
	zap.L().Debug("starting statement extraction", zap.String("source", table.Name), zap.Int("skip_rows", e.cfg.SkipRows))

	entries := []Entry{}
	dropped := 0
	for r := e.cfg.SkipRows; r < len(table.Rows); r++ {
		dateText := table.Cell(r, e.cfg.DateColumn)
		remark := table.Cell(r, e.cfg.RemarkColumn)
		creditText := table.Cell(r, e.cfg.CreditColumn)
		if dateText == "" || remark == "" || creditText == "" {
			dropped++
			continue
		}

		entry := Entry{
			Row:          r + 1,
			Remark:       remark,
			Credit:       common.NullDecimal(creditText),
			Debit:        common.NullDecimal(table.Cell(r, e.cfg.DebitColumn)),
			Counterparty: strings.Contains(strings.ToUpper(remark), e.cfg.Counterparty),
			Description:  e.description(table, r, remark),
		}
		if posted, ok := common.ParseCellDate(dateText); ok {
			entry.PostedAt = &posted
		}
		if tx, ok := e.transactionDate(remark, entry.PostedAt); ok {
			entry.TxDate = &tx
		}
		if p, ok := common.ResolvePort(remark, e.ports); ok {
			entry.Port = p
		}
		entries = append(entries, entry)
	}

	zap.L().Debug("statement extraction done",
		zap.String("source", table.Name),
		zap.Int("entries", len(entries)),
		zap.Int("dropped", dropped),
		zap.Duration("took", time.Since(startTime)))
	return entries
}

func (e *Extractor) description(table common.Table, r int, remark string) string {
	text := remark
	if e.cfg.DescriptionColumn >= 0 {
		text = table.Cell(r, e.cfg.DescriptionColumn)
	}
	if e.cfg.InvoicePattern == nil {
		return text
	}
	m := e.cfg.InvoicePattern.FindStringSubmatch(text)
	switch {
	case m == nil:
		return ""
	case len(m) > 1:
		return m[1]
	default:
		return m[0]
	}
}

// transactionDate decodes the remark date code and resolves its year: the
// configured year first, then the posting date, then the current year.
func (e *Extractor) transactionDate(remark string, posted *time.Time) (time.Time, bool) {
	month, day, ok := ParseDateCode(remark, e.cfg.DateCodeOffset)
	if !ok {
		return time.Time{}, false
	}

	var year int
	switch {
	case e.cfg.AssumedYear > 0:
		year = e.cfg.AssumedYear
	case posted != nil:
		year = common.FixDateYear(time.Date(0, month, 1, 0, 0, 0, 0, time.Local), *posted).Year()
	default:
		year = e.now().Year()
		zap.L().Warn("no posting date for date code, assuming current year",
			zap.String("remark", remark), zap.Int("year", year))
	}

	tx := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
	if tx.Day() != day {
		return time.Time{}, false
	}
	return tx, true
}

// ParseDateCode reads a four-digit MMDD code from the first token of remark,
// starting at offset.
func ParseDateCode(remark string, offset int) (time.Month, int, bool) {
	fields := strings.Fields(remark)
	if len(fields) == 0 || offset < 0 || len(fields[0]) < offset+4 {
		return 0, 0, false
	}
	code := fields[0][offset : offset+4]
	for _, c := range code {
		if c < '0' || c > '9' {
			return 0, 0, false
		}
	}
	t, err := time.Parse("0102", code)
	if err != nil {
		return 0, 0, false
	}
	return t.Month(), t.Day(), true
}

// CounterpartyTotals sums the credits of counterparty entries whose date falls
// in rng. Unreadable credits contribute nothing.
func CounterpartyTotals(entries []Entry, rng Range) Totals {
	totals := Totals{TotalCredit: decimal.Zero}
	for _, entry := range InScope(entries, rng) {
		if entry.Credit.Valid {
			totals.TotalCredit = totals.TotalCredit.Add(entry.Credit.Decimal)
		}
		totals.Count++
		if d := entry.Date(); d != nil {
			day := *d
			if totals.From == nil || day.Before(*totals.From) {
				totals.From = &day
			}
			if totals.To == nil || day.After(*totals.To) {
				totals.To = &day
			}
		}
	}
	return totals
}

// InScope returns the counterparty entries dated inside rng.
func InScope(entries []Entry, rng Range) []Entry {
	scoped := []Entry{}
	for _, entry := range entries {
		if entry.Counterparty && rng.Contains(entry.Date()) {
			scoped = append(scoped, entry)
		}
	}
	return scoped
}

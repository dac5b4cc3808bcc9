// Package invoice reads the invoice export and aggregates paid invoices.
package invoice

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aqlanhadi/rekon/extractor/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type settings struct {
	KeyColumn    string
	StatusColumn string
	PriceColumn  string
	DateColumn   string
	PortColumn   string
	PaidStatuses map[string]bool
}

func loadConfig() (settings, error) {
	cfg := settings{
		KeyColumn:    viper.GetString("templates.invoice.key_column"),
		StatusColumn: viper.GetString("templates.invoice.status_column"),
		PriceColumn:  viper.GetString("templates.invoice.price_column"),
		DateColumn:   viper.GetString("templates.invoice.date_column"),
		PortColumn:   viper.GetString("templates.invoice.port_column"),
		PaidStatuses: map[string]bool{},
	}
	if cfg.StatusColumn == "" || cfg.PriceColumn == "" {
		return settings{}, fmt.Errorf("templates.invoice: status_column and price_column are required")
	}
	for _, s := range viper.GetStringSlice("templates.invoice.paid_statuses") {
		cfg.PaidStatuses[normalizeStatus(s)] = true
	}
	if len(cfg.PaidStatuses) == 0 {
		return settings{}, fmt.Errorf("templates.invoice.paid_statuses is empty")
	}
	return cfg, nil
}

func normalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Row is one invoice line.
type Row struct {
	InvoiceNo string              `json:"invoice_no"`
	Status    string              `json:"status"`
	Price     decimal.NullDecimal `json:"price"`
	Date      *time.Time          `json:"date,omitempty"`
	PortText  string              `json:"port_text,omitempty"`
	Port      common.Port         `json:"port,omitempty"`
	Paid      bool                `json:"paid"`
}

// PortTotal is the paid sum of one departure port. Port is common.NoPort when
// Label names no configured port.
type PortTotal struct {
	Label string          `json:"label"`
	Port  common.Port     `json:"port,omitempty"`
	Total decimal.Decimal `json:"total"`
}

// Extractor holds the invoice column mapping.
type Extractor struct {
	cfg   settings
	ports []common.Port
}

// New builds an Extractor from the current configuration.
func New(ports []common.Port) (*Extractor, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return &Extractor{cfg: cfg, ports: ports}, nil
}

// ExtractRows returns every invoice line below the header carrying the status
// column. Status matching is case-insensitive.
func (e *Extractor) ExtractRows(table common.Table) []Row {
	startTime := time.Now()

	header, ok := table.FindHeader(e.cfg.StatusColumn)
	if !ok {
		zap.L().Warn("invoice header not found", zap.String("source", table.Name), zap.String("column", e.cfg.StatusColumn))
		return nil
	}

	rows := []Row{}
	for r := header.Row + 1; r < len(table.Rows); r++ {
		row := Row{
			InvoiceNo: header.Get(table, r, e.cfg.KeyColumn),
			Status:    header.Get(table, r, e.cfg.StatusColumn),
			Price:     common.NullDecimal(header.Get(table, r, e.cfg.PriceColumn)),
			PortText:  header.Get(table, r, e.cfg.PortColumn),
		}
		if row.InvoiceNo == "" && row.Status == "" && !row.Price.Valid {
			continue
		}
		row.Paid = e.cfg.PaidStatuses[normalizeStatus(row.Status)]
		if dt, ok := common.ParseCellDate(header.Get(table, r, e.cfg.DateColumn)); ok {
			row.Date = &dt
		}
		if p, ok := common.ResolvePort(row.PortText, e.ports); ok {
			row.Port = p
		}
		rows = append(rows, row)
	}

	zap.L().Debug("invoice extraction done",
		zap.String("source", table.Name),
		zap.Int("rows", len(rows)),
		zap.Duration("took", time.Since(startTime)))
	return rows
}

// TotalPaid sums the price of paid rows. Rows with an unreadable price
// contribute nothing.
func TotalPaid(rows []Row) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		if row.Paid && row.Price.Valid {
			total = total.Add(row.Price.Decimal)
		}
	}
	return total
}

// PaidByPort groups paid rows by normalized departure-port text. Labels that
// name no configured port are still returned so nothing is dropped.
func PaidByPort(rows []Row) []PortTotal {
	groups := map[string]*PortTotal{}
	for _, row := range rows {
		if !row.Paid || !row.Price.Valid {
			continue
		}
		label := common.NormalizePort(row.PortText)
		g, ok := groups[label]
		if !ok {
			g = &PortTotal{Label: label, Port: row.Port}
			groups[label] = g
		}
		g.Total = g.Total.Add(row.Price.Decimal)
	}

	totals := make([]PortTotal, 0, len(groups))
	for _, g := range groups {
		totals = append(totals, *g)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Label < totals[j].Label })
	return totals
}

// DateRange returns the earliest and latest date among paid rows accepted by
// keep. Both are nil when no such row has a date.
func DateRange(rows []Row, keep func(Row) bool) (from, to *time.Time) {
	for _, row := range rows {
		if !row.Paid || row.Date == nil || (keep != nil && !keep(row)) {
			continue
		}
		d := *row.Date
		if from == nil || d.Before(*from) {
			from = &d
		}
		if to == nil || d.After(*to) {
			to = &d
		}
	}
	return from, to
}

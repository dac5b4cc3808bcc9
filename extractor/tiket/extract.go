// Package tiket reads the ticket-sales export: the B2B total row and the
// per-invoice detail rows.
package tiket

import (
	"fmt"
	"regexp"
	"time"

	"github.com/aqlanhadi/rekon/extractor/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Template field names.
const (
	FieldTicketCount = "ticket_count"
	FieldRevenue     = "revenue"
	FieldDate        = "date"
)

type settings struct {
	Template     common.Template
	Subtotal     *regexp.Regexp
	KeyColumn    string
	AmountColumn string
	PortColumn   string
	DateColumn   string
}

func loadConfig() (settings, error) {
	fields := map[string]int{FieldDate: -1}
	for _, name := range []string{FieldTicketCount, FieldRevenue, FieldDate} {
		key := "templates.tiket.fields." + name
		if viper.IsSet(key) {
			fields[name] = viper.GetInt(key)
		} else if name != FieldDate {
			return settings{}, fmt.Errorf("%s is not configured", key)
		}
	}

	tpl, err := common.NewTemplate(viper.GetString("templates.tiket.b2b_marker"), fields)
	if err != nil {
		return settings{}, fmt.Errorf("templates.tiket: %w", err)
	}

	subtotal, err := regexp.Compile(viper.GetString("templates.tiket.subtotal_marker"))
	if err != nil {
		return settings{}, fmt.Errorf("templates.tiket.subtotal_marker: %w", err)
	}

	return settings{
		Template:     tpl,
		Subtotal:     subtotal,
		KeyColumn:    viper.GetString("templates.tiket.key_column"),
		AmountColumn: viper.GetString("templates.tiket.amount_column"),
		PortColumn:   viper.GetString("templates.tiket.port_column"),
		DateColumn:   viper.GetString("templates.tiket.date_column"),
	}, nil
}

// Totals are the figures of the B2B total row. Found is false, and every
// value null, when the export carries no such row.
type Totals struct {
	TicketCount decimal.NullDecimal `json:"ticket_count"`
	Revenue     decimal.NullDecimal `json:"revenue"`
	Date        *time.Time          `json:"date,omitempty"`
	Found       bool                `json:"found"`
}

// Row is one ticket line carrying an invoice number.
type Row struct {
	InvoiceNo string              `json:"invoice_no"`
	Amount    decimal.NullDecimal `json:"amount"`
	Port      common.Port         `json:"port,omitempty"`
	Date      *time.Time          `json:"date,omitempty"`
}

// Result is everything read from one ticket file.
type Result struct {
	Source string      `json:"source"`
	Port   common.Port `json:"port,omitempty"`
	Totals Totals      `json:"totals"`
	Rows   []Row       `json:"rows"`
}

// Extractor holds a validated ticket template.
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

// Extract reads one ticket export. port is the port the file was attributed
// to by name, or common.NoPort.
func (e *Extractor) Extract(table common.Table, port common.Port) Result {
	startTime := time.Now()
	zap.L().Debug("starting ticket extraction", zap.String("source", table.Name), zap.String("port", string(port)))

	result := Result{
		Source: table.Name,
		Port:   port,
		Totals: e.ExtractTotals(table),
		Rows:   e.ExtractRows(table, port),
	}

	if !result.Totals.Found {
		zap.L().Warn("B2B total row not found", zap.String("source", table.Name))
	}
	zap.L().Debug("ticket extraction done",
		zap.String("source", table.Name),
		zap.Int("rows", len(result.Rows)),
		zap.Duration("took", time.Since(startTime)))
	return result
}

// ExtractTotals reads ticket count, revenue and the optional date from the
// first row matching the B2B marker.
func (e *Extractor) ExtractTotals(table common.Table) Totals {
	row, ok := e.cfg.Template.Locate(table)
	if !ok {
		return Totals{}
	}

	totals := Totals{Found: true}
	if v, ok := row.Field(FieldTicketCount); ok {
		totals.TicketCount = common.NullDecimal(v)
	}
	if v, ok := row.Field(FieldRevenue); ok {
		totals.Revenue = common.NullDecimal(v)
	}
	if v, ok := row.Field(FieldDate); ok {
		if dt, ok := common.ParseCellDate(v); ok {
			totals.Date = &dt
		}
	}
	return totals
}

// ExtractRows returns the detail rows below the header that carries the key
// column. Rows without an invoice number are kept when they carry data and
// resolve to a port (their own or the file's) or a date, so they can still
// be aligned. The B2B row and subtotal rows are skipped.
func (e *Extractor) ExtractRows(table common.Table, filePort common.Port) []Row {
	header, ok := table.FindHeader(e.cfg.KeyColumn)
	if !ok {
		return nil
	}

	rows := []Row{}
	for r := header.Row + 1; r < len(table.Rows); r++ {
		if e.isMarkerRow(table.Rows[r]) {
			continue
		}

		key := header.Get(table, r, e.cfg.KeyColumn)
		if e.isSubtotal(key) {
			continue
		}

		row := Row{
			InvoiceNo: key,
			Amount:    common.NullDecimal(header.Get(table, r, e.cfg.AmountColumn)),
			Port:      filePort,
		}
		portText := header.Get(table, r, e.cfg.PortColumn)
		if p, ok := common.ResolvePort(portText, e.ports); ok {
			row.Port = p
		}
		dateText := header.Get(table, r, e.cfg.DateColumn)
		if dt, ok := common.ParseCellDate(dateText); ok {
			row.Date = &dt
		}

		if row.InvoiceNo == "" {
			if !row.Amount.Valid && row.Date == nil && portText == "" {
				continue
			}
			if row.Port == common.NoPort && row.Date == nil {
				continue
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func (e *Extractor) isSubtotal(key string) bool {
	return key != "" && e.cfg.Subtotal.String() != "" && e.cfg.Subtotal.MatchString(key)
}

func (e *Extractor) isMarkerRow(cells []string) bool {
	for _, cell := range cells {
		if e.cfg.Template.Marker.MatchString(cell) {
			return true
		}
	}
	return false
}

// Package ticket_summary reads the boarding-pass ticket summary export.
package ticket_summary

import (
	"fmt"
	"time"

	"github.com/aqlanhadi/rekon/extractor/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type settings struct {
	KeyColumn     string
	PrintedColumn string
	FareColumn    string
}

func loadConfig() (settings, error) {
	cfg := settings{
		KeyColumn:     viper.GetString("templates.ticket_summary.key_column"),
		PrintedColumn: viper.GetString("templates.ticket_summary.printed_column"),
		FareColumn:    viper.GetString("templates.ticket_summary.fare_column"),
	}
	if cfg.PrintedColumn == "" || cfg.FareColumn == "" {
		return settings{}, fmt.Errorf("templates.ticket_summary: printed_column and fare_column are required")
	}
	return cfg, nil
}

// Row is one ticket-summary line.
type Row struct {
	InvoiceNo string              `json:"invoice_no,omitempty"`
	PrintedAt *time.Time          `json:"printed_at,omitempty"`
	Fare      decimal.NullDecimal `json:"fare"`
}

// Printed reports whether the boarding pass was printed.
func (r Row) Printed() bool {
	return r.PrintedAt != nil
}

// Result holds the rows and the total fare of printed tickets.
type Result struct {
	Rows      []Row           `json:"rows"`
	TotalFare decimal.Decimal `json:"total_fare"`
	Printed   int             `json:"printed"`
}

// Extractor holds the summary column mapping.
type Extractor struct {
	cfg settings
}

// New builds an Extractor from the current configuration.
func New() (*Extractor, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return &Extractor{cfg: cfg}, nil
}

// Extract reads the summary. Rows without a print timestamp are kept for
// alignment but excluded from TotalFare.
func (e *Extractor) Extract(table common.Table) Result {
	startTime := time.Now()
	result := Result{Rows: []Row{}, TotalFare: decimal.Zero}

	header, ok := table.FindHeader(e.cfg.PrintedColumn)
	if !ok {
		zap.L().Warn("ticket summary header not found", zap.String("source", table.Name), zap.String("column", e.cfg.PrintedColumn))
		return result
	}

	for r := header.Row + 1; r < len(table.Rows); r++ {
		row := Row{
			InvoiceNo: header.Get(table, r, e.cfg.KeyColumn),
			Fare:      common.NullDecimal(header.Get(table, r, e.cfg.FareColumn)),
		}
		if dt, ok := common.ParseCellDate(header.Get(table, r, e.cfg.PrintedColumn)); ok {
			row.PrintedAt = &dt
		}
		if row.InvoiceNo == "" && row.PrintedAt == nil && !row.Fare.Valid {
			continue
		}
		result.Rows = append(result.Rows, row)

		if row.Printed() && row.Fare.Valid {
			result.TotalFare = result.TotalFare.Add(row.Fare.Decimal)
			result.Printed++
		}
	}

	zap.L().Debug("ticket summary extraction done",
		zap.String("source", table.Name),
		zap.Int("rows", len(result.Rows)),
		zap.Int("printed", result.Printed),
		zap.Duration("took", time.Since(startTime)))
	return result
}

// Package report writes a reconciliation result as an xlsx workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/aqlanhadi/rekon/reconcile"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Sheet names.
const (
	SheetDetail = "Rekonsiliasi"
	SheetRecap  = "Rekapitulasi"
	SheetPorts  = "Per Pelabuhan"
	SheetGrand  = "Total Keseluruhan"
)

// FileName is the suggested name of the exported workbook.
const FileName = "hasil_rekonsiliasi.xlsx"

// ContentType is the xlsx mime type.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Zero renders as an empty cell.
const moneyFormat = `"Rp "#,##0;"Rp "-#,##0;""`

type kind int

const (
	kindText kind = iota
	kindMoney
	kindDate
)

type column struct {
	title string
	kind  kind
	width float64
}

type styles struct {
	header    int
	text      int
	money     int
	date      int
	textBold  int
	moneyBold int
}

func newStyles(f *excelize.File) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	moneyFmt := moneyFormat
	dateFmt := "dd/mm/yyyy"

	defs := []*excelize.Style{
		{
			Border:    border,
			Font:      &excelize.Font{Bold: true},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		},
		{Border: border},
		{Border: border, CustomNumFmt: &moneyFmt},
		{Border: border, CustomNumFmt: &dateFmt},
		{Border: border, Font: &excelize.Font{Bold: true}},
		{Border: border, Font: &excelize.Font{Bold: true}, CustomNumFmt: &moneyFmt},
	}

	var s styles
	targets := []*int{&s.header, &s.text, &s.money, &s.date, &s.textBold, &s.moneyBold}
	for i, def := range defs {
		id, err := f.NewStyle(def)
		if err != nil {
			return styles{}, err
		}
		*targets[i] = id
	}
	return s, nil
}

func (s styles) of(k kind, bold bool) int {
	switch {
	case k == kindMoney && bold:
		return s.moneyBold
	case k == kindMoney:
		return s.money
	case k == kindDate:
		return s.date
	case bold:
		return s.textBold
	default:
		return s.text
	}
}

type sheetWriter struct {
	f      *excelize.File
	styles styles
}

// table writes headers at startRow and rows below them. Every cell in the
// block is bordered; nil values stay empty. The returned row is the first
// one after the block.
func (w *sheetWriter) table(sheet string, startRow int, columns []column, rows [][]interface{}, boldLast bool) (int, error) {
	for c, col := range columns {
		cell, err := excelize.CoordinatesToCellName(c+1, startRow)
		if err != nil {
			return 0, err
		}
		if err := w.f.SetCellValue(sheet, cell, col.title); err != nil {
			return 0, err
		}
		if err := w.f.SetCellStyle(sheet, cell, cell, w.styles.header); err != nil {
			return 0, err
		}
		if col.width > 0 {
			name, _ := excelize.ColumnNumberToName(c + 1)
			if err := w.f.SetColWidth(sheet, name, name, col.width); err != nil {
				return 0, err
			}
		}
	}

	for r, values := range rows {
		rowNum := startRow + 1 + r
		bold := boldLast && r == len(rows)-1
		for c, col := range columns {
			cell, err := excelize.CoordinatesToCellName(c+1, rowNum)
			if err != nil {
				return 0, err
			}
			if c < len(values) && values[c] != nil {
				if err := w.f.SetCellValue(sheet, cell, values[c]); err != nil {
					return 0, err
				}
			}
			if err := w.f.SetCellStyle(sheet, cell, cell, w.styles.of(col.kind, bold)); err != nil {
				return 0, err
			}
		}
	}
	return startRow + 1 + len(rows), nil
}

func money(d decimal.Decimal) interface{} {
	return d.InexactFloat64()
}

func nullMoney(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}

func date(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

var detailColumns = []column{
	{"No", kindText, 6},
	{"Nomor Invoice", kindText, 20},
	{"Pelabuhan", kindText, 14},
	{"Tanggal", kindDate, 12},
	{"Jumlah Tiket", kindMoney, 16},
	{"Jumlah Invoice", kindMoney, 16},
	{"Status Invoice", kindText, 14},
	{"Tarif", kindMoney, 16},
	{"Tanggal Cetak", kindDate, 14},
	{"Jumlah Rekening", kindMoney, 16},
	{"Keterangan Rekening", kindText, 40},
}

var recapColumns = []column{
	{reconcile.DisplayHeaders[0], kindText, 6},
	{reconcile.DisplayHeaders[1], kindText, 24},
	{reconcile.DisplayHeaders[2], kindText, 18},
	{reconcile.DisplayHeaders[3], kindMoney, 18},
	{reconcile.DisplayHeaders[4], kindMoney, 18},
	{reconcile.DisplayHeaders[5], kindMoney, 18},
	{reconcile.DisplayHeaders[6], kindMoney, 18},
}

func recapRow(p reconcile.PortSummary) []interface{} {
	var no interface{}
	if p.No > 0 {
		no = p.No
	}
	return []interface{}{no, p.Period, string(p.Port), money(p.TicketRevenue), money(p.InvoiceTotal), money(p.CashReceived), money(p.Selisih())}
}

// Workbook builds the four-sheet report for res.
func Workbook(res *reconcile.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	w := &sheetWriter{f: f, styles: st}

	if err := f.SetSheetName("Sheet1", SheetDetail); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetRecap, SheetPorts, SheetGrand} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	steps := []func() error{
		func() error { return w.detail(res) },
		func() error { return w.recap(SheetRecap, res, true) },
		func() error { return w.recap(SheetPorts, res, false) },
		func() error { return w.grand(res) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing report: %w", err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func (w *sheetWriter) detail(res *reconcile.Result) error {
	columns := append([]column{}, detailColumns...)
	for _, name := range reconcile.RowChecks {
		columns = append(columns, column{name, kindText, 14})
	}
	columns = append(columns, column{"Status Rekonsiliasi", kindText, 16})

	rows := make([][]interface{}, 0, len(res.Rows))
	for i, r := range res.Rows {
		values := []interface{}{
			i + 1,
			r.InvoiceNo,
			string(r.Port),
			date(r.Date),
			nullMoney(r.TicketAmount),
			nullMoney(r.InvoiceAmount),
			r.InvoiceStatus,
			nullMoney(r.Fare),
			date(r.PrintedAt),
			nullMoney(r.BankAmount),
			r.BankRemark,
		}
		for _, name := range reconcile.RowChecks {
			values = append(values, r.Check(name).Label())
		}
		values = append(values, string(r.Status))
		rows = append(rows, values)
	}

	if _, err := w.table(SheetDetail, 1, columns, rows, false); err != nil {
		return err
	}
	return w.f.SetPanes(SheetDetail, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func (w *sheetWriter) recap(sheet string, res *reconcile.Result, withGrand bool) error {
	rows := make([][]interface{}, 0, len(res.Summary)+1)
	for _, p := range res.Summary {
		rows = append(rows, recapRow(p))
	}
	if withGrand {
		rows = append(rows, recapRow(res.Grand))
	}
	_, err := w.table(sheet, 1, recapColumns, rows, withGrand)
	return err
}

func (w *sheetWriter) grand(res *reconcile.Result) error {
	next, err := w.table(SheetGrand, 1, recapColumns, [][]interface{}{recapRow(res.Grand)}, true)
	if err != nil {
		return err
	}

	t := res.Totals
	totals := [][]interface{}{
		{"Jumlah Tiket B2B", nil, nullMoney(t.B2BTicketCount)},
		{"Pendapatan B2B", nullMoney(t.B2BRevenue), nil},
		{"Total Invoice Dibayar", money(t.PaidInvoice), nil},
		{"Total Tarif Boarding Pass", money(t.Fare), nil},
		{"Total Uang Masuk", money(t.BankCredit), nil},
		{"Jumlah Transaksi Rekening", nil, t.BankEntries},
	}
	next, err = w.table(SheetGrand, next+1, []column{
		{"Ringkasan", kindText, 28},
		{"Nilai", kindMoney, 0},
		{"Jumlah", kindText, 0},
	}, totals, false)
	if err != nil {
		return err
	}

	checks := make([][]interface{}, 0, len(res.CrossChecks))
	for _, c := range res.CrossChecks {
		checks = append(checks, []interface{}{c.Name, c.Result.Label()})
	}
	_, err = w.table(SheetGrand, next+1, []column{
		{"Pemeriksaan", kindText, 28},
		{"Hasil", kindText, 0},
	}, checks, false)
	return err
}

// Write streams the report for res to out.
func Write(out io.Writer, res *reconcile.Result) error {
	f, err := Workbook(res)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(out)
	return err
}

// WriteFile saves the report for res at path.
func WriteFile(path string, res *reconcile.Result) error {
	f, err := Workbook(res)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return err
	}
	zap.L().Info("report written", zap.String("path", path), zap.Int("rows", len(res.Rows)))
	return nil
}

package reconcile

import (
	"errors"
	"testing"

	"github.com/aqlanhadi/rekon/config"
	"github.com/aqlanhadi/rekon/extractor"
	"github.com/aqlanhadi/rekon/extractor/common"
	"github.com/aqlanhadi/rekon/extractor/rekening_koran"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestConfig(t *testing.T) {
	t.Helper()
	require.NoError(t, config.UseDefaults())
	viper.Set("templates.rekening_koran.invoice_pattern", `(INV-\d+)`)
}

func getTestInputs() extractor.Inputs {
	bank := make([][]string, 0, 16)
	for i := 0; i < 12; i++ {
		bank = append(bank, []string{"BANK STATEMENT"})
	}
	bank = append(bank,
		[]string{"13/04/2025", "0412 DARI MIDI UTAMA INDONESIA INV-001 MERAK", "", "500.000,00"},
		[]string{"13/04/2025", "0412 DARI MIDI UTAMA INDONESIA INV-002 MERAK", "", "230.000,00"},
		[]string{"14/04/2025", "BIAYA ADMIN", "5000", "0"},
	)

	return extractor.Inputs{
		Tickets: []extractor.File{{
			Name: "tiket_merak.xlsx",
			Role: common.RoleTiket,
			Port: "Merak",
			Table: common.Table{Rows: [][]string{
				{"No", "Nomor Invoice", "Tanggal", "Jumlah"},
				{"1", "INV-001", "12/04/2025", "500000"},
				{"2", "INV-002", "12/04/2025", "250000"},
				{"", "TOTAL JUMLAH (B2B)", "", "2", "750000"},
			}},
		}},
		Invoice: &extractor.File{Name: "invoice.xlsx", Role: common.RoleInvoice, Table: common.Table{Rows: [][]string{
			{"Nomor Invoice", "TANGGAL INVOICE", "PELABUHAN ASAL", "STATUS", "HARGA"},
			{"INV-001", "12/04/2025", "Merak", "Dibayar", "500000"},
			{"INV-002", "12/04/2025", "Merak", "Dibayar", "250000"},
		}}},
		Summary: &extractor.File{Name: "summary.xlsx", Role: common.RoleSummary, Table: common.Table{Rows: [][]string{
			{"Nomor Invoice", "TANGGAL CETAK BOARDING PASS", "TARIF"},
			{"INV-001", "12/04/2025 08:00", "500000"},
			{"INV-002", "12/04/2025 09:00", "250000"},
		}}},
		Rekening: &extractor.File{Name: "rekening.xlsx", Role: common.RoleRekening, Table: common.Table{Rows: bank}},
	}
}

func TestRun(t *testing.T) {
	setupTestConfig(t)

	res, err := Run(getTestInputs(), Options{})
	require.NoError(t, err)

	assert.Equal(t, "2", res.Totals.B2BTicketCount.Decimal.String())
	assert.Equal(t, "750000", res.Totals.B2BRevenue.Decimal.String())
	assert.Equal(t, "750000", res.Totals.PaidInvoice.String())
	assert.Equal(t, "750000", res.Totals.Fare.String())
	assert.Equal(t, "730000", res.Totals.BankCredit.String())
	assert.Equal(t, 2, res.Totals.BankEntries)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, StatusMatched, res.Rows[0].Status)
	assert.Equal(t, StatusMismatched, res.Rows[1].Status)
	matched, mismatched := res.Counts()
	assert.Equal(t, 1, matched)
	assert.Equal(t, 1, mismatched)

	require.Len(t, res.Summary, 6)
	assert.Equal(t, "750000", res.Summary[0].TicketRevenue.String())
	assert.Equal(t, "20000", res.Summary[0].Selisih().String())
	assert.Equal(t, "20000", res.Grand.Selisih().String())
	assert.Equal(t, "12/04/2025", res.Summary[0].Period)

	assert.Equal(t, []NamedCheck{
		{Name: CrossFareInvoice, Result: Passed},
		{Name: CrossB2BInvoice, Result: Passed},
		{Name: CrossInvoiceBank, Result: Failed},
	}, res.CrossChecks)
}

func TestRun_DefaultReferences(t *testing.T) {
	setupTestConfig(t)
	opts, err := DefaultOptions()
	require.NoError(t, err)

	res, err := Run(getTestInputs(), opts)
	require.NoError(t, err)

	assert.True(t, res.References.TicketCount.Decimal.Equal(decimal.NewFromInt(2)))
	assert.False(t, res.References.BankTotal.Valid)
	assert.Equal(t, Failed, res.Rows[0].Check(CheckTicketCount))
	assert.Equal(t, StatusMismatched, res.Rows[0].Status)
}

func TestRun_MissingSource(t *testing.T) {
	setupTestConfig(t)
	in := getTestInputs()
	in.Summary = nil
	in.Tickets = nil

	res, err := Run(in, Options{})

	assert.Nil(t, res)
	var missing *extractor.MissingSourceError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []common.Role{common.RoleTiket, common.RoleSummary}, missing.Missing)
}

func TestRun_DateRange(t *testing.T) {
	setupTestConfig(t)
	from := day(2025, 4, 13)

	res, err := Run(getTestInputs(), Options{Range: rekening_koran.Range{From: from}})
	require.NoError(t, err)

	assert.True(t, res.Totals.BankCredit.IsZero())
	assert.False(t, res.Rows[0].BankAmount.Valid)
}

func TestRun_Idempotent(t *testing.T) {
	setupTestConfig(t)

	first, err := Run(getTestInputs(), Options{})
	require.NoError(t, err)
	second, err := Run(getTestInputs(), Options{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRun_SubtotalRowsAreNotRecords(t *testing.T) {
	setupTestConfig(t)
	in := getTestInputs()
	rows := in.Tickets[0].Table.Rows
	in.Tickets[0].Table.Rows = append(rows[:3:3],
		[]string{"", "TOTAL JUMLAH (B2C)", "", "4", "400000"},
		rows[3],
	)

	res, err := Run(in, Options{})
	require.NoError(t, err)

	require.Len(t, res.Rows, 2)
	for _, r := range res.Rows {
		assert.NotContains(t, r.Key, "TOTAL")
	}
	assert.Equal(t, "750000", res.Summary[0].TicketRevenue.String())
}

func TestNewEngine_InvalidTemplate(t *testing.T) {
	setupTestConfig(t)
	viper.Set("templates.tiket.b2b_marker", "")

	_, err := NewEngine(testPorts)
	assert.Error(t, err)

	_, err = NewEngine(nil)
	assert.Error(t, err)
}

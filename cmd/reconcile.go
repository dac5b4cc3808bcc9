package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/aqlanhadi/rekon/extractor"
	"github.com/aqlanhadi/rekon/extractor/common"
	"github.com/aqlanhadi/rekon/extractor/rekening_koran"
	"github.com/aqlanhadi/rekon/reconcile"
	"github.com/aqlanhadi/rekon/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	folder       string
	tiketFiles   []string
	invoiceFile  string
	summaryFile  string
	rekeningFile string
	fromDate     string
	toDate       string
	outFile      string
	jsonOutput   bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconciles one set of exports",
	Long: `Reconciles the ticket sales (one file per port), invoice, ticket summary
and bank statement exports. Files are given one by one, or found in a folder
and recognised by their names.

Examples:
  rekon reconcile -f ./april
  rekon reconcile --tiket tiket_merak.xlsx --tiket tiket_bkh.xlsx \
    --invoice invoice.xlsx --summary summary.xlsx --rekening rekening.xlsx -o hasil.xlsx`,
	RunE: runReconcile,
}

func runReconcile(cmd *cobra.Command, args []string) error {
	classifier, err := extractor.LoadClassifier()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	engine, err := reconcile.NewEngine(classifier.Ports())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	opts, err := reconcile.DefaultOptions()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if opts.Range, err = rekening_koran.ParseRange(fromDate, toDate); err != nil {
		return err
	}

	inputs, err := collectInputs(classifier)
	if err != nil {
		return err
	}

	result, err := engine.Run(inputs, opts)
	var missing *extractor.MissingSourceError
	if errors.As(err, &missing) {
		fmt.Fprintf(cmd.ErrOrStderr(), "waiting for all inputs, missing: %s\n", joinRoles(missing.Missing))
		return err
	}
	if err != nil {
		return err
	}

	if outFile != "" {
		if err := report.WriteFile(outFile, result); err != nil {
			return err
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printSummary(cmd.OutOrStdout(), result)
	if outFile != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\nReport written to %s\n", outFile)
	}
	return nil
}

func collectInputs(classifier *extractor.Classifier) (extractor.Inputs, error) {
	var inputs extractor.Inputs
	explicit := len(tiketFiles) > 0 || invoiceFile != "" || summaryFile != "" || rekeningFile != ""

	target := coalesce(folder, viper.GetString("target"))
	if target == "" && !explicit {
		target = "."
	}
	if target != "" {
		in, err := classifier.LoadDirectory(target)
		if err != nil {
			return extractor.Inputs{}, err
		}
		inputs = in
	}

	add := func(path string, role common.Role) error {
		if path == "" {
			return nil
		}
		fh, err := os.Open(path)
		if err != nil {
			return err
		}
		defer fh.Close()
		f, err := classifier.Load(fh, path, role)
		if err != nil {
			return err
		}
		zap.L().Debug("loaded file", zap.String("file", f.Name), zap.String("role", string(role)), zap.String("port", string(f.Port)))
		return inputs.Add(f)
	}
	for _, path := range tiketFiles {
		if err := add(path, common.RoleTiket); err != nil {
			return extractor.Inputs{}, err
		}
	}
	for _, f := range []struct {
		path string
		role common.Role
	}{{invoiceFile, common.RoleInvoice}, {summaryFile, common.RoleSummary}, {rekeningFile, common.RoleRekening}} {
		if err := add(f.path, f.role); err != nil {
			return extractor.Inputs{}, err
		}
	}
	return inputs, nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinRoles(roles []common.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

func printSummary(out io.Writer, res *reconcile.Result) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(reconcile.DisplayHeaders, "\t"))
	for _, row := range res.Display() {
		fmt.Fprintln(tw, strings.Join(row.Cells(), "\t"))
	}
	tw.Flush()

	matched, mismatched := res.Counts()
	fmt.Fprintf(out, "\nRows: %d (%s %d, %s %d)\n", len(res.Rows), reconcile.StatusMatched, matched, reconcile.StatusMismatched, mismatched)
	for _, c := range res.CrossChecks {
		fmt.Fprintf(out, "%-20s %s\n", c.Name, c.Result.Label())
	}
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().StringVarP(&folder, "folder", "f", "", "Folder in which rekon will scan for files (default is the current directory)")
	reconcileCmd.Flags().StringArrayVar(&tiketFiles, "tiket", nil, "ticket sales export, repeat once per port")
	reconcileCmd.Flags().StringVar(&invoiceFile, "invoice", "", "invoice export")
	reconcileCmd.Flags().StringVar(&summaryFile, "summary", "", "boarding pass ticket summary export")
	reconcileCmd.Flags().StringVar(&rekeningFile, "rekening", "", "bank statement (rekening koran)")
	reconcileCmd.Flags().StringVar(&fromDate, "from", "", "first bank transaction day to count (YYYY-MM-DD)")
	reconcileCmd.Flags().StringVar(&toDate, "to", "", "last bank transaction day to count (YYYY-MM-DD)")
	reconcileCmd.Flags().StringVarP(&outFile, "out", "o", "", "write the xlsx report to this path")
	reconcileCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the full result as JSON")
}

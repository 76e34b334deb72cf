package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dinero/internal/cli"
	"github.com/Veraticus/dinero/internal/datagen"
	"github.com/Veraticus/dinero/internal/export"
	"github.com/Veraticus/dinero/internal/ofx"
)

func seedCmd() *cobra.Command {
	var (
		days int
		seed int64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the ledger with realistic sample transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			generator := datagen.NewGenerator(ledger, seed)
			count, err := generator.Generate(cmd.Context(), days, os.Stderr)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Generated %d transactions over the last %d days", count, days)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 90, "number of trailing days to fill")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")

	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE.ofx",
		Short: "Import transactions from an OFX/QFX bank statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = file.Close() }()

			txns, err := ofx.NewParser().ParseFile(cmd.Context(), file)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}
			if len(txns) == 0 {
				fmt.Println(cli.FormatInfo("No transactions found in the statement"))
				return nil
			}

			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			imported := 0
			for i := range txns {
				if _, err := ledger.InsertTransaction(cmd.Context(), &txns[i]); err != nil {
					fmt.Println(cli.FormatWarning(fmt.Sprintf(
						"Skipped transaction %q: %v", txns[i].Memo, err)))
					continue
				}
				imported++
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Imported %d of %d transactions from %s", imported, len(txns), args[0])))
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var (
		out     string
		from    string
		to      string
		summary bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			writer := os.Stdout
			if out != "" {
				file, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer func() { _ = file.Close() }()
				writer = file
			}

			exporter := export.NewCSVExporter(ledger)

			var count int
			if summary {
				count, err = exporter.ExportMonthlySummary(cmd.Context(), writer)
			} else if from != "" || to != "" {
				start := time.Time{}
				end := time.Now()
				if from != "" {
					if start, err = time.ParseInLocation("2006-01-02", from, time.Local); err != nil {
						return fmt.Errorf("invalid --from date %q, expected YYYY-MM-DD", from)
					}
				}
				if to != "" {
					if end, err = time.ParseInLocation("2006-01-02", to, time.Local); err != nil {
						return fmt.Errorf("invalid --to date %q, expected YYYY-MM-DD", to)
					}
					end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
				}
				count, err = exporter.ExportRange(cmd.Context(), writer, start, end)
			} else {
				count, err = exporter.Export(cmd.Context(), writer)
			}
			if err != nil {
				return err
			}

			if out != "" {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d rows to %s", count, out)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date inclusive (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&summary, "summary", false, "export a monthly income/expense summary instead of transactions")

	return cmd
}

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dinero/internal/cli"
	"github.com/Veraticus/dinero/internal/model"
)

func listCmd() *cobra.Command {
	var (
		kind  string
		days  int
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			var txns []model.Transaction
			switch {
			case days > 0:
				end := time.Now()
				txns, err = ledger.TransactionsByDateRange(cmd.Context(), end.AddDate(0, 0, -days), end)
			case kind != "":
				txnKind := model.TransactionKind(kind)
				if err := txnKind.Validate(); err != nil {
					return err
				}
				txns, err = ledger.TransactionsByKind(cmd.Context(), txnKind)
			default:
				txns, err = ledger.Transactions(cmd.Context())
			}
			if err != nil {
				return err
			}

			if limit > 0 && len(txns) > limit {
				txns = txns[:limit]
			}
			if len(txns) == 0 {
				fmt.Println(cli.FormatInfo("No transactions recorded yet"))
				return nil
			}

			fmt.Println(cli.RenderTransactions(txns))
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "filter by kind (income, expense)")
	cmd.Flags().IntVarP(&days, "days", "d", 0, "only show the trailing N days")
	cmd.Flags().IntVarP(&limit, "limit", "n", 25, "maximum rows to show (0 for all)")

	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a transaction by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}

			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			deleted, err := ledger.DeleteTransaction(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("transaction %d not found", id)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted transaction %d", id)))
			return nil
		},
	}
}

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dinero/internal/cli"
	"github.com/Veraticus/dinero/internal/model"
)

func addCmd() *cobra.Command {
	var (
		kind        string
		category    string
		subcategory string
		method      string
		memo        string
		notes       string
		date        string
		recurring   bool
	)

	cmd := &cobra.Command{
		Use:   "add AMOUNT",
		Short: "Record an income or expense transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil || amount <= 0 {
				return fmt.Errorf("invalid amount %q", args[0])
			}

			txnKind := model.TransactionKind(kind)
			if err := txnKind.Validate(); err != nil {
				return err
			}
			if !model.ValidCategory(txnKind, category) {
				return fmt.Errorf("unknown category %q for kind %s (valid: %v)",
					category, txnKind, model.CategoriesFor(txnKind))
			}
			if !model.ValidPaymentMethod(method) {
				return fmt.Errorf("unknown payment method %q (valid: %v)", method, model.PaymentMethods)
			}

			when := time.Now()
			if date != "" {
				parsed, err := time.ParseInLocation("2006-01-02", date, time.Local)
				if err != nil {
					return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
				}
				when = parsed
			}

			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			txn := &model.Transaction{
				Date:          when,
				Kind:          txnKind,
				Category:      category,
				Subcategory:   subcategory,
				PaymentMethod: method,
				Memo:          memo,
				Notes:         notes,
				Amount:        amount,
				IsRecurring:   recurring,
			}
			id, err := ledger.InsertTransaction(cmd.Context(), txn)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded %s of $%.2f in %s (id %d)",
				txnKind, amount, category, id)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "expense", "transaction kind (income, expense)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "transaction category")
	cmd.Flags().StringVar(&subcategory, "subcategory", "", "optional subcategory")
	cmd.Flags().StringVarP(&method, "method", "m", "Efectivo", "payment method")
	cmd.Flags().StringVar(&memo, "memo", "", "optional memo")
	cmd.Flags().StringVar(&notes, "notes", "", "optional notes")
	cmd.Flags().StringVarP(&date, "date", "d", "", "transaction date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&recurring, "recurring", false, "mark as a recurring transaction")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

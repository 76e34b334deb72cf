package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dinero/internal/cli"
	"github.com/Veraticus/dinero/internal/model"
)

func alertsCmd() *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Generate the alert report (budgets, anomalies, projection, duplicates)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			detector, err := initDetector(ledger)
			if err != nil {
				return err
			}
			aggregator, err := initAggregator(ledger, detector)
			if err != nil {
				return err
			}

			var report *model.AlertReport
			if cached {
				report, err = aggregator.LatestReport()
			} else {
				report, err = aggregator.GenerateReport(cmd.Context())
			}
			if err != nil {
				return err
			}

			fmt.Println(cli.RenderAlertReport(report))
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "show the last saved report instead of generating a new one")

	return cmd
}

func budgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage monthly category budgets",
	}

	cmd.AddCommand(budgetSetCmd())
	cmd.AddCommand(budgetListCmd())

	return cmd
}

func budgetSetCmd() *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "set CATEGORY AMOUNT",
		Short: "Create or update the monthly budget for a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil || amount <= 0 {
				return fmt.Errorf("invalid budget amount %q", args[1])
			}

			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			budget, err := ledger.UpsertBudget(cmd.Context(), args[0], amount, threshold)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Budget for %s set to $%.2f/month (alert at %.0f%%)",
				budget.Category, budget.MonthlyAmount, budget.AlertThresholdPct)))
			return nil
		},
	}

	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 80, "alert threshold as a percentage of the budget")

	return cmd
}

func budgetListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured budgets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			budgets, err := ledger.Budgets(cmd.Context(), !all)
			if err != nil {
				return err
			}
			if len(budgets) == 0 {
				fmt.Println(cli.FormatInfo("No budgets configured yet"))
				return nil
			}

			var sb strings.Builder
			for _, budget := range budgets {
				state := ""
				if !budget.Active {
					state = "  (inactive)"
				}
				sb.WriteString(fmt.Sprintf("%-20s $%10.2f/month  alert at %3.0f%%%s\n",
					budget.Category, budget.MonthlyAmount, budget.AlertThresholdPct, state))
			}
			fmt.Println(cli.RenderBox(cli.MoneyIcon+" Budgets", strings.TrimRight(sb.String(), "\n")))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include inactive budgets")

	return cmd
}

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dinero/internal/cli"
	"github.com/Veraticus/dinero/internal/stats"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Statistics over the recorded transactions",
	}

	cmd.AddCommand(statsSummaryCmd())
	cmd.AddCommand(statsCategoriesCmd())
	cmd.AddCommand(statsTrendCmd())
	cmd.AddCommand(statsMethodsCmd())
	cmd.AddCommand(statsUnusualCmd())
	cmd.AddCommand(statsProjectionCmd())
	cmd.AddCommand(statsTopCmd())
	cmd.AddCommand(statsRecurringCmd())

	return cmd
}

func statsSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Overall income, expense, and savings rate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			summary, err := stats.NewEngine(ledger).Summary(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println(cli.RenderSummary(summary))
			return nil
		},
	}
}

func statsCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Expense breakdown by category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			categories, err := stats.NewEngine(ledger).ExpensesByCategory(cmd.Context())
			if err != nil {
				return err
			}
			if len(categories) == 0 {
				fmt.Println(cli.FormatInfo("No expenses recorded yet"))
				return nil
			}

			fmt.Println(cli.RenderCategoryStats(categories))
			return nil
		},
	}
}

func statsTrendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trend",
		Short: "Monthly income and expense trend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			trend, err := stats.NewEngine(ledger).MonthlyTrend(cmd.Context())
			if err != nil {
				return err
			}
			if len(trend) == 0 {
				fmt.Println(cli.FormatInfo("No transactions recorded yet"))
				return nil
			}

			var sb strings.Builder
			for _, month := range trend {
				sb.WriteString(fmt.Sprintf("%s  income $%10.2f  expense $%10.2f  balance $%10.2f\n",
					month.Month, month.Income, month.Expense, month.Balance))
			}
			fmt.Println(cli.RenderBox(cli.ChartIcon+" Monthly Trend", strings.TrimRight(sb.String(), "\n")))
			return nil
		},
	}
}

func statsMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "Expense breakdown by payment method",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			methods, err := stats.NewEngine(ledger).PaymentMethodBreakdown(cmd.Context())
			if err != nil {
				return err
			}
			if len(methods) == 0 {
				fmt.Println(cli.FormatInfo("No expenses recorded yet"))
				return nil
			}

			var sb strings.Builder
			for _, method := range methods {
				sb.WriteString(fmt.Sprintf("%-20s $%10.2f  (%d transactions, mean $%.2f)\n",
					method.Method, method.Total, method.Count, method.Mean))
			}
			fmt.Println(cli.RenderBox(cli.MoneyIcon+" Payment Methods", strings.TrimRight(sb.String(), "\n")))
			return nil
		},
	}
}

func statsUnusualCmd() *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "unusual",
		Short: "Expenses that are statistical outliers within their category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			unusual, err := stats.NewEngine(ledger).UnusualExpenses(cmd.Context(), threshold)
			if err != nil {
				return err
			}
			if len(unusual) == 0 {
				fmt.Println(cli.FormatSuccess("No unusual expenses found"))
				return nil
			}

			var sb strings.Builder
			for _, exp := range unusual {
				sb.WriteString(fmt.Sprintf("%s  %-16s $%10.2f  (%.1fx the category average of $%.2f)\n",
					exp.Date.Format("2006-01-02"), exp.Category, exp.Amount,
					exp.Amount/exp.CategoryMean, exp.CategoryMean))
			}
			fmt.Println(cli.RenderBox(cli.AlertIcon+" Unusual Expenses", strings.TrimRight(sb.String(), "\n")))
			return nil
		},
	}

	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 2.0, "z-score threshold")

	return cmd
}

func statsProjectionCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "projection",
		Short: "Project income and expense over the coming days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			projection, err := stats.NewEngine(ledger).Projection(cmd.Context(), days)
			if err != nil {
				return err
			}

			content := fmt.Sprintf(
				"Next %d days\n\nProjected income:  $%10.2f\nProjected expense: $%10.2f\nProjected balance: $%10.2f\n\nDaily averages: income $%.2f, expense $%.2f",
				projection.Days, projection.ProjectedIncome, projection.ProjectedExpense,
				projection.ProjectedBalance, projection.AvgDailyIncome, projection.AvgDailyExpense)
			fmt.Println(cli.RenderBox(cli.ChartIcon+" Projection", content))
			return nil
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 30, "projection horizon in days")

	return cmd
}

func statsTopCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Largest expenses on record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			top, err := stats.NewEngine(ledger).TopExpenses(cmd.Context(), count)
			if err != nil {
				return err
			}
			if len(top) == 0 {
				fmt.Println(cli.FormatInfo("No expenses recorded yet"))
				return nil
			}

			fmt.Println(cli.RenderTransactions(top))
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of expenses to show")

	return cmd
}

func statsRecurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recurring",
		Short: "Summary of recurring expenses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			recurring, err := stats.NewEngine(ledger).RecurringSummary(cmd.Context())
			if err != nil {
				return err
			}
			if recurring.Count == 0 {
				fmt.Println(cli.FormatInfo("No recurring expenses recorded yet"))
				return nil
			}

			categories := make([]string, 0, len(recurring.ByCategory))
			for category := range recurring.ByCategory {
				categories = append(categories, category)
			}
			sort.Strings(categories)

			var sb strings.Builder
			for _, category := range categories {
				sb.WriteString(fmt.Sprintf("%-20s $%10.2f\n", category, recurring.ByCategory[category]))
			}
			sb.WriteString(fmt.Sprintf("\n%-20s $%10.2f  (%d transactions)", "TOTAL", recurring.Total, recurring.Count))
			fmt.Println(cli.RenderBox(cli.MoneyIcon+" Recurring Expenses", sb.String()))
			return nil
		},
	}
}

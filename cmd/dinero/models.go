package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/dinero/internal/cli"
	"github.com/Veraticus/dinero/internal/predict"
)

func trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train the expense predictor and the anomaly detector",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			predictor, err := initPredictor(ledger)
			if err != nil {
				return err
			}
			detector, err := initDetector(ledger)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatInfo("Training expense predictor..."))
			predictResult, err := predictor.Train(cmd.Context())
			if err != nil {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("Predictor not trained: %v", err)))
			} else {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf(
					"Predictor trained on %d samples (%d held out): MAE $%.2f, RMSE $%.2f, R² %.3f",
					predictResult.TrainSamples, predictResult.TestSamples,
					predictResult.MAE, predictResult.RMSE, predictResult.R2)))
			}

			fmt.Println(cli.FormatInfo("Training anomaly detector..."))
			detectResult, detectErr := detector.Train(cmd.Context())
			if detectErr != nil {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("Detector not trained: %v", detectErr)))
			} else {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf(
					"Detector trained on %d samples, %d flagged as outliers (%.1f%%)",
					detectResult.TotalSamples, detectResult.Flagged, detectResult.FlaggedPct)))
			}

			if err != nil && detectErr != nil {
				return fmt.Errorf("training failed for both models")
			}
			return nil
		},
	}
}

func predictCmd() *cobra.Command {
	var (
		category    string
		subcategory string
		method      string
		date        string
		recurring   bool
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the amount of an expense",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			predictor, err := initPredictor(ledger)
			if err != nil {
				return err
			}

			req := predict.Request{
				Category:      category,
				Subcategory:   subcategory,
				PaymentMethod: method,
				IsRecurring:   recurring,
			}
			if date != "" {
				parsed, err := time.ParseInLocation("2006-01-02", date, time.Local)
				if err != nil {
					return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
				}
				req.Date = parsed
			}

			amount, err := predictor.PredictExpense(cmd.Context(), req)
			if errors.Is(err, predict.ErrInsufficientData) {
				return fmt.Errorf("not enough expense history to train: record at least %d expenses first",
					predict.MinTrainingSamples)
			}
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"%s Predicted expense for %s: $%.2f", cli.BrainIcon, category, amount)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "expense category")
	cmd.Flags().StringVar(&subcategory, "subcategory", "", "optional subcategory")
	cmd.Flags().StringVarP(&method, "method", "m", "Efectivo", "payment method")
	cmd.Flags().StringVarP(&date, "date", "d", "", "expense date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&recurring, "recurring", false, "treat as a recurring expense")
	_ = cmd.MarkFlagRequired("category")

	cmd.AddCommand(predictMonthCmd())

	return cmd
}

func predictMonthCmd() *cobra.Command {
	var (
		month int
		year  int
	)

	cmd := &cobra.Command{
		Use:   "month",
		Short: "Forecast per-category spend for a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := initLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			predictor, err := initPredictor(ledger)
			if err != nil {
				return err
			}

			forecast, err := predictor.PredictMonth(cmd.Context(), month, year)
			if errors.Is(err, predict.ErrInsufficientData) {
				return fmt.Errorf("not enough expense history to train: record at least %d expenses first",
					predict.MinTrainingSamples)
			}
			if err != nil {
				return err
			}

			categories := make([]string, 0, len(forecast.ByCategory))
			for category := range forecast.ByCategory {
				categories = append(categories, category)
			}
			sort.Strings(categories)

			var sb strings.Builder
			for _, category := range categories {
				sb.WriteString(fmt.Sprintf("%-20s $%10.2f\n", category, forecast.ByCategory[category]))
			}
			sb.WriteString(fmt.Sprintf("\n%-20s $%10.2f", "TOTAL", forecast.Total))

			title := fmt.Sprintf("%s Forecast for %04d-%02d", cli.BrainIcon, forecast.Year, forecast.Month)
			fmt.Println(cli.RenderBox(title, sb.String()))
			return nil
		},
	}

	cmd.Flags().IntVar(&month, "month", 0, "target month 1-12 (default: next month)")
	cmd.Flags().IntVar(&year, "year", 0, "target year (default: next month's year)")

	return cmd
}

func detectCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "detect AMOUNT CATEGORY",
		Short: "Check whether an expense looks anomalous",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[0])
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

			detector, err := initDetector(ledger)
			if err != nil {
				return err
			}

			result, err := detector.Detect(cmd.Context(), amount, args[1], when)
			if err != nil {
				return err
			}

			if result.IsAnomaly {
				fmt.Println(cli.FormatWarning(fmt.Sprintf(
					"%s (confidence %.0f%%, z-score %.2f)", result.Message, result.Confidence, result.ZScore)))
			} else {
				fmt.Println(cli.FormatSuccess(result.Message))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "expense date (YYYY-MM-DD, default today)")

	cmd.AddCommand(detectHistoryCmd())

	return cmd
}

func detectHistoryCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Scan recent expenses for anomalies",
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

			anomalies, err := detector.Historical(cmd.Context(), days)
			if err != nil {
				return err
			}
			if len(anomalies) == 0 {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf(
					"No anomalies found in the last %d days", days)))
				return nil
			}

			var sb strings.Builder
			for _, a := range anomalies {
				memo := a.Memo
				if memo == "" {
					memo = "-"
				}
				sb.WriteString(fmt.Sprintf("%s  %-16s $%10.2f  %-24s %s (%.0f%%)\n",
					a.Date.Format("2006-01-02"), a.Category, a.Amount, memo, a.Message, a.Confidence))
			}
			fmt.Println(cli.RenderBox(cli.AlertIcon+" Anomalies", strings.TrimRight(sb.String(), "\n")))
			return nil
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 30, "trailing window in days")

	return cmd
}

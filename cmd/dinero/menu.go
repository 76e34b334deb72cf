package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/dinero/internal/tui"
)

// runMenu backs both `dinero menu` and a bare `dinero` invocation.
func runMenu(cmd *cobra.Command, _ []string) error {
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
	aggregator, err := initAggregator(ledger, detector)
	if err != nil {
		return err
	}

	return tui.Run(tui.Config{
		Ledger:     ledger,
		Predictor:  predictor,
		Aggregator: aggregator,
	})
}

func menuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive terminal dashboard",
		RunE:  runMenu,
	}
}

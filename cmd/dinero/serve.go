package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/dinero/internal/web"
)

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web dashboard and JSON API",
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
			aggregator, err := initAggregator(ledger, detector)
			if err != nil {
				return err
			}

			server := web.New(web.Config{
				Ledger:     ledger,
				Predictor:  predictor,
				Detector:   detector,
				Aggregator: aggregator,
				Port:       port,
			})

			errChan := make(chan error, 1)
			go func() {
				slog.Info("Serving dashboard", "addr", fmt.Sprintf("http://localhost:%d", port))
				errChan <- server.Start()
			}()

			select {
			case err := <-errChan:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Stop(shutdownCtx)
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "listen port")
	_ = viper.BindPFlag("web.port", cmd.Flags().Lookup("port"))

	return cmd
}

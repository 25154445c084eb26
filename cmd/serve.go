package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/triagekit/triage/internal/calendar"
	"github.com/triagekit/triage/internal/config"
	"github.com/triagekit/triage/internal/server"
	"github.com/triagekit/triage/internal/store"
	"github.com/triagekit/triage/internal/telemetry"
	"github.com/triagekit/triage/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the triage HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().String("db", "triage.db", "SQLite database path")
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("db_path", serveCmd.Flags().Lookup("db"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	printer := ui.New()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	var emitter *telemetry.Emitter
	if cfg.TelemetryPath != "" {
		emitter, err = telemetry.NewEmitter(cfg.TelemetryPath)
		if err != nil {
			return err
		}
		defer emitter.Close()
	}

	cal := calendar.Default()
	if cfg.HolidaysFile != "" {
		cal, err = calendar.LoadTOML(cfg.HolidaysFile)
		if err != nil {
			return fmt.Errorf("load holidays: %w", err)
		}
	}

	srv := server.New(server.Config{
		Port:             cfg.Port,
		DefaultStrategy:  cfg.DefaultStrategy,
		ConsiderWeekends: cfg.ConsiderWeekends,
		Calendar:         cal,
		TopN:             cfg.TopN,
	}, st, emitter)

	if err := srv.Start(ctx); err != nil {
		return err
	}
	printer.Info("listening on " + srv.Addr().String())

	<-ctx.Done()
	printer.Info("shutting down...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	return srv.Stop(stopCtx)
}

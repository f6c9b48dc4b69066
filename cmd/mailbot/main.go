package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/embassy-aviation/mailbot/internal/batch"
	"github.com/embassy-aviation/mailbot/internal/config"
	"github.com/embassy-aviation/mailbot/internal/core"
	"github.com/embassy-aviation/mailbot/internal/di"
	"github.com/embassy-aviation/mailbot/internal/observability/metrics"
	"github.com/embassy-aviation/mailbot/internal/reports"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	cfg *config.Config,
	service *core.TriageService,
	classifier core.Classifier,
	source core.EmailSource,
	store core.TicketStore,
	exporter *reports.CSVExporter,
	triageMetrics *metrics.TriageMetrics,
) error {
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Serve metrics
	var metricsServer *http.Server
	if cfg.GetBool("metrics.enabled") {
		mux := http.NewServeMux()
		mux.Handle("/metrics", triageMetrics.Handler())
		metricsServer = &http.Server{
			Addr:    cfg.GetString("metrics.listen_address"),
			Handler: mux,
		}
		go func() {
			logger.Info("Serving metrics", zap.String("address", metricsServer.Addr))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	interval, err := cfg.GetDuration("poll.interval")
	if err != nil {
		logger.Fatal("Invalid poll interval", zap.Error(err))
		return err
	}
	workers := cfg.GetInt("poll.workers")
	logger.Info("Starting mailbox polling",
		zap.Duration("interval", interval),
		zap.Int("workers", workers))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// First poll happens immediately, then on every tick.
	pollOnce(ctx, logger, service, classifier, source, triageMetrics, workers)

	reportDay := time.Now().UTC()

loop:
	for {
		select {
		case <-ticker.C:
			pollOnce(ctx, logger, service, classifier, source, triageMetrics, workers)
			if day := time.Now().UTC(); !sameDate(day, reportDay) {
				writeDailyReports(ctx, logger, store, exporter, reportDay)
				reportDay = day
			}
		case sig := <-sigCh:
			logger.Info("Shutting down...", zap.String("signal", sig.String()))
			break loop
		}
	}

	cancel()

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to stop metrics server", zap.Error(err))
		}
	}

	if err := source.Close(); err != nil {
		logger.Error("Failed to close email source", zap.Error(err))
	}

	// Stop the store if needed
	if stopper, ok := store.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}

// pollOnce fetches one batch of emails, classifies them across the worker
// pool and triages each result in order.
func pollOnce(
	ctx context.Context,
	logger *zap.Logger,
	service *core.TriageService,
	classifier core.Classifier,
	source core.EmailSource,
	triageMetrics *metrics.TriageMetrics,
	workers int,
) {
	emails, err := source.Fetch(ctx)
	if err != nil {
		logger.Error("Failed to fetch emails", zap.Error(err))
		return
	}
	if len(emails) == 0 {
		logger.Debug("No new emails")
		return
	}

	logger.Info("Fetched emails", zap.Int("count", len(emails)))

	started := time.Now()
	triageMetrics.StartBatch()
	defer triageMetrics.FinishBatch(started)

	outcomes := batch.Classify(ctx, classifier, emails, workers)
	for _, o := range outcomes {
		if o.Result == nil {
			// Cancelled before this email was reached.
			continue
		}
		outcome, err := service.ProcessClassified(ctx, o.Email, o.Result)
		if err != nil {
			logger.Error("Failed to triage email",
				zap.Error(err),
				zap.String("sender", o.Email.From))
			continue
		}

		triageMetrics.ObserveEmail(string(o.Result.Category), string(o.Result.Priority))
		if outcome.Skipped && outcome.SkipReason == "duplicate message" {
			triageMetrics.ObserveDuplicate()
		}
		if outcome.Ticket != nil {
			triageMetrics.ObserveTicket(string(outcome.Ticket.Category))
		}
	}
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// writeDailyReports exports the previous day's tickets as CSV and a summary
// workbook once the UTC day rolls over. The rollover tick runs after a poll,
// so tickets already created in the new day must be excluded here; they
// belong to the next report.
func writeDailyReports(
	ctx context.Context,
	logger *zap.Logger,
	store core.TicketStore,
	exporter *reports.CSVExporter,
	day time.Time,
) {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	nextMidnight := midnight.Add(24 * time.Hour)

	listed, err := store.ListTickets(ctx, midnight)
	if err != nil {
		logger.Error("Failed to list tickets for report", zap.Error(err))
		return
	}

	var tickets []*core.Ticket
	for _, t := range listed {
		if t.CreatedAt.Before(nextMidnight) {
			tickets = append(tickets, t)
		}
	}
	if len(tickets) == 0 {
		return
	}

	csvPath, err := exporter.WriteTickets(tickets, day)
	if err != nil {
		logger.Error("Failed to write ticket report", zap.Error(err))
	} else {
		logger.Info("Wrote ticket report", zap.String("path", csvPath), zap.Int("tickets", len(tickets)))
	}

	xlsxPath, err := exporter.WriteSummaryWorkbook(tickets, day)
	if err != nil {
		logger.Error("Failed to write summary workbook", zap.Error(err))
	} else {
		logger.Info("Wrote summary workbook", zap.String("path", xlsxPath))
	}
}

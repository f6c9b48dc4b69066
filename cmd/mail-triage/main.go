package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/embassy-aviation/mailbot/internal/adapters/ingest"
	"github.com/embassy-aviation/mailbot/internal/adapters/notify"
	"github.com/embassy-aviation/mailbot/internal/adapters/store"
	"github.com/embassy-aviation/mailbot/internal/classifier"
	"github.com/embassy-aviation/mailbot/internal/core"
	"github.com/embassy-aviation/mailbot/internal/logging"
	"github.com/embassy-aviation/mailbot/internal/reports"
)

var (
	inputFile     = flag.String("file", "", "Input email file (use stdin if not specified)")
	rulesFile     = flag.String("rules", "", "Rules file (use built-in rules if not specified)")
	minConfidence = flag.Float64("min-confidence", 0.6, "Confidence floor for opening tickets on general inquiries")
	csvPath       = flag.String("csv", "", "Append the opened ticket to this CSV file")
	verbose       = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog       = flag.Bool("json-log", false, "Output logs in JSON format")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ruleset, err := classifier.LoadRuleset(*rulesFile)
	if err != nil {
		logger.Fatal("Failed to load rules", zap.Error(err))
	}

	engine, err := classifier.NewEngine(ruleset)
	if err != nil {
		logger.Fatal("Failed to build classification engine", zap.Error(err))
	}

	// Read email from file or stdin
	var emailReader *os.File
	if *inputFile != "" {
		emailReader, err = os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err))
		}
		defer emailReader.Close()
	} else {
		emailReader = os.Stdin
	}

	email, err := ingest.ReadMessage(emailReader)
	if err != nil {
		logger.Fatal("Failed to parse email", zap.Error(err))
	}

	// Print email summary
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", email.From)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Body))

	startTime := time.Now()
	result := engine.Classify(email)
	duration := time.Since(startTime)

	// Print results
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Category: %s\n", result.Category)
	fmt.Printf("Priority: %s\n", result.Priority)
	fmt.Printf("Confidence: %.4f\n", result.Confidence)
	if reg := result.AircraftRegistration(); reg != "" {
		fmt.Printf("Aircraft: %s\n", reg)
	}
	for _, entity := range result.Entities {
		fmt.Printf("Entity: %s = %s\n", entity.Kind, entity.Value)
	}
	for _, rule := range result.MatchedRules {
		fmt.Printf("Matched rule: %s\n", rule.Name)
	}
	fmt.Printf("Reasoning: %s\n", result.Reasoning)
	fmt.Printf("Processing time: %v\n", duration)

	if *csvPath == "" {
		return
	}

	// Run the full triage so the CSV row carries a ticket number and SLA
	// deadlines, using a throwaway in-memory store.
	memStore := store.NewMemoryStore(logger, time.Hour, time.Hour)
	defer memStore.Stop()

	service := core.NewTriageService(engine, memStore, notify.NewNoopNotifier(logger),
		logger, *minConfidence, false, false)

	outcome, err := service.ProcessClassified(context.Background(), email, result)
	if err != nil {
		logger.Fatal("Failed to triage email", zap.Error(err))
	}
	if outcome.Ticket == nil {
		fmt.Printf("\nNo ticket opened (%s)\n", outcome.SkipReason)
		return
	}

	if err := reports.AppendTicket(*csvPath, outcome.Ticket); err != nil {
		logger.Fatal("Failed to append ticket to CSV", zap.Error(err))
	}
	fmt.Printf("\nTicket %s appended to %s\n", outcome.Ticket.Number, *csvPath)
}

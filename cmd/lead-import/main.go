// Command lead-import loads leads from a CSV file straight into the
// database, using the same import path as the HTTP endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"leadqual_backend/internal/events"
	"leadqual_backend/internal/leads"
	"leadqual_backend/internal/ruleset"
	"leadqual_backend/platform/config"
	"leadqual_backend/platform/db"
	"leadqual_backend/platform/logger"
	"leadqual_backend/platform/validator"

	"github.com/google/uuid"
)

func main() {
	filePath := flag.String("file", "", "path to the CSV file to import")
	actor := flag.String("actor", "", "UUID of the acting user recorded in the audit trail")
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: lead-import -file leads.csv -actor <uuid>")
		os.Exit(2)
	}

	actorID, err := uuid.Parse(*actor)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lead-import: -actor must be a valid UUID")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting lead import", "file", *filePath)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	rules, err := ruleset.Load(cfg.GetRulesetPath())
	if err != nil {
		log.Error("failed to load qualification ruleset", "error", err)
		panic("failed to load qualification ruleset: " + err.Error())
	}

	eventBus := events.NewInMemoryBus(log)
	module := leads.NewModule(pool, rules, nil, eventBus, validator.New(), log)

	file, err := os.Open(*filePath)
	if err != nil {
		log.Error("failed to open CSV file", "error", err, "file", *filePath)
		panic("failed to open CSV file: " + err.Error())
	}
	defer file.Close()

	result, err := module.Service().ImportCSV(ctx, actorID, file)
	if err != nil {
		log.Error("import failed", "error", err)
		panic("import failed: " + err.Error())
	}

	log.Info("import complete", "imported", result.Imported, "skipped", result.Skipped)
	for _, msg := range result.Errors {
		log.Warn("import row skipped", "detail", msg)
	}
}

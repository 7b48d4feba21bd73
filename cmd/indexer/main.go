package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/lbarbosa/questora/internal/bootstrap"
	"github.com/lbarbosa/questora/internal/config"
	"github.com/lbarbosa/questora/internal/observability/logging"
)

const serviceName = "questora-indexer"

func main() {
	_ = godotenv.Load()

	includeVetoed := flag.Bool("incluir-vetados", false, "index vetoed and repealed articles as well")
	concurrency := flag.Int("concurrency", 0, "max documents processed in parallel (default from INDEX_CONCURRENCY)")
	jsonReport := flag.String("json", "", "write the batch report as JSON to this file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <folder-with-statutes>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	folder := flag.Arg(0)

	cfg := config.Load()
	if *includeVetoed {
		cfg.IncludeVetoed = true
	}
	if *concurrency > 0 {
		cfg.IndexConcurrency = *concurrency
	}
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	slog.Info("indexing folder",
		"folder", folder,
		"concurrency", cfg.IndexConcurrency,
		"include_vetoed", cfg.IncludeVetoed,
	)

	report, err := app.IndexerUC.IndexFolder(ctx, folder)
	if err != nil {
		log.Fatalf("index folder error: %v", err)
	}

	slog.Info("batch finished",
		"documents", report.Documents,
		"articles", report.TotalArticles,
		"in_force", report.InForce,
		"vetoed", report.Vetoed,
		"passages", report.PassagesStored,
		"failures", len(report.Failures),
	)
	for _, failure := range report.Failures {
		slog.Warn("document skipped", "filename", failure.Filename, "reason", failure.Reason)
	}

	if *jsonReport != "" {
		raw, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			log.Fatalf("marshal report: %v", err)
		}
		if err := os.WriteFile(*jsonReport, raw, 0o644); err != nil {
			log.Fatalf("write report: %v", err)
		}
	}

	if len(report.Failures) > 0 {
		os.Exit(1)
	}
}

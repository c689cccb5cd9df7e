package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"suppcheck/internal/database"
	"suppcheck/internal/database/graph"
	"suppcheck/internal/database/rag"
	"suppcheck/internal/database/relational"
	"suppcheck/internal/engine"
	"suppcheck/internal/fallback"
	"suppcheck/internal/output"
	"suppcheck/internal/util"
	"suppcheck/internal/verdict"
	"suppcheck/pkg/logger"
	"suppcheck/pkg/logger/console"
	"suppcheck/ui/tui"

	uiconsole "suppcheck/ui/console"
)

func main() {
	util.LoadEnv()

	if len(os.Args) != 1 && len(os.Args) != 3 {
		fmt.Printf("Usage: %s [\"supplements\" \"medications\"]\n", os.Args[0])
		os.Exit(1)
	}

	// logger; quiet by default since stderr shares the terminal with the TUI
	logLevel := "warn"
	if util.GetEnvBool("DEBUG", false) {
		logLevel = "debug"
	}
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Level:  logLevel,
		Prefix: "suppcheck",
	})
	logger.Init(consoleLogger)

	ctx := context.Background()

	// The knowledge graph is the primary source; without it there is nothing
	// to check against
	neo4jClient, err := graph.NewNeo4jClient(
		util.GetEnvString("NEO4J_URI", "bolt://localhost:7687"),
		util.GetEnvString("NEO4J_USER", "neo4j"),
		util.GetEnv("NEO4J_PASSWORD"),
		util.GetEnvString("NEO4J_DATABASE", "neo4j"),
	)
	if err != nil {
		fmt.Printf("Error connecting to Neo4j: %v\n", err)
		os.Exit(1)
	}
	defer neo4jClient.Close(ctx)

	store := graph.NewStore(neo4jClient)

	eng, err := engine.New(store, engine.DefaultEngineConfig())
	if err != nil {
		fmt.Printf("Error creating engine: %v\n", err)
		os.Exit(1)
	}

	// Gemini is optional; without it normalization degrades to graph lookups
	var geminiClient *genai.Client
	if key := util.GetEnv("GEMINI_API_KEY"); key != "" {
		geminiClient, err = genai.NewClient(ctx, option.WithAPIKey(key))
		if err != nil {
			fmt.Printf("Error creating Gemini client: %v\n", err)
			os.Exit(1)
		}
		defer geminiClient.Close()
	}
	ragEngine := rag.NewEngine(store, geminiClient, util.GetEnvString("GEMINI_MODEL", "flash"))

	// Web search is optional; the fallback chain then starts at reasoning
	var searcher fallback.Searcher
	apiKey, engineID := util.GetEnv("SEARCH_API_KEY"), util.GetEnv("SEARCH_ENGINE_ID")
	if apiKey != "" && engineID != "" {
		if ws, err := fallback.NewWebSearcher(ctx, apiKey, engineID); err == nil {
			searcher = ws
		}
	}
	fbConfig := fallback.DefaultConfig()
	fbConfig.Workers = util.GetEnvInt("FALLBACK_WORKERS", fbConfig.Workers)
	resolver := fallback.New(searcher, ragEngine, fbConfig)

	// Consultation history
	client, err := relational.Open(util.GetEnv("DUCKDB_PATH"))
	if err != nil {
		fmt.Printf("Error opening history database: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	repo := relational.NewRepo(client.DB())
	if err := repo.Migrate(ctx); err != nil {
		fmt.Printf("Error migrating history schema: %v\n", err)
		os.Exit(1)
	}

	worker, err := database.NewWorker(repo,
		database.WithFlushInterval(util.GetEnvDuration("HISTORY_FLUSH_INTERVAL", 5*time.Second)),
		database.WithQueueSize(util.GetEnvInt("HISTORY_QUEUE_SIZE", 64)),
	)
	if err != nil {
		fmt.Printf("Error creating history worker: %v\n", err)
		os.Exit(1)
	}
	if err := worker.Start(ctx); err != nil {
		fmt.Printf("Error starting history worker: %v\n", err)
		os.Exit(1)
	}
	defer worker.Stop()

	deps := tui.Deps{
		Normalizer:   ragEngine,
		Checker:      eng,
		Resolver:     resolver,
		Verdicts:     verdict.NewService(verdict.DefaultConfig()),
		History:      repo,
		Worker:       worker,
		SessionID:    util.GetEnv("SUPPCHECK_SESSION"),
		CheckTimeout: time.Duration(util.GetEnvInt("CHECK_TIMEOUT_SECONDS", 90)) * time.Second,
	}

	// One-shot mode: check two comma-separated lists and print the report
	// instead of entering the TUI
	if len(os.Args) == 3 {
		runOnce(ctx, deps, os.Args[1], os.Args[2])
		return
	}

	// Start the TUI application directly
	if err := tui.Start(deps); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func runOnce(ctx context.Context, deps tui.Deps, supplements, medications string) {
	timeout := deps.CheckTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := output.RunCheck(checkCtx, deps.Normalizer, deps.Checker, deps.Resolver, deps.Verdicts, output.CheckRequest{
		SessionID:   deps.SessionID,
		Supplements: splitList(supplements),
		Medications: splitList(medications),
	})
	if err != nil {
		fmt.Printf("Error running check: %v\n", err)
		os.Exit(1)
	}

	uiconsole.Print(os.Stdout, output.BuildReport(payload))

	if deps.Worker != nil {
		deps.Worker.Enqueue(database.Record{
			Consultation: payload.Consultation,
			Findings:     payload.FindingRows,
		})
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

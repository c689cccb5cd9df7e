package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"suppcheck/internal/database"
	"suppcheck/internal/database/relational"
	"suppcheck/internal/mcpserver"
	"suppcheck/internal/util"
	"suppcheck/pkg/logger"
	"suppcheck/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	// logger; stdio carries the protocol, so logs go to stderr
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Level:  util.GetEnvString("LOG_LEVEL", "info"),
		Prefix: "mcp",
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// History store. An empty DUCKDB_PATH keeps history in memory, which is
	// fine for one-off stdio sessions.
	client, err := relational.Open(util.GetEnv("DUCKDB_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening history database: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	repo := relational.NewRepo(client.DB())
	if err := repo.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error migrating history schema: %v\n", err)
		os.Exit(1)
	}

	worker, err := database.NewWorker(repo,
		database.WithFlushInterval(util.GetEnvDuration("HISTORY_FLUSH_INTERVAL", 5*time.Second)),
		database.WithQueueSize(util.GetEnvInt("HISTORY_QUEUE_SIZE", 64)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating history worker: %v\n", err)
		os.Exit(1)
	}

	cfg := mcpserver.Config{
		ServerName:      "suppcheck",
		ServerVersion:   "1.0.0",
		GeminiAPIKey:    util.GetEnv("GEMINI_API_KEY"),
		GeminiModel:     util.GetEnvString("GEMINI_MODEL", "flash"),
		Neo4jURI:        util.GetEnvString("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:       util.GetEnvString("NEO4J_USER", "neo4j"),
		Neo4jPassword:   util.GetEnv("NEO4J_PASSWORD"),
		Neo4jDatabase:   util.GetEnvString("NEO4J_DATABASE", "neo4j"),
		SearchAPIKey:    util.GetEnv("SEARCH_API_KEY"),
		SearchEngineID:  util.GetEnv("SEARCH_ENGINE_ID"),
		CheckTimeout:    time.Duration(util.GetEnvInt("CHECK_TIMEOUT_SECONDS", 90)) * time.Second,
		FallbackWorkers: util.GetEnvInt("FALLBACK_WORKERS", 0),
		SessionID:       util.GetEnv("SUPPCHECK_SESSION"),
	}

	server, err := mcpserver.NewServer(cfg, repo, worker)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating MCP server: %v\n", err)
		os.Exit(1)
	}
	defer server.Close(context.Background())

	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error running MCP server: %v\n", err)
		os.Exit(1)
	}
}

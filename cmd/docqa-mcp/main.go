package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"github.com/0xcro3dile/docqa-go/internal/app"
	"github.com/0xcro3dile/docqa-go/internal/common"
	"github.com/0xcro3dile/docqa-go/internal/config"
	"github.com/0xcro3dile/docqa-go/internal/infrastructure/mcp"
)

func main() {
	_ = godotenv.Load()

	// DOCQA_CONFIG may list several files separated by the OS path list separator.
	var configFiles []string
	if env := os.Getenv("DOCQA_CONFIG"); env != "" {
		configFiles = strings.Split(env, string(filepath.ListSeparator))
	} else if _, err := os.Stat("docqa.toml"); err == nil {
		configFiles = []string{"docqa.toml"}
	}

	cfg, err := config.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol, so logs go to the file writer only.
	if cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
		cfg.Logging.Level = "warn"
	}
	logger := common.InitLogger(cfg, true)

	ctx := context.Background()
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	mcpServer := mcp.NewServer(cfg.MCP.Name, common.Version, application.Query, application.Ingest, logger)

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error().Err(err).Msg("MCP server failed")
	}
}

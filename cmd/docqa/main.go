package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/app"
	"github.com/0xcro3dile/docqa-go/internal/common"
	"github.com/0xcro3dile/docqa-go/internal/config"
	httpserver "github.com/0xcro3dile/docqa-go/internal/infrastructure/http"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	serverPort   = flag.Int("port", 0, "Server port (overrides config)")
	serverPortP  = flag.Int("p", 0, "Server port (shorthand, overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
	ingestPath   = flag.String("ingest", "", "Ingest a file or directory, then exit")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("DocQA version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if len(configFiles) == 0 {
		for _, candidate := range []string{"docqa.toml", "docqa.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				configFiles = append(configFiles, candidate)
				break
			}
		}
	}

	cfg, err := config.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	finalPort := *serverPort
	if *serverPortP != 0 {
		finalPort = *serverPortP
	}
	config.ApplyFlagOverrides(cfg, finalPort)

	logger := common.InitLogger(cfg, false)
	if *ingestPath == "" {
		common.PrintBanner(common.Version)
	}

	logger.Debug().
		Strs("config_files", configFiles).
		Str("log_level", cfg.Logging.Level).
		Str("data_dir", cfg.Storage.DataDir).
		Msg("Resolved configuration")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	if *ingestPath != "" {
		n, err := application.IngestFile(ctx, *ingestPath)
		if err != nil {
			logger.Error().Err(err).Str("path", *ingestPath).Msg("Ingest failed")
			application.Close()
			os.Exit(1)
		}
		logger.Info().Int("documents", n).Str("path", *ingestPath).Msg("Ingest complete")
		return
	}

	if cfg.Watch.Enabled {
		if err := application.StartSync(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start directory sync")
		}
	}

	srv := httpserver.NewServer(
		application.Ingest,
		application.Query,
		application.Sessions,
		application.Embedder,
		application.Store,
		httpserver.Options{
			Addr:            net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
			MaxUploadBytes:  cfg.Server.MaxUploadBytes,
			HistoryLimit:    cfg.Query.HistoryLimit,
			AllowedOrigin:   cfg.Server.AllowedOrigin,
			ShutdownTimeout: config.Duration(cfg.Server.ShutdownTimeout, 10*time.Second),
		},
		logger,
	)

	logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Msg("Server ready - Press Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("Server stopped with error")
		return
	}
	logger.Info().Msg("Server stopped")
}

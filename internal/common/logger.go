package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"

	"github.com/0xcro3dile/docqa-go/internal/config"
)

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

func consoleWriter() models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:             models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}
}

// GetLogger returns the global logger, creating a console logger on first use.
func GetLogger() arbor.ILogger {
	loggerMutex.RLock()
	if globalLogger != nil {
		loggerMutex.RUnlock()
		return globalLogger
	}
	loggerMutex.RUnlock()

	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(consoleWriter())
	}
	return globalLogger
}

// InitLogger configures the global logger from cfg.Logging.
// The MCP binary talks over stdout, so it passes stderrOnly to keep the console
// writer out of the protocol stream.
func InitLogger(cfg *config.Config, stderrOnly bool) arbor.ILogger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	logger := arbor.NewLogger()

	hasFile, hasConsole := false, false
	for _, output := range cfg.Logging.Output {
		switch output {
		case "file":
			hasFile = true
		case "stdout", "console":
			hasConsole = true
		}
	}

	if hasFile {
		dir := cfg.Logging.Dir
		if dir == "" {
			dir = filepath.Join(cfg.Storage.DataDir, "logs")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to create logs directory: %v\n", err)
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   filepath.Join(dir, "docqa.log"),
				TimeFormat: "15:04:05",
				MaxSize:    100 * 1024 * 1024,
				MaxBackups: 3,
			})
		}
	}

	if hasConsole && !stderrOnly {
		logger = logger.WithConsoleWriter(consoleWriter())
	}

	logger = logger.WithLevelFromString(cfg.Logging.Level)
	globalLogger = logger
	return logger
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skillforge/timeline/internal/config"
	"github.com/skillforge/timeline/internal/logging"
	intOtel "github.com/skillforge/timeline/internal/otel"
	"github.com/skillforge/timeline/internal/storage"
	"github.com/skillforge/timeline/internal/telemetry"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// ToolVersion can be set at build time via ldflags
var (
	ToolVersion string = "0.0.1"
	BuildDate   string = "unknown"

	ToolName string = "skilltool"
)

var (
	LogFilePath string
	LogFile     *os.File

	// SlogManager handles the slog side of logging (preview bridge, OTel)
	SlogManager *logging.SlogManager

	// SLogger is the slog logger (convenience reference)
	SLogger *slog.Logger

	// Logger is the zerolog logger used by the editor packages
	Logger zerolog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	// Backend is the configured document store
	Backend storage.Backend

	// Telemetry records editing activity to InfluxDB when enabled
	Telemetry *telemetry.Manager

	SessionStartTime time.Time = time.Now()
)

func main() {
	var err error

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, viper.GetString("logLevel"), nil)
	SLogger = SlogManager.Logger()

	if err = config.Load("."); err != nil {
		SLogger.Warn("Failed to load config, using defaults!", "error", err)
	}

	if err = setupLogging(); err != nil {
		SLogger.Error("Failed to set up logging", "error", err)
		os.Exit(1)
	}
	Logger.Info().Str("version", ToolVersion).Str("buildDate", BuildDate).Msg("Starting up...")

	Backend, err = storage.NewBackend(config.GetStorageConfig(), Logger)
	if err != nil {
		Logger.Fatal().Err(err).Msg("Failed to create storage backend")
	}
	if err = Backend.Init(); err != nil {
		Logger.Fatal().Err(err).Msg("Failed to initialize storage backend")
	}
	defer func() { _ = Backend.Close() }()

	if viper.GetBool("influx.enabled") {
		backupPath := filepath.Join(viper.GetString("logsDir"),
			fmt.Sprintf("telemetry_%s.lp.gz", SessionStartTime.Format("20060102_150405")))
		Telemetry = telemetry.NewManager(Logger, backupPath)
		if err = Telemetry.Connect(); err != nil {
			Logger.Warn().Err(err).Msg("Telemetry unavailable, continuing without it")
			Telemetry = nil
		} else {
			Telemetry.CreateWriters()
			defer func() { _ = Telemetry.Close() }()
		}
	}

	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		return
	}

	command := strings.ToLower(args[0])
	if err = runCommand(command, args[1:]); err != nil {
		Logger.Error().Err(err).Str("command", command).Msg("Command failed")
		flushOTel()
		os.Exit(1)
	}
	flushOTel()
}

// setupLogging wires the zerolog writer stack (console, session log file,
// optional Graylog) and rebinds the slog manager to the same file with OTel
// attached when configured.
func setupLogging() error {
	logsDir := viper.GetString("logsDir")
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return fmt.Errorf("failed to create logs dir: %w", err)
		}
	}

	LogFilePath = logging.LogFilePath(logsDir, ToolName, SessionStartTime)
	var err error
	LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", LogFilePath, err)
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339},
		LogFile,
	}

	if viper.GetBool("graylog.enabled") {
		gelfWriter, err := logging.NewGraylogWriter(viper.GetString("graylog.address"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Graylog writer unavailable: %v\n", err)
		} else {
			writers = append(writers, gelfWriter)
		}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString("logLevel")))
	if err != nil {
		level = zerolog.InfoLevel
	}

	Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Str("tool", ToolName).
		Logger()

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    LogFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error().Err(err).Msg("Failed to initialize OTel provider")
			OTelProvider = nil
		}
	}

	if OTelProvider != nil {
		SlogManager.Setup(LogFile, viper.GetString("logLevel"), OTelProvider.LoggerProvider())
	} else {
		SlogManager.Setup(LogFile, viper.GetString("logLevel"), nil)
	}
	SLogger = SlogManager.Logger()

	return nil
}

func flushOTel() {
	if OTelProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := OTelProvider.Flush(ctx); err != nil {
		Logger.Warn().Err(err).Msg("OTel flush failed")
	}
	if err := OTelProvider.Shutdown(ctx); err != nil {
		Logger.Warn().Err(err).Msg("OTel shutdown failed")
	}
}

func usage() {
	fmt.Println("Usage: skilltool <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  list                          List stored skill documents")
	fmt.Println("  new <skill> [maxFrame]        Create an empty skill document")
	fmt.Println("  show <skill>                  Print a document's tracks and clips")
	fmt.Println("  validate <skill>              Check a document against its invariants")
	fmt.Println("  export <skill> <path>         Write a document to a JSON file (.gz to compress)")
	fmt.Println("  import <path>                 Read a document file into the store")
	fmt.Println("  delete <skill>                Remove a document from the store")
	fmt.Println("  preview <skill>               Play a document against the preview server")
	fmt.Println("  publish <skill> [tag]         Upload a document to the skill library server")
	fmt.Println("  version                       Print version info")
}

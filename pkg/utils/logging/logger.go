package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls where log output goes
type Options struct {
	// Dir receives one JSON log file per process. Empty disables the file.
	Dir string
	// Console receives human-readable output. Nil means stdout.
	Console      io.Writer
	ConsoleLevel zapcore.Level
	// Prefix starts the log file name, usually the environment
	Prefix string
}

// InitLogger builds the CLI logger: colored console at Info and a JSON file
// under logs/ at Debug, named after env
func InitLogger(env string) (*zap.Logger, error) {
	return New(Options{Dir: "logs", ConsoleLevel: zapcore.InfoLevel, Prefix: env})
}

// New builds a logger that tees a console core and, when Dir is set, a debug-level JSON file core
func New(opts Options) (*zap.Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	consoleEncoderConfig := zap.NewDevelopmentEncoderConfig()
	consoleEncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig), zapcore.AddSync(console), opts.ConsoleLevel),
	}

	if opts.Dir != "" {
		logFile, err := openLogFile(opts.Dir, opts.Prefix)
		if err != nil {
			return nil, err
		}

		fileEncoderConfig := zap.NewProductionEncoderConfig()
		fileEncoderConfig.TimeKey = "timestamp"
		fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), zapcore.AddSync(logFile), zapcore.DebugLevel))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func openLogFile(dir, prefix string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	if prefix == "" {
		prefix = "scheduler"
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	name := filepath.Join(dir, fmt.Sprintf("%s_%s.log", prefix, timestamp))

	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

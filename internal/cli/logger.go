package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mrz1836/testmo/internal/config"
	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/logging"
)

// logFileWriter is closed by CloseLogFile on shutdown.
var (
	logFileWriter   io.WriteCloser //nolint:gochecknoglobals // Needed for cleanup
	logFileWriterMu sync.Mutex     //nolint:gochecknoglobals // Protects logFileWriter
)

// zerologConfigOnce ensures zerolog global settings are configured exactly once.
var zerologConfigOnce sync.Once //nolint:gochecknoglobals // One-time configuration

// zerologGlobalMu protects writes to the zerolog package logger.
var zerologGlobalMu sync.Mutex //nolint:gochecknoglobals // Protects zerolog global

// configureZerologGlobals renames the timestamp and message fields to ts and event.
func configureZerologGlobals() {
	zerologConfigOnce.Do(func() {
		zerolog.TimestampFieldName = "ts"
		zerolog.MessageFieldName = "event"
	})
}

// InitLogger creates the CLI logger.
//
// Levels: verbose=Debug, quiet=Warn, otherwise Info.
// A terminal stderr without NO_COLOR gets the console writer; anything else
// gets JSON. Entries are also appended to ~/.testmo/logs/testmo.log with
// rotation. When the log file cannot be opened the logger stays console-only.
// Every sink passes through sensitive value redaction.
func InitLogger(verbose, quiet bool) zerolog.Logger {
	configureZerologGlobals()

	console := logging.NewFilteringWriter(selectOutput())
	writer := io.Writer(console)

	if fw, err := createLogFileWriter(); err == nil {
		logFileWriterMu.Lock()
		if logFileWriter != nil {
			_ = logFileWriter.Close()
		}
		logFileWriter = fw
		logFileWriterMu.Unlock()
		writer = zerolog.MultiLevelWriter(console, fw)
	}

	logger := buildLogger(selectLevel(verbose, quiet), writer)
	setGlobalLogger(logger)
	return logger
}

// InitLoggerWithWriter creates a logger that writes only to w.
func InitLoggerWithWriter(verbose, quiet bool, w io.Writer) zerolog.Logger {
	configureZerologGlobals()
	logger := buildLogger(selectLevel(verbose, quiet), logging.NewFilteringWriter(w))
	setGlobalLogger(logger)
	return logger
}

func buildLogger(level zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(level).Hook(logging.NewSensitiveDataHook()).With().Timestamp().Logger()
}

// setGlobalLogger points the zerolog/log package logger at the CLI logger.
func setGlobalLogger(l zerolog.Logger) {
	zerologGlobalMu.Lock()
	defer zerologGlobalMu.Unlock()
	log.Logger = l
}

// CloseLogFile closes the log file writer if one was opened.
func CloseLogFile() {
	logFileWriterMu.Lock()
	defer logFileWriterMu.Unlock()
	if logFileWriter != nil {
		_ = logFileWriter.Close()
		logFileWriter = nil
	}
}

func selectLevel(verbose, quiet bool) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

func selectOutput() io.Writer {
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" { //nolint:gosec // G115: fd fits in int
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return os.Stderr
}

// filteringWriteCloser redacts before writing and closes the underlying file.
type filteringWriteCloser struct {
	filter *logging.FilteringWriter
	closer io.Closer
}

func (f *filteringWriteCloser) Write(p []byte) (int, error) { return f.filter.Write(p) }

func (f *filteringWriteCloser) Close() error { return f.closer.Close() }

func createLogFileWriter() (io.WriteCloser, error) {
	logDir, err := config.LogsDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	lj := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, constants.CLILogFileName),
		MaxSize:    constants.LogMaxSizeMB,
		MaxBackups: constants.LogMaxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   constants.LogCompress,
	}
	return &filteringWriteCloser{filter: logging.NewFilteringWriter(lj), closer: lj}, nil
}

// LogFilePath returns the path of the CLI log file.
func LogFilePath() (string, error) {
	logDir, err := config.LogsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(logDir, constants.CLILogFileName), nil
}

// ABOUTME: Application logger built on charmbracelet/log with file rotation.
// ABOUTME: Package-level helpers are no-ops until Init is called.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	fileName   = "habits.log"
	prefix     = "habits"
	maxSizeMB  = 5
	maxBackups = 3
	maxAgeDays = 28
)

// Logger is nil until Init or SetOutput runs; the helpers check for that.
var Logger *log.Logger

// Config selects where logs go and how much is kept.
type Config struct {
	// Debug lowers the level to debug and mirrors every line to stderr.
	Debug bool
	// Dir is the data directory; logs live in Dir/logs.
	Dir string
}

// FilePath is the active log file for a data directory.
func FilePath(dir string) string {
	return filepath.Join(dir, "logs", fileName)
}

// Init points the package logger at a rotating file under cfg.Dir.
// Only warnings and errors are kept unless Debug is set.
func Init(cfg Config) error {
	path := FilePath(cfg.Dir)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}

	var w io.Writer = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
	level := log.WarnLevel
	if cfg.Debug {
		w = io.MultiWriter(os.Stderr, w)
		level = log.DebugLevel
	}

	Logger = log.NewWithOptions(w, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          prefix,
	})
	return nil
}

// SetOutput swaps in a logger writing to w, for tests and embedding.
func SetOutput(w io.Writer, level log.Level) {
	Logger = log.NewWithOptions(w, log.Options{Level: level, Prefix: prefix})
}

func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

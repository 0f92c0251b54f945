package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger = log.New()

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Info("Failed get current working directory")
		log.Fatal(err)
	}
	env := os.Getenv("ENV")
	logger.Out = os.Stdout

	// Stdout suits docker and systemd; LOG_TO_FILE=true switches to a rotating file.
	if os.Getenv("LOG_TO_FILE") == "true" {
		logsDir := filepath.Join(cwd, "logs")
		if mkErr := os.MkdirAll(logsDir, 0o755); mkErr != nil {
			log.Warnf("Failed to create logs directory %s: %v, falling back to stdout", logsDir, mkErr)
		} else {
			logger.Out = &lumberjack.Logger{
				Filename:   filepath.Join(logsDir, fmt.Sprintf("%s%s.log", time.Now().Format("2006-01-02"), env)),
				MaxSize:    100,
				MaxBackups: 7,
				MaxAge:     30,
				Compress:   true,
			}
		}
	}

	logger.Formatter = &log.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	}
	level := log.DebugLevel
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if parsed, err := log.ParseLevel(v); err == nil {
			level = parsed
		}
	}
	logger.SetLevel(level)
}

// SetLevel changes the level at runtime, e.g. after a config reload.
func SetLevel(level string) {
	if parsed, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(parsed)
	}
}

// GetLogger returns an entry annotated with the caller's function, file and line.
func GetLogger() *log.Entry {
	function, file, line, _ := runtime.Caller(1)

	functionObject := runtime.FuncForPC(function)
	entry := logger.WithFields(log.Fields{
		"requestId": time.Now().UnixNano() / int64(time.Millisecond),
		"function":  functionObject.Name(),
		"file":      file,
		"line":      line,
	})

	return entry
}

// ForComponent returns an entry for libraries that log through a Printf style interface.
func ForComponent(name string) *log.Entry {
	return log.NewEntry(logger).WithField("component", name)
}

// AddHook attaches a logrus hook, e.g. a test.Hook capturing entries in tests.
func AddHook(hook log.Hook) {
	logger.AddHook(hook)
}

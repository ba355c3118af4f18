package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	hclog "github.com/hashicorp/go-hclog"
)

var (
	logger = hclog.New(&hclog.LoggerOptions{
		Name:   "autoscaler",
		Level:  hclog.Info,
		Output: os.Stderr,
	})

	lock sync.Mutex
)

// SetLevel sets the level at which the application should log from. Unknown
// levels fall back to INFO.
func SetLevel(level string) {
	lock.Lock()
	defer lock.Unlock()

	parsed := hclog.LevelFromString(strings.ToLower(level))
	if parsed == hclog.NoLevel {
		parsed = hclog.Info
	}
	logger.SetLevel(parsed)
}

// Debug logs a message at the DEBUG level.
func Debug(format string, v ...interface{}) {
	logger.Debug(fmt.Sprintf(format, v...))
}

// Info logs a message at the INFO level.
func Info(format string, v ...interface{}) {
	logger.Info(fmt.Sprintf(format, v...))
}

// Warning logs a message at the WARN level.
func Warning(format string, v ...interface{}) {
	logger.Warn(fmt.Sprintf(format, v...))
}

// Error logs a message at the ERROR level.
func Error(format string, v ...interface{}) {
	logger.Error(fmt.Sprintf(format, v...))
}

// Package logging builds the go-kit logger used by both binaries,
// generalized from the teacher's main.go level-filter setup.
package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-logr/logr"
	logrkit "github.com/go-logr/logr/funcr"
)

const (
	LevelAll   = "all"
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelNone  = "none"
)

var AvailableLevels = strings.Join([]string{LevelAll, LevelDebug, LevelInfo, LevelWarn, LevelError, LevelNone}, ", ")

// New builds a JSON go-kit logger filtered at logLevel, with timestamp
// and caller fields attached, matching the teacher's main.go.
func New(logLevel string) (log.Logger, error) {
	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	switch logLevel {
	case LevelAll:
		logger = level.NewFilter(logger, level.AllowAll())
	case LevelDebug:
		logger = level.NewFilter(logger, level.AllowDebug())
	case LevelInfo:
		logger = level.NewFilter(logger, level.AllowInfo())
	case LevelWarn:
		logger = level.NewFilter(logger, level.AllowWarn())
	case LevelError:
		logger = level.NewFilter(logger, level.AllowError())
	case LevelNone:
		logger = level.NewFilter(logger, level.AllowNone())
	default:
		return nil, fmt.Errorf("log level %v unknown; possible values are: %s", logLevel, AvailableLevels)
	}
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "caller", log.DefaultCaller)
	return logger, nil
}

// AsLogr bridges a go-kit logger into the logr.Logger interface
// controller-runtime requires, so the Controller binary's manager logs
// through the same sink as the rest of the process.
func AsLogr(logger log.Logger) logr.Logger {
	return logrkit.New(func(prefix, args string) {
		_ = logger.Log("msg", prefix+" "+args)
	})
}

// Package logging builds the zap logger shared by every container of a
// registry tree, and the initializer that hands it to built services.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/km-arc/go-registry/framework/config"
	"github.com/km-arc/go-registry/framework/container"
)

// ParseLevel maps a config level onto zap's. Unknown levels fall back to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a JSON production logger or a colored console logger depending
// on cfg.Format.
//
//	logger, err := logging.New(cfg.Log)
//	defer logger.Sync()
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(ParseLevel(cfg.Level))

	switch strings.ToLower(cfg.Format) {
	case "json":
		zc := zap.NewProductionConfig()
		zc.Level = level
		return zc.Build()
	case "", "console":
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), level)
		return zap.New(core, zap.AddCaller()), nil
	default:
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}
}

// ── Logger injection ──────────────────────────────────────────────────────────

// Aware is implemented by services that want the registry's logger.
type Aware interface {
	SetLogger(l *zap.Logger)
}

// Initializer returns a container.InitializerFunc that hands l, named after
// the service being built, to every Aware target.
//
//	root.InitializerChain().AddCallback(logging.Initializer(logger), container.DefaultPriority)
func Initializer(l *zap.Logger) container.InitializerFunc {
	return func(target any, bc *container.BuildContext) error {
		aware, ok := target.(Aware)
		if !ok {
			return nil
		}
		named := l
		if bc != nil && bc.Container != nil {
			named = l.With(
				zap.String("namespace", bc.Container.Path()),
				zap.String("service", bc.Name),
			)
		}
		aware.SetLogger(named)
		return nil
	}
}

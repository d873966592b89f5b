package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ZapLogger struct {
	log *zap.SugaredLogger
}

// NewZapLogger builds a zap-backed Logger writing to w. Key/value pairs are
// passed through as structured fields.
func NewZapLogger(level, format string, w io.Writer) (Logger, error) {
	if w == nil {
		w = os.Stdout
	}
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if strings.ToLower(format) == "text" {
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), lvl)
	return &ZapLogger{log: zap.New(core).Sugar()}, nil
}

func (zl *ZapLogger) Debug(msg string, args ...any) {
	zl.log.Debugw(msg, args...)
}

func (zl *ZapLogger) Info(msg string, args ...any) {
	zl.log.Infow(msg, args...)
}

func (zl *ZapLogger) Warn(msg string, args ...any) {
	zl.log.Warnw(msg, args...)
}

func (zl *ZapLogger) Error(msg string, args ...any) {
	zl.log.Errorw(msg, args...)
}

func (zl *ZapLogger) Fatal(msg string, args ...any) {
	zl.log.Errorw(msg, args...)
	_ = zl.log.Sync()
	os.Exit(1)
}

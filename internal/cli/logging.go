package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/qrcache"
	qlogrus "github.com/unkn0wn-root/qrcache/log/logrus"
	qslog "github.com/unkn0wn-root/qrcache/log/slog"
	qzap "github.com/unkn0wn-root/qrcache/log/zap"
)

const (
	formatConsole = "console"
	formatJSON    = "json"
	formatText    = "text"
)

// logger carries the service logger plus an slog view of the same sink for
// cache event hooks.
type logger struct {
	qrcache.Logger
	slog *slog.Logger
	sync func() error
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, goerr.New("invalid log level", goerr.V("level", level))
}

// newLogger builds a console (clog), json (zap) or text (logrus) logger.
func newLogger(format, level string, w io.Writer) (*logger, error) {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case "", formatConsole:
		sl := slog.New(clog.New(
			clog.WithWriter(w),
			clog.WithLevel(lvl),
			clog.WithTimeFmt("15:04:05"),
			clog.WithSource(false),
			clog.WithAttrHook(clog.GoerrHook),
		))
		return &logger{Logger: qslog.Logger{L: sl}, slog: sl, sync: noSync}, nil

	case formatJSON:
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(w),
			zapLevel(lvl),
		)
		z := zap.New(core)
		sl := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
		return &logger{Logger: qzap.Logger{L: z}, slog: sl, sync: z.Sync}, nil

	case formatText:
		l := logrus.New()
		l.SetOutput(w)
		l.SetLevel(logrusLevel(lvl))
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
		sl := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
		return &logger{Logger: qlogrus.New(l), slog: sl, sync: noSync}, nil
	}
	return nil, goerr.New("invalid log format", goerr.V("format", format))
}

func noSync() error { return nil }

func zapLevel(l slog.Level) zapcore.Level {
	switch {
	case l <= slog.LevelDebug:
		return zapcore.DebugLevel
	case l <= slog.LevelInfo:
		return zapcore.InfoLevel
	case l <= slog.LevelWarn:
		return zapcore.WarnLevel
	}
	return zapcore.ErrorLevel
}

func logrusLevel(l slog.Level) logrus.Level {
	switch {
	case l <= slog.LevelDebug:
		return logrus.DebugLevel
	case l <= slog.LevelInfo:
		return logrus.InfoLevel
	case l <= slog.LevelWarn:
		return logrus.WarnLevel
	}
	return logrus.ErrorLevel
}

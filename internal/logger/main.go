package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelWriter implements a struct to split logs by level.
// See func WriteLevel about the separation.
type LevelWriter struct {
	io.Writer
	ErrorWriter io.Writer
	InfoWriter  io.Writer
	TraceWriter io.Writer
	WarnWriter  io.Writer

	// AuditWriter receives audit trail events of level info and below.
	// Nil leaves them with InfoWriter.
	AuditWriter io.Writer
}

// WriteLevel splits logging by level and links the pointer to the target output depending on the logger defined.
func (lw *LevelWriter) WriteLevel(l zerolog.Level, p []byte) (n int, err error) {
	var w io.Writer

	// disabled logging
	if l == zerolog.Disabled {
		return 0, nil
	}

	// decide where to write this log content
	switch {
	case l == zerolog.TraceLevel:
		w = lw.TraceWriter
	case l == zerolog.WarnLevel:
		w = lw.WarnWriter
	case l > zerolog.WarnLevel: // error and fatal panic go to error
		w = lw.ErrorWriter
	case lw.AuditWriter != nil && IsAuditEvent(p):
		w = lw.AuditWriter
	default:
		w = lw.InfoWriter // debug and info go to info
	}

	if w == nil {
		return len(p), nil
	}

	// return selected logger writer.
	return w.Write(p) //nolint:wrapcheck
}

// Init the zerolog logger.
// Depending on the config it enables all, some or no logger at all.
// Be sure to enable at least one logger for output.
func Init(cfg Log) error {
	logLevel, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("loglevel %s is not supported", cfg.LogLevel))
	}

	if err = cfg.Validate(); err != nil {
		return err
	}

	stack := false

	// use zerolog stack marshal func if trace level is set
	if logLevel == zerolog.TraceLevel {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack //nolint:reassign
		stack = true
	}

	zerolog.SetGlobalLevel(logLevel)

	writers, err := newWriters(cfg)
	if err != nil {
		return err
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Hook(NewPrometheusHook(cfg.ServiceName)).
		With().
		Timestamp().
		Str("app", cfg.AppName)

	// decide what zero log should show
	switch {
	case cfg.ReportCaller && stack:
		ctx = ctx.Stack().Caller()
	case cfg.ReportCaller:
		ctx = ctx.Caller()
	}

	log.Logger = ctx.Logger()

	return nil
}

// newWriters returns the enabled outputs.
func newWriters(cfg Log) ([]io.Writer, error) {
	var writers []io.Writer

	if cfg.Console.Enabled {
		writers = append(writers, NewConsoleWriter(cfg))
	}

	if cfg.File.Enabled {
		fw, err := newRollingFileWriter(cfg.File)
		if err != nil {
			return nil, err
		}

		writers = append(writers, fw)
	}

	if cfg.DataDog.Enabled {
		dd, err := NewDataDogWriter(cfg)
		if err != nil {
			return nil, err
		}

		writers = append(writers, dd)
	}

	return writers, nil
}

// newRollingFileWriter splits the log by level into lumberjack rolling files.
// Audit trail events get their own file when one is configured.
func newRollingFileWriter(f LogFile) (*LevelWriter, error) {
	if err := f.EnsureDir(); err != nil {
		return nil, err
	}

	lw := &LevelWriter{
		ErrorWriter: optional(f.RollingFile(StreamError)),
		InfoWriter:  optional(f.RollingFile(StreamInfo)),
		TraceWriter: optional(f.RollingFile(StreamTrace)),
		WarnWriter:  optional(f.RollingFile(StreamWarn)),
		AuditWriter: optional(f.RollingFile(StreamAudit)),
	}

	return lw, nil
}

// optional avoids storing a typed nil pointer in an io.Writer.
func optional(l *lumberjack.Logger) io.Writer {
	if l == nil {
		return nil
	}

	return l
}

// NewConsoleWriter creates the console output, human readable when
// Console.UseConsoleWriter is set and json otherwise.
func NewConsoleWriter(cfg Log) io.Writer {
	out := func(w io.Writer) io.Writer {
		if !cfg.Console.UseConsoleWriter {
			return w
		}

		return zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    false,
			TimeFormat: zerolog.TimeFieldFormat,
		}
	}

	return &LevelWriter{
		ErrorWriter: out(os.Stderr),
		InfoWriter:  out(os.Stdout),
		TraceWriter: out(os.Stderr),
		WarnWriter:  out(os.Stderr),
	}
}

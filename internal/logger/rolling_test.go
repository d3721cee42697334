package logger_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/logger"
)

func TestRollingFile(t *testing.T) {
	f := logger.LogFile{
		Path:            "/var/log/storefront",
		AuditLog:        "audit.log",
		AuditMaxSize:    10,
		AuditMaxAge:     30,
		AuditMaxBackups: 4,
		ErrorLog:        "error.log",
	}

	audit := f.RollingFile(logger.StreamAudit)
	require.NotNil(t, audit)
	assert.Equal(t, filepath.Join("/var/log/storefront", "audit.log"), audit.Filename)
	assert.Equal(t, 10, audit.MaxSize)
	assert.Equal(t, 30, audit.MaxAge)
	assert.Equal(t, 4, audit.MaxBackups)

	assert.NotNil(t, f.RollingFile(logger.StreamError))
	assert.Nil(t, f.RollingFile(logger.StreamInfo), "no file name configured")
	assert.Nil(t, f.RollingFile("unknown"))
}

func TestLevelWriterRoutesAuditEvents(t *testing.T) {
	var info, audit, errs bytes.Buffer

	lw := &logger.LevelWriter{
		InfoWriter:  &info,
		ErrorWriter: &errs,
		AuditWriter: &audit,
	}

	l := zerolog.New(lw)
	l.Info().Str("type", logger.AuditEventType).Str("action", "CREATE_PRODUCT").Msg("created")
	l.Info().Msg("plain info")
	l.Error().Str("type", logger.AuditEventType).Msg("audit write failed")

	assert.Contains(t, audit.String(), "CREATE_PRODUCT")
	assert.NotContains(t, audit.String(), "plain info")
	assert.Contains(t, info.String(), "plain info")
	assert.NotContains(t, info.String(), "CREATE_PRODUCT")
	assert.Contains(t, errs.String(), "audit write failed", "errors keep their level file")
}

func TestLevelWriterWithoutAuditWriter(t *testing.T) {
	var info bytes.Buffer

	l := zerolog.New(&logger.LevelWriter{InfoWriter: &info})
	l.Info().Str("type", logger.AuditEventType).Msg("kept")
	l.Warn().Msg("no warn writer")

	assert.Contains(t, info.String(), "kept")
	assert.NotContains(t, info.String(), "no warn writer")
}

func TestIsAuditEvent(t *testing.T) {
	assert.True(t, logger.IsAuditEvent([]byte(`{"level":"info","type":"audit","action":"LOGIN"}`)))
	assert.False(t, logger.IsAuditEvent([]byte(`{"level":"info","type":"access"}`)))
}

func TestValidate(t *testing.T) {
	valid := logger.Log{ServiceName: "svc", AppName: "app"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(l *logger.Log)
		want   error
	}{
		{name: "service name", mutate: func(l *logger.Log) { l.ServiceName = "" }, want: logger.ErrServiceNameIsEmpty},
		{name: "app name", mutate: func(l *logger.Log) { l.AppName = "" }, want: logger.ErrAppNameIsEmpty},
		{name: "file path", mutate: func(l *logger.Log) { l.File.Enabled = true }, want: logger.ErrFilePathIsEmpty},
		{name: "datadog key", mutate: func(l *logger.Log) { l.DataDog.Enabled = true }, want: logger.ErrDataDogAPIKeyIsEmpty},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := valid
			tc.mutate(&l)
			assert.ErrorIs(t, l.Validate(), tc.want)
		})
	}
}

func TestInitWritesAuditFile(t *testing.T) {
	dir := t.TempDir()
	prev := log.Logger

	t.Cleanup(func() { log.Logger = prev })

	err := logger.Init(logger.Log{
		LogLevel:    "info",
		ServiceName: "test",
		AppName:     "test",
		File: logger.LogFile{
			Enabled:  true,
			Path:     dir,
			InfoLog:  "info.log",
			AuditLog: "audit.log",
		},
	})
	require.NoError(t, err)

	log.Info().Str("type", logger.AuditEventType).Str("action", "DELETE_BRAND").Msg("brand deleted")
	log.Info().Msg("server started")

	audit, err := os.ReadFile(filepath.Join(dir, "audit.log"))
	require.NoError(t, err)
	assert.Contains(t, string(audit), "DELETE_BRAND")
	assert.NotContains(t, string(audit), "server started")

	info, err := os.ReadFile(filepath.Join(dir, "info.log"))
	require.NoError(t, err)
	assert.Contains(t, string(info), "server started")
}

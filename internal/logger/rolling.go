package logger

import (
	"bytes"
	"os"
	"path"

	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Stream names of the rolling log files.
const (
	StreamAccess = "access"
	StreamAudit  = "audit"
	StreamError  = "error"
	StreamInfo   = "info"
	StreamTrace  = "trace"
	StreamWarn   = "warn"
)

// AuditEventType is the value of the "type" field on audit trail events.
const AuditEventType = "audit"

var auditMarker = []byte(`"type":"` + AuditEventType + `"`)

// IsAuditEvent reports whether a json log line is an audit trail event.
func IsAuditEvent(p []byte) bool {
	return bytes.Contains(p, auditMarker)
}

type rotation struct {
	name                    string
	maxSize, maxAge, maxBak int
}

func (f LogFile) rotation(stream string) (rotation, bool) {
	switch stream {
	case StreamAccess:
		return rotation{f.AccessLog, f.AccessMaxSize, f.AccessMaxAge, f.AccessMaxBackups}, true
	case StreamAudit:
		return rotation{f.AuditLog, f.AuditMaxSize, f.AuditMaxAge, f.AuditMaxBackups}, true
	case StreamError:
		return rotation{f.ErrorLog, f.ErrorMaxSize, f.ErrorMaxAge, f.ErrorMaxBackups}, true
	case StreamInfo:
		return rotation{f.InfoLog, f.InfoMaxSize, f.InfoMaxAge, f.InfoMaxBackups}, true
	case StreamTrace:
		return rotation{f.TraceLog, f.TraceMaxSize, f.TraceMaxAge, f.TraceMaxBackups}, true
	case StreamWarn:
		return rotation{f.WarnLog, f.WarnMaxSize, f.WarnMaxAge, f.WarnMaxBackups}, true
	default:
		return rotation{}, false
	}
}

// RollingFile returns the lumberjack writer of a stream, nil when the stream
// is unknown or has no file name configured.
func (f LogFile) RollingFile(stream string) *lumberjack.Logger {
	r, ok := f.rotation(stream)
	if !ok || r.name == "" {
		return nil
	}

	return &lumberjack.Logger{
		Filename:   path.Join(f.Path, r.name),
		MaxSize:    r.maxSize,
		MaxAge:     r.maxAge,
		MaxBackups: r.maxBak,
		LocalTime:  false,
		Compress:   false,
	}
}

// EnsureDir creates the log directory.
func (f LogFile) EnsureDir() error {
	if f.Path == "" {
		return nil
	}

	return errors.Wrapf(os.MkdirAll(f.Path, 0o750), "can't create log directory %s", f.Path) //nolint: mnd
}

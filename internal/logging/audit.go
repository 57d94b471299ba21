package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// =============================================================================
// AUDIT EVENT TYPES
// =============================================================================

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	AuditCellAdd    AuditEventType = "cell_add"
	AuditCellEdit   AuditEventType = "cell_edit"
	AuditCellDelete AuditEventType = "cell_delete"
	AuditCellToggle AuditEventType = "cell_toggle"
	AuditCellRun    AuditEventType = "cell_run"
)

// AuditEvent is one line of the audit trail.
type AuditEvent struct {
	EventType  AuditEventType
	CellID     string
	Mode       string // "context" or "isolated" for runs
	Segments   int    // cells contributing to a run
	Success    bool
	DurationMs int64
	Error      string
}

func (e AuditEvent) fields() []zap.Field {
	fields := []zap.Field{
		zap.String("event", string(e.EventType)),
		zap.String("cell", e.CellID),
		zap.Bool("success", e.Success),
	}
	if e.Mode != "" {
		fields = append(fields, zap.String("mode", e.Mode), zap.Int("segments", e.Segments))
	}
	if e.DurationMs > 0 {
		fields = append(fields, zap.Int64("dur_ms", e.DurationMs))
	}
	if e.Error != "" {
		fields = append(fields, zap.String("error", e.Error))
	}
	return fields
}

// =============================================================================
// AUDIT LOGGER
// =============================================================================

// AuditLogger writes audit events as JSON lines to <dir>/<date>_audit.jsonl.
type AuditLogger struct {
	logger *zap.Logger
	file   *os.File
}

var (
	auditLogger *AuditLogger
	auditMu     sync.Mutex
)

// Audit returns the shared audit logger, creating it on first use.
// It is a no-op unless debug mode is on.
func Audit() *AuditLogger {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditLogger != nil {
		return auditLogger
	}
	if !IsDebugMode() {
		return &AuditLogger{}
	}

	optsMu.RLock()
	dir := opts.Dir
	optsMu.RUnlock()

	date := time.Now().Format("2006-01-02")
	path := filepath.Join(dir, fmt.Sprintf("%s_audit.jsonl", date))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open audit file %s: %v\n", path, err)
		return &AuditLogger{}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.EpochMillisTimeEncoder
	encCfg.LevelKey = ""
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), zapcore.DebugLevel)

	auditLogger = &AuditLogger{logger: zap.New(core), file: file}
	return auditLogger
}

// Log records one audit event.
func (a *AuditLogger) Log(event AuditEvent) {
	if a == nil || a.logger == nil {
		return
	}
	a.logger.Info("audit", event.fields()...)
}

// CellRun records a finished run.
func (a *AuditLogger) CellRun(cellID string, isolated bool, segments int, dur time.Duration, runErr error) {
	mode := "context"
	if isolated {
		mode = "isolated"
	}
	event := AuditEvent{
		EventType:  AuditCellRun,
		CellID:     cellID,
		Mode:       mode,
		Segments:   segments,
		Success:    runErr == nil,
		DurationMs: dur.Milliseconds(),
	}
	if runErr != nil {
		event.Error = runErr.Error()
	}
	a.Log(event)
}

// CellChange records a store mutation. found is false for unknown ids.
func (a *AuditLogger) CellChange(eventType AuditEventType, cellID string, found bool) {
	a.Log(AuditEvent{EventType: eventType, CellID: cellID, Success: found})
}

// CloseAudit flushes and closes the audit file.
func CloseAudit() {
	closeAudit()
}

func closeAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditLogger == nil {
		return
	}
	if auditLogger.logger != nil {
		_ = auditLogger.logger.Sync()
	}
	if auditLogger.file != nil {
		auditLogger.file.Close()
	}
	auditLogger = nil
}

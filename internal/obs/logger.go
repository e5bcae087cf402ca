// Package obs carries the ambient service concerns a proof-generation
// daemon needs: structured logging, configuration, admission control,
// metrics, and health reporting. Adapted from cmd/auctiond's same-named
// files, generalized from one auction daemon's concerns to this daemon's.
package obs

import (
	"fmt"
	"log"
	"os"
	"time"
)

// LogLevel represents the logging level.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// AuditCategory names the fixed set of events transferproofd records to its
// audit log. Unlike a free-form event string, each category is paired with
// the caller's request and, for the two failure categories, the boundary
// error-taxonomy label a sentinel error in internal/transfer classifies to
// (see cmd/transferproofd's errKind) — so an audit log reader can grep for
// "kind=synthesis_failed" without parsing the message text.
type AuditCategory string

const (
	AuditSetupCompleted    AuditCategory = "setup_completed"
	AuditKeyContextLoaded  AuditCategory = "keycontext_loaded"
	AuditProofGenerated    AuditCategory = "proof_generated"
	AuditProofRejected     AuditCategory = "proof_rejected"
	AuditVerifyKeyMismatch AuditCategory = "verify_key_mismatch"
)

// Logger is a structured logger fanning out to console, an optional file,
// and an optional audit log. The audit log receives every warn-and-above
// log line plus every Audit entry, whatever its category.
type Logger struct {
	level    LogLevel
	file     *os.File
	fileLog  *log.Logger
	console  *log.Logger
	auditLog *log.Logger
}

// NewLogger creates a new logger instance.
func NewLogger(level string, logFile string, auditFile string) (*Logger, error) {
	var logLevel LogLevel
	switch level {
	case "debug":
		logLevel = DEBUG
	case "info":
		logLevel = INFO
	case "warn":
		logLevel = WARN
	case "error":
		logLevel = ERROR
	case "fatal":
		logLevel = FATAL
	default:
		logLevel = INFO
	}

	logger := &Logger{
		level:   logLevel,
		console: log.New(os.Stdout, "", log.LstdFlags),
	}

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.file = file
		logger.fileLog = log.New(file, "", log.LstdFlags)
	}

	if auditFile != "" {
		af, err := os.OpenFile(auditFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit file: %w", err)
		}
		logger.auditLog = log.New(af, "", log.LstdFlags)
	}

	return logger, nil
}

// Close closes the logger's underlying file, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	levelStr := "INFO"
	switch level {
	case DEBUG:
		levelStr = "DEBUG"
	case INFO:
		levelStr = "INFO"
	case WARN:
		levelStr = "WARN"
	case ERROR:
		levelStr = "ERROR"
	case FATAL:
		levelStr = "FATAL"
	}

	message := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	logEntry := fmt.Sprintf("[%s] %s: %s", timestamp, levelStr, message)

	l.console.Print(logEntry)
	if l.fileLog != nil {
		l.fileLog.Print(logEntry)
	}
	if l.auditLog != nil && level >= WARN {
		l.auditLog.Print(logEntry)
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) { l.log(INFO, format, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) { l.log(WARN, format, args...) }

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// Fatal logs a fatal message and exits the process.
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(FATAL, format, args...)
	os.Exit(1)
}

// Audit records category against the audit log, tagged with errKind (the
// transfer.Err* sentinel label from cmd/transferproofd's errKind helper, or
// "" for categories with no associated failure) so every rejection entry
// is filterable by the boundary error taxonomy it maps to, not just by a
// free-form message string.
func (l *Logger) Audit(category AuditCategory, errKind string, details map[string]interface{}) {
	if l.auditLog == nil {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	if errKind != "" {
		l.auditLog.Printf("[%s] AUDIT: %s kind=%s - %+v", timestamp, category, errKind, details)
		return
	}
	l.auditLog.Printf("[%s] AUDIT: %s - %+v", timestamp, category, details)
}

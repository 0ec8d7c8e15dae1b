// Package aries interprets keyword/expression records exported from legacy
// reserves-and-economics software and builds the normalized economic-model
// documents consumed by the valuation engine.
package aries

import (
	"sync"

	"go.uber.org/zap"
)

// Severity classifies an import report entry.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ImportError is one entry of the per-batch import report.
type ImportError struct {
	Row      string   `json:"row,omitempty"`
	Message  string   `json:"message"`
	Scenario string   `json:"scenario,omitempty"`
	Well     string   `json:"well,omitempty"`
	Model    string   `json:"model,omitempty"`
	Section  int      `json:"section,omitempty"`
	Severity Severity `json:"severity"`
}

// ErrorLog accumulates extraction problems across a batch. Logging never
// throws; a bad row degrades the imported dataset, it does not abort it.
// The log is shared across the well-level workers, hence the mutex.
type ErrorLog struct {
	mu      sync.Mutex
	entries []ImportError
}

// Log records one entry and mirrors it to the process logger.
func (l *ErrorLog) Log(row, message, scenario, well, modelName string, section int, severity Severity) {
	e := ImportError{
		Row:      row,
		Message:  message,
		Scenario: scenario,
		Well:     well,
		Model:    modelName,
		Section:  section,
		Severity: severity,
	}
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()

	fields := []zap.Field{
		zap.String("well", well),
		zap.String("scenario", scenario),
		zap.String("model", modelName),
		zap.Int("section", section),
		zap.String("row", row),
	}
	if severity == SeverityError {
		zap.L().Error("aries: "+message, fields...)
	} else {
		zap.L().Warn("aries: "+message, fields...)
	}
}

// Entries returns a copy of the accumulated report.
func (l *ErrorLog) Entries() []ImportError {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ImportError, len(l.entries))
	copy(out, l.entries)
	return out
}

// Count returns the number of entries at the given severity.
func (l *ErrorLog) Count(severity Severity) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.Severity == severity {
			n++
		}
	}
	return n
}

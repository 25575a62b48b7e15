package models

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ScanStatus is the lifecycle state of a [ScanLog].
type ScanStatus string

const (
	ScanRunning   ScanStatus = "running"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s ScanStatus) Terminal() bool {
	return s == ScanCompleted || s == ScanFailed
}

var (
	ErrScanTerminal  = errors.New("scan log is already terminal")
	ErrTotalSet      = errors.New("scan log total already set")
	ErrProcessedOver = errors.New("processed entries would exceed total")
)

// ScanLog is the audit record of one scan run.
//
// It starts in [ScanRunning] and moves exactly once to [ScanCompleted] or [ScanFailed].
// ProcessedEntries never decreases and never exceeds TotalEntries; Errors is append-only.
type ScanLog struct {
	ID               string     `json:"id"`
	SourceID         string     `json:"source_id"`
	Status           ScanStatus `json:"status"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	TotalEntries     int        `json:"total_entries"`
	ProcessedEntries int        `json:"processed_entries"`
	Errors           []string   `json:"errors"`

	totalSet bool
}

// NewScanLog returns a running log for sourceID.
func NewScanLog(sourceID string, now time.Time) *ScanLog {
	return &ScanLog{
		SourceID:  sourceID,
		Status:    ScanRunning,
		StartedAt: now,
		Errors:    []string{},
	}
}

// SetTotal records the parsed entry count. It may be called once, while running.
func (l *ScanLog) SetTotal(n int) error {
	if l.Status.Terminal() {
		return ErrScanTerminal
	}
	if l.totalSet {
		return ErrTotalSet
	}
	if n < 0 {
		return fmt.Errorf("invalid total %d", n)
	}
	l.TotalEntries = n
	l.totalSet = true
	return nil
}

// RecordAttempt counts one attempted entry and appends msg to Errors when non-empty.
func (l *ScanLog) RecordAttempt(msg string) error {
	if l.Status.Terminal() {
		return ErrScanTerminal
	}
	if l.ProcessedEntries >= l.TotalEntries {
		return ErrProcessedOver
	}
	l.ProcessedEntries++
	if msg != "" {
		l.Errors = append(l.Errors, msg)
	}
	return nil
}

// AddError appends msg without counting an attempt.
func (l *ScanLog) AddError(msg string) error {
	if l.Status.Terminal() {
		return ErrScanTerminal
	}
	l.Errors = append(l.Errors, msg)
	return nil
}

// Complete moves a running log to [ScanCompleted].
func (l *ScanLog) Complete(now time.Time) error {
	return l.finish(ScanCompleted, now, "")
}

// Fail moves a running log to [ScanFailed], recording reason when non-empty.
func (l *ScanLog) Fail(now time.Time, reason string) error {
	return l.finish(ScanFailed, now, reason)
}

func (l *ScanLog) finish(status ScanStatus, now time.Time, reason string) error {
	if l.Status.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrScanTerminal, l.Status, status)
	}
	if reason != "" {
		l.Errors = append(l.Errors, reason)
	}
	l.Status = status
	l.CompletedAt = &now
	return nil
}

// Patch returns the mutable fields of l for a storage update.
func (l *ScanLog) Patch() ScanLogPatch {
	return ScanLogPatch{
		Status:           l.Status,
		CompletedAt:      l.CompletedAt,
		TotalEntries:     l.TotalEntries,
		ProcessedEntries: l.ProcessedEntries,
		Errors:           slices.Clone(l.Errors),
	}
}

// Snapshot returns a copy of l that shares no mutable state.
func (l *ScanLog) Snapshot() *ScanLog {
	c := *l
	c.Errors = slices.Clone(l.Errors)
	if l.CompletedAt != nil {
		t := *l.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// Duration is the elapsed scan time, measured up to now while running.
func (l *ScanLog) Duration(now time.Time) time.Duration {
	if l.CompletedAt != nil {
		return l.CompletedAt.Sub(l.StartedAt)
	}
	return now.Sub(l.StartedAt)
}

// ScanLogPatch is the set of fields written back by UpdateScanLog.
type ScanLogPatch struct {
	Status           ScanStatus
	CompletedAt      *time.Time
	TotalEntries     int
	ProcessedEntries int
	Errors           []string
}

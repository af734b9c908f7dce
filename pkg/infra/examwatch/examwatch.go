// Package examwatch tracks how quickly a student re-opens the same exam.
// A burst of accesses inside a short window is the signature of answer
// sharing between accounts, so the watcher flags the pair for review
// instead of blocking anything.
package examwatch

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/campusgate/campusgate/pkg/cache"
)

type Config struct {
	// SuspiciousWindow is the span below which a full access window is
	// considered anomalous.
	SuspiciousWindow time.Duration
	// WindowSize is how many recent access timestamps are retained.
	WindowSize int
	// FlagTTL is how long a suspicion flag stays visible to reviewers.
	FlagTTL time.Duration
}

type Watcher struct {
	cache  *cache.Cache
	config Config
	logger *logrus.Logger
}

func NewWatcher(c *cache.Cache, config Config, logger *logrus.Logger) *Watcher {
	return &Watcher{cache: c, config: config, logger: logger}
}

func windowKey(studentID, examID string) string {
	return fmt.Sprintf(cache.ExamWindowKeyPattern, studentID, examID)
}

func flagKey(studentID, examID string) string {
	return fmt.Sprintf(cache.SuspicionFlagKeyPattern, studentID, examID)
}

// RecordAccess pushes the access timestamp onto the student's window for
// this exam and trims it to the configured size. Newest entries sit at the
// front of the list.
func (w *Watcher) RecordAccess(ctx context.Context, studentID, examID string, at time.Time) error {
	key := windowKey(studentID, examID)
	if err := w.cache.ListPushFront(ctx, key, at.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("examwatch: record access: %w", err)
	}
	if err := w.cache.ListTrim(ctx, key, 0, int64(w.config.WindowSize-1)); err != nil {
		return fmt.Errorf("examwatch: trim window: %w", err)
	}
	return nil
}

// Evaluate inspects the current window and, when it spans less than the
// suspicious threshold, writes the suspicion flag. It returns whether the
// window is suspicious right now.
func (w *Watcher) Evaluate(ctx context.Context, studentID, examID string) (bool, error) {
	suspicious, err := w.windowSuspicious(ctx, studentID, examID)
	if err != nil || !suspicious {
		return false, err
	}

	if err := w.cache.Set(ctx, flagKey(studentID, examID), "1", w.config.FlagTTL); err != nil {
		return true, fmt.Errorf("examwatch: write suspicion flag: %w", err)
	}
	w.logger.WithFields(logrus.Fields{
		"student_id": studentID,
		"exam_id":    examID,
	}).Warn("exam access window flagged as suspicious")
	return true, nil
}

// EvaluateSubmission is the read-only variant used when grading a
// submission: it reports on the window without recording a new access or
// writing a flag.
func (w *Watcher) EvaluateSubmission(ctx context.Context, studentID, examID string) (bool, error) {
	return w.windowSuspicious(ctx, studentID, examID)
}

func (w *Watcher) windowSuspicious(ctx context.Context, studentID, examID string) (bool, error) {
	entries, err := w.cache.ListRange(ctx, windowKey(studentID, examID), 0, -1)
	if err != nil {
		return false, fmt.Errorf("examwatch: read window: %w", err)
	}
	if len(entries) < 2 {
		return false, nil
	}

	// Entries are newest-first; the span is first minus last. A malformed
	// timestamp invalidates the whole window rather than guessing.
	newest, err := time.Parse(time.RFC3339Nano, entries[0])
	if err != nil {
		return false, fmt.Errorf("examwatch: malformed window entry: %w", err)
	}
	oldest, err := time.Parse(time.RFC3339Nano, entries[len(entries)-1])
	if err != nil {
		return false, fmt.Errorf("examwatch: malformed window entry: %w", err)
	}

	return newest.Sub(oldest) < w.config.SuspiciousWindow, nil
}

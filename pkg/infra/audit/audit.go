// Package audit records security-relevant events without slowing down the
// request path. Entries are queued on a buffered channel and written by a
// single background worker; when the buffer is full the entry is dropped
// and counted, never blocked on.
package audit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type Entry struct {
	Actor     string
	Action    string
	IP        string
	UserAgent string
	Status    int
	Details   string
	CreatedAt time.Time
}

// Store persists entries. The gorm-backed implementation lives in the
// repository package; tests supply their own.
type Store interface {
	SaveAuditEntry(ctx context.Context, entry Entry) error
}

type Sink struct {
	store   Store
	logger  *logrus.Logger
	entries chan Entry
	done    chan struct{}
}

func NewSink(store Store, bufferSize int, logger *logrus.Logger) *Sink {
	s := &Sink{
		store:   store,
		logger:  logger,
		entries: make(chan Entry, bufferSize),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Record queues an entry for persistence. It never blocks: a full buffer
// drops the entry with a log line.
func (s *Sink) Record(entry Entry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	select {
	case s.entries <- entry:
	default:
		s.logger.WithField("action", entry.Action).Warn("audit buffer full, entry dropped")
	}
}

func (s *Sink) run() {
	defer close(s.done)
	for entry := range s.entries {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.store.SaveAuditEntry(ctx, entry); err != nil {
			s.logger.WithError(err).WithField("action", entry.Action).Error("failed to persist audit entry")
		}
		cancel()
	}
}

// Close drains queued entries and waits for the worker to finish.
func (s *Sink) Close() {
	close(s.entries)
	<-s.done
}

// Package service provides business logic implementations.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/config"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/metrics"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/models"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/repository"
)

// SecurityService records gateway rejections in the audit trail and serves
// the admin queries over it.
//
// Writes are asynchronous: Record never blocks the request path. Events are
// queued on a bounded channel drained by a single worker; when the queue is
// full the event is dropped and counted.
type SecurityService struct {
	repo      repository.SecurityEventRepository
	metrics   *metrics.Metrics
	clock     clockwork.Clock
	enabled   bool
	retention time.Duration

	queue  chan *models.SecurityEvent
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewSecurityService creates a SecurityService and starts its worker.
//
// Parameters:
//   - repo: Repository for security events
//   - cfg: Audit settings (buffer size, retention in days)
//   - m: Metrics sink, may be nil
//   - clock: Time source for retention, nil selects the real clock
//
// Returns:
//   - A running SecurityService; call Close to drain it
func NewSecurityService(repo repository.SecurityEventRepository, cfg config.AuditSettings, m *metrics.Metrics, clock clockwork.Clock) *SecurityService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = constants.DefaultAuditBufferSize
	}
	retentionDays := cfg.Retention
	if retentionDays <= 0 {
		retentionDays = constants.DefaultAuditRetention
	}

	s := &SecurityService{
		repo:      repo,
		metrics:   m,
		clock:     clock,
		enabled:   cfg.Enabled && repo != nil,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		queue:     make(chan *models.SecurityEvent, bufferSize),
		done:      make(chan struct{}),
	}

	go s.run()

	return s
}

// Record queues an event for persistence. It returns false when the event was
// not queued: the trail is disabled, the service is closed or the buffer is full.
func (s *SecurityService) Record(event *models.SecurityEvent) bool {
	if s == nil || !s.enabled || event == nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.queue <- event:
		return true
	default:
		s.metrics.AuditEventDropped()
		log.Warn().
			Str("category", constants.LogCategoryAudit).
			Str("event_type", event.Type).
			Int("buffer_size", cap(s.queue)).
			Msg("Audit buffer full, security event dropped")
		return false
	}
}

// run persists queued events until the queue is closed.
func (s *SecurityService) run() {
	defer close(s.done)

	for event := range s.queue {
		s.persist(event)
	}
}

func (s *SecurityService) persist(event *models.SecurityEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.AuditWriteTimeout)
	defer cancel()

	if err := s.repo.Create(ctx, event); err != nil {
		log.Error().
			Err(err).
			Str("category", constants.LogCategoryAudit).
			Str("event_type", event.Type).
			Msg("Failed to persist security event")
	}
}

// Close stops accepting events and waits for the queue to drain, or for ctx
// to expire. It is safe to call more than once.
func (s *SecurityService) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		log.Info().Str("category", constants.LogCategoryAudit).Msg("Audit recorder drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to drain audit queue: %w", ctx.Err())
	}
}

// Pending returns the number of queued events.
func (s *SecurityService) Pending() int {
	return len(s.queue)
}

// List returns events matching the filter, newest first, with the total count.
func (s *SecurityService) List(ctx context.Context, filter models.SecurityEventFilter) ([]*models.SecurityEvent, int, error) {
	return s.repo.List(ctx, filter)
}

// Summary counts events per type since the given time. A zero since covers
// the retention period.
func (s *SecurityService) Summary(ctx context.Context, since time.Time) (*models.SecurityEventSummary, error) {
	if since.IsZero() {
		since = s.clock.Now().Add(-s.retention)
	}

	counts, err := s.repo.CountByType(ctx, since)
	if err != nil {
		return nil, err
	}

	summary := &models.SecurityEventSummary{
		Since:  since.UTC(),
		ByType: make([]models.SecurityEventCount, 0, len(counts)),
	}
	for _, c := range counts {
		summary.Total += c.Count
		summary.ByType = append(summary.ByType, c)
	}

	return summary, nil
}

// PurgeExpired removes events older than the retention period.
//
// Returns:
//   - The number of events removed
//   - Error if the operation fails
func (s *SecurityService) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().Add(-s.retention)

	removed, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		log.Info().
			Str("category", constants.LogCategoryAudit).
			Int64("removed", removed).
			Time("cutoff", cutoff).
			Msg("Purged expired security events")
	}

	return removed, nil
}

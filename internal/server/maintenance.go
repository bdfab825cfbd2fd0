package server

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
)

// maintenance tracks the background task loop so that shutdown can stop it.
type maintenance struct {
	stop chan struct{}
	wg   sync.WaitGroup
}

// SetupMaintenanceTasks starts the periodic maintenance loop. It currently
// purges security events past their retention period. Calling it again while
// the loop runs has no effect.
//
// The tasks run on a fixed schedule defined by constants.DBMaintenanceInterval.
// Each run has its own timeout to prevent a slow database from blocking the next one.
func (s *Server) SetupMaintenanceTasks() {
	if s.maintenance != nil {
		return
	}

	m := &maintenance{stop: make(chan struct{})}
	s.maintenance = m

	ticker := s.clock.NewTicker(constants.DBMaintenanceInterval)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-m.stop:
				return
			case <-ticker.Chan():
				s.runMaintenance()
			}
		}
	}()
}

// runMaintenance performs one round of maintenance tasks.
func (s *Server) runMaintenance() {
	if s.audit == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.DBMaintenanceTimeout)
	defer cancel()

	if _, err := s.audit.PurgeExpired(ctx); err != nil {
		log.Error().
			Err(err).
			Str("category", constants.LogCategoryAudit).
			Msg("Failed to purge expired security events")
	}
}

// stopMaintenance stops the maintenance loop and waits for a running round to finish.
func (s *Server) stopMaintenance() {
	if s.maintenance == nil {
		return
	}
	close(s.maintenance.stop)
	s.maintenance.wg.Wait()
	s.maintenance = nil
}

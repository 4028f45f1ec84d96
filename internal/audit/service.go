// Package audit records authentication events for observability. Events are
// write-only from the auth flow's perspective: nothing in the access decision
// path reads them back.
package audit

import (
	"log"
	"time"

	"github.com/avillega/tablero/internal/entities"
)

// EventStore persists auth events.
type EventStore interface {
	LogEvent(event *entities.AuthEvent) error
	DeleteOldEvents(olderThan time.Time) (int64, error)
}

// Service records auth events. Recording is best-effort: failures are logged
// and swallowed so an audit problem never breaks a login.
type Service struct {
	store EventStore
}

func NewService(store EventStore) *Service {
	return &Service{store: store}
}

// Record saves the outcome of an authentication operation.
func (s *Service) Record(userID uint, username string, action entities.AuthAction, ok bool, ip, userAgent string) {
	status := entities.AuditStatusSuccess
	if !ok {
		status = entities.AuditStatusFailed
	}

	event := &entities.AuthEvent{
		UserID:    userID,
		Username:  username,
		Action:    action,
		Status:    status,
		IPAddress: ip,
		UserAgent: userAgent,
	}

	if err := s.store.LogEvent(event); err != nil {
		log.Printf("audit: failed to record %s event: %v", action, err)
	}
}

// DeleteOldEvents removes events older than the retention period.
// Returns the number of deleted events.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	return s.store.DeleteOldEvents(time.Now().Add(-retention))
}

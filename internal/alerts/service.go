package alerts

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DeliveryHandler is invoked when a reminder fires. Handlers run sequentially
// on the engine's delivery goroutine.
type DeliveryHandler func(leadID string)

// Service coordinates reminder scheduling on top of a Reminder engine.
// All mutations for one lead are serialized so a reschedule racing an
// archive cannot leave a stray timer armed.
type Service struct {
	engine Reminder
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	handlersMu sync.RWMutex
	handlers   []DeliveryHandler
}

// NewService creates a new alerts service on top of engine.
func NewService(log *slog.Logger, engine Reminder) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		engine: engine,
		logger: log.With(slog.String("service", "alerts")),
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

// leadLock returns the mutex serializing operations for one lead.
func (s *Service) leadLock(leadID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[leadID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[leadID] = l
	}
	return l
}

// Schedule arms a reminder for leadID at fireAt. It rejects non-future times
// with ErrPastDue and wraps engine failures in ErrReminder.
func (s *Service) Schedule(leadID string, fireAt time.Time, content Content) (string, error) {
	if !fireAt.After(s.now()) {
		return "", fmt.Errorf("%w: %s", ErrPastDue, fireAt.Format(time.RFC3339))
	}
	lock := s.leadLock(leadID)
	lock.Lock()
	defer lock.Unlock()

	id, err := s.engine.Schedule(leadID, fireAt.Unix(), content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReminder, err)
	}
	s.logger.Debug("reminder scheduled",
		slog.String("lead_id", leadID),
		slog.String("reminder_id", id),
		slog.Time("fire_at", fireAt))
	return id, nil
}

// Cancel disarms reminderID for leadID. An empty reminderID is a no-op.
func (s *Service) Cancel(leadID, reminderID string) error {
	if reminderID == "" {
		return nil
	}
	lock := s.leadLock(leadID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.engine.Cancel(reminderID); err != nil {
		return fmt.Errorf("%w: %v", ErrReminder, err)
	}
	return nil
}

// Reschedule replaces oldReminderID with a new reminder at fireAt and returns
// the new id. The old reminder is cancelled first; a cancel failure is logged
// and does not abort the reschedule, since a stale timer for a lead whose
// reminder id has moved on is ignored at delivery time.
func (s *Service) Reschedule(leadID, oldReminderID string, fireAt time.Time, content Content) (string, error) {
	if !fireAt.After(s.now()) {
		return "", fmt.Errorf("%w: %s", ErrPastDue, fireAt.Format(time.RFC3339))
	}
	lock := s.leadLock(leadID)
	lock.Lock()
	defer lock.Unlock()

	if oldReminderID != "" {
		if err := s.engine.Cancel(oldReminderID); err != nil {
			s.logger.Warn("cancel before reschedule failed",
				slog.String("lead_id", leadID),
				slog.String("reminder_id", oldReminderID),
				slog.Any("error", err))
		}
	}
	id, err := s.engine.Schedule(leadID, fireAt.Unix(), content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReminder, err)
	}
	return id, nil
}

// ListScheduled returns all reminders currently armed in the engine.
func (s *Service) ListScheduled() ([]Scheduled, error) {
	items, err := s.engine.ListScheduled()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReminder, err)
	}
	return items, nil
}

// OnDelivery registers a handler invoked every time a reminder fires.
func (s *Service) OnDelivery(h DeliveryHandler) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	s.handlers = append(s.handlers, h)
}

// Deliver fans one fired reminder out to all registered handlers. The engine
// calls this from its delivery goroutine.
func (s *Service) Deliver(leadID string) {
	s.handlersMu.RLock()
	handlers := make([]DeliveryHandler, len(s.handlers))
	copy(handlers, s.handlers)
	s.handlersMu.RUnlock()

	s.logger.Info("reminder fired", slog.String("lead_id", leadID))
	for _, h := range handlers {
		h(leadID)
	}
}

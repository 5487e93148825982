package alerts

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// LocalEngine is the in-process Reminder implementation. Each reminder is an
// armed time.AfterFunc; a cron sweep runs every minute as a safety net for
// timers lost to clock jumps or suspend, delivering anything past due.
type LocalEngine struct {
	logger  *slog.Logger
	deliver func(leadID string)

	mu      sync.Mutex
	pending map[string]*localReminder

	cron *cron.Cron
}

type localReminder struct {
	Scheduled
	timer *time.Timer
}

// NewLocalEngine creates an engine with no reminders armed. Call
// SetDeliveryFunc before Start so fired reminders have somewhere to go.
func NewLocalEngine(log *slog.Logger) *LocalEngine {
	if log == nil {
		log = slog.Default()
	}
	return &LocalEngine{
		logger:  log.With(slog.String("service", "reminder_engine")),
		pending: make(map[string]*localReminder),
	}
}

// SetDeliveryFunc sets the callback invoked with the lead id when a reminder fires.
func (e *LocalEngine) SetDeliveryFunc(fn func(leadID string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deliver = fn
}

// Start launches the minute sweep. Safe to call once.
func (e *LocalEngine) Start() error {
	c := cron.New()
	if _, err := c.AddFunc("* * * * *", e.sweep); err != nil {
		return err
	}
	c.Start()
	e.mu.Lock()
	e.cron = c
	e.mu.Unlock()
	e.logger.Info("reminder engine started")
	return nil
}

// Stop halts the sweep and disarms all pending timers.
func (e *LocalEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cron != nil {
		e.cron.Stop()
		e.cron = nil
	}
	for id, r := range e.pending {
		r.timer.Stop()
		delete(e.pending, id)
	}
	e.logger.Info("reminder engine stopped")
}

// Schedule arms a timer and returns its reminder id.
func (e *LocalEngine) Schedule(leadID string, fireAtUnix int64, content Content) (string, error) {
	id := uuid.NewString()
	delay := time.Until(time.Unix(fireAtUnix, 0))
	if delay < 0 {
		delay = 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	r := &localReminder{
		Scheduled: Scheduled{
			ReminderID: id,
			LeadID:     leadID,
			FireAtUnix: fireAtUnix,
			Content:    content,
		},
	}
	r.timer = time.AfterFunc(delay, func() { e.fire(id) })
	e.pending[id] = r
	return id, nil
}

// Cancel disarms a reminder; unknown ids are ignored.
func (e *LocalEngine) Cancel(reminderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok := e.pending[reminderID]; ok {
		r.timer.Stop()
		delete(e.pending, reminderID)
	}
	return nil
}

// ListScheduled returns a snapshot of all armed reminders.
func (e *LocalEngine) ListScheduled() ([]Scheduled, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Scheduled, 0, len(e.pending))
	for _, r := range e.pending {
		out = append(out, r.Scheduled)
	}
	return out, nil
}

// fire removes the reminder and hands its lead to the delivery callback.
// Firing is first-wins: if Cancel got there before us the id is gone and
// nothing is delivered.
func (e *LocalEngine) fire(reminderID string) {
	e.mu.Lock()
	r, ok := e.pending[reminderID]
	if ok {
		delete(e.pending, reminderID)
	}
	deliver := e.deliver
	e.mu.Unlock()

	if !ok {
		return
	}
	if deliver == nil {
		e.logger.Warn("reminder fired with no delivery func",
			slog.String("reminder_id", reminderID),
			slog.String("lead_id", r.LeadID))
		return
	}
	deliver(r.LeadID)
}

// sweep delivers any reminder whose fire time has passed but whose timer
// never ran, which can happen across suspend/resume.
func (e *LocalEngine) sweep() {
	now := time.Now().Unix()
	e.mu.Lock()
	var due []string
	for id, r := range e.pending {
		if r.FireAtUnix <= now {
			due = append(due, id)
		}
	}
	e.mu.Unlock()

	for _, id := range due {
		e.logger.Warn("sweep found overdue reminder", slog.String("reminder_id", id))
		e.fire(id)
	}
}

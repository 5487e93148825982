package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dhruv200010/rentmanager/internal/alerts"
	"github.com/dhruv200010/rentmanager/internal/config"
	"github.com/dhruv200010/rentmanager/internal/events"
	"github.com/dhruv200010/rentmanager/internal/intake"
)

// Errors returned by lead operations.
var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrResponseIndex   = errors.New("response index out of range")
	ErrAlertNotFuture  = errors.New("alert time must be in the future")
	ErrAlreadyArchived = errors.New("lead is already archived")
	ErrNotArchived     = errors.New("lead is not archived")
)

// Service orchestrates lead persistence, reminder scheduling, and live event
// publication.
type Service struct {
	repo   Repository
	alerts *alerts.Service
	hub    events.Publisher
	logger *slog.Logger
	vocab  intake.Vocabulary
	policy intake.Policy
	now    func() time.Time
}

// NewService creates a lead service. hub may be nil when no live stream is wired.
func NewService(log *slog.Logger, repo Repository, alertSvc *alerts.Service, hub events.Publisher, cfg config.Config) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:   repo,
		alerts: alertSvc,
		hub:    hub,
		logger: log.With(slog.String("service", "leads")),
		vocab: intake.Vocabulary{
			Sources:    cfg.Vocab.Sources,
			Categories: cfg.Vocab.Categories,
			Locations:  cfg.Vocab.Locations,
		},
		policy: intake.Policy{
			Hour:      cfg.Reminder.DefaultHour,
			DayOffset: cfg.Reminder.DefaultDayOffset,
		},
		now: time.Now,
	}
}

// alertContent builds the notification payload for a lead's reminder.
func alertContent(lead Lead) alerts.Content {
	body := lead.Category
	if lead.ContactNo != "" {
		body += " " + lead.ContactNo
	}
	return alerts.Content{
		Title: "Reminder: " + lead.Name,
		Body:  strings.TrimSpace(body),
	}
}

// CreateFromMessage parses one free-text message into a lead, stores it, and
// arms its reminder. A reminder that cannot be armed never fails the create:
// the lead still lands and its status degrades to triggered once the alert
// time passes.
func (s *Service) CreateFromMessage(ctx context.Context, userID, message string) (Lead, error) {
	if strings.TrimSpace(message) == "" {
		return Lead{}, ErrEmptyMessage
	}
	draft := intake.ParseWithPolicy(message, s.vocab, s.now(), s.policy)

	lead, err := s.repo.Create(ctx, Lead{
		UserID:    userID,
		Name:      draft.Name,
		ContactNo: draft.ContactNo,
		Category:  draft.Category,
		Source:    draft.Source,
		Location:  draft.Location,
		AlertTime: draft.Date,
	})
	if err != nil {
		return Lead{}, fmt.Errorf("create lead: %w", err)
	}
	s.armReminder(ctx, &lead)
	lead.Status = StatusOf(lead, s.now())
	return lead, nil
}

// Create stores a lead from explicit fields and arms its reminder.
func (s *Service) Create(ctx context.Context, userID string, params CreateParams) (Lead, error) {
	if strings.TrimSpace(params.Name) == "" {
		return Lead{}, errors.New("name is required")
	}
	category := strings.TrimSpace(params.Category)
	if category == "" {
		category = intake.DefaultCategory
	}
	alertTime := params.AlertTime
	if alertTime.IsZero() {
		now := s.now()
		alertTime = time.Date(now.Year(), now.Month(), now.Day(),
			s.policy.Hour, 0, 0, 0, now.Location()).AddDate(0, 0, s.policy.DayOffset)
	}

	lead, err := s.repo.Create(ctx, Lead{
		UserID:    userID,
		Name:      params.Name,
		ContactNo: params.ContactNo,
		Category:  category,
		Source:    params.Source,
		Location:  params.Location,
		AlertTime: alertTime,
		Photo:     params.Photo,
	})
	if err != nil {
		return Lead{}, fmt.Errorf("create lead: %w", err)
	}
	s.armReminder(ctx, &lead)
	lead.Status = StatusOf(lead, s.now())
	return lead, nil
}

// armReminder schedules the lead's reminder and persists the reminder id next
// to the alert time. A prior reminder id is cancelled first so a lead never
// holds two live reminders. Failures are logged and leave the lead without a
// reminder id; a past-due alert time is expected for backdated leads.
func (s *Service) armReminder(ctx context.Context, lead *Lead) {
	var id string
	var err error
	if lead.NotificationID != "" {
		id, err = s.alerts.Reschedule(lead.ID, lead.NotificationID, lead.AlertTime, alertContent(*lead))
	} else {
		id, err = s.alerts.Schedule(lead.ID, lead.AlertTime, alertContent(*lead))
	}
	if err != nil {
		if errors.Is(err, alerts.ErrPastDue) {
			s.logger.Debug("lead alert time already passed",
				slog.String("lead_id", lead.ID))
		} else {
			s.logger.Warn("schedule reminder failed",
				slog.String("lead_id", lead.ID), slog.Any("error", err))
		}
		return
	}
	if err := s.repo.SetAlert(ctx, lead.ID, lead.AlertTime, id); err != nil {
		s.logger.Error("persist reminder id failed",
			slog.String("lead_id", lead.ID), slog.Any("error", err))
		if cancelErr := s.alerts.Cancel(lead.ID, id); cancelErr != nil {
			s.logger.Warn("cancel orphan reminder failed",
				slog.String("reminder_id", id), slog.Any("error", cancelErr))
		}
		return
	}
	lead.NotificationID = id
	lead.TriggeredAt = nil
}

// Get returns one lead with its derived status.
func (s *Service) Get(ctx context.Context, userID, id string) (Lead, error) {
	lead, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Lead{}, err
	}
	lead.Status = StatusOf(lead, s.now())
	return lead, nil
}

// List returns the user's active leads matching query and filter, soonest
// reminder first.
func (s *Service) List(ctx context.Context, userID, query string, filter Filter) ([]Lead, error) {
	items, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := applyFilter(items, query, filter, s.now())
	sortByAlertAsc(out)
	return out, nil
}

// ListArchived returns the user's archived leads matching query, most recent
// reminder first.
func (s *Service) ListArchived(ctx context.Context, userID, query string) ([]Lead, error) {
	items, err := s.repo.ListArchived(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := applyFilter(items, query, FilterAll, s.now())
	sortByAlertDesc(out)
	return out, nil
}

// Update edits a lead's descriptive fields. The reminder is untouched.
func (s *Service) Update(ctx context.Context, userID, id string, params UpdateParams) (Lead, error) {
	lead, err := s.repo.Update(ctx, userID, id, params)
	if err != nil {
		return Lead{}, err
	}
	lead.Status = StatusOf(lead, s.now())
	return lead, nil
}

// Reschedule moves a lead's reminder to alertTime. The stored alert only
// changes after the new reminder is armed, so a failed reschedule leaves the
// previous reminder intact.
func (s *Service) Reschedule(ctx context.Context, userID, id string, alertTime time.Time) (Lead, error) {
	lead, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Lead{}, err
	}
	newID, err := s.alerts.Reschedule(lead.ID, lead.NotificationID, alertTime, alertContent(lead))
	if err != nil {
		if errors.Is(err, alerts.ErrPastDue) {
			return Lead{}, ErrAlertNotFuture
		}
		return Lead{}, err
	}
	if err := s.repo.SetAlert(ctx, id, alertTime, newID); err != nil {
		return Lead{}, err
	}
	lead.AlertTime = alertTime
	lead.NotificationID = newID
	lead.TriggeredAt = nil
	lead.Status = StatusOf(lead, s.now())
	s.publish(events.TypeLeadUpdated, lead)
	return lead, nil
}

// Archive moves a lead out of the active list and disarms its reminder.
// A cancel failure does not block archival.
func (s *Service) Archive(ctx context.Context, userID, id string) (Lead, error) {
	lead, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Lead{}, err
	}
	if lead.ArchivedAt != nil {
		return Lead{}, ErrAlreadyArchived
	}
	if err := s.alerts.Cancel(lead.ID, lead.NotificationID); err != nil {
		s.logger.Warn("cancel reminder on archive failed",
			slog.String("lead_id", id), slog.Any("error", err))
	}
	if err := s.repo.SetArchived(ctx, userID, id, true); err != nil {
		return Lead{}, err
	}
	return s.Get(ctx, userID, id)
}

// Restore moves an archived lead back to the active list. A still-future
// alert time is re-armed; a past one leaves the lead triggered.
func (s *Service) Restore(ctx context.Context, userID, id string) (Lead, error) {
	lead, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Lead{}, err
	}
	if lead.ArchivedAt == nil {
		return Lead{}, ErrNotArchived
	}
	if err := s.repo.SetArchived(ctx, userID, id, false); err != nil {
		return Lead{}, err
	}
	lead.ArchivedAt = nil
	if lead.AlertTime.After(s.now()) {
		s.armReminder(ctx, &lead)
	}
	return s.Get(ctx, userID, id)
}

// Delete removes a lead permanently, disarming its reminder first.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	lead, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.alerts.Cancel(lead.ID, lead.NotificationID); err != nil {
		s.logger.Warn("cancel reminder on delete failed",
			slog.String("lead_id", id), slog.Any("error", err))
	}
	return s.repo.Delete(ctx, userID, id)
}

// AddResponse appends one interaction to the lead's response log.
func (s *Service) AddResponse(ctx context.Context, userID, id, text string) (Lead, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Lead{}, errors.New("response text is required")
	}
	lead, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Lead{}, err
	}
	responses := append(lead.Responses, Response{Text: text, Timestamp: s.now()})
	if err := s.repo.SetResponses(ctx, userID, id, responses); err != nil {
		return Lead{}, err
	}
	return s.Get(ctx, userID, id)
}

// DeleteResponse removes the response at index, preserving the order of the rest.
func (s *Service) DeleteResponse(ctx context.Context, userID, id string, index int) (Lead, error) {
	lead, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Lead{}, err
	}
	if index < 0 || index >= len(lead.Responses) {
		return Lead{}, ErrResponseIndex
	}
	responses := append(lead.Responses[:index:index], lead.Responses[index+1:]...)
	if err := s.repo.SetResponses(ctx, userID, id, responses); err != nil {
		return Lead{}, err
	}
	return s.Get(ctx, userID, id)
}

// HandleAlertFired is the delivery handler wired to the alerts service. It
// stamps the lead triggered and pushes the event to the owner's live streams.
func (s *Service) HandleAlertFired(leadID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.repo.SetTriggered(ctx, leadID, s.now()); err != nil {
		s.logger.Error("mark lead triggered failed",
			slog.String("lead_id", leadID), slog.Any("error", err))
		return
	}
	lead, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		s.logger.Error("load triggered lead failed",
			slog.String("lead_id", leadID), slog.Any("error", err))
		return
	}
	lead.Status = StatusOf(lead, s.now())
	s.publish(events.TypeAlertFired, lead)
}

// Bootstrap re-arms reminders for pending leads after a restart. Leads whose
// alert time passed while the process was down are marked triggered.
func (s *Service) Bootstrap(ctx context.Context) error {
	pending, err := s.repo.ListAllPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending leads: %w", err)
	}
	now := s.now()
	rearmed, overdue := 0, 0
	for i := range pending {
		lead := pending[i]
		if !lead.AlertTime.After(now) {
			if err := s.repo.SetTriggered(ctx, lead.ID, lead.AlertTime); err != nil {
				s.logger.Warn("mark overdue lead failed",
					slog.String("lead_id", lead.ID), slog.Any("error", err))
			}
			overdue++
			continue
		}
		s.armReminder(ctx, &lead)
		rearmed++
	}
	s.logger.Info("lead reminders bootstrapped",
		slog.Int("rearmed", rearmed), slog.Int("overdue", overdue))
	return nil
}

func (s *Service) publish(eventType events.Type, lead Lead) {
	if s.hub == nil {
		return
	}
	data, err := json.Marshal(lead)
	if err != nil {
		s.logger.Warn("encode lead event failed", slog.Any("error", err))
		return
	}
	s.hub.Publish(events.Event{Type: eventType, UserID: lead.UserID, Data: data})
}

package leads

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dhruv200010/rentmanager/internal/alerts"
	"github.com/dhruv200010/rentmanager/internal/config"
)

// memRepo is an in-memory Repository for service tests.
type memRepo struct {
	mu    sync.Mutex
	seq   int
	leads map[string]Lead
}

func newMemRepo() *memRepo {
	return &memRepo{leads: make(map[string]Lead)}
}

func (m *memRepo) Create(_ context.Context, lead Lead) (Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	lead.ID = fmt.Sprintf("lead-%d", m.seq)
	if lead.Responses == nil {
		lead.Responses = []Response{}
	}
	lead.CreatedAt = time.Now()
	lead.UpdatedAt = lead.CreatedAt
	m.leads[lead.ID] = lead
	return lead, nil
}

func (m *memRepo) Get(_ context.Context, userID, id string) (Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok || lead.UserID != userID {
		return Lead{}, ErrNotFound
	}
	return lead, nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return lead, nil
}

func (m *memRepo) Update(ctx context.Context, userID, id string, params UpdateParams) (Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok || lead.UserID != userID {
		return Lead{}, ErrNotFound
	}
	if params.Name != nil {
		lead.Name = *params.Name
	}
	if params.ContactNo != nil {
		lead.ContactNo = *params.ContactNo
	}
	if params.Category != nil {
		lead.Category = *params.Category
	}
	if params.Source != nil {
		lead.Source = *params.Source
	}
	if params.Location != nil {
		lead.Location = *params.Location
	}
	if params.Photo != nil {
		lead.Photo = *params.Photo
	}
	m.leads[id] = lead
	return lead, nil
}

func (m *memRepo) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok || lead.UserID != userID {
		return ErrNotFound
	}
	delete(m.leads, id)
	return nil
}

func (m *memRepo) SetAlert(_ context.Context, id string, alertTime time.Time, notificationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok {
		return ErrNotFound
	}
	lead.AlertTime = alertTime
	lead.NotificationID = notificationID
	lead.TriggeredAt = nil
	m.leads[id] = lead
	return nil
}

func (m *memRepo) SetTriggered(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok {
		return ErrNotFound
	}
	lead.TriggeredAt = &at
	m.leads[id] = lead
	return nil
}

func (m *memRepo) SetArchived(_ context.Context, userID, id string, archived bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok || lead.UserID != userID {
		return ErrNotFound
	}
	if archived {
		now := time.Now()
		lead.ArchivedAt = &now
		lead.NotificationID = ""
	} else {
		lead.ArchivedAt = nil
	}
	m.leads[id] = lead
	return nil
}

func (m *memRepo) SetResponses(_ context.Context, userID, id string, responses []Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok || lead.UserID != userID {
		return ErrNotFound
	}
	lead.Responses = responses
	m.leads[id] = lead
	return nil
}

func (m *memRepo) ListActive(_ context.Context, userID string) ([]Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Lead
	for _, lead := range m.leads {
		if lead.UserID == userID && lead.ArchivedAt == nil {
			out = append(out, lead)
		}
	}
	return out, nil
}

func (m *memRepo) ListArchived(_ context.Context, userID string) ([]Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Lead
	for _, lead := range m.leads {
		if lead.UserID == userID && lead.ArchivedAt != nil {
			out = append(out, lead)
		}
	}
	return out, nil
}

func (m *memRepo) ListAllPending(_ context.Context) ([]Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Lead
	for _, lead := range m.leads {
		if lead.ArchivedAt == nil && lead.TriggeredAt == nil {
			out = append(out, lead)
		}
	}
	return out, nil
}

// stubEngine is a minimal alerts.Reminder implementation.
type stubEngine struct {
	mu    sync.Mutex
	seq   int
	armed map[string]string // reminderID -> leadID
}

func newStubEngine() *stubEngine { return &stubEngine{armed: make(map[string]string)} }

func (s *stubEngine) Schedule(leadID string, _ int64, _ alerts.Content) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := fmt.Sprintf("rem-%d", s.seq)
	s.armed[id] = leadID
	return id, nil
}

func (s *stubEngine) Cancel(reminderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.armed, reminderID)
	return nil
}

func (s *stubEngine) ListScheduled() ([]alerts.Scheduled, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []alerts.Scheduled
	for id, leadID := range s.armed {
		out = append(out, alerts.Scheduled{ReminderID: id, LeadID: leadID})
	}
	return out, nil
}

func testConfig() config.Config {
	cfg, _ := config.Load("/nonexistent/config.toml")
	cfg.Vocab.Locations = []string{"Austin", "Dallas"}
	return cfg
}

func newTestService(t *testing.T) (*Service, *memRepo, *stubEngine) {
	t.Helper()
	repo := newMemRepo()
	engine := newStubEngine()
	svc := NewService(nil, repo, alerts.NewService(nil, engine), nil, testConfig())
	return svc, repo, engine
}

const testUser = "user-1"

func TestCreateFromMessage_SchedulesReminder(t *testing.T) {
	svc, _, engine := newTestService(t)

	lead, err := svc.CreateFromMessage(context.Background(), testUser, "call Justin tomorrow 8pm")
	if err != nil {
		t.Fatalf("CreateFromMessage: %v", err)
	}
	assert.Equal(t, "Justin", lead.Name)
	assert.Equal(t, "Call", lead.Category)
	assert.Equal(t, StatusPending, lead.Status)
	assert.NotEmpty(t, lead.NotificationID)

	engine.mu.Lock()
	defer engine.mu.Unlock()
	if got := engine.armed[lead.NotificationID]; got != lead.ID {
		t.Fatalf("reminder armed for %q, want %q", got, lead.ID)
	}
}

func TestCreateFromMessage_EmptyRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.CreateFromMessage(context.Background(), testUser, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestCreate_PastAlertStillLands(t *testing.T) {
	svc, _, engine := newTestService(t)

	lead, err := svc.Create(context.Background(), testUser, CreateParams{
		Name:      "Maria",
		AlertTime: time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	assert.Equal(t, StatusTriggered, lead.Status)
	assert.Empty(t, lead.NotificationID)

	engine.mu.Lock()
	defer engine.mu.Unlock()
	if len(engine.armed) != 0 {
		t.Fatalf("no reminder should be armed for a past alert, got %v", engine.armed)
	}
}

func TestReschedule_KeepsOldReminderOnPastDue(t *testing.T) {
	svc, _, engine := newTestService(t)
	ctx := context.Background()

	lead, err := svc.Create(ctx, testUser, CreateParams{Name: "Maria", AlertTime: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	oldID := lead.NotificationID

	_, err = svc.Reschedule(ctx, testUser, lead.ID, time.Now().Add(-time.Minute))
	if !errors.Is(err, ErrAlertNotFuture) {
		t.Fatalf("expected ErrAlertNotFuture, got %v", err)
	}

	got, _ := svc.Get(ctx, testUser, lead.ID)
	assert.Equal(t, oldID, got.NotificationID, "failed reschedule must not touch the stored reminder")

	engine.mu.Lock()
	defer engine.mu.Unlock()
	if _, ok := engine.armed[oldID]; !ok {
		t.Fatal("old reminder was disarmed by a failed reschedule")
	}
}

func TestReschedule_ReplacesReminder(t *testing.T) {
	svc, _, engine := newTestService(t)
	ctx := context.Background()

	lead, _ := svc.Create(ctx, testUser, CreateParams{Name: "Maria", AlertTime: time.Now().Add(time.Hour)})
	oldID := lead.NotificationID

	newTime := time.Now().Add(2 * time.Hour)
	updated, err := svc.Reschedule(ctx, testUser, lead.ID, newTime)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	assert.NotEqual(t, oldID, updated.NotificationID)
	assert.WithinDuration(t, newTime, updated.AlertTime, time.Second)
	assert.Nil(t, updated.TriggeredAt)

	engine.mu.Lock()
	defer engine.mu.Unlock()
	if _, ok := engine.armed[oldID]; ok {
		t.Fatal("old reminder still armed after reschedule")
	}
	if _, ok := engine.armed[updated.NotificationID]; !ok {
		t.Fatal("new reminder not armed")
	}
}

func TestArchive_DisarmsAndRestoreRearms(t *testing.T) {
	svc, _, engine := newTestService(t)
	ctx := context.Background()

	lead, _ := svc.Create(ctx, testUser, CreateParams{Name: "Maria", AlertTime: time.Now().Add(time.Hour)})

	archived, err := svc.Archive(ctx, testUser, lead.ID)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	assert.Equal(t, StatusArchived, archived.Status)

	engine.mu.Lock()
	armedAfterArchive := len(engine.armed)
	engine.mu.Unlock()
	if armedAfterArchive != 0 {
		t.Fatal("archive left a reminder armed")
	}

	if _, err := svc.Archive(ctx, testUser, lead.ID); !errors.Is(err, ErrAlreadyArchived) {
		t.Fatalf("expected ErrAlreadyArchived, got %v", err)
	}

	restored, err := svc.Restore(ctx, testUser, lead.ID)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	assert.Equal(t, StatusPending, restored.Status)
	assert.NotEmpty(t, restored.NotificationID)

	active, _ := svc.List(ctx, testUser, "", FilterAll)
	assert.Len(t, active, 1)
}

func TestRestore_NotArchived(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	lead, _ := svc.Create(ctx, testUser, CreateParams{Name: "Maria", AlertTime: time.Now().Add(time.Hour)})
	if _, err := svc.Restore(ctx, testUser, lead.ID); !errors.Is(err, ErrNotArchived) {
		t.Fatalf("expected ErrNotArchived, got %v", err)
	}
}

func TestDelete_Disarms(t *testing.T) {
	svc, _, engine := newTestService(t)
	ctx := context.Background()

	lead, _ := svc.Create(ctx, testUser, CreateParams{Name: "Maria", AlertTime: time.Now().Add(time.Hour)})
	if err := svc.Delete(ctx, testUser, lead.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, testUser, lead.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()
	if len(engine.armed) != 0 {
		t.Fatal("delete left a reminder armed")
	}
}

func TestResponses_InsertionOrderAndIndexDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	lead, _ := svc.Create(ctx, testUser, CreateParams{Name: "Maria", AlertTime: time.Now().Add(time.Hour)})
	for _, text := range []string{"first", "second", "third"} {
		if _, err := svc.AddResponse(ctx, testUser, lead.ID, text); err != nil {
			t.Fatalf("AddResponse(%q): %v", text, err)
		}
	}

	got, _ := svc.DeleteResponse(ctx, testUser, lead.ID, 1)
	if len(got.Responses) != 2 || got.Responses[0].Text != "first" || got.Responses[1].Text != "third" {
		t.Fatalf("unexpected responses after delete: %+v", got.Responses)
	}

	if _, err := svc.DeleteResponse(ctx, testUser, lead.ID, 5); !errors.Is(err, ErrResponseIndex) {
		t.Fatalf("expected ErrResponseIndex, got %v", err)
	}
	if _, err := svc.DeleteResponse(ctx, testUser, lead.ID, -1); !errors.Is(err, ErrResponseIndex) {
		t.Fatalf("expected ErrResponseIndex, got %v", err)
	}
}

func TestHandleAlertFired_MarksTriggered(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	lead, _ := svc.Create(ctx, testUser, CreateParams{Name: "Maria", AlertTime: time.Now().Add(time.Hour)})
	svc.HandleAlertFired(lead.ID)

	got, err := repo.GetByID(ctx, lead.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.TriggeredAt == nil {
		t.Fatal("lead not marked triggered")
	}
}

func TestBootstrap_RearmsFutureMarksOverdue(t *testing.T) {
	svc, repo, engine := newTestService(t)
	ctx := context.Background()

	future, _ := repo.Create(ctx, Lead{UserID: testUser, Name: "Future", AlertTime: time.Now().Add(time.Hour)})
	overdue, _ := repo.Create(ctx, Lead{UserID: testUser, Name: "Overdue", AlertTime: time.Now().Add(-time.Hour)})

	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	engine.mu.Lock()
	armed := make(map[string]string, len(engine.armed))
	for k, v := range engine.armed {
		armed[k] = v
	}
	engine.mu.Unlock()

	if len(armed) != 1 {
		t.Fatalf("expected 1 rearmed reminder, got %d", len(armed))
	}
	for _, leadID := range armed {
		assert.Equal(t, future.ID, leadID)
	}

	got, _ := repo.GetByID(ctx, overdue.ID)
	if got.TriggeredAt == nil {
		t.Fatal("overdue lead not marked triggered")
	}
}

func TestList_FilterAndOrder(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	now := time.Now()
	repo.Create(ctx, Lead{UserID: testUser, Name: "Late", AlertTime: now.Add(3 * time.Hour)})
	repo.Create(ctx, Lead{UserID: testUser, Name: "Early", AlertTime: now.Add(time.Hour)})
	repo.Create(ctx, Lead{UserID: testUser, Name: "Done", AlertTime: now.Add(-time.Hour)})
	repo.Create(ctx, Lead{UserID: "someone-else", Name: "Other", AlertTime: now.Add(time.Hour)})

	all, err := svc.List(ctx, testUser, "", FilterAll)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 leads, got %d", len(all))
	}
	assert.Equal(t, "Done", all[0].Name, "soonest alert first")
	assert.Equal(t, "Late", all[2].Name)

	pending, _ := svc.List(ctx, testUser, "", FilterPending)
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending leads, got %d", len(pending))
	}
	triggered, _ := svc.List(ctx, testUser, "", FilterTriggered)
	if len(triggered) != 1 || triggered[0].Name != "Done" {
		t.Fatalf("unexpected triggered set: %+v", triggered)
	}
	byName, _ := svc.List(ctx, testUser, "early", FilterAll)
	if len(byName) != 1 || byName[0].Name != "Early" {
		t.Fatalf("unexpected query result: %+v", byName)
	}
}

package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dhruv200010/rentmanager/internal/db"
)

// ErrNotFound is returned when a lead does not exist or belongs to another user.
var ErrNotFound = errors.New("lead not found")

// PgRepository is the Postgres-backed lead store.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a lead repository on pool.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const leadColumns = `id, user_id, name, contact_no, category, source, location,
	alert_time, notification_id, responses, photo, triggered_at, archived_at,
	created_at, updated_at`

type leadRow struct {
	ID             pgtype.UUID
	UserID         pgtype.UUID
	Name           string
	ContactNo      pgtype.Text
	Category       string
	Source         pgtype.Text
	Location       pgtype.Text
	AlertTime      pgtype.Timestamptz
	NotificationID pgtype.Text
	Responses      []byte
	Photo          pgtype.Text
	TriggeredAt    pgtype.Timestamptz
	ArchivedAt     pgtype.Timestamptz
	CreatedAt      pgtype.Timestamptz
	UpdatedAt      pgtype.Timestamptz
}

func scanLead(row pgx.Row) (leadRow, error) {
	var r leadRow
	err := row.Scan(&r.ID, &r.UserID, &r.Name, &r.ContactNo, &r.Category, &r.Source,
		&r.Location, &r.AlertTime, &r.NotificationID, &r.Responses, &r.Photo,
		&r.TriggeredAt, &r.ArchivedAt, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func toLead(r leadRow) (Lead, error) {
	responses := []Response{}
	if len(r.Responses) > 0 {
		if err := json.Unmarshal(r.Responses, &responses); err != nil {
			return Lead{}, fmt.Errorf("decode responses: %w", err)
		}
	}
	return Lead{
		ID:             db.UUIDToString(r.ID),
		UserID:         db.UUIDToString(r.UserID),
		Name:           r.Name,
		ContactNo:      db.TextToString(r.ContactNo),
		Category:       r.Category,
		Source:         db.TextToString(r.Source),
		Location:       db.TextToString(r.Location),
		AlertTime:      db.TimeFromPg(r.AlertTime),
		NotificationID: db.TextToString(r.NotificationID),
		Responses:      responses,
		Photo:          db.TextToString(r.Photo),
		TriggeredAt:    db.TimePtrFromPg(r.TriggeredAt),
		ArchivedAt:     db.TimePtrFromPg(r.ArchivedAt),
		CreatedAt:      db.TimeFromPg(r.CreatedAt),
		UpdatedAt:      db.TimeFromPg(r.UpdatedAt),
	}, nil
}

// Create inserts a lead and returns the stored row.
func (p *PgRepository) Create(ctx context.Context, lead Lead) (Lead, error) {
	userID, err := db.ParseUUID(lead.UserID)
	if err != nil {
		return Lead{}, err
	}
	responses := lead.Responses
	if responses == nil {
		responses = []Response{}
	}
	encoded, err := json.Marshal(responses)
	if err != nil {
		return Lead{}, err
	}
	row, err := scanLead(p.pool.QueryRow(ctx,
		`INSERT INTO leads (user_id, name, contact_no, category, source, location,
			alert_time, notification_id, responses, photo)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+leadColumns,
		userID, lead.Name, db.TextFromString(lead.ContactNo), lead.Category,
		db.TextFromString(lead.Source), db.TextFromString(lead.Location),
		lead.AlertTime, db.TextFromString(lead.NotificationID), encoded,
		db.TextFromString(lead.Photo)))
	if err != nil {
		return Lead{}, err
	}
	return toLead(row)
}

// Get fetches one lead owned by userID.
func (p *PgRepository) Get(ctx context.Context, userID, id string) (Lead, error) {
	pgUser, err := db.ParseUUID(userID)
	if err != nil {
		return Lead{}, err
	}
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return Lead{}, ErrNotFound
	}
	row, err := scanLead(p.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1 AND user_id = $2`, pgID, pgUser))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}
	return toLead(row)
}

// GetByID fetches one lead by id alone.
func (p *PgRepository) GetByID(ctx context.Context, id string) (Lead, error) {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return Lead{}, ErrNotFound
	}
	row, err := scanLead(p.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`, pgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}
	return toLead(row)
}

// Update applies the non-nil fields of params.
func (p *PgRepository) Update(ctx context.Context, userID, id string, params UpdateParams) (Lead, error) {
	current, err := p.Get(ctx, userID, id)
	if err != nil {
		return Lead{}, err
	}
	if params.Name != nil {
		current.Name = *params.Name
	}
	if params.ContactNo != nil {
		current.ContactNo = *params.ContactNo
	}
	if params.Category != nil {
		current.Category = *params.Category
	}
	if params.Source != nil {
		current.Source = *params.Source
	}
	if params.Location != nil {
		current.Location = *params.Location
	}
	if params.Photo != nil {
		current.Photo = *params.Photo
	}

	pgID, _ := db.ParseUUID(id)
	row, err := scanLead(p.pool.QueryRow(ctx,
		`UPDATE leads SET name = $2, contact_no = $3, category = $4, source = $5,
			location = $6, photo = $7, updated_at = now()
		 WHERE id = $1
		 RETURNING `+leadColumns,
		pgID, current.Name, db.TextFromString(current.ContactNo), current.Category,
		db.TextFromString(current.Source), db.TextFromString(current.Location),
		db.TextFromString(current.Photo)))
	if err != nil {
		return Lead{}, err
	}
	return toLead(row)
}

// Delete removes one lead owned by userID.
func (p *PgRepository) Delete(ctx context.Context, userID, id string) error {
	pgUser, err := db.ParseUUID(userID)
	if err != nil {
		return err
	}
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM leads WHERE id = $1 AND user_id = $2`, pgID, pgUser)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAlert stores the fire time and reminder id in one statement. Setting a
// new alert clears any previous triggered mark.
func (p *PgRepository) SetAlert(ctx context.Context, id string, alertTime time.Time, notificationID string) error {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE leads SET alert_time = $2, notification_id = $3, triggered_at = NULL,
			updated_at = now()
		 WHERE id = $1`,
		pgID, alertTime, db.TextFromString(notificationID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTriggered records when the reminder fired.
func (p *PgRepository) SetTriggered(ctx context.Context, id string, at time.Time) error {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE leads SET triggered_at = $2, updated_at = now() WHERE id = $1`, pgID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetArchived moves a lead in or out of the archive. Archiving clears the
// stored reminder id since its reminder is cancelled alongside.
func (p *PgRepository) SetArchived(ctx context.Context, userID, id string, archived bool) error {
	pgUser, err := db.ParseUUID(userID)
	if err != nil {
		return err
	}
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return ErrNotFound
	}
	query := `UPDATE leads SET archived_at = now(), notification_id = NULL, updated_at = now()
		 WHERE id = $1 AND user_id = $2`
	if !archived {
		query = `UPDATE leads SET archived_at = NULL, updated_at = now()
		 WHERE id = $1 AND user_id = $2`
	}
	tag, err := p.pool.Exec(ctx, query, pgID, pgUser)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetResponses replaces the full response log, preserving insertion order.
func (p *PgRepository) SetResponses(ctx context.Context, userID, id string, responses []Response) error {
	pgUser, err := db.ParseUUID(userID)
	if err != nil {
		return err
	}
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return ErrNotFound
	}
	if responses == nil {
		responses = []Response{}
	}
	encoded, err := json.Marshal(responses)
	if err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE leads SET responses = $3, updated_at = now()
		 WHERE id = $1 AND user_id = $2`, pgID, pgUser, encoded)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PgRepository) list(ctx context.Context, query string, args ...any) ([]Lead, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		r, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		lead, err := toLead(r)
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	return out, rows.Err()
}

// ListActive returns the user's unarchived leads, soonest alert first.
func (p *PgRepository) ListActive(ctx context.Context, userID string) ([]Lead, error) {
	pgUser, err := db.ParseUUID(userID)
	if err != nil {
		return nil, err
	}
	return p.list(ctx,
		`SELECT `+leadColumns+` FROM leads
		 WHERE user_id = $1 AND archived_at IS NULL
		 ORDER BY alert_time ASC`, pgUser)
}

// ListArchived returns the user's archived leads, most recent alert first.
func (p *PgRepository) ListArchived(ctx context.Context, userID string) ([]Lead, error) {
	pgUser, err := db.ParseUUID(userID)
	if err != nil {
		return nil, err
	}
	return p.list(ctx,
		`SELECT `+leadColumns+` FROM leads
		 WHERE user_id = $1 AND archived_at IS NOT NULL
		 ORDER BY alert_time DESC`, pgUser)
}

// ListAllPending returns every lead still waiting on its reminder, across users.
func (p *PgRepository) ListAllPending(ctx context.Context) ([]Lead, error) {
	return p.list(ctx,
		`SELECT `+leadColumns+` FROM leads
		 WHERE archived_at IS NULL AND triggered_at IS NULL
		 ORDER BY alert_time ASC`)
}

package properties

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dhruv200010/rentmanager/internal/db"
)

// Errors returned by property operations.
var (
	ErrPropertyNotFound = errors.New("property not found")
	ErrRoomNotFound     = errors.New("room not found")
	ErrInvalidStatus    = errors.New("invalid room status")
)

// Service provides property and room management backed by Postgres.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService creates a new properties service.
func NewService(log *slog.Logger, pool *pgxpool.Pool) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:   pool,
		logger: log.With(slog.String("service", "properties")),
	}
}

const propertyColumns = `id, user_id, name, address, notes, created_at, updated_at`
const roomColumns = `id, property_id, number, room_type, tenant, status, occupied_until, created_at, updated_at`

type propertyRow struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	Name      string
	Address   pgtype.Text
	Notes     pgtype.Text
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type roomRow struct {
	ID            pgtype.UUID
	PropertyID    pgtype.UUID
	Number        string
	RoomType      pgtype.Text
	Tenant        pgtype.Text
	Status        string
	OccupiedUntil pgtype.Timestamptz
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

func scanProperty(row pgx.Row) (propertyRow, error) {
	var r propertyRow
	err := row.Scan(&r.ID, &r.UserID, &r.Name, &r.Address, &r.Notes, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func scanRoom(row pgx.Row) (roomRow, error) {
	var r roomRow
	err := row.Scan(&r.ID, &r.PropertyID, &r.Number, &r.RoomType, &r.Tenant, &r.Status,
		&r.OccupiedUntil, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func toProperty(r propertyRow) Property {
	return Property{
		ID:        db.UUIDToString(r.ID),
		UserID:    db.UUIDToString(r.UserID),
		Name:      r.Name,
		Address:   db.TextToString(r.Address),
		Notes:     db.TextToString(r.Notes),
		CreatedAt: db.TimeFromPg(r.CreatedAt),
		UpdatedAt: db.TimeFromPg(r.UpdatedAt),
	}
}

func toRoom(r roomRow) Room {
	return Room{
		ID:            db.UUIDToString(r.ID),
		PropertyID:    db.UUIDToString(r.PropertyID),
		Number:        r.Number,
		RoomType:      db.TextToString(r.RoomType),
		Tenant:        db.TextToString(r.Tenant),
		Status:        r.Status,
		OccupiedUntil: db.TimePtrFromPg(r.OccupiedUntil),
		CreatedAt:     db.TimeFromPg(r.CreatedAt),
		UpdatedAt:     db.TimeFromPg(r.UpdatedAt),
	}
}

// CreateProperty stores a new property for userID.
func (s *Service) CreateProperty(ctx context.Context, userID string, params PropertyParams) (Property, error) {
	if strings.TrimSpace(params.Name) == "" {
		return Property{}, errors.New("property name is required")
	}
	pgUser, err := db.ParseUUID(userID)
	if err != nil {
		return Property{}, err
	}
	row, err := scanProperty(s.pool.QueryRow(ctx,
		`INSERT INTO properties (user_id, name, address, notes)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+propertyColumns,
		pgUser, params.Name, db.TextFromString(params.Address), db.TextFromString(params.Notes)))
	if err != nil {
		return Property{}, err
	}
	return toProperty(row), nil
}

// GetProperty returns one property with its rooms.
func (s *Service) GetProperty(ctx context.Context, userID, id string) (Property, error) {
	pgUser, err := db.ParseUUID(userID)
	if err != nil {
		return Property{}, err
	}
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return Property{}, ErrPropertyNotFound
	}
	row, err := scanProperty(s.pool.QueryRow(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = $1 AND user_id = $2`, pgID, pgUser))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Property{}, ErrPropertyNotFound
		}
		return Property{}, err
	}
	property := toProperty(row)
	rooms, err := s.listRooms(ctx, pgID)
	if err != nil {
		return Property{}, err
	}
	property.Rooms = rooms
	return property, nil
}

// ListProperties returns the user's properties with rooms attached.
func (s *Service) ListProperties(ctx context.Context, userID string) ([]Property, error) {
	pgUser, err := db.ParseUUID(userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE user_id = $1 ORDER BY name ASC`, pgUser)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Property
	for rows.Next() {
		r, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, toProperty(r))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		pgID, _ := db.ParseUUID(out[i].ID)
		rooms, err := s.listRooms(ctx, pgID)
		if err != nil {
			return nil, err
		}
		out[i].Rooms = rooms
	}
	return out, nil
}

// UpdateProperty edits a property's descriptive fields.
func (s *Service) UpdateProperty(ctx context.Context, userID, id string, params PropertyParams) (Property, error) {
	if strings.TrimSpace(params.Name) == "" {
		return Property{}, errors.New("property name is required")
	}
	pgUser, err := db.ParseUUID(userID)
	if err != nil {
		return Property{}, err
	}
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return Property{}, ErrPropertyNotFound
	}
	row, err := scanProperty(s.pool.QueryRow(ctx,
		`UPDATE properties SET name = $3, address = $4, notes = $5, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+propertyColumns,
		pgID, pgUser, params.Name, db.TextFromString(params.Address), db.TextFromString(params.Notes)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Property{}, ErrPropertyNotFound
		}
		return Property{}, err
	}
	return toProperty(row), nil
}

// DeleteProperty removes a property and, via cascade, its rooms.
func (s *Service) DeleteProperty(ctx context.Context, userID, id string) error {
	pgUser, err := db.ParseUUID(userID)
	if err != nil {
		return err
	}
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return ErrPropertyNotFound
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM properties WHERE id = $1 AND user_id = $2`, pgID, pgUser)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPropertyNotFound
	}
	return nil
}

func (s *Service) listRooms(ctx context.Context, propertyID pgtype.UUID) ([]Room, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE property_id = $1 ORDER BY number ASC`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Room{}
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, toRoom(r))
	}
	return out, rows.Err()
}

// ownsProperty verifies the property belongs to the user.
func (s *Service) ownsProperty(ctx context.Context, pgUser, pgProperty pgtype.UUID) error {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM properties WHERE id = $1 AND user_id = $2`, pgProperty, pgUser).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPropertyNotFound
	}
	return err
}

// AddRoom creates a room under a property the user owns.
func (s *Service) AddRoom(ctx context.Context, userID, propertyID string, params RoomParams) (Room, error) {
	if strings.TrimSpace(params.Number) == "" {
		return Room{}, errors.New("room number is required")
	}
	pgUser, err := db.ParseUUID(userID)
	if err != nil {
		return Room{}, err
	}
	pgProperty, err := db.ParseUUID(propertyID)
	if err != nil {
		return Room{}, ErrPropertyNotFound
	}
	if err := s.ownsProperty(ctx, pgUser, pgProperty); err != nil {
		return Room{}, err
	}
	status := RoomVacant
	if strings.TrimSpace(params.Tenant) != "" {
		status = RoomOccupied
	}
	row, err := scanRoom(s.pool.QueryRow(ctx,
		`INSERT INTO rooms (property_id, number, room_type, tenant, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+roomColumns,
		pgProperty, params.Number, db.TextFromString(params.RoomType),
		db.TextFromString(params.Tenant), status))
	if err != nil {
		return Room{}, err
	}
	return toRoom(row), nil
}

// UpdateRoom edits a room's descriptive fields.
func (s *Service) UpdateRoom(ctx context.Context, userID, propertyID, roomID string, params RoomParams) (Room, error) {
	pgUser, err := db.ParseUUID(userID)
	if err != nil {
		return Room{}, err
	}
	pgProperty, err := db.ParseUUID(propertyID)
	if err != nil {
		return Room{}, ErrPropertyNotFound
	}
	if err := s.ownsProperty(ctx, pgUser, pgProperty); err != nil {
		return Room{}, err
	}
	pgRoom, err := db.ParseUUID(roomID)
	if err != nil {
		return Room{}, ErrRoomNotFound
	}
	row, err := scanRoom(s.pool.QueryRow(ctx,
		`UPDATE rooms SET number = $3, room_type = $4, tenant = $5, updated_at = now()
		 WHERE id = $1 AND property_id = $2
		 RETURNING `+roomColumns,
		pgRoom, pgProperty, params.Number, db.TextFromString(params.RoomType),
		db.TextFromString(params.Tenant)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Room{}, ErrRoomNotFound
		}
		return Room{}, err
	}
	return toRoom(row), nil
}

// SetRoomStatus flips a room between vacant and occupied. OccupiedUntil is
// stored only for occupied rooms; marking vacant clears tenant and date.
func (s *Service) SetRoomStatus(ctx context.Context, userID, propertyID, roomID string, params StatusParams) (Room, error) {
	status := strings.ToLower(strings.TrimSpace(params.Status))
	if status != RoomVacant && status != RoomOccupied {
		return Room{}, ErrInvalidStatus
	}
	pgUser, err := db.ParseUUID(userID)
	if err != nil {
		return Room{}, err
	}
	pgProperty, err := db.ParseUUID(propertyID)
	if err != nil {
		return Room{}, ErrPropertyNotFound
	}
	if err := s.ownsProperty(ctx, pgUser, pgProperty); err != nil {
		return Room{}, err
	}
	pgRoom, err := db.ParseUUID(roomID)
	if err != nil {
		return Room{}, ErrRoomNotFound
	}

	tenant := params.Tenant
	var until *time.Time
	if status == RoomOccupied {
		until = params.OccupiedUntil
	} else {
		tenant = ""
	}
	row, err := scanRoom(s.pool.QueryRow(ctx,
		`UPDATE rooms SET status = $3, tenant = $4, occupied_until = $5, updated_at = now()
		 WHERE id = $1 AND property_id = $2
		 RETURNING `+roomColumns,
		pgRoom, pgProperty, status, db.TextFromString(tenant), until))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Room{}, ErrRoomNotFound
		}
		return Room{}, err
	}
	return toRoom(row), nil
}

// DeleteRoom removes one room.
func (s *Service) DeleteRoom(ctx context.Context, userID, propertyID, roomID string) error {
	pgUser, err := db.ParseUUID(userID)
	if err != nil {
		return err
	}
	pgProperty, err := db.ParseUUID(propertyID)
	if err != nil {
		return ErrPropertyNotFound
	}
	if err := s.ownsProperty(ctx, pgUser, pgProperty); err != nil {
		return err
	}
	pgRoom, err := db.ParseUUID(roomID)
	if err != nil {
		return ErrRoomNotFound
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM rooms WHERE id = $1 AND property_id = $2`, pgRoom, pgProperty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// VacancySummary returns per-property room counts for the user.
func (s *Service) VacancySummary(ctx context.Context, userID string) ([]Summary, error) {
	pgUser, err := db.ParseUUID(userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.name,
			COUNT(r.id),
			COUNT(r.id) FILTER (WHERE r.status = 'vacant'),
			COUNT(r.id) FILTER (WHERE r.status = 'occupied')
		 FROM properties p
		 LEFT JOIN rooms r ON r.property_id = p.id
		 WHERE p.user_id = $1
		 GROUP BY p.id, p.name
		 ORDER BY p.name ASC`, pgUser)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			id                      pgtype.UUID
			name                    string
			total, vacant, occupied int64
		)
		if err := rows.Scan(&id, &name, &total, &vacant, &occupied); err != nil {
			return nil, err
		}
		out = append(out, Summary{
			PropertyID:   db.UUIDToString(id),
			PropertyName: name,
			TotalRooms:   int(total),
			Vacant:       int(vacant),
			Occupied:     int(occupied),
		})
	}
	return out, rows.Err()
}

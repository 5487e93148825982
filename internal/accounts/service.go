// Package accounts provides user account and credential management.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/dhruv200010/rentmanager/internal/config"
	"github.com/dhruv200010/rentmanager/internal/db"
)

// Errors returned by account operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("account is inactive")
)

// Service provides account (credential) management for users.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService creates a new accounts service.
func NewService(log *slog.Logger, pool *pgxpool.Pool) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:   pool,
		logger: log.With(slog.String("service", "accounts")),
	}
}

const accountColumns = `id, username, email, password_hash, role, display_name, is_active, last_login_at, created_at, updated_at`

type accountRow struct {
	ID           pgtype.UUID
	Username     string
	Email        pgtype.Text
	PasswordHash string
	Role         string
	DisplayName  pgtype.Text
	IsActive     bool
	LastLoginAt  pgtype.Timestamptz
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

func (s *Service) scanAccount(row pgx.Row) (accountRow, error) {
	var r accountRow
	err := row.Scan(&r.ID, &r.Username, &r.Email, &r.PasswordHash, &r.Role, &r.DisplayName,
		&r.IsActive, &r.LastLoginAt, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// Get returns an account by user id.
func (s *Service) Get(ctx context.Context, userID string) (Account, error) {
	if s.pool == nil {
		return Account{}, errors.New("accounts pool not configured")
	}
	pgID, err := db.ParseUUID(userID)
	if err != nil {
		return Account{}, err
	}
	row, err := s.scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM users WHERE id = $1`, pgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, fmt.Errorf("account not found")
		}
		return Account{}, err
	}
	return toAccount(row), nil
}

// Login authenticates by username and password.
func (s *Service) Login(ctx context.Context, username, password string) (Account, error) {
	if s.pool == nil {
		return Account{}, errors.New("accounts pool not configured")
	}
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return Account{}, ErrInvalidCredentials
	}
	row, err := s.scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, err
	}
	if !row.IsActive {
		return Account{}, ErrInactiveAccount
	}
	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	if _, err := s.pool.Exec(ctx,
		`UPDATE users SET last_login_at = now() WHERE id = $1`, row.ID); err != nil {
		s.logger.Warn("touch last login failed", slog.Any("error", err))
	}
	return toAccount(row), nil
}

// Create creates a new account.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Account, error) {
	if s.pool == nil {
		return Account{}, errors.New("accounts pool not configured")
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return Account{}, errors.New("username is required")
	}
	password := strings.TrimSpace(req.Password)
	if password == "" {
		return Account{}, errors.New("password is required")
	}
	role, err := normalizeRole(req.Role)
	if err != nil {
		return Account{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = username
	}

	row, err := s.scanAccount(s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, role, display_name, is_active)
		 VALUES ($1, $2, $3, $4, $5, true)
		 RETURNING `+accountColumns,
		username, db.TextFromString(req.Email), string(hashed), role, db.TextFromString(displayName)))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Account{}, fmt.Errorf("username already taken: %s", username)
		}
		return Account{}, err
	}
	return toAccount(row), nil
}

// EnsureAdmin creates the initial admin account from config when the users table is empty.
func (s *Service) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if s.pool == nil {
		return errors.New("accounts pool not configured")
	}
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	username := strings.TrimSpace(cfg.Username)
	password := strings.TrimSpace(cfg.Password)
	if username == "" || password == "" {
		return errors.New("admin username/password required in config.toml")
	}
	if password == "change-your-password-here" {
		s.logger.Warn("admin password uses default placeholder; please update config.toml")
	}

	_, err := s.Create(ctx, CreateRequest{
		Username: username,
		Password: password,
		Email:    cfg.Email,
		Role:     "admin",
	})
	if err != nil {
		return err
	}
	s.logger.Info("admin account created", slog.String("username", username))
	return nil
}

func normalizeRole(raw string) (string, error) {
	role := strings.ToLower(strings.TrimSpace(raw))
	if role == "" {
		return "member", nil
	}
	if role != "member" && role != "admin" {
		return "", fmt.Errorf("invalid role: %s", raw)
	}
	return role, nil
}

func toAccount(row accountRow) Account {
	displayName := db.TextToString(row.DisplayName)
	if displayName == "" {
		displayName = row.Username
	}
	return Account{
		ID:          db.UUIDToString(row.ID),
		Username:    row.Username,
		Email:       db.TextToString(row.Email),
		Role:        row.Role,
		DisplayName: displayName,
		IsActive:    row.IsActive,
		CreatedAt:   db.TimeFromPg(row.CreatedAt),
		UpdatedAt:   db.TimeFromPg(row.UpdatedAt),
		LastLoginAt: db.TimeFromPg(row.LastLoginAt),
	}
}

package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session id has no stored row.
var ErrSessionNotFound = errors.New("chat session not found")

type Repository interface {
	Create(ctx context.Context, profile []ProfileEntry, reports []SessionReport) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	// Delete hard-deletes the session and reports whether a row existed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Create(ctx context.Context, profile []ProfileEntry, reports []SessionReport) (uuid.UUID, error) {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal profile data: %w", err)
	}
	reportsJSON, err := json.Marshal(reports)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal reports: %w", err)
	}

	id := uuid.New()
	query := `INSERT INTO chat_sessions (id, profile_data, reports, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, id, profileJSON, reportsJSON, time.Now()); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *postgresRepo) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	query := `SELECT id, profile_data, reports, created_at FROM chat_sessions WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var s Session
	var profileJSON, reportsJSON []byte
	err := row.Scan(&s.ID, &profileJSON, &reportsJSON, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if len(profileJSON) > 0 {
		if err := json.Unmarshal(profileJSON, &s.ProfileData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal profile data: %w", err)
		}
	}
	if len(reportsJSON) > 0 {
		if err := json.Unmarshal(reportsJSON, &s.Reports); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reports: %w", err)
		}
	}
	return &s, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

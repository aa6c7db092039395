// Package sqlite reads the learning platform's database through the
// pipeline's narrow collaborator contracts. The adapter only issues
// SELECTs: the platform owns these tables, the pipeline never writes.
//
// Expected schema (created by the platform, not by this adapter):
//
//	content_units(id, title, body, module_path, difficulty, published, created_at)
//	user_progress(user_id, unit_id, status)
//	enrollments(user_id, unit_id, active)
//	users(id, active)
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driven"
)

// Ensure Store implements both collaborator contracts.
var (
	_ driven.ContentStore  = (*Store)(nil)
	_ driven.ProgressStore = (*Store)(nil)
)

// Store reads content units and user progress from the platform database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens the platform database at the given path.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: platform database path is required",
			domain.ErrInvalidConfiguration)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening platform database: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ListPublishedUnits returns published units in creation order.
func (s *Store) ListPublishedUnits(ctx context.Context) ([]domain.ContentUnit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, body, module_path, difficulty, published, created_at
		FROM content_units
		WHERE published = 1
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list published units: %w", err)
	}
	defer rows.Close()

	var units []domain.ContentUnit
	for rows.Next() {
		unit, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, *unit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate units: %w", err)
	}
	return units, nil
}

// GetUnit returns one unit by ID, or domain.ErrNotFound.
func (s *Store) GetUnit(ctx context.Context, id string) (*domain.ContentUnit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, body, module_path, difficulty, published, created_at
		FROM content_units
		WHERE id = ?`, id)

	var (
		unit      domain.ContentUnit
		diff      string
		published int
		createdAt string
	)
	err := row.Scan(&unit.ID, &unit.Title, &unit.Body, &unit.ModulePath,
		&diff, &published, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get unit %s: %w", id, err)
	}

	unit.Difficulty = domain.Difficulty(diff)
	unit.Published = published == 1
	unit.CreatedAt = parseTimestamp(createdAt)
	return &unit, nil
}

// CompletedUnitIDs returns the IDs of units the user has completed.
func (s *Store) CompletedUnitIDs(ctx context.Context, userID string) (map[string]bool, error) {
	return s.idSet(ctx, `
		SELECT unit_id FROM user_progress
		WHERE user_id = ? AND status = 'completed'`, userID)
}

// EnrolledUnitIDs returns the IDs of units the user is enrolled in.
func (s *Store) EnrolledUnitIDs(ctx context.Context, userID string) (map[string]bool, error) {
	return s.idSet(ctx, `
		SELECT unit_id FROM enrollments
		WHERE user_id = ? AND active = 1`, userID)
}

// ActiveUserIDs returns the IDs of active platform users.
func (s *Store) ActiveUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM users WHERE active = 1 ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return ids, nil
}

// idSet runs a one-column query and collects the results as a set.
func (s *Store) idSet(ctx context.Context, query, userID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan unit id: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress: %w", err)
	}
	return ids, nil
}

// scanUnit reads one content unit row.
func scanUnit(rows *sql.Rows) (*domain.ContentUnit, error) {
	var (
		unit      domain.ContentUnit
		diff      string
		published int
		createdAt string
	)
	if err := rows.Scan(&unit.ID, &unit.Title, &unit.Body, &unit.ModulePath,
		&diff, &published, &createdAt); err != nil {
		return nil, fmt.Errorf("scan unit: %w", err)
	}
	unit.Difficulty = domain.Difficulty(diff)
	unit.Published = published == 1
	unit.CreatedAt = parseTimestamp(createdAt)
	return &unit, nil
}

// parseTimestamp accepts the timestamp formats the platform writes.
func parseTimestamp(val string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if at, err := time.Parse(layout, val); err == nil {
			return at
		}
	}
	return time.Time{}
}

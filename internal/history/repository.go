package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/actioncore/internal/action"
)

const (
	defaultLimit = 50
	maxLimit     = 1000

	// timeLayout has a fixed width so completed_at sorts as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Repository persists completion history.
type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
	ListByType(ctx context.Context, typ string, limit int) ([]Entry, error)
	Get(ctx context.Context, id string) (*Entry, error)
}

const entryColumns = `id, robot_id, tag, parent_tag, name, type, state, failure, duration_ns, completed_at`

// SQLiteRepository implements Repository on the action_completions table.
type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository creates a repository on an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Insert stores e.
func (r *SQLiteRepository) Insert(ctx context.Context, e *Entry) error {
	query := `INSERT INTO action_completions (` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.RobotID,
		int64(e.Tag),
		int64(e.Parent),
		e.Name,
		e.Type,
		e.State,
		e.Failure,
		int64(e.Duration),
		e.CompletedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting completion: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM action_completions
		ORDER BY completed_at DESC, rowid DESC
		LIMIT ?`
	return r.query(ctx, query, clampLimit(limit))
}

// ListByType returns the most recent entries of one action type.
func (r *SQLiteRepository) ListByType(ctx context.Context, typ string, limit int) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM action_completions
		WHERE type = ?
		ORDER BY completed_at DESC, rowid DESC
		LIMIT ?`
	return r.query(ctx, query, typ, clampLimit(limit))
}

// Get returns one entry by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM action_completions WHERE id = ?`
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("querying completion: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying completions: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning completion: %w", scanErr)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating completions: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(scanner rowScanner) (*Entry, error) {
	var e Entry
	var tag, parent, duration int64
	var completedAt string

	err := scanner.Scan(
		&e.ID,
		&e.RobotID,
		&tag,
		&parent,
		&e.Name,
		&e.Type,
		&e.State,
		&e.Failure,
		&duration,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Tag = action.Tag(tag)       //nolint:gosec // stored from a uint32
	e.Parent = action.Tag(parent) //nolint:gosec // stored from a uint32
	e.Duration = time.Duration(duration)
	if t, parseErr := time.Parse(timeLayout, completedAt); parseErr == nil {
		e.CompletedAt = t
	}
	return &e, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return min(limit, maxLimit)
}

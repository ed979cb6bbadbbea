package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/branchline/todotree/internal/models"
)

// TodoRepository handles todo rows in Postgres.
type TodoRepository struct {
	db *DB
}

// NewTodoRepository creates a new todo repository.
func NewTodoRepository(db *DB) *TodoRepository {
	return &TodoRepository{db: db}
}

// Create inserts a new todo and fills in its assigned id and timestamps.
// A race on the top-level title index surfaces as ErrDuplicate.
func (r *TodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	query := `
		INSERT INTO todos (user_id, parent_id, title, description, checked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id, created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		todo.UserID,
		todo.ParentID,
		todo.Title,
		todo.Description,
		todo.Checked,
		now,
	).Scan(&todo.ID, &todo.CreatedAt, &todo.UpdatedAt)

	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create todo: %w", err)
	}

	return nil
}

// GetByID retrieves one todo owned by the given user. A todo owned by a
// different user is reported as ErrNotFound, never as a distinct
// authorization failure.
func (r *TodoRepository) GetByID(ctx context.Context, userID, id int64) (*models.Todo, error) {
	query := `
		SELECT id, user_id, parent_id, title, description, checked, created_at, updated_at
		FROM todos
		WHERE id = $1 AND user_id = $2
	`

	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get todo: %w", err)
	}
	return todo, nil
}

// GetByUserID retrieves every todo owned by the user, ordered by id so
// repeated loads of an unchanged forest traverse identically.
func (r *TodoRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Todo, error) {
	query := `
		SELECT id, user_id, parent_id, title, description, checked, created_at, updated_at
		FROM todos
		WHERE user_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	var todos []*models.Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}

	return todos, nil
}

// TopLevelTitleExists reports whether the user already has a parentless
// todo with this title.
func (r *TodoRepository) TopLevelTitleExists(ctx context.Context, userID int64, title string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM todos
			WHERE user_id = $1 AND title = $2 AND parent_id IS NULL
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, title).Scan(&exists); err != nil {
		return false, fmt.Errorf("check title uniqueness: %w", err)
	}
	return exists, nil
}

// Update persists the todo's mutable fields.
func (r *TodoRepository) Update(ctx context.Context, todo *models.Todo) error {
	query := `
		UPDATE todos
		SET parent_id = $3, title = $4, description = $5, checked = $6, updated_at = $7
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		todo.ID,
		todo.UserID,
		todo.ParentID,
		todo.Title,
		todo.Description,
		todo.Checked,
		time.Now(),
	).Scan(&todo.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}

	return nil
}

// SetChecked bulk-updates the checked flag on a set of the user's todos.
// Used to persist a whole-subtree cascade in one statement.
func (r *TodoRepository) SetChecked(ctx context.Context, userID int64, ids []int64, checked bool) error {
	if len(ids) == 0 {
		return nil
	}
	query := `
		UPDATE todos
		SET checked = $3, updated_at = $4
		WHERE user_id = $1 AND id = ANY($2)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, pq.Array(ids), checked, time.Now()); err != nil {
		return fmt.Errorf("set checked: %w", err)
	}
	return nil
}

// DeleteByIDs removes a previously collected id set (a node plus its
// descendants) in one transactional bulk delete, so a subtree is never
// left half-removed.
func (r *TodoRepository) DeleteByIDs(ctx context.Context, userID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `DELETE FROM todos WHERE user_id = $1 AND id = ANY($2)`
	result, err := tx.ExecContext(ctx, query, userID, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("delete todos: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete todos rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// scanTodo scans one todo row from either a *sql.Row or *sql.Rows.
func scanTodo(row interface{ Scan(...any) error }) (*models.Todo, error) {
	todo := &models.Todo{}
	var parentID sql.NullInt64
	var description sql.NullString

	err := row.Scan(
		&todo.ID,
		&todo.UserID,
		&parentID,
		&todo.Title,
		&description,
		&todo.Checked,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		todo.ParentID = &parentID.Int64
	}
	if description.Valid {
		todo.Description = &description.String
	}
	return todo, nil
}

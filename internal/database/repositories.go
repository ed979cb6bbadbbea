package database

import (
	"context"

	"github.com/branchline/todotree/internal/models"
)

// TodoStore is the storage collaborator for todo records. Every lookup and
// mutation is scoped to the owning user; a row belonging to someone else is
// indistinguishable from a missing row (ErrNotFound).
type TodoStore interface {
	Create(ctx context.Context, todo *models.Todo) error
	GetByID(ctx context.Context, userID, id int64) (*models.Todo, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.Todo, error)
	TopLevelTitleExists(ctx context.Context, userID int64, title string) (bool, error)
	Update(ctx context.Context, todo *models.Todo) error
	SetChecked(ctx context.Context, userID int64, ids []int64, checked bool) error
	DeleteByIDs(ctx context.Context, userID int64, ids []int64) error
}

// UserStore is the storage collaborator for user accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByPublicID(ctx context.Context, publicID string) (*models.User, error)
	Delete(ctx context.Context, userID int64) error
}

// Ensure the Postgres repositories implement the interfaces.
var (
	_ TodoStore = (*TodoRepository)(nil)
	_ UserStore = (*UserRepository)(nil)
)

// Package service orchestrates the domain operations. Each operation is an
// atomic unit scoped to one authenticated owner: validate, query, mutate,
// persist. Storage is an injected collaborator; the service holds no state
// across requests.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/branchline/todotree/internal/apperrors"
	"github.com/branchline/todotree/internal/database"
	"github.com/branchline/todotree/internal/models"
	"github.com/branchline/todotree/internal/tree"
)

// TodoService implements the todo mutation protocol over a TodoStore.
type TodoService struct {
	todos  database.TodoStore
	logger *zap.Logger
}

// NewTodoService creates a TodoService.
func NewTodoService(todos database.TodoStore, logger *zap.Logger) *TodoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TodoService{todos: todos, logger: logger}
}

// AddTodoInput carries the fields of an add request. Description and
// ParentID are nil when the caller omitted them.
type AddTodoInput struct {
	Title       string
	Description *string
	ParentID    *int64
}

// EditTodoInput carries a partial update. The *Set flags record whether the
// key appeared in the request at all: an absent key leaves the field
// untouched, a present key with a null value clears it. Collapsing the two
// would break idempotent partial updates, so the distinction is preserved
// all the way from the wire.
type EditTodoInput struct {
	ID             *int64
	IDSet          bool
	Title          *string
	TitleSet       bool
	Description    *string
	DescriptionSet bool
}

// Add validates and creates a todo for the owner. Top-level todos must not
// share a title with another of the owner's top-level todos; children are
// exempt. If a parent is named it must exist and belong to the owner.
func (s *TodoService) Add(ctx context.Context, owner *models.User, in AddTodoInput) (*models.Todo, error) {
	todo, err := models.NewTodo(owner.ID, in.Title, in.Description, in.ParentID)
	if err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		if _, err := s.todos.GetByID(ctx, owner.ID, *in.ParentID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil, apperrors.NewNotFound("Parent todo does not exist")
			}
			return nil, err
		}
	} else {
		exists, err := s.todos.TopLevelTitleExists(ctx, owner.ID, in.Title)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperrors.NewValidation("Your todo title must be unique")
		}
	}

	if err := s.todos.Create(ctx, todo); err != nil {
		// The read-then-insert check above is inherently racy; the partial
		// unique index is the real enforcement point.
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperrors.NewValidation("Your todo title must be unique")
		}
		return nil, err
	}

	s.logger.Debug("todo_added",
		zap.Int64("todo_id", todo.ID),
		zap.Int64("user_id", owner.ID),
	)
	return todo, nil
}

// Get returns one owned todo with its full descendant tree attached.
func (s *TodoService) Get(ctx context.Context, owner *models.User, id int64) (*models.Todo, error) {
	index, _, err := s.loadForest(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	todo, ok := index[id]
	if !ok {
		return nil, notFoundTodo(id)
	}
	return todo, nil
}

// GetAll returns the owner's top-level todos. Children are not expanded at
// this level; they are fetched by requesting the specific parent.
func (s *TodoService) GetAll(ctx context.Context, owner *models.User) ([]*models.Todo, error) {
	_, roots, err := s.loadForest(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	return roots, nil
}

// Edit applies a partial update to an owned todo. A changed title is
// re-validated and re-checked for uniqueness; an unchanged title skips the
// uniqueness check. The id may be echoed back but never changed.
func (s *TodoService) Edit(ctx context.Context, owner *models.User, id int64, in EditTodoInput) (*models.Todo, error) {
	todo, err := s.todos.GetByID(ctx, owner.ID, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFoundTodo(id)
		}
		return nil, err
	}

	if in.IDSet && (in.ID == nil || *in.ID != id) {
		return nil, apperrors.NewValidation("Todo IDs cannot be edited")
	}

	if in.TitleSet {
		newTitle := ""
		if in.Title != nil {
			newTitle = *in.Title
		}
		if err := models.ValidateTitle(newTitle); err != nil {
			return nil, err
		}
		if newTitle != todo.Title && todo.ParentID == nil {
			exists, err := s.todos.TopLevelTitleExists(ctx, owner.ID, newTitle)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, apperrors.NewValidation("Your todo must have a unique title")
			}
		}
		if err := todo.SetTitle(newTitle); err != nil {
			return nil, err
		}
	}

	if in.DescriptionSet {
		if err := todo.SetDescription(in.Description); err != nil {
			return nil, err
		}
	}

	if err := s.todos.Update(ctx, todo); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperrors.NewValidation("Your todo must have a unique title")
		}
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFoundTodo(id)
		}
		return nil, err
	}

	return todo, nil
}

// Delete removes an owned todo and its entire subtree. The descendant id
// set is collected first and removed in one bulk delete, so no orphan can
// survive a partial failure.
func (s *TodoService) Delete(ctx context.Context, owner *models.User, id int64) error {
	index, _, err := s.loadForest(ctx, owner.ID)
	if err != nil {
		return err
	}
	todo, ok := index[id]
	if !ok {
		return apperrors.NewNotFound(fmt.Sprintf("Cannot delete todo, no result found for todo ID %d", id))
	}

	ids := tree.CollectIDs(todo)
	if err := s.todos.DeleteByIDs(ctx, owner.ID, ids); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperrors.NewNotFound(fmt.Sprintf("Cannot delete todo, no result found for todo ID %d", id))
		}
		return err
	}

	s.logger.Debug("todo_deleted",
		zap.Int64("todo_id", id),
		zap.Int("subtree_size", len(ids)),
		zap.Int64("user_id", owner.ID),
	)
	return nil
}

// ToggleParent sets or clears a todo's parent. Attaching is rejected when
// the target would become its own parent or when the candidate parent is
// already a descendant of the target, which would close a cycle.
func (s *TodoService) ToggleParent(ctx context.Context, owner *models.User, id int64, parentID *int64) (*models.Todo, error) {
	index, _, err := s.loadForest(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	todo, ok := index[id]
	if !ok {
		return nil, apperrors.NewNotFound("Parent or child todo does not exist")
	}

	if parentID != nil {
		if *parentID == id {
			return nil, apperrors.NewValidation("Todo cannot be its own parent")
		}
		parent, ok := index[*parentID]
		if !ok {
			return nil, apperrors.NewNotFound("Parent or child todo does not exist")
		}
		// The candidate parent sitting anywhere in the todo's own subtree
		// means the attachment would create a cycle.
		if tree.Exists(todo, tree.Matches(parent)) {
			return nil, apperrors.NewValidation("Todo cannot be a child of its own descendant")
		}
	}

	todo.ParentID = parentID
	if err := s.todos.Update(ctx, todo); err != nil {
		// Detaching to top level can collide with an existing top-level title.
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperrors.NewValidation("Your todo title must be unique")
		}
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperrors.NewNotFound("Parent or child todo does not exist")
		}
		return nil, err
	}
	return todo, nil
}

// Check sets a todo's checked state. Checking cascades true through the
// entire descendant subtree. Unchecking touches only the target and, when
// it has a parent, forces the parent unchecked too: a parent cannot remain
// done while one of its subtasks is not. The upward propagation is exactly
// one level.
func (s *TodoService) Check(ctx context.Context, owner *models.User, id int64, checked bool) (*models.Todo, error) {
	index, _, err := s.loadForest(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	todo, ok := index[id]
	if !ok {
		return nil, notFoundTodo(id)
	}

	var ids []int64
	if checked {
		tree.Apply(todo, func(t *models.Todo) {
			t.Checked = true
			ids = append(ids, t.ID)
		})
	} else {
		todo.Checked = false
		ids = append(ids, todo.ID)
		if todo.ParentID != nil {
			if parent, ok := index[*todo.ParentID]; ok {
				parent.Checked = false
				ids = append(ids, parent.ID)
			}
		}
	}

	if err := s.todos.SetChecked(ctx, owner.ID, ids, checked); err != nil {
		return nil, err
	}
	return todo, nil
}

// loadForest loads the owner's todos and assembles the parent/child links.
// Rows arrive ordered by id, so children keep insertion order and repeated
// loads of an unchanged forest traverse identically.
func (s *TodoService) loadForest(ctx context.Context, userID int64) (map[int64]*models.Todo, []*models.Todo, error) {
	todos, err := s.todos.GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	index := make(map[int64]*models.Todo, len(todos))
	for _, t := range todos {
		index[t.ID] = t
	}
	var roots []*models.Todo
	for _, t := range todos {
		if t.ParentID != nil {
			if parent, ok := index[*t.ParentID]; ok {
				parent.Children = append(parent.Children, t)
				continue
			}
		}
		roots = append(roots, t)
	}
	return index, roots, nil
}

func notFoundTodo(id int64) error {
	return apperrors.NewNotFound(fmt.Sprintf("No result found for todo ID %d", id))
}

// Package memory provides in-memory implementations of the database store
// interfaces. Used by service and handler tests so they exercise the real
// orchestration logic without a running Postgres.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/branchline/todotree/internal/database"
	"github.com/branchline/todotree/internal/models"
)

// Store holds the shared state behind the in-memory todo and user stores.
// Todos() and Users() expose the two interface implementations over the
// same data, mirroring how the Postgres repositories share one database.
type Store struct {
	mu         sync.Mutex
	todos      map[int64]*models.Todo
	users      map[int64]*models.User
	nextTodoID int64
	nextUserID int64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		todos:      make(map[int64]*models.Todo),
		users:      make(map[int64]*models.User),
		nextTodoID: 1,
		nextUserID: 1,
	}
}

// Todos returns the database.TodoStore view of the store.
func (s *Store) Todos() *TodoStore { return &TodoStore{s: s} }

// Users returns the database.UserStore view of the store.
func (s *Store) Users() *UserStore { return &UserStore{s: s} }

// TodoStore implements database.TodoStore over the shared maps.
type TodoStore struct {
	s *Store
}

// UserStore implements database.UserStore over the shared maps.
type UserStore struct {
	s *Store
}

var (
	_ database.TodoStore = (*TodoStore)(nil)
	_ database.UserStore = (*UserStore)(nil)
)

func cloneTodo(t *models.Todo) *models.Todo {
	c := *t
	c.Children = nil
	if t.ParentID != nil {
		pid := *t.ParentID
		c.ParentID = &pid
	}
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	return &c
}

// Create assigns a monotonic id and stores a copy of the todo. Duplicate
// top-level titles per user are rejected, matching the partial unique
// index in Postgres.
func (r *TodoStore) Create(_ context.Context, todo *models.Todo) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if todo.ParentID == nil {
		for _, existing := range r.s.todos {
			if existing.UserID == todo.UserID && existing.ParentID == nil && existing.Title == todo.Title {
				return database.ErrDuplicate
			}
		}
	}

	todo.ID = r.s.nextTodoID
	r.s.nextTodoID++
	r.s.todos[todo.ID] = cloneTodo(todo)
	return nil
}

// GetByID returns a copy of an owned todo, or ErrNotFound.
func (r *TodoStore) GetByID(_ context.Context, userID, id int64) (*models.Todo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	todo, ok := r.s.todos[id]
	if !ok || todo.UserID != userID {
		return nil, database.ErrNotFound
	}
	return cloneTodo(todo), nil
}

// GetByUserID returns copies of all the user's todos ordered by id.
func (r *TodoStore) GetByUserID(_ context.Context, userID int64) ([]*models.Todo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var todos []*models.Todo
	for _, todo := range r.s.todos {
		if todo.UserID == userID {
			todos = append(todos, cloneTodo(todo))
		}
	}
	sort.Slice(todos, func(i, j int) bool { return todos[i].ID < todos[j].ID })
	return todos, nil
}

// TopLevelTitleExists reports whether the user has a parentless todo with
// the given title.
func (r *TodoStore) TopLevelTitleExists(_ context.Context, userID int64, title string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, todo := range r.s.todos {
		if todo.UserID == userID && todo.ParentID == nil && todo.Title == title {
			return true, nil
		}
	}
	return false, nil
}

// Update replaces a stored todo with a copy of the given one.
func (r *TodoStore) Update(_ context.Context, todo *models.Todo) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.todos[todo.ID]
	if !ok || existing.UserID != todo.UserID {
		return database.ErrNotFound
	}
	r.s.todos[todo.ID] = cloneTodo(todo)
	return nil
}

// SetChecked flips the checked flag on every listed id owned by the user.
func (r *TodoStore) SetChecked(_ context.Context, userID int64, ids []int64, checked bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, id := range ids {
		if todo, ok := r.s.todos[id]; ok && todo.UserID == userID {
			todo.Checked = checked
		}
	}
	return nil
}

// DeleteByIDs removes every listed id owned by the user.
func (r *TodoStore) DeleteByIDs(_ context.Context, userID int64, ids []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	deleted := 0
	for _, id := range ids {
		if todo, ok := r.s.todos[id]; ok && todo.UserID == userID {
			delete(r.s.todos, id)
			deleted++
		}
	}
	if deleted == 0 {
		return database.ErrNotFound
	}
	return nil
}

// Create assigns a monotonic id and stores a copy of the user. Duplicate
// usernames are rejected.
func (r *UserStore) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Username == user.Username {
			return database.ErrDuplicate
		}
	}

	user.ID = r.s.nextUserID
	r.s.nextUserID++
	u := *user
	r.s.users[user.ID] = &u
	return nil
}

// GetByUsername returns the user with the given username.
func (r *UserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, user := range r.s.users {
		if user.Username == username {
			u := *user
			return &u, nil
		}
	}
	return nil, database.ErrNotFound
}

// GetByPublicID returns the user with the given public identifier.
func (r *UserStore) GetByPublicID(_ context.Context, publicID string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, user := range r.s.users {
		if user.PublicID == publicID {
			u := *user
			return &u, nil
		}
	}
	return nil, database.ErrNotFound
}

// Delete removes a user and all their todos.
func (r *UserStore) Delete(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return database.ErrNotFound
	}
	delete(r.s.users, userID)
	for id, todo := range r.s.todos {
		if todo.UserID == userID {
			delete(r.s.todos, id)
		}
	}
	return nil
}

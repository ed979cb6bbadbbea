package models

import (
	"time"

	"github.com/branchline/todotree/internal/apperrors"
)

const (
	// MaxTitleLength is the maximum length for a todo title
	MaxTitleLength = 40
	// MaxDescriptionLength is the maximum length for a todo description
	MaxDescriptionLength = 250
)

// Todo is a node in a per-user forest of todo trees. Description and
// ParentID are nil when absent; an absent description is distinct from an
// empty one. Children is populated when the owning user's forest is
// assembled and is never persisted directly.
type Todo struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Checked     bool      `json:"checked"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Children    []*Todo   `json:"children,omitempty"`
}

// NewTodo constructs a validated Todo for the given owner. Validation runs
// before any state is assembled, so a failed construction never produces a
// partially built node. Title uniqueness needs a query against sibling
// scope and is therefore a service concern, not checked here.
func NewTodo(userID int64, title string, description *string, parentID *int64) (*Todo, error) {
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}
	if err := ValidateDescription(description); err != nil {
		return nil, err
	}
	return &Todo{
		UserID:      userID,
		ParentID:    parentID,
		Title:       title,
		Description: description,
		Checked:     false,
	}, nil
}

// ValidateTitle checks presence and length of a todo title.
func ValidateTitle(title string) error {
	if title == "" {
		return apperrors.NewValidation("Your todo needs a title")
	}
	if len([]rune(title)) > MaxTitleLength {
		return apperrors.NewValidation("Your todo title must be 40 characters or fewer")
	}
	return nil
}

// ValidateDescription checks the length of an optional description. A nil
// description is absent and always valid.
func ValidateDescription(description *string) error {
	if description == nil {
		return nil
	}
	if len([]rune(*description)) > MaxDescriptionLength {
		return apperrors.NewValidation("Your todo description must be 250 characters or fewer")
	}
	return nil
}

// SetTitle validates and applies a new title.
func (t *Todo) SetTitle(title string) error {
	if err := ValidateTitle(title); err != nil {
		return err
	}
	t.Title = title
	return nil
}

// SetDescription validates and applies a new description. A nil value
// clears any existing description.
func (t *Todo) SetDescription(description *string) error {
	if err := ValidateDescription(description); err != nil {
		return err
	}
	t.Description = description
	return nil
}

// Public projects the todo into the shape returned by the API. Absent
// values are omitted entirely; the checked flag is always present, false
// included. The field list is explicit so the wire shape cannot drift with
// internal struct changes.
func (t *Todo) Public() map[string]any {
	out := map[string]any{
		"id":      t.ID,
		"user_id": t.UserID,
		"title":   t.Title,
		"checked": t.Checked,
	}
	if t.Description != nil && *t.Description != "" {
		out["description"] = *t.Description
	}
	if t.ParentID != nil {
		out["parent_id"] = *t.ParentID
	}
	return out
}

// PublicWithChildren projects the todo and, recursively, its children.
// The children key is omitted for leaves.
func (t *Todo) PublicWithChildren() map[string]any {
	out := t.Public()
	if len(t.Children) > 0 {
		children := make([]map[string]any, 0, len(t.Children))
		for _, child := range t.Children {
			children = append(children, child.PublicWithChildren())
		}
		out["children"] = children
	}
	return out
}

// Equal reports full-field structural equality, children excluded. Used by
// tests to assert a record survived a round trip unchanged.
func (t *Todo) Equal(other *Todo) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.ID != other.ID || t.UserID != other.UserID || t.Title != other.Title || t.Checked != other.Checked {
		return false
	}
	if (t.ParentID == nil) != (other.ParentID == nil) {
		return false
	}
	if t.ParentID != nil && *t.ParentID != *other.ParentID {
		return false
	}
	if (t.Description == nil) != (other.Description == nil) {
		return false
	}
	if t.Description != nil && *t.Description != *other.Description {
		return false
	}
	return true
}

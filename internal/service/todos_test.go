package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/branchline/todotree/internal/apperrors"
	"github.com/branchline/todotree/internal/database/memory"
	"github.com/branchline/todotree/internal/models"
)

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

func newTodoFixture(t *testing.T) (*TodoService, *models.User) {
	t.Helper()
	store := memory.NewStore()
	return NewTodoService(store.Todos(), nil), &models.User{ID: 1, PublicID: "owner-1", Username: "owner"}
}

// mustAdd creates a todo and fails the test on error.
func mustAdd(t *testing.T, svc *TodoService, owner *models.User, title string, parentID *int64) *models.Todo {
	t.Helper()
	todo, err := svc.Add(context.Background(), owner, AddTodoInput{Title: title, ParentID: parentID})
	if err != nil {
		t.Fatalf("Add(%q): %v", title, err)
	}
	return todo
}

func TestAddRoundTrip(t *testing.T) {
	t.Parallel()

	svc, owner := newTodoFixture(t)
	ctx := context.Background()

	created, err := svc.Add(ctx, owner, AddTodoInput{Title: "Shopping", Description: strPtr("weekly groceries")})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("Add must assign an id")
	}
	if created.Checked {
		t.Error("new todo must start unchecked")
	}

	got, err := svc.Get(ctx, owner, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Equal(created) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, created)
	}
}

func TestAddValidation(t *testing.T) {
	t.Parallel()

	svc, owner := newTodoFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		in      AddTodoInput
		wantErr string
	}{
		{name: "missing title", in: AddTodoInput{}, wantErr: "Your todo needs a title"},
		{name: "missing parent", in: AddTodoInput{Title: "x", ParentID: int64Ptr(999)}, wantErr: "Parent todo does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(ctx, owner, tt.in)
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("Add() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestAddTitleUniqueness(t *testing.T) {
	t.Parallel()

	svc, owner := newTodoFixture(t)
	ctx := context.Background()
	other := &models.User{ID: 2, PublicID: "owner-2", Username: "other"}

	parent := mustAdd(t, svc, owner, "Shopping", nil)

	if _, err := svc.Add(ctx, owner, AddTodoInput{Title: "Shopping"}); err == nil || err.Error() != "Your todo title must be unique" {
		t.Errorf("duplicate top-level title: err = %v, want uniqueness error", err)
	}

	// Uniqueness is per owner: another user can reuse the title.
	if _, err := svc.Add(ctx, other, AddTodoInput{Title: "Shopping"}); err != nil {
		t.Errorf("same title for different owner must succeed, got %v", err)
	}

	// Children are exempt from the top-level uniqueness rule.
	if _, err := svc.Add(ctx, owner, AddTodoInput{Title: "Shopping", ParentID: &parent.ID}); err != nil {
		t.Errorf("child sharing the parent's title must succeed, got %v", err)
	}
}

func TestGetAllReturnsTopLevelOnly(t *testing.T) {
	t.Parallel()

	svc, owner := newTodoFixture(t)

	a := mustAdd(t, svc, owner, "a", nil)
	mustAdd(t, svc, owner, "b", nil)
	mustAdd(t, svc, owner, "child", &a.ID)

	roots, err := svc.GetAll(context.Background(), owner)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("GetAll returned %d todos, want 2 top-level", len(roots))
	}
	for _, todo := range roots {
		if todo.ParentID != nil {
			t.Errorf("GetAll returned non-top-level todo %d", todo.ID)
		}
	}
}

func TestGetAttachesDescendants(t *testing.T) {
	t.Parallel()

	svc, owner := newTodoFixture(t)

	root := mustAdd(t, svc, owner, "root", nil)
	child := mustAdd(t, svc, owner, "child", &root.ID)
	mustAdd(t, svc, owner, "grandchild", &child.ID)

	got, err := svc.Get(context.Background(), owner, root.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Children) != 1 {
		t.Fatalf("root has %d children, want 1", len(got.Children))
	}
	if len(got.Children[0].Children) != 1 {
		t.Fatalf("child has %d children, want 1", len(got.Children[0].Children))
	}
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()

	svc, owner := newTodoFixture(t)

	_, err := svc.Get(context.Background(), owner, 999)
	want := "No result found for todo ID 999"
	if err == nil || err.Error() != want {
		t.Errorf("Get(999) error = %v, want %q", err, want)
	}
	if !apperrors.IsNotFound(err) {
		t.Errorf("error type = %T, want NotFoundError", err)
	}
}

func TestOwnerScoping(t *testing.T) {
	t.Parallel()

	svc, owner := newTodoFixture(t)
	other := &models.User{ID: 2, PublicID: "owner-2", Username: "other"}

	todo := mustAdd(t, svc, owner, "private", nil)

	// Another user sees not-found, never a permission error.
	if _, err := svc.Get(context.Background(), other, todo.ID); !apperrors.IsNotFound(err) {
		t.Errorf("cross-owner Get error = %v, want NotFoundError", err)
	}
	if err := svc.Delete(context.Background(), other, todo.ID); !apperrors.IsNotFound(err) {
		t.Errorf("cross-owner Delete error = %v, want NotFoundError", err)
	}
}

func TestEdit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("title and description update", func(t *testing.T) {
		t.Parallel()
		svc, owner := newTodoFixture(t)
		todo := mustAdd(t, svc, owner, "before", nil)

		got, err := svc.Edit(ctx, owner, todo.ID, EditTodoInput{
			Title: strPtr("after"), TitleSet: true,
			Description: strPtr("details"), DescriptionSet: true,
		})
		if err != nil {
			t.Fatalf("Edit: %v", err)
		}
		if got.Title != "after" || got.Description == nil || *got.Description != "details" {
			t.Errorf("Edit result = %+v", got)
		}
	})

	t.Run("absent fields are preserved", func(t *testing.T) {
		t.Parallel()
		svc, owner := newTodoFixture(t)
		todo, err := svc.Add(ctx, owner, AddTodoInput{Title: "keep", Description: strPtr("keep me")})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}

		got, err := svc.Edit(ctx, owner, todo.ID, EditTodoInput{Title: strPtr("renamed"), TitleSet: true})
		if err != nil {
			t.Fatalf("Edit: %v", err)
		}
		if got.Description == nil || *got.Description != "keep me" {
			t.Errorf("description = %v, want preserved", got.Description)
		}
	})

	t.Run("explicit null clears description", func(t *testing.T) {
		t.Parallel()
		svc, owner := newTodoFixture(t)
		todo, err := svc.Add(ctx, owner, AddTodoInput{Title: "keep", Description: strPtr("clear me")})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}

		got, err := svc.Edit(ctx, owner, todo.ID, EditTodoInput{Description: nil, DescriptionSet: true})
		if err != nil {
			t.Fatalf("Edit: %v", err)
		}
		if got.Description != nil {
			t.Errorf("description = %v, want cleared", got.Description)
		}
	})

	t.Run("id tampering rejected", func(t *testing.T) {
		t.Parallel()
		svc, owner := newTodoFixture(t)
		todo := mustAdd(t, svc, owner, "fixed", nil)

		wrongID := todo.ID + 1
		_, err := svc.Edit(ctx, owner, todo.ID, EditTodoInput{ID: &wrongID, IDSet: true})
		if err == nil || err.Error() != "Todo IDs cannot be edited" {
			t.Errorf("Edit error = %v, want id tamper rejection", err)
		}
	})

	t.Run("echoed id accepted", func(t *testing.T) {
		t.Parallel()
		svc, owner := newTodoFixture(t)
		todo := mustAdd(t, svc, owner, "fixed", nil)

		if _, err := svc.Edit(ctx, owner, todo.ID, EditTodoInput{ID: &todo.ID, IDSet: true}); err != nil {
			t.Errorf("Edit with matching id must succeed, got %v", err)
		}
	})

	t.Run("duplicate title rejected", func(t *testing.T) {
		t.Parallel()
		svc, owner := newTodoFixture(t)
		mustAdd(t, svc, owner, "taken", nil)
		todo := mustAdd(t, svc, owner, "free", nil)

		_, err := svc.Edit(ctx, owner, todo.ID, EditTodoInput{Title: strPtr("taken"), TitleSet: true})
		if err == nil || err.Error() != "Your todo must have a unique title" {
			t.Errorf("Edit error = %v, want uniqueness rejection", err)
		}
	})

	t.Run("unchanged title skips uniqueness", func(t *testing.T) {
		t.Parallel()
		svc, owner := newTodoFixture(t)
		todo := mustAdd(t, svc, owner, "same", nil)

		if _, err := svc.Edit(ctx, owner, todo.ID, EditTodoInput{Title: strPtr("same"), TitleSet: true}); err != nil {
			t.Errorf("re-submitting the current title must succeed, got %v", err)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()
		svc, owner := newTodoFixture(t)
		todo := mustAdd(t, svc, owner, "start", nil)

		in := EditTodoInput{Title: strPtr("done"), TitleSet: true, Description: strPtr("d"), DescriptionSet: true}
		first, err := svc.Edit(ctx, owner, todo.ID, in)
		if err != nil {
			t.Fatalf("first Edit: %v", err)
		}
		second, err := svc.Edit(ctx, owner, todo.ID, in)
		if err != nil {
			t.Fatalf("second Edit: %v", err)
		}
		if !first.Equal(second) {
			t.Errorf("repeated edit diverged: %+v vs %+v", first, second)
		}
	})

	t.Run("missing todo", func(t *testing.T) {
		t.Parallel()
		svc, owner := newTodoFixture(t)

		_, err := svc.Edit(ctx, owner, 42, EditTodoInput{Title: strPtr("x"), TitleSet: true})
		want := "No result found for todo ID 42"
		if err == nil || err.Error() != want {
			t.Errorf("Edit error = %v, want %q", err, want)
		}
	})
}

func TestDeleteCascades(t *testing.T) {
	t.Parallel()

	svc, owner := newTodoFixture(t)
	ctx := context.Background()

	root := mustAdd(t, svc, owner, "root", nil)
	child := mustAdd(t, svc, owner, "child", &root.ID)
	grandchild := mustAdd(t, svc, owner, "grandchild", &child.ID)
	bystander := mustAdd(t, svc, owner, "bystander", nil)

	if err := svc.Delete(ctx, owner, root.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	for _, id := range []int64{root.ID, child.ID, grandchild.ID} {
		if _, err := svc.Get(ctx, owner, id); !apperrors.IsNotFound(err) {
			t.Errorf("Get(%d) after cascade = %v, want NotFoundError", id, err)
		}
	}
	if _, err := svc.Get(ctx, owner, bystander.ID); err != nil {
		t.Errorf("unrelated todo must survive the cascade, got %v", err)
	}
}

func TestDeleteNotFound(t *testing.T) {
	t.Parallel()

	svc, owner := newTodoFixture(t)

	err := svc.Delete(context.Background(), owner, 999)
	want := "Cannot delete todo, no result found for todo ID 999"
	if err == nil || err.Error() != want {
		t.Errorf("Delete(999) error = %v, want %q", err, want)
	}
}

func TestToggleParent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("attach and detach", func(t *testing.T) {
		t.Parallel()
		svc, owner := newTodoFixture(t)
		parent := mustAdd(t, svc, owner, "parent", nil)
		child := mustAdd(t, svc, owner, "child", nil)

		got, err := svc.ToggleParent(ctx, owner, child.ID, &parent.ID)
		if err != nil {
			t.Fatalf("attach: %v", err)
		}
		if got.ParentID == nil || *got.ParentID != parent.ID {
			t.Errorf("ParentID = %v, want %d", got.ParentID, parent.ID)
		}

		got, err = svc.ToggleParent(ctx, owner, child.ID, nil)
		if err != nil {
			t.Fatalf("detach: %v", err)
		}
		if got.ParentID != nil {
			t.Errorf("ParentID = %v, want nil after detach", got.ParentID)
		}
	})

	t.Run("self parent rejected", func(t *testing.T) {
		t.Parallel()
		svc, owner := newTodoFixture(t)
		todo := mustAdd(t, svc, owner, "solo", nil)

		_, err := svc.ToggleParent(ctx, owner, todo.ID, &todo.ID)
		if err == nil || err.Error() != "Todo cannot be its own parent" {
			t.Errorf("error = %v, want self-parent rejection", err)
		}
	})

	t.Run("cycle rejected and state unchanged", func(t *testing.T) {
		t.Parallel()
		svc, owner := newTodoFixture(t)
		root := mustAdd(t, svc, owner, "root", nil)
		child := mustAdd(t, svc, owner, "child", &root.ID)
		grandchild := mustAdd(t, svc, owner, "grandchild", &child.ID)

		_, err := svc.ToggleParent(ctx, owner, root.ID, &grandchild.ID)
		if err == nil || err.Error() != "Todo cannot be a child of its own descendant" {
			t.Fatalf("error = %v, want cycle rejection", err)
		}
		if !apperrors.IsValidation(err) {
			t.Errorf("error type = %T, want ValidationError", err)
		}

		got, err := svc.Get(ctx, owner, root.ID)
		if err != nil {
			t.Fatalf("Get after rejected reparent: %v", err)
		}
		if got.ParentID != nil {
			t.Errorf("root.ParentID = %v, must be unchanged", got.ParentID)
		}
	})

	t.Run("missing parent or child", func(t *testing.T) {
		t.Parallel()
		svc, owner := newTodoFixture(t)
		todo := mustAdd(t, svc, owner, "solo", nil)

		want := "Parent or child todo does not exist"
		missing := int64(999)
		if _, err := svc.ToggleParent(ctx, owner, todo.ID, &missing); err == nil || err.Error() != want {
			t.Errorf("missing parent: error = %v, want %q", err, want)
		}
		if _, err := svc.ToggleParent(ctx, owner, missing, &todo.ID); err == nil || err.Error() != want {
			t.Errorf("missing child: error = %v, want %q", err, want)
		}
	})
}

func TestCheckCascadesDown(t *testing.T) {
	t.Parallel()

	svc, owner := newTodoFixture(t)
	ctx := context.Background()

	root := mustAdd(t, svc, owner, "root", nil)
	childA := mustAdd(t, svc, owner, "a", &root.ID)
	childB := mustAdd(t, svc, owner, "b", &root.ID)
	grandchild := mustAdd(t, svc, owner, "g", &childA.ID)

	if _, err := svc.Check(ctx, owner, root.ID, true); err != nil {
		t.Fatalf("Check: %v", err)
	}

	for _, id := range []int64{root.ID, childA.ID, childB.ID, grandchild.ID} {
		got, err := svc.Get(ctx, owner, id)
		if err != nil {
			t.Fatalf("Get(%d): %v", id, err)
		}
		if !got.Checked {
			t.Errorf("todo %d not checked after cascade", id)
		}
	}
}

func TestUncheckPropagatesOneLevelUp(t *testing.T) {
	t.Parallel()

	svc, owner := newTodoFixture(t)
	ctx := context.Background()

	root := mustAdd(t, svc, owner, "root", nil)
	childA := mustAdd(t, svc, owner, "a", &root.ID)
	childB := mustAdd(t, svc, owner, "b", &root.ID)
	grandchild := mustAdd(t, svc, owner, "g", &childA.ID)

	if _, err := svc.Check(ctx, owner, root.ID, true); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if _, err := svc.Check(ctx, owner, childA.ID, false); err != nil {
		t.Fatalf("uncheck: %v", err)
	}

	wantChecked := map[int64]bool{
		root.ID:       false, // one level up
		childA.ID:     false, // the target
		childB.ID:     true,  // sibling untouched
		grandchild.ID: true,  // no downward cascade on uncheck
	}
	for id, want := range wantChecked {
		got, err := svc.Get(ctx, owner, id)
		if err != nil {
			t.Fatalf("Get(%d): %v", id, err)
		}
		if got.Checked != want {
			t.Errorf("todo %d checked = %v, want %v", id, got.Checked, want)
		}
	}
}

func TestCheckNotFound(t *testing.T) {
	t.Parallel()

	svc, owner := newTodoFixture(t)

	_, err := svc.Check(context.Background(), owner, 7, true)
	want := fmt.Sprintf("No result found for todo ID %d", 7)
	if err == nil || err.Error() != want {
		t.Errorf("Check error = %v, want %q", err, want)
	}
}

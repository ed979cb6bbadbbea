// Package handlers wires the HTTP surface: request decoding, route
// parameter checks, and translation between service errors and response
// bodies. The response contract is plain JSON entities on success and a
// JSON string "Error: <message>." on failure.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/branchline/todotree/internal/apperrors"
	"github.com/branchline/todotree/internal/service"
	"github.com/branchline/todotree/internal/validation"
)

// TodoHandler handles the /todos route group.
type TodoHandler struct {
	todos  *service.TodoService
	logger *zap.Logger
}

// NewTodoHandler creates a TodoHandler.
func NewTodoHandler(todos *service.TodoService, logger *zap.Logger) *TodoHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TodoHandler{todos: todos, logger: logger}
}

// RegisterRoutes registers the todo routes. The router is expected to
// carry the /todos prefix already.
func (h *TodoHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.List).Methods(http.MethodGet)
	r.HandleFunc("", h.Add).Methods(http.MethodPost)
	r.HandleFunc("/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/{id}", h.Edit).Methods(http.MethodPatch)
	r.HandleFunc("/{id}", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/{id}/check", h.Check).Methods(http.MethodPatch)
	r.HandleFunc("/{id}/toggle_parent", h.ToggleParent).Methods(http.MethodPatch)
}

// Add creates a todo for the authenticated owner.
func (h *TodoHandler) Add(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	body, err := decodeBody(r.Body)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	in := service.AddTodoInput{}
	if raw, ok := body["title"]; ok {
		title, err := decodeStringValue(raw, "title")
		if err != nil {
			respondAppError(w, h.logger, err)
			return
		}
		if title != nil {
			in.Title = *title
		}
	}
	if raw, ok := body["description"]; ok {
		desc, err := decodeStringValue(raw, "description")
		if err != nil {
			respondAppError(w, h.logger, err)
			return
		}
		in.Description = desc
	}
	if raw, ok := body["parent_id"]; ok {
		pid, err := decodeIntValue(raw, "parent ID")
		if err != nil {
			respondAppError(w, h.logger, err)
			return
		}
		in.ParentID = pid
	}

	todo, err := h.todos.Add(r.Context(), user, in)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, todo.Public())
}

// List returns the owner's top-level todos.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	todos, err := h.todos.GetAll(r.Context(), user)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	out := make([]map[string]any, 0, len(todos))
	for _, t := range todos {
		out = append(out, t.Public())
	}
	respondJSON(w, http.StatusOK, out)
}

// Get returns one todo with its descendant tree.
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := validation.TodoRouteParam(mux.Vars(r)["id"])
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	todo, err := h.todos.Get(r.Context(), user, id)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, todo.PublicWithChildren())
}

// Edit applies a partial update. Keys absent from the body leave fields
// untouched; an explicit null clears the description.
func (h *TodoHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := validation.TodoRouteParam(mux.Vars(r)["id"])
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	body, err := decodeBody(r.Body)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	in := service.EditTodoInput{}
	if raw, ok := body["id"]; ok {
		in.IDSet = true
		// A non-integer id is tampering the same way a wrong integer is;
		// leave the value nil and let the service reject it.
		in.ID, _ = decodeIntValue(raw, "id")
	}
	if raw, ok := body["title"]; ok {
		in.TitleSet = true
		title, err := decodeStringValue(raw, "title")
		if err != nil {
			respondAppError(w, h.logger, err)
			return
		}
		in.Title = title
	}
	if raw, ok := body["description"]; ok {
		in.DescriptionSet = true
		desc, err := decodeStringValue(raw, "description")
		if err != nil {
			respondAppError(w, h.logger, err)
			return
		}
		in.Description = desc
	}

	todo, err := h.todos.Edit(r.Context(), user, id, in)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, todo.Public())
}

// Delete removes a todo and its whole subtree.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := validation.TodoRouteParam(mux.Vars(r)["id"])
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	if err := h.todos.Delete(r.Context(), user, id); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Todo successfully deleted.")
}

// Check sets the checked state, cascading per the tree rules.
func (h *TodoHandler) Check(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := validation.TodoRouteParam(mux.Vars(r)["id"])
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	body, err := decodeBody(r.Body)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	raw, ok := body["checked"]
	if !ok {
		respondAppError(w, h.logger, apperrors.NewValidation("Your todo needs a checked value"))
		return
	}
	var checked bool
	if err := json.Unmarshal(raw, &checked); err != nil {
		respondAppError(w, h.logger, apperrors.NewValidation("Your checked value must be a boolean"))
		return
	}

	todo, err := h.todos.Check(r.Context(), user, id, checked)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, todo.Public())
}

// ToggleParent attaches the todo under a new parent or, with a null
// parent_id, detaches it to top level.
func (h *TodoHandler) ToggleParent(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := validation.TodoRouteParam(mux.Vars(r)["id"])
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	body, err := decodeBody(r.Body)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	var parentID *int64
	if raw, ok := body["parent_id"]; ok {
		parentID, err = decodeIntValue(raw, "parent ID")
		if err != nil {
			respondAppError(w, h.logger, err)
			return
		}
	}

	todo, err := h.todos.ToggleParent(r.Context(), user, id, parentID)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, todo.Public())
}

// decodeBody reads a JSON object keyed by raw values, preserving the
// absent-vs-null distinction per key. An empty body decodes to an empty
// map rather than an error so bodiless PATCHes behave like no-op updates.
func decodeBody(body io.Reader) (map[string]json.RawMessage, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, apperrors.NewValidation("Request body must be valid JSON")
	}
	if len(data) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, apperrors.NewValidation("Request body must be valid JSON")
	}
	if out == nil {
		out = map[string]json.RawMessage{}
	}
	return out, nil
}

// decodeStringValue decodes a string or null. Any other JSON type is a
// type error on the named field.
func decodeStringValue(raw json.RawMessage, field string) (*string, error) {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, apperrors.NewValidation(fmt.Sprintf("Your %s must be a string", field))
	}
	return s, nil
}

// decodeIntValue decodes an integer or null.
func decodeIntValue(raw json.RawMessage, field string) (*int64, error) {
	var n *int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, apperrors.NewValidation(fmt.Sprintf("Your %s must be an integer", field))
	}
	return n, nil
}

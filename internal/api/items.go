package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/itemvault/internal/audit"
	"github.com/nerrad567/itemvault/internal/item"
)

// itemRequest is the body of item create and replace requests. An "id"
// field, if sent, is ignored.
type itemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// decodeItem decodes and validates an item body. It writes the error
// response itself and returns ok=false when the handler should stop.
func decodeItem(w http.ResponseWriter, r *http.Request) (name, description string, ok bool) {
	var req itemRequest
	if !decodeJSON(w, r, &req) {
		return "", "", false
	}
	if !requireFields(w,
		field{"name", req.Name != nil},
		field{"description", req.Description != nil},
	) {
		return "", "", false
	}
	return *req.Name, *req.Description, true
}

// handleCreateItem stores a new item under a generated ID.
func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	name, description, ok := decodeItem(w, r)
	if !ok {
		return
	}

	it, err := s.items.Create(r.Context(), name, description)
	if err != nil {
		s.logger.Error("failed to create item", "error", err, "request_id", requestIDFrom(r.Context()))
		writeInternalError(w, "failed to create item")
		return
	}

	s.auditLog(audit.ActionCreate, audit.EntityItem, it.ID, usernameFrom(r.Context()),
		map[string]any{"name": it.Name})
	writeJSON(w, http.StatusOK, it)
}

// handleListItems returns every item ordered by name.
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.items.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list items", "error", err, "request_id", requestIDFrom(r.Context()))
		writeInternalError(w, "failed to list items")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleGetItem returns a single item.
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	it, err := s.items.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeItemError(w, r, err, "failed to get item")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// handleUpdateItem replaces the name and description of an item.
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	name, description, ok := decodeItem(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	it, err := s.items.Update(r.Context(), id, name, description)
	if err != nil {
		s.writeItemError(w, r, err, "failed to update item")
		return
	}

	s.auditLog(audit.ActionUpdate, audit.EntityItem, id, usernameFrom(r.Context()),
		map[string]any{"name": it.Name})
	writeJSON(w, http.StatusOK, it)
}

// handleDeleteItem removes an item.
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.items.Delete(r.Context(), id); err != nil {
		s.writeItemError(w, r, err, "failed to delete item")
		return
	}

	s.auditLog(audit.ActionDelete, audit.EntityItem, id, usernameFrom(r.Context()), nil)
	writeJSON(w, http.StatusOK, messageResponse{Msg: msgItemDeleted})
}

// writeItemError maps item store errors to responses.
func (s *Server) writeItemError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, item.ErrItemNotFound) {
		writeNotFound(w, msgItemNotFound)
		return
	}
	s.logger.Error(message, "error", err, "request_id", requestIDFrom(r.Context()))
	writeInternalError(w, message)
}

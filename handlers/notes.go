package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"notesapi/auth"
	"notesapi/models"
	"notesapi/store"
)

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

// ownerFromPath parses the user id path value and checks it against the
// session principal. It writes the error response and returns false on
// failure.
func (h *Handler) ownerFromPath(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	ownerID, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		sendError(w, r, http.StatusBadRequest, "InvalidID")
		return 0, false
	}
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok || principal.ID != ownerID {
		h.logger.Warn("owner mismatch",
			zap.Int64("principal_id", principal.ID),
			zap.Int64("path_user_id", ownerID),
			zap.String("path", r.URL.Path),
		)
		sendError(w, r, http.StatusForbidden, "Forbidden")
		return 0, false
	}
	return ownerID, true
}

func noteIDFromPath(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("note_id"), 10, 64)
}

func (h *Handler) ListNotesHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerFromPath(w, r, "id")
	if !ok {
		return
	}

	notes, err := h.notes.ListByOwner(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("error fetching notes", zap.Error(err), zap.Int64("user_id", ownerID))
		sendError(w, r, http.StatusInternalServerError, "ErrorFetchingNotes")
		return
	}
	sendJSON(w, http.StatusOK, notes)
}

func (h *Handler) AddNoteHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerFromPath(w, r, "id")
	if !ok {
		return
	}

	var input noteRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}

	note := &models.Note{OwnerID: ownerID, Title: input.Title, Content: input.Content, Status: input.Status}
	if err := h.notes.Create(r.Context(), note); err != nil {
		h.logger.Error("error adding note", zap.Error(err), zap.Int64("user_id", ownerID))
		sendError(w, r, http.StatusInternalServerError, "ErrorAddingNote")
		return
	}
	sendMessage(w, r, http.StatusCreated, "NoteAdded")
}

func (h *Handler) DeleteNoteHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerFromPath(w, r, "user_id")
	if !ok {
		return
	}
	noteID, err := noteIDFromPath(r)
	if err != nil {
		sendError(w, r, http.StatusBadRequest, "InvalidID")
		return
	}

	if err := h.notes.Delete(r.Context(), ownerID, noteID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sendError(w, r, http.StatusNotFound, "NoteNotFound")
			return
		}
		h.logger.Error("error deleting note", zap.Error(err), zap.Int64("user_id", ownerID), zap.Int64("note_id", noteID))
		sendError(w, r, http.StatusInternalServerError, "ErrorDeletingNote")
		return
	}
	sendMessage(w, r, http.StatusCreated, "NoteDeleted")
}

func (h *Handler) EditNoteHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerFromPath(w, r, "user_id")
	if !ok {
		return
	}
	noteID, err := noteIDFromPath(r)
	if err != nil {
		sendError(w, r, http.StatusBadRequest, "InvalidID")
		return
	}

	var input noteRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}

	note := &models.Note{ID: noteID, OwnerID: ownerID, Title: input.Title, Content: input.Content, Status: input.Status}
	if err := h.notes.Update(r.Context(), note); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sendError(w, r, http.StatusNotFound, "NoteNotFound")
			return
		}
		h.logger.Error("error updating note", zap.Error(err), zap.Int64("user_id", ownerID), zap.Int64("note_id", noteID))
		sendError(w, r, http.StatusInternalServerError, "ErrorUpdatingNote")
		return
	}
	sendMessage(w, r, http.StatusCreated, "NoteUpdated")
}

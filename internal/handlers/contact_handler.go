package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unilink/backend/internal/middleware"
	"github.com/unilink/backend/internal/models"
	"github.com/unilink/backend/internal/services"
	"github.com/unilink/backend/internal/validation"
)

type ContactHandler struct {
	contacts services.ContactService
}

func NewContactHandler(contacts services.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// GetContact returns the caller's contact row. A missing row degrades to an
// empty private record rather than an error.
func (h *ContactHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	contact, err := h.contacts.GetByUserID(ctx, userID)
	if err != nil {
		if err == services.ErrContactNotFound {
			writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.Contact{
				UserID:     userID,
				Visibility: models.ContactPrivate,
			}))
			return
		}
		log.Error().Err(err).Str("user", userID).Msg("load contact failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load contact"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(contact))
}

func (h *ContactHandler) UpsertContact(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	var req models.UpsertContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	if errs := validation.Struct(&req); errs != nil {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	contact, err := h.contacts.Upsert(ctx, userID, &req)
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("upsert contact failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to save contact"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(contact))
}

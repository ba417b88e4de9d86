package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/unilink/backend/internal/middleware"
	"github.com/unilink/backend/internal/models"
	"github.com/unilink/backend/internal/services"
	"github.com/unilink/backend/internal/validation"
)

type ProfileHandler struct {
	profiles    services.ProfileService
	contacts    services.ContactService
	experiences services.ExperienceService
	directory   *services.DirectoryService
}

func NewProfileHandler(
	profiles services.ProfileService,
	contacts services.ContactService,
	experiences services.ExperienceService,
	directory *services.DirectoryService,
) *ProfileHandler {
	return &ProfileHandler{
		profiles:    profiles,
		contacts:    contacts,
		experiences: experiences,
		directory:   directory,
	}
}

// GetProfile returns the caller's profile, creating it on first touch.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}
	email := middleware.GetUserEmail(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	prof, err := h.profiles.GetOrCreate(ctx, userID, email)
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("load profile failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load profile"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(prof))
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	var req models.UpdateProfileRequest
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

	prof, err := h.profiles.Update(ctx, userID, &req)
	if err != nil {
		if err == services.ErrProfileNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Profile not found"))
			return
		}
		log.Error().Err(err).Str("user", userID).Msg("update profile failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to update profile"))
		return
	}

	h.directory.Invalidate(ctx, userID)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(prof))
}

// SaveAcademics updates the current degree and replaces every experience
// row with the rows derived from the submitted academics state.
func (h *ProfileHandler) SaveAcademics(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	var req models.AcademicsState
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

	degree := req.CurrentDegree
	if _, err := h.profiles.Update(ctx, userID, &models.UpdateProfileRequest{CurrentDegree: &degree}); err != nil {
		log.Error().Err(err).Str("user", userID).Msg("save academics: profile update failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to save academics"))
		return
	}

	rows := req.ExperienceRows(userID, uuid.NewString, time.Now())
	if err := h.experiences.ReplaceForUser(ctx, userID, rows); err != nil {
		// The profile write above stays committed; there is no rollback.
		log.Error().Err(err).Str("user", userID).Msg("save academics: experience replace failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to save experiences"))
		return
	}

	h.directory.Invalidate(ctx, userID)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{
		"current_degree": degree,
		"experiences":    rows,
	}))
}

// GetPublicProfile returns another student's public view: profile,
// experiences, and contact channels when visibility permits.
func (h *ProfileHandler) GetPublicProfile(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetUserID(r.Context())
	if viewerID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	targetID := chi.URLParam(r, "userId")
	if targetID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing userId"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	prof, err := h.profiles.GetByUserID(ctx, targetID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Profile not found"))
		return
	}

	exps, err := h.experiences.ListByUserID(ctx, targetID)
	if err != nil {
		log.Warn().Err(err).Str("user", targetID).Msg("experience load failed, degrading to empty")
		exps = []models.Experience{}
	}

	resp := map[string]interface{}{
		"profile":     prof.Public(),
		"experiences": exps,
	}

	// Contact channels only when the row's visibility allows this viewer.
	viewerOnboarded := false
	if viewer, err := h.profiles.GetByUserID(ctx, viewerID); err == nil {
		viewerOnboarded = viewer.Onboarded
	}
	if contact, err := h.contacts.GetByUserID(ctx, targetID); err == nil {
		if contact.VisibleTo(viewerID, viewerOnboarded) {
			resp["contact"] = contact
		}
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(resp))
}

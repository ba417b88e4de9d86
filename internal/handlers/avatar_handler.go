package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unilink/backend/internal/middleware"
	"github.com/unilink/backend/internal/models"
	"github.com/unilink/backend/internal/services"
	"github.com/unilink/backend/internal/storage"
)

type AvatarHandler struct {
	avatars   storage.AvatarStore
	profiles  services.ProfileService
	maxSizeMB int64
}

func NewAvatarHandler(avatars storage.AvatarStore, profiles services.ProfileService, maxSizeMB int64) *AvatarHandler {
	return &AvatarHandler{
		avatars:   avatars,
		profiles:  profiles,
		maxSizeMB: maxSizeMB,
	}
}

// Upload overwrites the caller's avatar in place and points the profile at
// the new URL.
func (h *AvatarHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSizeMB*1024*1024)
	if err := r.ParseMultipartForm(h.maxSizeMB * 1024 * 1024); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("File too large or invalid form data"))
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("No avatar file provided"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !isValidImageType(contentType) {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid image type. Allowed: JPEG, PNG, GIF, WebP"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	url, err := h.avatars.Put(ctx, userID, contentType, file)
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("avatar upload failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to upload avatar"))
		return
	}

	if err := h.profiles.SetAvatarURL(ctx, userID, url); err != nil {
		log.Error().Err(err).Str("user", userID).Msg("avatar url save failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to save avatar"))
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(models.AvatarUploadResponse{URL: url}))
}

func (h *AvatarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	prof, err := h.profiles.GetByUserID(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Profile not found"))
		return
	}

	if err := h.avatars.Delete(ctx, userID); err != nil && err != storage.ErrAvatarNotFound {
		log.Error().Err(err).Str("user", userID).Msg("avatar delete failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete avatar"))
		return
	}

	if prof.AvatarURL != "" {
		if err := h.profiles.ClearAvatarIfMatches(ctx, userID, prof.AvatarURL); err != nil {
			log.Warn().Err(err).Str("user", userID).Msg("avatar url clear failed")
		}
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "Avatar deleted"}))
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/unilink/backend/internal/middleware"
	"github.com/unilink/backend/internal/models"
	"github.com/unilink/backend/internal/services"
	"github.com/unilink/backend/internal/storage"
)

type AccountHandler struct {
	accounts  *services.MongoAccountService
	avatars   storage.AvatarStore
	directory *services.DirectoryService
}

func NewAccountHandler(accounts *services.MongoAccountService, avatars storage.AvatarStore, directory *services.DirectoryService) *AccountHandler {
	return &AccountHandler{accounts: accounts, avatars: avatars, directory: directory}
}

// Delete removes the caller's directory data. The stored avatar is cleaned
// up best effort; the auth record stays with the auth provider.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), services.DefaultAccountTimeout())
	defer cancel()

	res, err := h.accounts.DeleteAccount(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("account deletion failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete account"))
		return
	}

	if res.AvatarURL != "" {
		if err := h.avatars.Delete(ctx, userID); err != nil && !errors.Is(err, storage.ErrAvatarNotFound) {
			log.Warn().Err(err).Str("user", userID).Msg("avatar cleanup failed")
		}
	}
	h.directory.Invalidate(ctx, userID)

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "Account deleted"}))
}

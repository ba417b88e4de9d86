package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unilink/backend/internal/middleware"
	"github.com/unilink/backend/internal/models"
	"github.com/unilink/backend/internal/services"
)

type DirectoryHandler struct {
	directory *services.DirectoryService
}

func NewDirectoryHandler(directory *services.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// Search answers GET /api/directory?q=&filter=&page=. The viewer is always
// excluded and only onboarding-completed profiles come back.
func (h *DirectoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetUserID(r.Context())
	if viewerID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))

	filter := models.DirectoryFilter(r.URL.Query().Get("filter"))
	if filter == "" {
		filter = models.FilterAll
	}
	if !filter.Valid() {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Unknown filter"))
		return
	}

	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid page"))
			return
		}
		page = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result, err := h.directory.Search(ctx, viewerID, q, filter, page)
	if err != nil {
		log.Error().Err(err).Str("user", viewerID).Str("filter", string(filter)).Msg("directory search failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Search failed"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(result))
}

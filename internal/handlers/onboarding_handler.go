package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog/log"

	"github.com/unilink/backend/internal/middleware"
	"github.com/unilink/backend/internal/models"
	"github.com/unilink/backend/internal/onboarding"
	"github.com/unilink/backend/internal/services"
	"github.com/unilink/backend/internal/storage"
	"github.com/unilink/backend/internal/validation"
)

type OnboardingHandler struct {
	drafts      services.OnboardingService
	profiles    services.ProfileService
	contacts    services.ContactService
	experiences services.ExperienceService
	avatars     storage.AvatarStore
	directory   *services.DirectoryService
	authClient  *fbauth.Client
	maxSizeMB   int64
}

func NewOnboardingHandler(
	drafts services.OnboardingService,
	profiles services.ProfileService,
	contacts services.ContactService,
	experiences services.ExperienceService,
	avatars storage.AvatarStore,
	directory *services.DirectoryService,
	authClient *fbauth.Client,
	maxSizeMB int64,
) *OnboardingHandler {
	return &OnboardingHandler{
		drafts:      drafts,
		profiles:    profiles,
		contacts:    contacts,
		experiences: experiences,
		avatars:     avatars,
		directory:   directory,
		authClient:  authClient,
		maxSizeMB:   maxSizeMB,
	}
}

type onboardingState struct {
	Draft    *models.OnboardingDraft `json:"draft"`
	StepName string                  `json:"step_name"`
	Steps    []string                `json:"steps"`
	CanNext  bool                    `json:"can_next"`
	Reason   string                  `json:"reason,omitempty"`
}

func stateOf(draft *models.OnboardingDraft) onboardingState {
	w := onboarding.New(draft)
	ok, reason := w.StepValid(w.Current())
	return onboardingState{
		Draft:    draft,
		StepName: w.Current().String(),
		Steps:    onboarding.Steps(),
		CanNext:  ok,
		Reason:   reason,
	}
}

var errUnauthorized = errors.New("unauthorized")

func (h *OnboardingHandler) draftFor(ctx context.Context, r *http.Request) (*models.OnboardingDraft, string, error) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		return nil, "", errUnauthorized
	}
	email := middleware.GetUserEmail(r.Context())
	draft, err := h.drafts.GetOrCreate(ctx, userID, email)
	return draft, userID, err
}

func (h *OnboardingHandler) writeDraftError(w http.ResponseWriter, err error) {
	if errors.Is(err, errUnauthorized) {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}
	writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load onboarding state"))
}

// GetState returns the caller's draft, creating a fresh one on first visit.
func (h *OnboardingHandler) GetState(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	draft, _, err := h.draftFor(ctx, r)
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(stateOf(draft)))
}

// UpdateDraft patches the draft's sections without moving the step pointer.
func (h *OnboardingHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	if fieldErrs := validation.Struct(req); fieldErrs != nil {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(fieldErrs))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	draft, _, err := h.draftFor(ctx, r)
	if err != nil {
		h.writeDraftError(w, err)
		return
	}

	if req.Identity != nil {
		draft.Identity = *req.Identity
	}
	if req.Academics != nil {
		draft.Academics = *req.Academics
	}
	if req.Contacts != nil {
		draft.Contacts = *req.Contacts
	}

	if err := h.drafts.Save(ctx, draft); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to save draft"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(stateOf(draft)))
}

// Next advances the wizard one step, gated on the active step's validity.
func (h *OnboardingHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, func(wiz *onboarding.Wizard) error { return wiz.Next() })
}

// Back retreats one step; navigation back onto a completed password step is
// refused.
func (h *OnboardingHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, func(wiz *onboarding.Wizard) error { return wiz.Back() })
}

func (h *OnboardingHandler) navigate(w http.ResponseWriter, r *http.Request, move func(*onboarding.Wizard) error) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	draft, _, err := h.draftFor(ctx, r)
	if err != nil {
		h.writeDraftError(w, err)
		return
	}

	wiz := onboarding.New(draft)
	if err := move(wiz); err != nil {
		switch {
		case errors.Is(err, onboarding.ErrStepIncomplete):
			writeJSON(w, http.StatusConflict, models.NewErrorResponse(err.Error()))
		case errors.Is(err, onboarding.ErrStepLocked):
			writeJSON(w, http.StatusConflict, models.NewErrorResponse("The password step cannot be revisited"))
		case errors.Is(err, onboarding.ErrFirstStep), errors.Is(err, onboarding.ErrLastStep):
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse(err.Error()))
		default:
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to move step"))
		}
		return
	}

	if err := h.drafts.Save(ctx, draft); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to save draft"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(stateOf(draft)))
}

type setPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// SetPassword sets the account password upstream and marks the step done.
func (h *OnboardingHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req setPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	if fieldErrs := validation.Struct(req); fieldErrs != nil {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(fieldErrs))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	draft, userID, err := h.draftFor(ctx, r)
	if err != nil {
		h.writeDraftError(w, err)
		return
	}

	if h.authClient != nil {
		update := (&fbauth.UserToUpdate{}).Password(req.Password)
		if _, err := h.authClient.UpdateUser(ctx, userID, update); err != nil {
			log.Error().Err(err).Str("user", userID).Msg("password update failed")
			writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Failed to set password"))
			return
		}
	}

	draft.PasswordSet = true
	if err := h.drafts.Save(ctx, draft); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to save draft"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(stateOf(draft)))
}

// Complete finishes onboarding: an optional multipart "photo" part is
// uploaded first, then profile, contact and experience rows are written in
// order. On success the draft is discarded and the directory entry warms.
func (h *OnboardingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	draft, userID, err := h.draftFor(ctx, r)
	if err != nil {
		h.writeDraftError(w, err)
		return
	}

	var photo *onboarding.Photo
	if ct := r.Header.Get("Content-Type"); strings.HasPrefix(ct, "multipart/") {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxSizeMB*1024*1024)
		if err := r.ParseMultipartForm(h.maxSizeMB * 1024 * 1024); err != nil {
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("File too large or invalid form data"))
			return
		}
		file, header, err := r.FormFile("photo")
		if err == nil {
			defer file.Close()
			contentType := header.Header.Get("Content-Type")
			if !isValidImageType(contentType) {
				writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid image type. Allowed: JPEG, PNG, GIF, WebP"))
				return
			}
			photo = &onboarding.Photo{ContentType: contentType, Data: file}
		} else if err != http.ErrMissingFile {
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid photo upload"))
			return
		}
	}

	completer := &onboarding.Completer{
		Avatars:     h.avatars,
		Profiles:    h.profiles,
		Contacts:    h.contacts,
		Experiences: h.experiences,
	}
	if err := completer.Complete(ctx, draft, photo); err != nil {
		if errors.Is(err, onboarding.ErrStepIncomplete) {
			writeJSON(w, http.StatusConflict, models.NewErrorResponse(err.Error()))
			return
		}
		log.Error().Err(err).Str("user", userID).Msg("onboarding completion failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to complete onboarding"))
		return
	}

	if err := h.drafts.Delete(ctx, userID); err != nil && !errors.Is(err, services.ErrDraftNotFound) {
		log.Warn().Err(err).Str("user", userID).Msg("draft cleanup failed")
	}
	h.directory.Invalidate(ctx, userID)

	prof, err := h.profiles.GetByUserID(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]bool{"onboarded": true}))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(prof))
}

package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog/log"

	"github.com/unilink/backend/internal/models"
	"github.com/unilink/backend/internal/services"
)

// AuthHandler fronts the hosted auth provider: it generates magic-link and
// password-reset links, mails them, and consumes the provider's event
// webhook. Credential storage and session issuance stay on the provider.
type AuthHandler struct {
	authClient    *fbauth.Client
	profiles      services.ProfileService
	mailer        *services.SendGridMailer
	recaptcha     *services.RecaptchaVerifier
	appBaseURL    string
	webhookSecret string
}

func NewAuthHandler(
	authClient *fbauth.Client,
	profiles services.ProfileService,
	mailer *services.SendGridMailer,
	recaptcha *services.RecaptchaVerifier,
	appBaseURL string,
	webhookSecret string,
) *AuthHandler {
	return &AuthHandler{
		authClient:    authClient,
		profiles:      profiles,
		mailer:        mailer,
		recaptcha:     recaptcha,
		appBaseURL:    appBaseURL,
		webhookSecret: webhookSecret,
	}
}

type linkRequestBody struct {
	Email          string `json:"email"`
	RecaptchaToken string `json:"recaptchaToken"`
}

// MagicLink emails a one-time sign-in link generated by the hosted auth
// provider.
func (h *AuthHandler) MagicLink(w http.ResponseWriter, r *http.Request) {
	h.sendLink(w, r, "magic link", func(ctx context.Context, email string) (string, error) {
		settings := &fbauth.ActionCodeSettings{
			URL:             h.appBaseURL + "/login",
			HandleCodeInApp: true,
		}
		return h.authClient.EmailSignInLink(ctx, email, settings)
	}, h.mailer.SendMagicLink)
}

// PasswordReset emails a password-reset link generated by the hosted auth
// provider.
func (h *AuthHandler) PasswordReset(w http.ResponseWriter, r *http.Request) {
	h.sendLink(w, r, "password reset", func(ctx context.Context, email string) (string, error) {
		return h.authClient.PasswordResetLink(ctx, email)
	}, h.mailer.SendPasswordReset)
}

func (h *AuthHandler) sendLink(
	w http.ResponseWriter,
	r *http.Request,
	what string,
	generate func(ctx context.Context, email string) (string, error),
	deliver func(ctx context.Context, email, link string) error,
) {
	var req linkRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || len(email) > 254 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{"email": "A valid email is required"}))
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{"email": "A valid email is required"}))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	ok, reason, err := h.recaptcha.Verify(ctx, req.RecaptchaToken, clientIP(r))
	if err != nil {
		log.Error().Err(err).Msg("recaptcha verification error")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to verify reCAPTCHA"))
		return
	}
	if !ok {
		log.Warn().Str("reason", reason).Str("ip", clientIP(r)).Msg("recaptcha rejected")
		writeJSON(w, http.StatusForbidden, models.NewErrorResponse("reCAPTCHA verification failed"))
		return
	}

	if h.authClient == nil {
		writeJSON(w, http.StatusServiceUnavailable, models.NewErrorResponse("Sign-in links are not available"))
		return
	}

	link, err := generate(ctx, email)
	if err != nil {
		// Unknown accounts fail link generation; respond as if sent so the
		// endpoint cannot be used to probe for accounts.
		log.Warn().Err(err).Str("kind", what).Msg("link generation failed")
		writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "If the address has an account, an email is on its way"}))
		return
	}

	if err := deliver(ctx, email, link); err != nil {
		log.Error().Err(err).Str("kind", what).Msg("link delivery failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to send email"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "If the address has an account, an email is on its way"}))
}

type authEventBody struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Events consumes the hosted auth provider's webhook. Sign-in events ensure
// a profile row exists; the rest are logged for the record.
func (h *AuthHandler) Events(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Auth-Webhook-Secret")), []byte(h.webhookSecret)) != 1 {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	var ev authEventBody
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	if ev.UserID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing user_id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	switch ev.Type {
	case "user.signed_in":
		if _, err := h.profiles.GetOrCreate(ctx, ev.UserID, ev.Email); err != nil {
			log.Error().Err(err).Str("user", ev.UserID).Msg("profile ensure on sign-in failed")
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to process event"))
			return
		}
	case "user.signed_out", "user.password_recovery":
		log.Info().Str("type", ev.Type).Str("user", ev.UserID).Msg("auth event received")
	default:
		log.Warn().Str("type", ev.Type).Msg("unknown auth event type")
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"status": "processed"}))
}

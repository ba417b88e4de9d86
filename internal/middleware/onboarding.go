package middleware

import (
	"context"
	"net/http"

	"github.com/unilink/backend/internal/models"
)

// OnboardedChecker is the slice of the profile service the onboarding gate
// needs.
type OnboardedChecker interface {
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
}

// RequireNotOnboarded blocks users who already completed onboarding from the
// wizard routes. A missing profile row passes through: the wizard creates it.
func RequireNotOnboarded(profiles OnboardedChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
				return
			}
			prof, err := profiles.GetByUserID(r.Context(), userID)
			if err == nil && prof != nil && prof.Onboarded {
				writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Onboarding already completed"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

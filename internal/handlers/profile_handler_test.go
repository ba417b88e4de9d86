package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/unilink/backend/internal/middleware"
	"github.com/unilink/backend/internal/models"
	"github.com/unilink/backend/internal/services"
)

type stubProfiles struct {
	services.ProfileService

	profiles  map[string]*models.Profile
	updateReq *models.UpdateProfileRequest
}

func (s *stubProfiles) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	if p, ok := s.profiles[userID]; ok {
		return p, nil
	}
	return nil, services.ErrProfileNotFound
}

func (s *stubProfiles) Update(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.Profile, error) {
	s.updateReq = req
	p, ok := s.profiles[userID]
	if !ok {
		return nil, services.ErrProfileNotFound
	}
	if req.CurrentDegree != nil {
		p.CurrentDegree = *req.CurrentDegree
	}
	return p, nil
}

type stubContacts struct {
	services.ContactService

	contact *models.Contact
}

func (s *stubContacts) GetByUserID(ctx context.Context, userID string) (*models.Contact, error) {
	if s.contact == nil {
		return nil, services.ErrContactNotFound
	}
	return s.contact, nil
}

type stubExperiences struct {
	services.ExperienceService

	replacedRows []models.Experience
	replaceCalls int
	listed       []models.Experience
}

func (s *stubExperiences) ReplaceForUser(ctx context.Context, userID string, rows []models.Experience) error {
	s.replaceCalls++
	s.replacedRows = rows
	return nil
}

func (s *stubExperiences) ListByUserID(ctx context.Context, userID string) ([]models.Experience, error) {
	return s.listed, nil
}

func (s *stubExperiences) ByUserIDs(ctx context.Context, userIDs []string) (map[string][]models.Experience, error) {
	return map[string][]models.Experience{}, nil
}

func authedRequest(method, target, body, userID string) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
	return r.WithContext(ctx)
}

func newTestProfileHandler(profiles *stubProfiles, contacts *stubContacts, experiences *stubExperiences) *ProfileHandler {
	directory := services.NewDirectoryService(profiles, experiences, nil)
	return NewProfileHandler(profiles, contacts, experiences, directory)
}

func TestSaveAcademicsReplacesRows(t *testing.T) {
	profiles := &stubProfiles{profiles: map[string]*models.Profile{
		"u1": {UserID: "u1", Onboarded: true},
	}}
	experiences := &stubExperiences{}
	h := newTestProfileHandler(profiles, &stubContacts{}, experiences)

	body := `{
		"current_degree": "MSc Computer Science",
		"courses": [{"title": "Algorithms", "code": "CS201"}, {"title": "Databases"}],
		"internships": [{"organization": "Acme Corp", "title": "Intern"}]
	}`
	rec := httptest.NewRecorder()
	h.SaveAcademics(rec, authedRequest(http.MethodPut, "/api/profile/academics", body, "u1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if experiences.replaceCalls != 1 {
		t.Fatalf("ReplaceForUser called %d times, want 1", experiences.replaceCalls)
	}
	if len(experiences.replacedRows) != 3 {
		t.Fatalf("replaced with %d rows, want 3", len(experiences.replacedRows))
	}
	for _, row := range experiences.replacedRows {
		if row.UserID != "u1" {
			t.Errorf("row owner = %q", row.UserID)
		}
		if row.ID == "" {
			t.Error("row missing id")
		}
	}
	if profiles.updateReq == nil || profiles.updateReq.CurrentDegree == nil {
		t.Fatal("current degree was not written to the profile")
	}
	if *profiles.updateReq.CurrentDegree != "MSc Computer Science" {
		t.Errorf("degree = %q", *profiles.updateReq.CurrentDegree)
	}
}

func TestSaveAcademicsRejectsBadBody(t *testing.T) {
	experiences := &stubExperiences{}
	h := newTestProfileHandler(&stubProfiles{}, &stubContacts{}, experiences)

	rec := httptest.NewRecorder()
	h.SaveAcademics(rec, authedRequest(http.MethodPut, "/api/profile/academics", "{not json", "u1"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if experiences.replaceCalls != 0 {
		t.Error("rows replaced on invalid input")
	}
}

func publicProfileVia(t *testing.T, h *ProfileHandler, viewerID, targetID string) map[string]json.RawMessage {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/api/profile/{userId}", h.GetPublicProfile)

	req := authedRequest(http.MethodGet, "/api/profile/"+targetID, "", viewerID)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Success bool                       `json:"success"`
		Data    map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

func TestGetPublicProfileContactGating(t *testing.T) {
	profiles := &stubProfiles{profiles: map[string]*models.Profile{
		"target":       {UserID: "target", FirstName: "Ada", Onboarded: true},
		"onboarded":    {UserID: "onboarded", Onboarded: true},
		"notOnboarded": {UserID: "notOnboarded", Onboarded: false},
	}}
	contacts := &stubContacts{contact: &models.Contact{
		UserID:     "target",
		Email:      "ada@example.edu",
		Visibility: models.ContactVisibleToStudents,
	}}
	h := newTestProfileHandler(profiles, contacts, &stubExperiences{})

	data := publicProfileVia(t, h, "onboarded", "target")
	if _, ok := data["contact"]; !ok {
		t.Error("onboarded viewer should see shared contact channels")
	}

	data = publicProfileVia(t, h, "notOnboarded", "target")
	if _, ok := data["contact"]; ok {
		t.Error("non-onboarded viewer must not see contact channels")
	}
}

func TestGetPublicProfilePrivateContactHidden(t *testing.T) {
	profiles := &stubProfiles{profiles: map[string]*models.Profile{
		"target": {UserID: "target", Onboarded: true},
		"viewer": {UserID: "viewer", Onboarded: true},
	}}
	contacts := &stubContacts{contact: &models.Contact{
		UserID:     "target",
		Email:      "ada@example.edu",
		Visibility: models.ContactPrivate,
	}}
	h := newTestProfileHandler(profiles, contacts, &stubExperiences{})

	data := publicProfileVia(t, h, "viewer", "target")
	if _, ok := data["contact"]; ok {
		t.Error("private contact leaked to another student")
	}
}

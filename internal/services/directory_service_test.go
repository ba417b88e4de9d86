package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/unilink/backend/internal/models"
)

type fakeProfiles struct {
	ProfileService

	searchQ       string
	searchExclude string
	searchOffset  int64
	searchLimit   int64
	searchResult  []*models.Profile

	byIDsArg []string
}

func (f *fakeProfiles) Search(ctx context.Context, q, excludeUserID string, offset, limit int64) ([]*models.Profile, error) {
	f.searchQ, f.searchExclude = q, excludeUserID
	f.searchOffset, f.searchLimit = offset, limit
	if int64(len(f.searchResult)) > limit {
		return f.searchResult[:limit], nil
	}
	return f.searchResult, nil
}

func (f *fakeProfiles) ByUserIDs(ctx context.Context, userIDs []string) ([]*models.Profile, error) {
	f.byIDsArg = userIDs
	out := make([]*models.Profile, 0, len(userIDs))
	for _, id := range userIDs {
		out = append(out, &models.Profile{UserID: id, Onboarded: true})
	}
	return out, nil
}

type fakeExperiences struct {
	ExperienceService

	ownerKind models.ExperienceKind
	ownerQ    string
	ownerIDs  []string

	byOwner map[string][]models.Experience
}

func (f *fakeExperiences) OwnerIDs(ctx context.Context, kind models.ExperienceKind, q string, limit int64) ([]string, error) {
	f.ownerKind, f.ownerQ = kind, q
	if int64(len(f.ownerIDs)) > limit {
		return f.ownerIDs[:limit], nil
	}
	return f.ownerIDs, nil
}

func (f *fakeExperiences) ByUserIDs(ctx context.Context, userIDs []string) (map[string][]models.Experience, error) {
	if f.byOwner == nil {
		return map[string][]models.Experience{}, nil
	}
	return f.byOwner, nil
}

func profilesNamed(n int) []*models.Profile {
	out := make([]*models.Profile, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &models.Profile{UserID: fmt.Sprintf("u%d", i), Onboarded: true})
	}
	return out
}

func TestSearchAllFilterPagination(t *testing.T) {
	profiles := &fakeProfiles{searchResult: profilesNamed(DirectoryPageSize + 1)}
	svc := NewDirectoryService(profiles, &fakeExperiences{}, nil)

	page, err := svc.Search(context.Background(), "viewer", "ada", models.FilterAll, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(page.Entries) != DirectoryPageSize {
		t.Errorf("got %d entries, want %d", len(page.Entries), DirectoryPageSize)
	}
	if !page.HasMore {
		t.Error("extra row should signal another page")
	}
	if profiles.searchExclude != "viewer" {
		t.Errorf("viewer %q not excluded from search", profiles.searchExclude)
	}
	if profiles.searchLimit != DirectoryPageSize+1 {
		t.Errorf("limit = %d, want probe row", profiles.searchLimit)
	}
	if profiles.searchOffset != 0 {
		t.Errorf("offset = %d, want 0", profiles.searchOffset)
	}
}

func TestSearchAllFilterLastPage(t *testing.T) {
	profiles := &fakeProfiles{searchResult: profilesNamed(3)}
	svc := NewDirectoryService(profiles, &fakeExperiences{}, nil)

	page, err := svc.Search(context.Background(), "viewer", "", models.FilterAll, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.HasMore {
		t.Error("short page should not signal more results")
	}
	if profiles.searchOffset != 2*DirectoryPageSize {
		t.Errorf("offset = %d, want %d", profiles.searchOffset, 2*DirectoryPageSize)
	}
}

func TestSearchTypedFilterExcludesViewer(t *testing.T) {
	experiences := &fakeExperiences{ownerIDs: []string{"u1", "viewer", "u2"}}
	profiles := &fakeProfiles{}
	svc := NewDirectoryService(profiles, experiences, nil)

	page, err := svc.Search(context.Background(), "viewer", "algo", models.FilterCourse, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if experiences.ownerKind != models.ExperienceCourse {
		t.Errorf("owner lookup kind = %s, want course", experiences.ownerKind)
	}
	for _, e := range page.Entries {
		if e.UserID == "viewer" {
			t.Error("viewer appeared in their own results")
		}
	}
	if len(page.Entries) != 2 {
		t.Errorf("got %d entries, want 2", len(page.Entries))
	}
}

func TestSearchInvalidInputsNormalized(t *testing.T) {
	profiles := &fakeProfiles{}
	svc := NewDirectoryService(profiles, &fakeExperiences{}, nil)

	page, err := svc.Search(context.Background(), "viewer", "", "bogus", -5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Page != 0 {
		t.Errorf("page = %d, want clamped to 0", page.Page)
	}
	// An unknown filter falls back to the substring path.
	if profiles.searchLimit == 0 {
		t.Error("fallback search path never ran")
	}
}

func TestPageOfIDs(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}

	testCases := []struct {
		name     string
		page     int
		size     int
		want     []string
		wantMore bool
	}{
		{"first page", 0, 2, []string{"a", "b"}, true},
		{"middle page", 1, 2, []string{"c", "d"}, true},
		{"short last page", 2, 2, []string{"e"}, false},
		{"past the end", 3, 2, []string{}, false},
		{"whole list", 0, 10, ids, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, more := pageOfIDs(ids, tc.page, tc.size)
			if len(got) != len(tc.want) {
				t.Fatalf("page = %v, want %v", got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("page = %v, want %v", got, tc.want)
				}
			}
			if more != tc.wantMore {
				t.Errorf("more = %v, want %v", more, tc.wantMore)
			}
		})
	}
}

func TestBadgesFor(t *testing.T) {
	exps := []models.Experience{
		{Kind: models.ExperienceCourse, Title: "Algorithms"},
		{Kind: models.ExperienceExchange, Organization: "KTH Stockholm"},
		{Kind: models.ExperienceDegree},
	}

	badges := badgesFor(exps)
	if len(badges) != 2 {
		t.Fatalf("got %d badges, want 2 (unlabeled rows skipped)", len(badges))
	}
	if badges[0].Label != "Algorithms" {
		t.Errorf("badge label = %q, want the title", badges[0].Label)
	}
	if badges[1].Label != "KTH Stockholm" {
		t.Errorf("badge label = %q, want the organization fallback", badges[1].Label)
	}
}

func TestProfileSearchFilter(t *testing.T) {
	f := profileSearchFilter("ada", "viewer")
	if f["onboarded"] != true {
		t.Error("filter must pin onboarded profiles")
	}
	if _, ok := f["$or"]; !ok {
		t.Error("non-empty query should add the name/degree clauses")
	}

	f = profileSearchFilter("", "viewer")
	if _, ok := f["$or"]; ok {
		t.Error("empty query should match every onboarded profile")
	}
}

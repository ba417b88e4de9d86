package services

import (
	"context"

	"github.com/unilink/backend/internal/cache"
	"github.com/unilink/backend/internal/models"
)

const (
	// DirectoryPageSize is the number of entries per search page.
	DirectoryPageSize = 12
	// ownerIDCap bounds how many experience owners a typed filter collects
	// before paginating the id list in memory.
	ownerIDCap = 200
)

// DirectoryService answers directory searches: substring search over
// profiles for the "all" filter, experience-owner lookup for typed filters,
// both denormalized with experience badges.
type DirectoryService struct {
	profiles    ProfileService
	experiences ExperienceService
	entries     *cache.DirectoryCache
}

func NewDirectoryService(profiles ProfileService, experiences ExperienceService, entries *cache.DirectoryCache) *DirectoryService {
	return &DirectoryService{
		profiles:    profiles,
		experiences: experiences,
		entries:     entries,
	}
}

func (s *DirectoryService) Search(ctx context.Context, viewerID, q string, filter models.DirectoryFilter, page int) (*models.SearchPage, error) {
	if page < 0 {
		page = 0
	}
	if !filter.Valid() {
		filter = models.FilterAll
	}

	var (
		profiles []*models.Profile
		hasMore  bool
		err      error
	)

	if filter == models.FilterAll {
		// Fetch one extra row to learn whether another page exists.
		offset := int64(page) * DirectoryPageSize
		profiles, err = s.profiles.Search(ctx, q, viewerID, offset, DirectoryPageSize+1)
		if err != nil {
			return nil, err
		}
		if len(profiles) > DirectoryPageSize {
			profiles = profiles[:DirectoryPageSize]
			hasMore = true
		}
	} else {
		ownerIDs, err := s.experiences.OwnerIDs(ctx, models.ExperienceKind(filter), q, ownerIDCap)
		if err != nil {
			return nil, err
		}
		ownerIDs = withoutID(ownerIDs, viewerID)

		pageIDs, more := pageOfIDs(ownerIDs, page, DirectoryPageSize)
		hasMore = more
		profiles, err = s.profiles.ByUserIDs(ctx, pageIDs)
		if err != nil {
			return nil, err
		}
	}

	entries, err := s.denormalize(ctx, profiles)
	if err != nil {
		return nil, err
	}

	return &models.SearchPage{
		Entries: entries,
		Page:    page,
		HasMore: hasMore,
	}, nil
}

// Entry returns the denormalized card for one user, via the cache when warm.
func (s *DirectoryService) Entry(ctx context.Context, userID string) (*models.DirectoryEntry, error) {
	if entry, ok := s.entries.Get(ctx, userID); ok {
		return entry, nil
	}

	prof, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	exps, err := s.experiences.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry := models.DirectoryEntry{
		PublicProfile: prof.Public(),
		Badges:        badgesFor(exps),
	}
	s.entries.Set(ctx, entry)
	return &entry, nil
}

// Invalidate drops a user's cached card after a profile or academics write.
func (s *DirectoryService) Invalidate(ctx context.Context, userID string) {
	s.entries.Invalidate(ctx, userID)
}

// denormalize bulk-fetches badges for a page of profiles and attaches them
// per owner.
func (s *DirectoryService) denormalize(ctx context.Context, profiles []*models.Profile) ([]models.DirectoryEntry, error) {
	entries := make([]models.DirectoryEntry, 0, len(profiles))
	if len(profiles) == 0 {
		return entries, nil
	}

	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
	}

	byOwner, err := s.experiences.ByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, p := range profiles {
		entry := models.DirectoryEntry{
			PublicProfile: p.Public(),
			Badges:        badgesFor(byOwner[p.UserID]),
		}
		entries = append(entries, entry)
		s.entries.Set(ctx, entry)
	}
	return entries, nil
}

// pageOfIDs slices one page out of the collected owner ids and reports
// whether more pages follow.
func pageOfIDs(ids []string, page, size int) ([]string, bool) {
	start := page * size
	if start >= len(ids) {
		return []string{}, false
	}
	end := start + size
	if end > len(ids) {
		end = len(ids)
	}
	return ids[start:end], end < len(ids)
}

// withoutID filters the viewer out of an owner id list.
func withoutID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// badgesFor compacts experience rows into card badges, preferring the title
// and falling back to the organization.
func badgesFor(exps []models.Experience) []models.Badge {
	badges := make([]models.Badge, 0, len(exps))
	for _, e := range exps {
		label := e.Title
		if label == "" {
			label = e.Organization
		}
		if label == "" {
			continue
		}
		badges = append(badges, models.Badge{Kind: e.Kind, Label: label})
	}
	return badges
}

package models

// DirectoryFilter selects the search path: substring search over profiles for
// "all", or experience-driven lookup for a typed filter.
type DirectoryFilter string

const (
	FilterAll      DirectoryFilter = "all"
	FilterDegree   DirectoryFilter = "degree"
	FilterCourse   DirectoryFilter = "course"
	FilterExchange DirectoryFilter = "exchange"
)

// Valid reports whether f is one of the known filters.
func (f DirectoryFilter) Valid() bool {
	switch f {
	case FilterAll, FilterDegree, FilterCourse, FilterExchange:
		return true
	}
	return false
}

// Badge is a compact experience marker shown on a directory card.
type Badge struct {
	Kind  ExperienceKind `json:"kind"`
	Label string         `json:"label"`
}

// DirectoryEntry is a profile denormalized with its experience badges.
type DirectoryEntry struct {
	PublicProfile
	Badges []Badge `json:"badges"`
}

// SearchPage is one page of directory results.
type SearchPage struct {
	Entries []DirectoryEntry `json:"entries"`
	Page    int              `json:"page"`
	HasMore bool             `json:"has_more"`
}

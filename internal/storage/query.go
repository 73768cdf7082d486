package storage

import (
	"sort"
	"strings"

	"vidtube/internal/models"
)

// normalizedQuery is a VideoQuery with defaults applied and every field
// validated against the allow-lists.
type normalizedQuery struct {
	Page          int
	Limit         int
	Query         string
	SortBy        SortField
	Descending    bool
	OwnerUsername string
}

func (q VideoQuery) normalize() (normalizedQuery, error) {
	out := normalizedQuery{Page: q.Page, Limit: q.Limit}
	if out.Page == 0 {
		out.Page = 1
	}
	if out.Limit == 0 {
		out.Limit = defaultPageSize
	}
	if out.Page < 1 {
		return normalizedQuery{}, InvalidArgumentf("page must be positive")
	}
	if out.Limit < 1 {
		return normalizedQuery{}, InvalidArgumentf("limit must be positive")
	}
	if out.Limit > MaxPageSize {
		return normalizedQuery{}, InvalidArgumentf("limit exceeds maximum of %d", MaxPageSize)
	}

	out.SortBy = SortByCreatedAt
	if q.SortBy != "" {
		switch q.SortBy {
		case SortByTitle, SortByCreatedAt, SortByDuration, SortByViews:
			out.SortBy = q.SortBy
		default:
			return normalizedQuery{}, InvalidArgumentf("unsupported sort field %q", string(q.SortBy))
		}
	}
	switch q.Direction {
	case "", SortAscending:
	case SortDescending:
		out.Descending = true
	default:
		return normalizedQuery{}, InvalidArgumentf("unsupported sort direction %q", string(q.Direction))
	}

	out.Query = strings.ToLower(trimmed(q.Query))
	out.OwnerUsername = FoldUsername(q.OwnerUsername)
	return out, nil
}

func matchesText(video models.Video, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(video.Title), query) ||
		strings.Contains(strings.ToLower(video.Description), query)
}

func sortVideos(videos []models.Video, field SortField, descending bool) {
	less := func(a, b models.Video) bool { return a.CreatedAt.Before(b.CreatedAt) }
	switch field {
	case SortByTitle:
		less = func(a, b models.Video) bool { return a.Title < b.Title }
	case SortByDuration:
		less = func(a, b models.Video) bool { return a.Duration < b.Duration }
	case SortByViews:
		less = func(a, b models.Video) bool { return a.Views < b.Views }
	}
	sort.SliceStable(videos, func(i, j int) bool {
		a, b := videos[i], videos[j]
		if descending {
			a, b = b, a
		}
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		// Stable tiebreak so pages concatenate without duplicates.
		return a.ID < b.ID
	})
}

// ListVideos filters, sorts, and paginates the catalog. Totals reflect the
// filtered set before pagination; an empty page is a valid result.
func (s *Storage) ListVideos(query VideoQuery) (VideoPage, error) {
	normalized, err := query.normalize()
	if err != nil {
		return VideoPage{}, err
	}

	ownerID := ""
	if normalized.OwnerUsername != "" {
		owner, ok := s.FindUserByUsername(normalized.OwnerUsername)
		if !ok {
			return VideoPage{}, NotFoundf("user %s not found", normalized.OwnerUsername)
		}
		ownerID = owner.ID
	}

	s.mu.RLock()
	matched := make([]models.Video, 0, len(s.data.Videos))
	for _, video := range s.data.Videos {
		if ownerID != "" && video.OwnerID != ownerID {
			continue
		}
		if !matchesText(video, normalized.Query) {
			continue
		}
		matched = append(matched, video)
	}
	s.mu.RUnlock()

	sortVideos(matched, normalized.SortBy, normalized.Descending)

	total := len(matched)
	page := VideoPage{
		Items:      []models.Video{},
		Page:       normalized.Page,
		Limit:      normalized.Limit,
		TotalCount: total,
		TotalPages: (total + normalized.Limit - 1) / normalized.Limit,
	}
	skip := (normalized.Page - 1) * normalized.Limit
	if skip < total {
		end := skip + normalized.Limit
		if end > total {
			end = total
		}
		page.Items = matched[skip:end]
	}
	return page, nil
}

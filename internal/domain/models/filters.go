package models

import (
	"fmt"
	"github.com/samber/lo"
	"strings"
)

type SortOrder string

const (
	SortNone        SortOrder = ""
	SortNewestFirst SortOrder = "posting_date_desc"
	SortOldestFirst SortOrder = "posting_date_asc"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case SortNone, SortNewestFirst, SortOldestFirst:
		return SortOrder(s), nil
	default:
		return "", fmt.Errorf("invalid sort order: %v", s)
	}
}

// FilterCriteria is transient client state, rebuilt from user input.
// Empty fields are never sent to the backend.
type FilterCriteria struct {
	JobType  string
	Location string
	Tags     []string
	Keyword  string
	Sort     SortOrder
}

// Merge overrides only the fields that are set in other.
func (f FilterCriteria) Merge(other FilterCriteria) FilterCriteria {
	if v := strings.TrimSpace(other.JobType); v != "" {
		f.JobType = v
	}
	if v := strings.TrimSpace(other.Location); v != "" {
		f.Location = v
	}
	if tags := normalizeTags(other.Tags); len(tags) > 0 {
		f.Tags = tags
	}
	if v := strings.TrimSpace(other.Keyword); v != "" {
		f.Keyword = v
	}
	if other.Sort != SortNone {
		f.Sort = other.Sort
	}
	return f
}

func (f FilterCriteria) WithSort(sort SortOrder) FilterCriteria {
	f.Sort = sort
	return f
}

func (f FilterCriteria) IsEmpty() bool {
	return f.JobType == "" && f.Location == "" && len(f.Tags) == 0 && f.Keyword == "" && f.Sort == SortNone
}

// Narrows reports whether the criteria restrict the result set. Sorting alone does not.
func (f FilterCriteria) Narrows() bool {
	return f.JobType != "" || f.Location != "" || len(f.Tags) > 0 || f.Keyword != ""
}

func (f FilterCriteria) String() string {
	parts := lo.Compact([]string{
		labeled("type", f.JobType),
		labeled("location", f.Location),
		labeled("tags", strings.Join(f.Tags, ", ")),
		labeled("keyword", f.Keyword),
		labeled("sort", string(f.Sort)),
	})
	if len(parts) == 0 {
		return "no filters"
	}
	return strings.Join(parts, "; ")
}

func labeled(label, value string) string {
	if value == "" {
		return ""
	}
	return label + ": " + value
}

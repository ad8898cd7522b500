package models

import (
	"github.com/samber/lo"
	"strings"
)

// SuggestionSet holds autocomplete candidates derived from existing jobs.
// It is recomputed on every fetch cycle and never validated.
type SuggestionSet struct {
	JobTypes  []string
	Locations []string
	Tags      []string
}

// BuildSuggestions collects distinct values in first-seen order.
func BuildSuggestions(jobs []Job) SuggestionSet {
	return SuggestionSet{
		JobTypes:  distinct(lo.Map(jobs, func(j Job, _ int) string { return j.JobType })),
		Locations: distinct(lo.Map(jobs, func(j Job, _ int) string { return j.Location })),
		Tags:      distinct(lo.FlatMap(jobs, func(j Job, _ int) []string { return j.Tags })),
	}
}

func distinct(values []string) []string {
	trimmed := lo.FilterMap(values, func(v string, _ int) (string, bool) {
		v = strings.TrimSpace(v)
		return v, v != ""
	})
	return lo.Uniq(trimmed)
}

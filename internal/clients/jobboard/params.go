package jobboard

import (
	"fmt"
	"github.com/maxaizer/jobboard-bot/internal/domain/models"
	"github.com/samber/lo"
	"net/url"
	"strings"
)

type ListParameters struct {
	JobType  string
	Location string
	Tags     []string
	Keyword  string
	Sort     models.SortOrder
}

func ParametersFrom(filters models.FilterCriteria) ListParameters {
	return ListParameters{
		JobType:  filters.JobType,
		Location: filters.Location,
		Tags:     filters.Tags,
		Keyword:  filters.Keyword,
		Sort:     filters.Sort,
	}
}

func (p ListParameters) Validate() error {
	if _, err := models.ParseSortOrder(string(p.Sort)); err != nil {
		return err
	}
	return nil
}

// ToUrlParams omits every empty field and joins tags into a single "tag" value.
func (p ListParameters) ToUrlParams() url.Values {

	params := url.Values{}
	addIfSet := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			params.Add(key, value)
		}
	}

	addIfSet("job_type", p.JobType)
	addIfSet("location", p.Location)
	addIfSet("tag", strings.Join(lo.Compact(lo.Map(p.Tags, func(t string, _ int) string {
		return strings.TrimSpace(t)
	})), ","))
	addIfSet("keyword", p.Keyword)
	addIfSet("sort", string(p.Sort))

	return params
}

func (p ListParameters) String() string {
	return fmt.Sprintf("%q", p.ToUrlParams().Encode())
}

package board

import (
	"github.com/maxaizer/jobboard-bot/internal/domain/models"
)

type FetchStatus int

const (
	FetchIdle FetchStatus = iota
	FetchLoading
	FetchSuccess
	FetchEmpty
	FetchError
)

type MutationStatus int

const (
	MutationIdle MutationStatus = iota
	MutationSubmitting
	MutationSuccess
	MutationError
)

const (
	MessageNoJobs         = "No jobs found matching the criteria."
	MessageFetchFailed    = "Error fetching jobs. Please check the backend server."
	MessageFieldsRequired = "All fields are required."
	MessageCreateFailed   = "Error adding job"
	MessageUpdateFailed   = "Error updating job"
	MessageDeleteFailed   = "Error deleting job. Please try again later."
)

// State is a snapshot of one browsing session. Every method returns an
// updated copy and never mutates the receiver.
type State struct {
	Filters     models.FilterCriteria
	Jobs        []models.Job
	Suggestions models.SuggestionSet

	Fetch        FetchStatus
	FetchMessage string

	Mutation      MutationStatus
	MutationError string
	Editing       *models.Job

	// seq is the number of the latest refresh cycle that was started.
	seq uint64
}

func (s State) Loading() bool {
	return s.Fetch == FetchLoading
}

func (s State) Sequence() uint64 {
	return s.seq
}

func (s State) WithFilters(change models.FilterCriteria) State {
	s.Filters = s.Filters.Merge(change)
	return s
}

func (s State) WithSort(sort models.SortOrder) State {
	s.Filters = s.Filters.WithSort(sort)
	return s
}

func (s State) WithReset() State {
	s.Filters = models.FilterCriteria{}
	return s
}

func (s State) FetchStarted(seq uint64) State {
	if seq <= s.seq {
		return s
	}
	s.seq = seq
	s.Fetch = FetchLoading
	s.FetchMessage = ""
	return s
}

// IsStale reports whether a response of cycle seq must be discarded.
func (s State) IsStale(seq uint64) bool {
	return seq != s.seq
}

func (s State) FetchSucceeded(seq uint64, jobs []models.Job) State {
	if s.IsStale(seq) {
		return s
	}
	s.Jobs = jobs
	if len(jobs) == 0 {
		s.Fetch = FetchEmpty
		s.FetchMessage = MessageNoJobs
	} else {
		s.Fetch = FetchSuccess
		s.FetchMessage = ""
	}
	return s
}

func (s State) FetchFailed(seq uint64) State {
	if s.IsStale(seq) {
		return s
	}
	s.Fetch = FetchError
	s.FetchMessage = MessageFetchFailed
	return s
}

func (s State) SuggestionsRebuilt(seq uint64, set models.SuggestionSet) State {
	if s.IsStale(seq) {
		return s
	}
	s.Suggestions = set
	return s
}

func (s State) MutationStarted() State {
	s.Mutation = MutationSubmitting
	s.MutationError = ""
	return s
}

func (s State) MutationSucceeded() State {
	s.Mutation = MutationSuccess
	s.MutationError = ""
	s.Editing = nil
	return s
}

func (s State) MutationFailed(message string) State {
	s.Mutation = MutationError
	s.MutationError = message
	return s
}

func (s State) EditStarted(job models.Job) State {
	s.Editing = &job
	s.Mutation = MutationIdle
	s.MutationError = ""
	return s
}

func (s State) EditCancelled() State {
	s.Editing = nil
	s.Mutation = MutationIdle
	s.MutationError = ""
	return s
}

// FindJob looks the id up in the currently displayed list.
func (s State) FindJob(id int) (models.Job, bool) {
	for _, job := range s.Jobs {
		if job.ID == id {
			return job, true
		}
	}
	return models.Job{}, false
}

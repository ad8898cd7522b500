package board

import (
	"context"
	"fmt"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/jobboard-bot/internal/clients/jobboard"
	"github.com/maxaizer/jobboard-bot/internal/domain/events"
	"github.com/maxaizer/jobboard-bot/internal/domain/models"
	"github.com/maxaizer/jobboard-bot/internal/logger"
	"github.com/maxaizer/jobboard-bot/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"sync"
	"time"
)

var ErrJobNotInList = errors.New("job is not in the current list")

type jobsClient interface {
	ListJobs(ctx context.Context, parameters jobboard.ListParameters) ([]models.Job, error)
	CreateJob(ctx context.Context, job models.Job) (models.Job, error)
	UpdateJob(ctx context.Context, job models.Job) (models.Job, error)
	DeleteJob(ctx context.Context, id int) error
}

// Board keeps the browsing state of one session in sync with the backend.
// Only the response of the most recently started refresh is ever applied.
type Board struct {
	id     string
	client jobsClient
	bus    EventBus.Bus

	mu      sync.Mutex
	state   State
	lastSeq uint64
}

func NewBoard(id string, client jobsClient, bus EventBus.Bus) (*Board, error) {

	if client == nil {
		return nil, errors.New("jobs client is nil")
	}

	if bus == nil {
		return nil, errors.New("bus is nil")
	}

	return &Board{id: id, client: client, bus: bus}, nil
}

func (b *Board) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Board) ApplyFilters(ctx context.Context, change models.FilterCriteria) State {
	b.update(func(s State) State { return s.WithFilters(change) })
	return b.Refresh(ctx)
}

func (b *Board) SetSort(ctx context.Context, sort models.SortOrder) State {
	b.update(func(s State) State { return s.WithSort(sort) })
	return b.Refresh(ctx)
}

func (b *Board) ResetFilters(ctx context.Context) State {
	b.update(State.WithReset)
	return b.Refresh(ctx)
}

// Refresh fetches the filtered list and rebuilds the suggestion index from
// the unfiltered collection. It returns the state as it is after this cycle,
// which may already reflect a newer cycle.
func (b *Board) Refresh(ctx context.Context) State {

	start := time.Now()
	seq, filters := b.beginCycle()

	params := jobboard.ParametersFrom(filters)
	jobs, err := b.client.ListJobs(ctx, params)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeJobsApi).
			Errorf("failed to fetch jobs %v for session %v: %v", params, b.id, err)
		b.applyFetch(seq, "error", func(s State) State { return s.FetchFailed(seq) })
	} else {
		result := "success"
		if len(jobs) == 0 {
			result = "empty"
		}
		b.applyFetch(seq, result, func(s State) State { return s.FetchSucceeded(seq, jobs) })
	}

	b.rebuildSuggestions(ctx, seq, filters, jobs, err)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())

	return b.State()
}

func (b *Board) rebuildSuggestions(ctx context.Context, seq uint64, filters models.FilterCriteria,
	fetched []models.Job, fetchErr error) {

	all := fetched
	if filters.Narrows() || fetchErr != nil {
		var err error
		all, err = b.client.ListJobs(ctx, jobboard.ListParameters{})
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeJobsApi).
				Warnf("failed to fetch suggestions for session %v: %v", b.id, err)
			return
		}
	}

	set := models.BuildSuggestions(all)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = b.state.SuggestionsRebuilt(seq, set)
}

func (b *Board) StartEdit(id int) (models.Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	job, ok := b.state.FindJob(id)
	if !ok {
		return models.Job{}, fmt.Errorf("%w: id %d", ErrJobNotInList, id)
	}
	b.state = b.state.EditStarted(job)
	return job, nil
}

func (b *Board) CancelEdit() {
	b.update(State.EditCancelled)
}

// Save creates the job when it has no id and updates it otherwise.
// On success a JobsChanged event asks the session owner to refresh.
func (b *Board) Save(ctx context.Context, job models.Job) error {

	kind, failMessage := events.JobCreated, MessageCreateFailed
	if !job.IsNew() {
		kind, failMessage = events.JobUpdated, MessageUpdateFailed
	}

	if err := job.Validate(); err != nil {
		metrics.MutationsCounter.WithLabelValues(string(kind), "invalid").Inc()
		b.update(func(s State) State { return s.MutationFailed(MessageFieldsRequired) })
		return err
	}

	b.update(State.MutationStarted)

	var saved models.Job
	var err error
	if job.IsNew() {
		saved, err = b.client.CreateJob(ctx, job)
	} else {
		saved, err = b.client.UpdateJob(ctx, job)
	}

	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeJobsApi).
			Errorf("failed to save job %d for session %v: %v", job.ID, b.id, err)
		metrics.MutationsCounter.WithLabelValues(string(kind), "error").Inc()
		b.update(func(s State) State { return s.MutationFailed(failMessage) })
		return fmt.Errorf("failed to save job: %w", err)
	}

	metrics.MutationsCounter.WithLabelValues(string(kind), "success").Inc()
	b.update(State.MutationSucceeded)
	log.Infof("job %d %v by session %v", saved.ID, kind, b.id)

	b.bus.Publish(events.JobsChangedTopic, events.JobsChanged{SessionID: b.id, JobID: saved.ID, Kind: kind})
	return nil
}

func (b *Board) Delete(ctx context.Context, id int) error {

	b.update(State.MutationStarted)

	if err := b.client.DeleteJob(ctx, id); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeJobsApi).
			Errorf("failed to delete job %d for session %v: %v", id, b.id, err)
		metrics.MutationsCounter.WithLabelValues(string(events.JobDeleted), "error").Inc()
		b.update(func(s State) State { return s.MutationFailed(MessageDeleteFailed) })
		return fmt.Errorf("failed to delete job: %w", err)
	}

	metrics.MutationsCounter.WithLabelValues(string(events.JobDeleted), "success").Inc()
	b.update(State.MutationSucceeded)
	log.Infof("job %d deleted by session %v", id, b.id)

	b.bus.Publish(events.JobsChangedTopic, events.JobsChanged{SessionID: b.id, JobID: id, Kind: events.JobDeleted})
	return nil
}

func (b *Board) beginCycle() (uint64, models.FilterCriteria) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastSeq++
	b.state = b.state.FetchStarted(b.lastSeq)
	return b.lastSeq, b.state.Filters
}

func (b *Board) applyFetch(seq uint64, result string, fn func(State) State) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state.IsStale(seq) {
		metrics.FetchesCounter.WithLabelValues("stale").Inc()
		log.Debugf("discarded stale response %d for session %v, latest is %d", seq, b.id, b.state.Sequence())
		return
	}

	metrics.FetchesCounter.WithLabelValues(result).Inc()
	b.state = fn(b.state)
}

func (b *Board) update(fn func(State) State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = fn(b.state)
}

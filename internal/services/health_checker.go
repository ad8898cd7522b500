package services

import (
	"context"
	"github.com/maxaizer/jobboard-bot/internal/logger"
	"github.com/maxaizer/jobboard-bot/internal/metrics"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"sync"
	"time"
)

type healthClient interface {
	Health(ctx context.Context) error
}

// HealthChecker polls the backend on a cron schedule and exports the result
// as the jobboard_backend_up gauge.
type HealthChecker struct {
	client  healthClient
	cron    *cron.Cron
	timeout time.Duration

	mu        sync.Mutex
	up        bool
	checkedAt time.Time
}

func NewHealthChecker(client healthClient, schedule string) (*HealthChecker, error) {

	if client == nil {
		return nil, errors.New("health client is nil")
	}

	hc := &HealthChecker{
		client:  client,
		cron:    cron.New(),
		timeout: 10 * time.Second,
	}

	_, err := hc.cron.AddFunc(schedule, func() { hc.Check(context.Background()) })
	if err != nil {
		return nil, err
	}

	return hc, nil
}

func (hc *HealthChecker) Start() {
	hc.cron.Start()
	log.Infof("backend health checker started")
}

func (hc *HealthChecker) Stop() {
	<-hc.cron.Stop().Done()
}

// Check runs a single probe and returns whether the backend answered.
func (hc *HealthChecker) Check(ctx context.Context) bool {

	ctx, cancel := context.WithTimeout(ctx, hc.timeout)
	defer cancel()

	err := hc.client.Health(ctx)
	up := err == nil

	hc.mu.Lock()
	wasUp, first := hc.up, hc.checkedAt.IsZero()
	hc.up, hc.checkedAt = up, time.Now()
	hc.mu.Unlock()

	if up {
		metrics.BackendUp.Set(1)
	} else {
		metrics.BackendUp.Set(0)
	}

	switch {
	case !up && (wasUp || first):
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeJobsApi).Errorf("backend health check failed: %v", err)
	case up && !wasUp && !first:
		log.Info("backend is reachable again")
	}

	return up
}

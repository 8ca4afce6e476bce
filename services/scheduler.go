package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// PublishScheduler periodically publishes scores of tournaments whose scheduled
// publish time has passed.
type PublishScheduler struct {
	scheduler gocron.Scheduler
	service   TournamentService
	logger    *slog.Logger
	timeout   time.Duration
}

func NewPublishScheduler(service TournamentService, interval time.Duration, logger *slog.Logger) (*PublishScheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	p := &PublishScheduler{
		scheduler: sched,
		service:   service,
		logger:    logger,
		timeout:   max(interval, time.Second),
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(p.runOnce),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to register publish job: %w", err)
	}
	return p, nil
}

func (p *PublishScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	published, err := p.service.PublishDue(ctx, time.Now())
	if err != nil {
		p.logger.Error("scheduled publish finished with errors", slog.Int("published", published), slog.Any("error", err))
		return
	}
	if published > 0 {
		p.logger.Info("scheduled publish finished", slog.Int("published", published))
	}
}

func (p *PublishScheduler) Start() {
	p.scheduler.Start()
}

func (p *PublishScheduler) Shutdown() error {
	return p.scheduler.Shutdown()
}

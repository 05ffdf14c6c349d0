package worker

import (
	"context"
	"errors"
	"time"

	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/queue"

	"github.com/hibiken/asynq"
)

const sessionPurgeInterval = 10 * time.Minute

// periodicJob 随 worker 生命周期运行的定时任务
type periodicJob struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
}

// Service 异步队列服务
type Service struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
	jobs     []periodicJob
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		server:   asynq.NewServer(opt, serverCfg),
		mux:      mux,
		consumer: consumer,
		jobs:     consumer.periodicJobs(),
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	return "worker"
}

// Start 启动消费并运行定时任务，阻塞到 ctx 结束
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	for _, job := range s.jobs {
		go runPeriodic(ctx, job)
	}
	<-ctx.Done()
	return nil
}

// Stop 等待进行中的任务完成后停止
func (s *Service) Stop(context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}

// periodicJobs 返回当前依赖可支撑的定时任务
func (c *Consumer) periodicJobs() []periodicJob {
	var jobs []periodicJob
	if c.SessionService != nil {
		jobs = append(jobs, periodicJob{
			name:     "session_purge",
			interval: sessionPurgeInterval,
			run: func(ctx context.Context) error {
				purged, err := c.SessionService.PurgeExpired(ctx)
				if err == nil && purged > 0 {
					logger.Infow("worker_session_purged", "count", purged)
				}
				return err
			},
		})
	}
	return jobs
}

// runPeriodic 立即执行一次，之后按间隔执行直到 ctx 结束
func runPeriodic(ctx context.Context, job periodicJob) {
	ticker := time.NewTicker(job.interval)
	defer ticker.Stop()
	for {
		if err := job.run(ctx); err != nil && ctx.Err() == nil {
			logger.Warnw("worker_periodic_job_failed", "job", job.name, "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

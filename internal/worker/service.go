package worker

import (
	"context"
	"errors"

	"github.com/loyaltyclub-next/internal/config"
	"github.com/loyaltyclub-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 异步任务消费服务，托管 asynq 服务器
type Service struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewService 创建异步任务消费服务
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
		server: asynq.NewServer(opt, serverCfg),
		mux:    mux,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	return "worker"
}

// Start 启动消费循环，阻塞直至 Shutdown
func (s *Service) Start(_ context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	return s.server.Run(s.mux)
}

// Stop 停止消费并等待在途任务完成
func (s *Service) Stop(_ context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}

package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/warungpay/qrispay/internal/app/service/order"
	cfgpkg "github.com/warungpay/qrispay/pkg/config"
)

const sweepTimeout = 30 * time.Second

// Service periodically expires stale orders. Expiry is otherwise lazy
// (applied on read); the sweep keeps orders nobody polls from lingering in
// pending/checking forever.
type Service struct {
	cron     *cron.Cron
	orderSvc *order.Service
	log      *zap.SugaredLogger
	schedule string
}

func New(cfg *cfgpkg.Config, orderSvc *order.Service, log *zap.SugaredLogger) *Service {
	return &Service{
		cron:     cron.New(),
		orderSvc: orderSvc,
		log:      log,
		schedule: cfg.Sweeper.Schedule,
	}
}

// Sweep runs one expiry pass and returns the number of orders expired.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	n, err := s.orderSvc.ExpireStale(ctx)
	if err != nil {
		s.log.Errorw("order_expiry_sweep_failed", "error", err.Error())
		return 0, err
	}
	if n > 0 {
		s.log.Infow("order_expiry_sweep", "expired", n)
	}
	return n, nil
}

func (s *Service) start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		_, _ = s.Sweep(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Infow("expiry sweeper started", "schedule", s.schedule)
	return nil
}

func (s *Service) stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func register(lc fx.Lifecycle, s *Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { return s.start() },
		OnStop:  func(ctx context.Context) error { return s.stop(ctx) },
	})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(register),
)

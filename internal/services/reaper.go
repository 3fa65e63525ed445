package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	applog "storebill/internal/log"
	"storebill/internal/metrics"
	"storebill/internal/repos"
)

// Reaper removes invoice headers stuck in PENDING. InvoiceService commits
// header and items in one transaction, so such rows only come from other
// writers sharing the database or from data imported from older installs.
type Reaper struct {
	Invoices *repos.InvoiceRepo
	TTL      time.Duration
	Metrics  *metrics.Metrics

	cron *cron.Cron
}

func NewReaper(invoices *repos.InvoiceRepo, ttl time.Duration, m *metrics.Metrics) *Reaper {
	return &Reaper{Invoices: invoices, TTL: ttl, Metrics: m}
}

// Start schedules RunOnce on spec (cron syntax or "@every 5m").
func (r *Reaper) Start(spec string) error {
	r.cron = cron.New()
	if _, err := r.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_, _ = r.RunOnce(ctx)
	}); err != nil {
		return err
	}
	r.cron.Start()
	applog.L().Info("reaper.start", zap.String("schedule", spec), zap.Duration("ttl", r.TTL))
	return nil
}

// Stop waits for a running pass to finish.
func (r *Reaper) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}

func (r *Reaper) RunOnce(ctx context.Context) (int64, error) {
	n, err := r.Invoices.DeletePendingBefore(ctx, time.Now().Add(-r.TTL))
	if err != nil {
		applog.L().Error("reaper.fail", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		applog.L().Info("reaper.removed", zap.Int64("count", n))
	}
	r.Metrics.InvoicesReaped(n)
	return n, nil
}

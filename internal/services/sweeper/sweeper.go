// Package sweeper периодически удаляет из кешей данные, которые давно не обновлялись.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/gamefolio/internal/lib/sl"
	"github.com/magabrotheeeer/gamefolio/internal/syncache"
)

// Sweeper запускает очистку кешей по расписанию cron.
type Sweeper struct {
	caches     []syncache.Sweepable
	staleAfter time.Duration
	schedule   string
	cron       *cron.Cron
	log        *slog.Logger
	now        func() time.Time
}

// New создает Sweeper. schedule принимает стандартный синтаксис cron
// и дескрипторы вида "@every 5m".
func New(schedule string, staleAfter time.Duration, log *slog.Logger, caches ...syncache.Sweepable) *Sweeper {
	return &Sweeper{
		caches:     caches,
		staleAfter: staleAfter,
		schedule:   schedule,
		cron:       cron.New(),
		log:        log,
		now:        time.Now,
	}
}

// Start регистрирует задачу и запускает планировщик.
func (s *Sweeper) Start() error {
	const op = "services.sweeper.Start"

	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce() }); err != nil {
		return fmt.Errorf("%s: schedule %q: %w", op, s.schedule, err)
	}
	s.cron.Start()
	s.log.Info("cache sweeper started", sl.Op(op),
		slog.String("schedule", s.schedule),
		slog.Duration("stale_after", s.staleAfter),
	)
	return nil
}

// Stop останавливает планировщик и ждет завершения запущенной очистки.
func (s *Sweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce выполняет одну очистку и возвращает число удаленных записей.
func (s *Sweeper) RunOnce() int {
	const op = "services.sweeper.RunOnce"

	cutoff := s.now().Add(-s.staleAfter)
	removed := 0
	for _, c := range s.caches {
		removed += c.Sweep(cutoff)
	}
	if removed > 0 {
		s.log.Info("stale cache entries removed", sl.Op(op), slog.Int("count", removed))
	}
	return removed
}

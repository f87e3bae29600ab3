package syncache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/gamefolio/internal/lib/metrics"
	"github.com/magabrotheeeer/gamefolio/internal/lib/sl"
)

// Mutate применяет оптимистичное значение к закешированной сущности,
// вызывает remote и сверяет кеш с результатом:
//   - при успехе видимое значение заменяется ответом сервера;
//   - при ошибке восстанавливается подтвержденное значение до мутации.
//
// Результат применяется только если после старта этой мутации не началась
// более новая мутация той же сущности. Если сущность не закеширована,
// оптимистичный шаг пропускается, а успешный ответ записывается в кеш.
//
// При успехе возвращается значение сервера, при ошибке: текущее видимое значение.
func (c *Cache[T]) Mutate(ctx context.Context, id string, kind MutationKind, optimistic func(T) T, remote EntityFunc[T]) (T, error) {
	const op = "syncache.Mutate"
	log := c.log.With(sl.Op(op), slog.String("id", id), slog.String("kind", string(kind)))

	c.mu.Lock()
	s, cached := c.entities[id]
	var seq uint64
	if cached {
		if s.inflight == 0 {
			s.base = s.value
		}
		s.seq++
		seq = s.seq
		s.inflight++
		if optimistic != nil {
			s.value = optimistic(s.value)
		}
	}
	gen := c.entityGens[id]
	c.mu.Unlock()

	result, err := remote(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !cached {
		if err != nil {
			metrics.Mutations.WithLabelValues(c.name, string(kind), "failed").Inc()
			var zero T
			return zero, fmt.Errorf("%s: %w", op, err)
		}
		if c.entityGens[id] == gen {
			c.storeLocked(id, result, c.now())
		}
		metrics.Mutations.WithLabelValues(c.name, string(kind), "applied").Inc()
		return result, nil
	}

	s.inflight--
	current, stillCached := c.entities[id]
	if !stillCached || current != s {
		log.Debug("entity evicted during mutation, result discarded")
		metrics.Mutations.WithLabelValues(c.name, string(kind), "discarded").Inc()
		if err != nil {
			var zero T
			return zero, fmt.Errorf("%s: %w", op, err)
		}
		return result, nil
	}

	latest := seq == s.seq
	if err != nil {
		if latest {
			s.value = s.base
			log.Warn("mutation failed, rolled back", sl.Err(err))
			metrics.Mutations.WithLabelValues(c.name, string(kind), "rolled_back").Inc()
		} else {
			log.Debug("superseded mutation failed", sl.Err(err))
			metrics.Mutations.WithLabelValues(c.name, string(kind), "discarded").Inc()
		}
		return s.value, fmt.Errorf("%s: %w", op, err)
	}

	if !latest {
		log.Debug("superseded mutation completed, result discarded")
		metrics.Mutations.WithLabelValues(c.name, string(kind), "discarded").Inc()
		return result, nil
	}

	s.value = result
	s.base = result
	s.fetchedAt = c.now()
	metrics.Mutations.WithLabelValues(c.name, string(kind), "applied").Inc()
	return result, nil
}

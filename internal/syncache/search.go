package syncache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/magabrotheeeer/gamefolio/internal/apperr"
	"github.com/magabrotheeeer/gamefolio/internal/lib/sl"
	"github.com/magabrotheeeer/gamefolio/internal/models"
)

// SearchFunc выполняет поиск в удаленном API.
type SearchFunc[T any] func(ctx context.Context, query string, page, pageSize int) (models.Page[T], error)

// Searcher выполняет поиск для одного зрителя. Новый запрос отменяет
// незавершенный предыдущий, а поздний ответ на вытесненный запрос отбрасывается.
type Searcher[T any] struct {
	minChars int
	debounce time.Duration
	log      *slog.Logger

	mu       sync.Mutex
	seq      uint64
	cancel   context.CancelFunc
	query    string
	current  models.Collection[T]
	lastUsed time.Time
	now      func() time.Time
}

// NewSearcher создает Searcher. Запросы короче minChars символов возвращают
// пустой результат без обращения к сети.
func NewSearcher[T any](minChars int, debounce time.Duration, opts ...Option) *Searcher[T] {
	o := buildOptions(opts)
	return &Searcher[T]{
		minChars: minChars,
		debounce: debounce,
		log:      o.log,
		now:      o.now,
		current:  models.EmptyCollection[T](o.pageSize),
	}
}

// Search ищет по query. Возвращает apperr.ErrSuperseded, если пока шел
// запрос, был начат более новый поиск.
func (s *Searcher[T]) Search(ctx context.Context, query string, page, pageSize int, load SearchFunc[T]) (models.Collection[T], error) {
	const op = "syncache.Search"

	if pageSize <= 0 || page < 0 {
		return models.Collection[T]{}, fmt.Errorf("%s: %w", op, apperr.Validation("invalid page %d or page size %d", page, pageSize))
	}

	q := strings.TrimSpace(query)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	my := s.seq
	s.lastUsed = s.now()

	if utf8.RuneCountInString(q) < s.minChars {
		empty := models.EmptyCollection[T](pageSize)
		s.query = q
		s.current = empty
		s.mu.Unlock()
		return empty, nil
	}

	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	if s.debounce > 0 {
		timer := time.NewTimer(s.debounce)
		select {
		case <-timer.C:
		case <-reqCtx.Done():
			timer.Stop()
			return models.Collection[T]{}, s.abandoned(op, my, reqCtx.Err())
		}
	}

	p, err := load(reqCtx, q, page, pageSize)

	s.mu.Lock()
	defer s.mu.Unlock()

	if my != s.seq {
		s.log.Debug("discarding stale search response", sl.Op(op), slog.String("query", q))
		return models.Collection[T]{}, fmt.Errorf("%s: %w", op, apperr.ErrSuperseded)
	}
	s.cancel = nil

	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			empty := models.EmptyCollection[T](pageSize)
			s.query = q
			s.current = empty
			return empty, nil
		}
		s.log.Warn("search failed", sl.Op(op), slog.String("query", q), sl.Err(err))
		return models.Collection[T]{}, fmt.Errorf("%s: %w", op, err)
	}

	col := fromPage(p, pageSize)
	s.query = q
	s.current = col
	return col, nil
}

func (s *Searcher[T]) abandoned(op string, my uint64, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if my != s.seq {
		return fmt.Errorf("%s: %w", op, apperr.ErrSuperseded)
	}
	return fmt.Errorf("%s: %w", op, cause)
}

// Current возвращает запрос и результат последнего примененного поиска.
func (s *Searcher[T]) Current() (string, models.Collection[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query, s.current
}

func (s *Searcher[T]) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return s.now()
	}
	return s.lastUsed
}

// SearcherPool хранит Searcher для каждого зрителя, чтобы поиск одного
// зрителя не отменял поиск другого.
type SearcherPool[T any] struct {
	minChars int
	debounce time.Duration
	opts     []Option

	mu        sync.Mutex
	searchers map[string]*Searcher[T]
}

// NewSearcherPool создает пул с общими настройками.
func NewSearcherPool[T any](minChars int, debounce time.Duration, opts ...Option) *SearcherPool[T] {
	return &SearcherPool[T]{
		minChars:  minChars,
		debounce:  debounce,
		opts:      opts,
		searchers: make(map[string]*Searcher[T]),
	}
}

// For возвращает Searcher зрителя, создавая его при первом обращении.
func (p *SearcherPool[T]) For(viewer string) *Searcher[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.searchers[viewer]
	if !ok {
		s = NewSearcher[T](p.minChars, p.debounce, p.opts...)
		p.searchers[viewer] = s
	}
	return s
}

// Sweep удаляет Searcher'ы без активности с cutoff.
func (p *SearcherPool[T]) Sweep(cutoff time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for viewer, s := range p.searchers {
		if s.idleSince().Before(cutoff) {
			delete(p.searchers, viewer)
			n++
		}
	}
	return n
}

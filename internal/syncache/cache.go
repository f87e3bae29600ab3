// Package syncache реализует общий для процесса кеш списков и сущностей
// с оптимистичными мутациями и откатом.
//
// Все изменения состояния кеша выполняются под одним мьютексом и атомарны
// относительно друг друга. Сетевые вызовы выполняются без блокировки: они
// работают со снимком и сверяются с кешем при завершении.
//
// Для каждой сущности хранится номер последней начатой мутации. Завершение
// мутации применяется только если после нее не началась более новая мутация
// той же сущности, поэтому видимое значение после завершения всегда равно
// либо снимку до мутации, либо значению, подтвержденному сервером.
package syncache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/magabrotheeeer/gamefolio/internal/apperr"
	"github.com/magabrotheeeer/gamefolio/internal/lib/metrics"
	"github.com/magabrotheeeer/gamefolio/internal/lib/sl"
	"github.com/magabrotheeeer/gamefolio/internal/models"
)

// LoadFunc загружает одну страницу коллекции из удаленного API.
type LoadFunc[T any] func(ctx context.Context, page, pageSize int) (models.Page[T], error)

// EntityFunc загружает или изменяет одну сущность в удаленном API.
type EntityFunc[T any] func(ctx context.Context) (T, error)

// MutationKind вид мутации, используется в логах и метриках.
type MutationKind string

const (
	KindLike   MutationKind = "like"
	KindRating MutationKind = "rating"
	KindFollow MutationKind = "follow"
)

// Sweepable кеш, который умеет удалять записи старше cutoff.
type Sweepable interface {
	Sweep(cutoff time.Time) int
}

type slot[T any] struct {
	value     T
	base      T // последнее подтвержденное значение, к нему откатывается мутация
	seq       uint64
	inflight  int
	fetchedAt time.Time
}

type collection struct {
	pages     map[int][]string
	meta      models.PageMeta
	fetchedAt time.Time
}

// Cache хранит коллекции по ключу и сущности по ID.
// Одна и та же сущность разделяется всеми коллекциями, в которые она входит.
type Cache[T any] struct {
	name     string
	idOf     func(T) string
	log      *slog.Logger
	now      func() time.Time
	pageSize int
	maxAge   time.Duration
	group    singleflight.Group

	mu          sync.Mutex
	entities    map[string]*slot[T]
	collections map[string]*collection
	gens        map[string]uint64 // увеличивается при инвалидации ключа
	entityGens  map[string]uint64
	inflight    map[string]int
}

// Option настраивает Cache.
type Option func(*options)

type options struct {
	log      *slog.Logger
	now      func() time.Time
	pageSize int
	maxAge   time.Duration
}

// WithLogger задает логгер.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithClock подменяет источник времени, используется в тестах.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithPageSize задает размер страницы для LoadMore по еще не загруженному ключу.
func WithPageSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.pageSize = size
		}
	}
}

// WithMaxAge задает срок годности сущности для Get. Более старая сущность
// перезагружается, а при временном сбое отдается как есть.
func WithMaxAge(d time.Duration) Option {
	return func(o *options) { o.maxAge = d }
}

func buildOptions(opts []Option) options {
	o := options{
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		pageSize: 12,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New создает кеш. idOf должен возвращать уникальный ID сущности.
func New[T any](name string, idOf func(T) string, opts ...Option) *Cache[T] {
	o := buildOptions(opts)
	return &Cache[T]{
		name:        name,
		idOf:        idOf,
		log:         o.log.With(slog.String("cache", name)),
		now:         o.now,
		pageSize:    o.pageSize,
		maxAge:      o.maxAge,
		entities:    make(map[string]*slot[T]),
		collections: make(map[string]*collection),
		gens:        make(map[string]uint64),
		entityGens:  make(map[string]uint64),
		inflight:    make(map[string]int),
	}
}

// Name имя кеша.
func (c *Cache[T]) Name() string {
	return c.name
}

// FetchPage возвращает страницу коллекции. Уже загруженная страница отдается
// из кеша без сетевого запроса до явной инвалидации.
// При сетевой ошибке возвращается ранее закешированная коллекция, если она есть.
func (c *Cache[T]) FetchPage(ctx context.Context, key string, page, pageSize int, load LoadFunc[T]) (models.Collection[T], error) {
	const op = "syncache.FetchPage"

	if pageSize <= 0 {
		return models.Collection[T]{}, fmt.Errorf("%s: %w", op, apperr.Validation("page size must be positive, got %d", pageSize))
	}
	if page < 0 {
		return models.Collection[T]{}, fmt.Errorf("%s: %w", op, apperr.Validation("page must not be negative, got %d", page))
	}

	c.mu.Lock()
	if col, ok := c.collections[key]; ok && col.meta.PageSize == pageSize {
		if _, cached := col.pages[page]; cached {
			snap := c.snapshotLocked(col)
			c.mu.Unlock()
			metrics.CacheLookups.WithLabelValues(c.name, "hit").Inc()
			return snap, nil
		}
	}
	c.inflight[key]++
	gen := c.gens[key]
	c.mu.Unlock()

	metrics.CacheLookups.WithLabelValues(c.name, "miss").Inc()
	return c.fetch(ctx, key, gen, page, pageSize, load)
}

// LoadMore загружает следующую страницу. Ничего не делает, если по ключу уже
// идет загрузка или следующих страниц нет.
func (c *Cache[T]) LoadMore(ctx context.Context, key string, load LoadFunc[T]) (models.Collection[T], error) {
	c.mu.Lock()
	col := c.collections[key]
	if c.inflight[key] > 0 || (col != nil && !col.meta.HasMore) {
		snap := models.EmptyCollection[T](c.pageSize)
		if col != nil {
			snap = c.snapshotLocked(col)
		}
		c.mu.Unlock()
		return snap, nil
	}

	page, size := 0, c.pageSize
	if col != nil {
		page, size = col.meta.Page+1, col.meta.PageSize
	}
	c.inflight[key]++
	gen := c.gens[key]
	c.mu.Unlock()

	return c.fetch(ctx, key, gen, page, size, load)
}

// Refresh сбрасывает коллекцию и загружает первую страницу заново.
func (c *Cache[T]) Refresh(ctx context.Context, key string, load LoadFunc[T]) (models.Collection[T], error) {
	c.mu.Lock()
	size := c.pageSize
	if col, ok := c.collections[key]; ok {
		size = col.meta.PageSize
	}
	c.mu.Unlock()

	c.Invalidate(key)
	return c.FetchPage(ctx, key, 0, size, load)
}

func (c *Cache[T]) fetch(ctx context.Context, key string, gen uint64, page, pageSize int, load LoadFunc[T]) (models.Collection[T], error) {
	const op = "syncache.fetch"

	defer func() {
		c.mu.Lock()
		c.inflight[key]--
		if c.inflight[key] <= 0 {
			delete(c.inflight, key)
		}
		c.mu.Unlock()
	}()

	flightKey := fmt.Sprintf("%s|%d|%d", key, page, pageSize)
	v, err, _ := c.group.Do(flightKey, func() (any, error) {
		p, err := load(ctx, page, pageSize)
		if err != nil {
			return nil, err
		}
		return c.apply(key, gen, page, pageSize, p), nil
	})
	if err == nil {
		return v.(models.Collection[T]), nil
	}

	log := c.log.With(sl.Op(op), slog.String("key", key), slog.Int("page", page))

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return c.apply(key, gen, page, pageSize, models.Page[T]{Number: page, Last: true}), nil
	case errors.Is(err, apperr.ErrRateLimited), errors.Is(err, apperr.ErrValidation):
		log.Warn("fetch rejected", sl.Err(err))
		return models.Collection[T]{}, fmt.Errorf("%s: %w", op, err)
	}

	c.mu.Lock()
	col, ok := c.collections[key]
	var snap models.Collection[T]
	if ok {
		snap = c.snapshotLocked(col)
	}
	c.mu.Unlock()

	if ok {
		log.Warn("fetch failed, serving stale collection", sl.Err(err))
		metrics.CacheLookups.WithLabelValues(c.name, "stale").Inc()
		return snap, nil
	}

	log.Error("fetch failed", sl.Err(err))
	return models.Collection[T]{}, fmt.Errorf("%s: %w", op, apperr.Fetch(err))
}

// apply сливает страницу в коллекцию по ID. Если ключ был инвалидирован
// во время запроса, результат не сохраняется.
func (c *Cache[T]) apply(key string, gen uint64, page, pageSize int, p models.Page[T]) models.Collection[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	ids := make([]string, 0, len(p.Content))
	for _, item := range p.Content {
		ids = append(ids, c.idOf(item))
	}

	if c.gens[key] != gen {
		c.log.Debug("discarding page for invalidated key", slog.String("key", key), slog.Int("page", page))
		return fromPage(p, pageSize)
	}

	for i, item := range p.Content {
		c.storeLocked(ids[i], item, now)
	}

	col, ok := c.collections[key]
	if !ok || col.meta.PageSize != pageSize {
		col = &collection{pages: make(map[int][]string), meta: models.PageMeta{PageSize: pageSize}}
		c.collections[key] = col
	}
	col.pages[page] = ids
	col.fetchedAt = now
	col.meta.TotalPages = p.TotalPages
	col.meta.TotalElements = p.TotalElements
	if page >= col.meta.Page {
		col.meta.Page = page
		col.meta.HasMore = !p.Last
	}
	return c.snapshotLocked(col)
}

// storeLocked записывает подтвержденное значение. Пока по сущности идет
// мутация, видимое значение не трогается, обновляется только база отката.
func (c *Cache[T]) storeLocked(id string, v T, now time.Time) {
	s, ok := c.entities[id]
	if !ok {
		c.entities[id] = &slot[T]{value: v, base: v, fetchedAt: now}
		return
	}
	s.base = v
	s.fetchedAt = now
	if s.inflight == 0 {
		s.value = v
	}
}

func (c *Cache[T]) snapshotLocked(col *collection) models.Collection[T] {
	pages := make([]int, 0, len(col.pages))
	for p := range col.pages {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	seen := make(map[string]struct{})
	items := make([]T, 0)
	for _, p := range pages {
		for _, id := range col.pages[p] {
			if _, dup := seen[id]; dup {
				continue
			}
			s, ok := c.entities[id]
			if !ok {
				continue
			}
			seen[id] = struct{}{}
			items = append(items, s.value)
		}
	}
	return models.Collection[T]{Items: items, Meta: col.meta}
}

func fromPage[T any](p models.Page[T], pageSize int) models.Collection[T] {
	items := p.Content
	if items == nil {
		items = []T{}
	}
	return models.Collection[T]{
		Items: items,
		Meta: models.PageMeta{
			Page:          p.Number,
			PageSize:      pageSize,
			TotalPages:    p.TotalPages,
			TotalElements: p.TotalElements,
			HasMore:       !p.Last,
		},
	}
}

// Collection возвращает закешированную коллекцию без сетевых запросов.
func (c *Cache[T]) Collection(key string) (models.Collection[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	col, ok := c.collections[key]
	if !ok {
		return models.Collection[T]{}, false
	}
	return c.snapshotLocked(col), true
}

// Invalidate удаляет коллекцию. Запросы по ключу, начатые до инвалидации,
// не смогут записать свой результат.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.collections, key)
	c.gens[key]++
}

// InvalidatePrefix удаляет все коллекции и сущности, ключ которых начинается с prefix.
// Возвращает количество удаленных записей.
func (c *Cache[T]) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key := range c.collections {
		if strings.HasPrefix(key, prefix) {
			delete(c.collections, key)
			c.gens[key]++
			n++
		}
	}
	for id := range c.entities {
		if strings.HasPrefix(id, prefix) {
			delete(c.entities, id)
			c.entityGens[id]++
			n++
		}
	}
	return n
}

// Get возвращает сущность из кеша или загружает ее. Ответ 404 означает
// отсутствие данных: (zero, false, nil).
func (c *Cache[T]) Get(ctx context.Context, id string, load EntityFunc[T]) (T, bool, error) {
	const op = "syncache.Get"
	var zero T

	var (
		stale    T
		hasStale bool
	)
	c.mu.Lock()
	if s, ok := c.entities[id]; ok {
		if !c.expiredLocked(s) {
			v := s.value
			c.mu.Unlock()
			metrics.CacheLookups.WithLabelValues(c.name, "hit").Inc()
			return v, true, nil
		}
		stale, hasStale = s.value, true
	}
	gen := c.entityGens[id]
	c.mu.Unlock()
	metrics.CacheLookups.WithLabelValues(c.name, "miss").Inc()

	v, err, _ := c.group.Do("entity|"+id, func() (any, error) {
		return load(ctx)
	})
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			if hasStale {
				c.forgetIfGen(id, gen)
			}
			return zero, false, nil
		}
		if errors.Is(err, apperr.ErrRateLimited) {
			return zero, false, fmt.Errorf("%s: %w", op, err)
		}
		if hasStale {
			c.log.Warn("entity refresh failed, serving stale value", sl.Op(op), slog.String("id", id), sl.Err(err))
			return stale, true, nil
		}
		c.log.Error("entity fetch failed", sl.Op(op), slog.String("id", id), sl.Err(err))
		return zero, false, fmt.Errorf("%s: %w", op, apperr.Fetch(err))
	}

	entity := v.(T)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entityGens[id] == gen {
		c.storeLocked(id, entity, c.now())
		return c.entities[id].value, true, nil
	}
	return entity, true, nil
}

func (c *Cache[T]) expiredLocked(s *slot[T]) bool {
	return c.maxAge > 0 && s.inflight == 0 && c.now().Sub(s.fetchedAt) >= c.maxAge
}

func (c *Cache[T]) forgetIfGen(id string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entityGens[id] == gen {
		delete(c.entities, id)
		c.entityGens[id]++
	}
}

// Put записывает подтвержденное значение сущности.
func (c *Cache[T]) Put(id string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeLocked(id, v, c.now())
}

// Ensure записывает v, только если сущности еще нет в кеше. Нужен перед
// Mutate, когда начальное значение известно заранее (например, "не лайкнуто"),
// чтобы быстрые повторные мутации упорядочивались по номеру.
func (c *Cache[T]) Ensure(id string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entities[id]; !ok {
		c.storeLocked(id, v, c.now())
	}
}

// Peek возвращает текущее видимое значение сущности без загрузки.
func (c *Cache[T]) Peek(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entities[id]
	if !ok {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Forget удаляет сущность. Мутации, начатые до этого, не запишут результат.
func (c *Cache[T]) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entities, id)
	c.entityGens[id]++
}

// Sweep удаляет коллекции и неиспользуемые сущности, загруженные раньше cutoff.
// Сущности с незавершенными мутациями не удаляются.
func (c *Cache[T]) Sweep(cutoff time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, col := range c.collections {
		if col.fetchedAt.Before(cutoff) && c.inflight[key] == 0 {
			delete(c.collections, key)
			c.gens[key]++
			removed++
		}
	}

	referenced := make(map[string]struct{})
	for _, col := range c.collections {
		for _, ids := range col.pages {
			for _, id := range ids {
				referenced[id] = struct{}{}
			}
		}
	}
	for id, s := range c.entities {
		if _, ok := referenced[id]; ok || s.inflight > 0 || !s.fetchedAt.Before(cutoff) {
			continue
		}
		delete(c.entities, id)
		c.entityGens[id]++
		removed++
	}
	return removed
}

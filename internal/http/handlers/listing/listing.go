// Package listing разбирает параметры постраничных запросов и выбирает,
// какую операцию кеша вызвать: страницу, догрузку или перезагрузку.
package listing

import (
	"context"
	"net/http"
	"strconv"

	"github.com/magabrotheeeer/gamefolio/internal/apperr"
	"github.com/magabrotheeeer/gamefolio/internal/models"
)

// Mode вид запроса списка.
type Mode int

const (
	ModePage Mode = iota
	ModeMore
	ModeRefresh
)

// Query параметры запроса списка.
type Query struct {
	Page int
	Mode Mode
}

// Parse читает page, more и refresh из строки запроса.
// Пустой page означает первую страницу.
func Parse(r *http.Request) (Query, error) {
	q := r.URL.Query()
	var res Query

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 {
			return Query{}, apperr.Validation("page must be a non-negative integer")
		}
		res.Page = page
	}

	if flag(q.Get("refresh")) {
		res.Mode = ModeRefresh
	} else if flag(q.Get("more")) {
		res.Mode = ModeMore
	}
	return res, nil
}

func flag(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// Funcs операции кеша, между которыми выбирает Fetch.
type Funcs[T any] struct {
	Page    func(ctx context.Context, page int) (models.Collection[T], error)
	More    func(ctx context.Context) (models.Collection[T], error)
	Refresh func(ctx context.Context) (models.Collection[T], error)
}

// Fetch вызывает операцию, соответствующую запросу.
func Fetch[T any](ctx context.Context, q Query, f Funcs[T]) (models.Collection[T], error) {
	switch q.Mode {
	case ModeMore:
		return f.More(ctx)
	case ModeRefresh:
		return f.Refresh(ctx)
	default:
		return f.Page(ctx, q.Page)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/comments-engine/internal/backend"
	"github.com/pribylovaa/comments-engine/internal/metrics"
	"github.com/pribylovaa/comments-engine/internal/models"
	"github.com/pribylovaa/comments-engine/internal/thread"
	"github.com/pribylovaa/comments-engine/pkg/log"
)

// LoadPage загружает страницу n ветки.
//
// Поведение:
//   - если загрузка уже идёт, вызов отбрасывается (не ставится в очередь)
//     и возвращает nil;
//   - n == 1 целиком заменяет корни, n > 1 дописывает (строго page+1,
//     иначе thread.ErrSequence без сетевого вызова);
//   - загрузка ограничена timeouts.load; по истечении или при отмене ctx
//     флаг loading снимается, даже если бэкенд так и не ответил;
//   - при ошибке состояние не меняется, возвращается ErrLoadFailed.
func (c *Controller) LoadPage(ctx context.Context, n int) error {
	const op = "service/LoadPage"

	ctx, lg := log.With(ctx, "op", op, "thread_id", c.ThreadID(), "page", n)

	if n < 1 {
		lg.Warn("invalid argument: page must be >= 1")
		c.observe(opLoadPage, ErrValidation)
		return fmt.Errorf("%s: page %d: %w", op, n, ErrValidation)
	}

	if !c.store.TryBeginLoad() {
		lg.Debug("load_dropped")
		c.metrics.Observe(opLoadPage, metrics.OutcomeDropped)
		return nil
	}
	defer c.store.EndLoad()

	// Пока флаг loading наш, страница ветки не меняется.
	if cur := c.store.Page(); n > 1 && n != cur+1 {
		err := fmt.Errorf("got page %d after %d: %w", n, cur, thread.ErrSequence)
		c.observe(opLoadPage, err)
		lg.Warn("load_failed", "err", err)
		return fmt.Errorf("%s: %w: %w", op, ErrLoadFailed, err)
	}

	page, err := c.fetch(ctx, n)
	if err == nil {
		if n == 1 {
			c.store.ReplacePage1(page.Items, page.HasMore)
		} else {
			err = c.store.AppendPage(ctx, page.Items, n, page.HasMore)
		}
	}

	c.observe(opLoadPage, err)

	if err != nil {
		lg.Warn("load_failed", "err", err)
		return fmt.Errorf("%s: %w: %w", op, ErrLoadFailed, err)
	}

	c.metrics.SetLoadedRoots(c.ThreadID(), c.store.RootCount())
	lg.Debug("page_loaded", "roots", len(page.Items), "has_more", page.HasMore)

	return nil
}

type fetchResult struct {
	page *models.Page
	err  error
}

// fetch выполняет запрос страницы под собственным дедлайном. Результат,
// пришедший после дедлайна, отбрасывается.
func (c *Controller) fetch(ctx context.Context, n int) (*models.Page, error) {
	if d := c.cfg.Timeouts.Load; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	q := backend.ListQuery{
		Page:     n,
		Ordering: c.cfg.Backend.Ordering,
		Language: c.cfg.Backend.Language,
	}

	done := make(chan fetchResult, 1)
	go func() {
		page, err := c.backend.ListComments(ctx, c.ThreadID(), q)
		done <- fetchResult{page: page, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil && r.page == nil {
			return nil, errors.New("empty page")
		}
		return r.page, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// LoadNextPage загружает page+1, если бэкенд сообщил о следующей странице.
// Для незагруженной ветки загружает первую страницу.
func (c *Controller) LoadNextPage(ctx context.Context) error {
	st := c.store.Snapshot()

	switch {
	case st.Page == 0:
		return c.LoadPage(ctx, 1)
	case !st.HasMore:
		log.From(ctx).Debug("no_more_pages", "thread_id", c.ThreadID(), "page", st.Page)
		return nil
	default:
		return c.LoadPage(ctx, st.Page+1)
	}
}

// LoadCount загружает авторитетное общее число комментариев ветки.
// Значение только информационное и не влияет на HasMore.
func (c *Controller) LoadCount(ctx context.Context) (int, error) {
	const op = "service/LoadCount"

	lg := log.From(ctx).With(slog.String("op", op), slog.String("thread_id", c.ThreadID()))

	n, err := c.backend.CountComments(ctx, c.ThreadID())
	c.observe(opLoadCount, err)

	if err != nil {
		lg.Warn("count_failed", "err", err)
		return 0, fmt.Errorf("%s: %w: %w", op, ErrLoadFailed, err)
	}

	c.mu.Lock()
	c.lastCount, c.countKnown = n, true
	c.mu.Unlock()

	return n, nil
}

// reload — принудительная перезагрузка после успешной записи: страница 1
// и счётчик. Ошибки только логируются, запись уже состоялась.
func (c *Controller) reload(ctx context.Context) {
	lg := log.From(ctx)

	if err := c.LoadPage(ctx, 1); err != nil {
		lg.Error("reload_failed", "thread_id", c.ThreadID(), "err", err)
	}

	if _, err := c.LoadCount(ctx); err != nil {
		lg.Error("reload_count_failed", "thread_id", c.ThreadID(), "err", err)
	}
}

// service содержит Sync Controller: сетевую оркестрацию одной ветки
// (загрузка страниц, счётчик, создание/удаление/жалоба) поверх backend.Backend.
package service

import (
	"context"
	"errors"
	"sync"

	"github.com/pribylovaa/comments-engine/internal/attachments"
	"github.com/pribylovaa/comments-engine/internal/backend"
	"github.com/pribylovaa/comments-engine/internal/composition"
	"github.com/pribylovaa/comments-engine/internal/config"
	"github.com/pribylovaa/comments-engine/internal/metrics"
	"github.com/pribylovaa/comments-engine/internal/models"
	"github.com/pribylovaa/comments-engine/internal/thread"
)

var (
	// ErrValidation — входные данные отклонены локально, до сети.
	ErrValidation = errors.New("validation failed")
	// ErrLoadFailed — не удалось загрузить страницу или счётчик.
	ErrLoadFailed = errors.New("load failed")
	// ErrSubmitFailed — бэкенд не принял комментарий.
	ErrSubmitFailed = errors.New("submit failed")
	// ErrDeleteFailed — удаление не удалось (в т.ч. уже удалён, не автор).
	ErrDeleteFailed = errors.New("delete failed")
	// ErrReportFailed — жалоба не отправлена.
	ErrReportFailed = errors.New("report failed")
)

// MinTextLength — минимальная длина текста комментария в символах.
const MinTextLength = 3

// Имена операций для метрик.
const (
	opLoadPage  = "load_page"
	opLoadCount = "load_count"
	opSubmit    = "submit"
	opDelete    = "delete"
	opReport    = "report"
)

// Controller — Sync Controller одной ветки.
type Controller struct {
	backend backend.Backend
	store   *thread.Store
	comp    *composition.State
	metrics *metrics.Metrics
	cfg     config.Config
	policy  attachments.Policy

	mu         sync.Mutex
	lastCount  int
	countKnown bool
}

// New создаёт контроллер ветки store. comp — общее для всех веток
// состояние композиции; nil даёт собственное состояние, и такой контроллер
// не примет registry.Register. m может быть nil.
func New(be backend.Backend, store *thread.Store, comp *composition.State, m *metrics.Metrics, cfg config.Config) *Controller {
	policy := cfg.Attachments.Policy()
	if policy.MaxFiles <= 0 || policy.MaxSizeBytes <= 0 {
		policy = attachments.DefaultPolicy()
	}

	if comp == nil {
		comp = composition.New()
	}

	return &Controller{
		backend: be,
		store:   store,
		comp:    comp,
		metrics: m,
		cfg:     cfg,
		policy:  policy,
	}
}

// ThreadID — ключ ветки контроллера.
func (c *Controller) ThreadID() string { return c.store.ThreadID() }

// Composition — состояние композиции, которое закрывает контроллер.
func (c *Controller) Composition() *composition.State { return c.comp }

// State — снимок состояния ветки.
func (c *Controller) State() thread.State { return c.store.Snapshot() }

// CanDelete — подсказка для UI: показывать ли действие удаления.
// Не авторитетна, авторство проверяет бэкенд.
func (c *Controller) CanDelete(cm models.Comment, viewerID models.ID) bool {
	return !viewerID.IsZero() && cm.AuthorID == viewerID && !cm.IsDeleted
}

// LastCount — последний загруженный LoadCount счётчик; false — ещё не загружался.
func (c *Controller) LastCount() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastCount, c.countKnown
}

func (c *Controller) observe(op string, err error) {
	c.metrics.Observe(op, outcomeOf(err))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrValidation):
		return metrics.OutcomeInvalid
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeFailed
	}
}

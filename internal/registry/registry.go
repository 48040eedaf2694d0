// registry сопоставляет идентификатор ветки с её Thread Store и Sync
// Controller, чтобы общий маршрутизатор событий хоста мог адресовать
// действие нужной ветке. Реестр — явное значение, передаваемое хосту.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pribylovaa/comments-engine/internal/backend"
	"github.com/pribylovaa/comments-engine/internal/composition"
	"github.com/pribylovaa/comments-engine/internal/config"
	"github.com/pribylovaa/comments-engine/internal/metrics"
	"github.com/pribylovaa/comments-engine/internal/service"
	"github.com/pribylovaa/comments-engine/internal/thread"
	"github.com/pribylovaa/comments-engine/pkg/log"
)

var (
	// ErrEngineNotRegistered — для ветки не зарегистрирован движок.
	// Ошибка связывания на стороне хоста, а не пользовательская.
	ErrEngineNotRegistered = errors.New("engine not registered")
	// ErrAlreadyRegistered — повторная регистрация той же ветки.
	ErrAlreadyRegistered = errors.New("engine already registered")
	// ErrInvalidEngine — пустой id, nil-компоненты, id не совпадают или
	// контроллер работает с чужим состоянием композиции.
	ErrInvalidEngine = errors.New("invalid engine")
)

type engine struct {
	store *thread.Store
	ctl   *service.Controller
}

// Registry — потокобезопасный реестр движков веток.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]engine

	comp    *composition.State
	backend backend.Backend
	metrics *metrics.Metrics
	cfg     config.Config
}

// New создаёт реестр. be/m/cfg используются Open для создания движков;
// состояние композиции одно на весь реестр.
func New(be backend.Backend, m *metrics.Metrics, cfg config.Config) *Registry {
	return &Registry{
		engines: make(map[string]engine),
		comp:    composition.New(),
		backend: be,
		metrics: m,
		cfg:     cfg,
	}
}

// Composition — общее состояние черновика.
func (r *Registry) Composition() *composition.State { return r.comp }

// Register регистрирует готовую пару store/controller под threadID.
// Контроллер должен быть создан с r.Composition().
func (r *Registry) Register(threadID string, store *thread.Store, ctl *service.Controller) error {
	const op = "registry/Register"

	if strings.TrimSpace(threadID) == "" || store == nil || ctl == nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidEngine)
	}

	if store.ThreadID() != threadID || ctl.ThreadID() != threadID {
		return fmt.Errorf("%s: thread %q: %w", op, threadID, ErrInvalidEngine)
	}

	if ctl.Composition() != r.comp {
		return fmt.Errorf("%s: thread %q: foreign composition state: %w", op, threadID, ErrInvalidEngine)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.engines[threadID]; ok {
		return fmt.Errorf("%s: thread %q: %w", op, threadID, ErrAlreadyRegistered)
	}

	r.engines[threadID] = engine{store: store, ctl: ctl}

	return nil
}

// Resolve возвращает движок ветки. Неизвестная ветка логируется как ошибка.
func (r *Registry) Resolve(ctx context.Context, threadID string) (*thread.Store, *service.Controller, error) {
	const op = "registry/Resolve"

	r.mu.RLock()
	e, ok := r.engines[threadID]
	r.mu.RUnlock()

	if !ok {
		log.From(ctx).Error("engine_not_registered", "op", op, "thread_id", threadID)
		return nil, nil, fmt.Errorf("%s: thread %q: %w", op, threadID, ErrEngineNotRegistered)
	}

	return e.store, e.ctl, nil
}

// Open возвращает движок ветки, создавая и регистрируя его при первом
// обращении. Повторные вызовы отдают тот же экземпляр.
func (r *Registry) Open(threadID string) (*thread.Store, *service.Controller, error) {
	const op = "registry/Open"

	if strings.TrimSpace(threadID) == "" {
		return nil, nil, fmt.Errorf("%s: empty thread id: %w", op, ErrInvalidEngine)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.engines[threadID]; ok {
		return e.store, e.ctl, nil
	}

	store := thread.New(threadID)
	ctl := service.New(r.backend, store, r.comp, r.metrics, r.cfg)
	r.engines[threadID] = engine{store: store, ctl: ctl}

	return store, ctl, nil
}

// Threads — зарегистрированные ветки в лексикографическом порядке.
func (r *Registry) Threads() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.engines))
	for id := range r.engines {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

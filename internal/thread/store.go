// Package thread хранит дерево комментариев одной ветки обсуждения,
// курсор пагинации и реализует «сплющивание» дерева для отрисовки.
//
// Store — единственный источник истины по загруженным данным: плоское
// представление строится только на чтение и нигде не сохраняется.
package thread

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pribylovaa/comments-engine/internal/models"
	"github.com/pribylovaa/comments-engine/pkg/log"
)

// ErrSequence — страница пришла не следом за текущей (page+1).
// Программная ошибка: при нормальной работе не возникает.
var ErrSequence = errors.New("page out of sequence")

// State — снимок состояния ветки.
type State struct {
	ThreadID string
	Roots    []models.Comment
	Page     int
	HasMore  bool
	Loading  bool
}

// Store — состояние одной ветки. Безопасен для конкурентного использования.
type Store struct {
	mu       sync.RWMutex
	threadID string
	roots    []models.Comment
	page     int
	hasMore  bool
	loading  bool
}

// New создаёт пустое состояние ветки (page=0 — ничего не загружено).
func New(threadID string) *Store {
	return &Store{threadID: threadID}
}

// ThreadID возвращает ключ ветки.
func (s *Store) ThreadID() string { return s.threadID }

// ReplacePage1 целиком заменяет корни первой страницей.
func (s *Store) ReplacePage1(comments []models.Comment, hasMore bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roots = dedupRoots(nil, comments)
	s.page = 1
	s.hasMore = hasMore
}

// AppendPage дописывает следующую страницу. pageNum обязан быть page+1,
// иначе ErrSequence и корни не меняются. Корни, id которых уже загружены,
// пропускаются: границы страниц на бэкенде могут сдвинуться между запросами.
func (s *Store) AppendPage(ctx context.Context, comments []models.Comment, pageNum int, hasMore bool) error {
	const op = "thread/AppendPage"

	s.mu.Lock()
	defer s.mu.Unlock()

	if pageNum != s.page+1 {
		return fmt.Errorf("%s: got page %d after %d: %w", op, pageNum, s.page, ErrSequence)
	}

	before := len(s.roots) + len(comments)
	s.roots = dedupRoots(s.roots, comments)
	if skipped := before - len(s.roots); skipped > 0 {
		log.From(ctx).Warn("duplicate_roots_skipped",
			"op", op,
			"thread_id", s.threadID,
			"page", pageNum,
			"skipped", skipped,
		)
	}

	s.page = pageNum
	s.hasMore = hasMore

	return nil
}

// dedupRoots дописывает к dst комментарии из src, id которых в dst ещё нет.
func dedupRoots(dst, src []models.Comment) []models.Comment {
	seen := make(map[models.ID]struct{}, len(dst)+len(src))
	for _, c := range dst {
		seen[c.ID] = struct{}{}
	}

	out := make([]models.Comment, len(dst), len(dst)+len(src))
	copy(out, dst)

	for _, c := range src {
		if _, ok := seen[c.ID]; ok {
			continue
		}

		seen[c.ID] = struct{}{}
		out = append(out, c)
	}

	return out
}

// Flatten — обход в глубину (pre-order) по корням в порядке хранения.
// Корень даёт (c, "", 0), потомок — (c, автор непосредственного родителя, depth).
func (s *Store) Flatten() []models.FlatComment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Flatten(s.roots)
}

// Flatten — чистое преобразование вложенного дерева в плоский список.
func Flatten(roots []models.Comment) []models.FlatComment {
	out := make([]models.FlatComment, 0, len(roots))

	var walk func(c *models.Comment, parent *models.Comment, depth int)
	walk = func(c *models.Comment, parent *models.Comment, depth int) {
		item := models.FlatComment{Comment: *c, Depth: depth}
		if parent != nil {
			item.ReplyTo = parent.AuthorUsername
			item.HasReplyTo = true
		}

		out = append(out, item)

		for i := range c.Replies {
			walk(&c.Replies[i], c, depth+1)
		}
	}

	for i := range roots {
		walk(&roots[i], nil, 0)
	}

	return out
}

// Find ищет комментарий по id во всём загруженном дереве.
func (s *Store) Find(id models.ID) (models.Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var find func(list []models.Comment) (models.Comment, bool)
	find = func(list []models.Comment) (models.Comment, bool) {
		for i := range list {
			if list[i].ID == id {
				return list[i], true
			}

			if c, ok := find(list[i].Replies); ok {
				return c, true
			}
		}

		return models.Comment{}, false
	}

	return find(s.roots)
}

// RootCount — число загруженных корней (только для диагностики).
func (s *Store) RootCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.roots)
}

// Page — последняя успешно загруженная страница.
func (s *Store) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.page
}

// HasMore — есть ли следующая страница.
func (s *Store) HasMore() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.hasMore
}

// Loading — идёт ли сейчас загрузка списка.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loading
}

// TryBeginLoad атомарно выставляет loading. false — загрузка уже идёт.
func (s *Store) TryBeginLoad() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading {
		return false
	}

	s.loading = true
	return true
}

// EndLoad снимает флаг loading.
func (s *Store) EndLoad() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

// Snapshot возвращает копию состояния; корни копируются поверхностно.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roots := make([]models.Comment, len(s.roots))
	copy(roots, s.roots)

	return State{
		ThreadID: s.threadID,
		Roots:    roots,
		Page:     s.page,
		HasMore:  s.hasMore,
		Loading:  s.loading,
	}
}

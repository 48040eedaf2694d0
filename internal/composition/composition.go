// Package composition ведёт учёт единственного открытого черновика
// (ответ или жалоба) на всю страницу.
//
// Два открытых черновика одновременно дали бы двойную вставку формы в
// плоский список, поэтому эксклюзивность — инвариант, а не удобство UI.
package composition

import "sync"

// Target — комментарий, к которому открыт черновик.
type Target struct {
	ThreadID  string
	CommentID string
}

// Kind — тип открытого черновика.
type Kind int

const (
	None Kind = iota
	Reply
	Report
)

func (k Kind) String() string {
	switch k {
	case Reply:
		return "reply"
	case Report:
		return "report"
	default:
		return "none"
	}
}

// State — глобальное (одно на все ветки) состояние черновика.
type State struct {
	mu     sync.Mutex
	kind   Kind
	target Target
}

// New создаёт пустое состояние.
func New() *State { return &State{} }

// OpenReply закрывает любой открытый черновик и открывает ответ к target.
func (s *State) OpenReply(target Target) {
	s.set(Reply, target)
}

// OpenReport закрывает любой открытый черновик и открывает жалобу на target.
func (s *State) OpenReport(target Target) {
	s.set(Report, target)
}

func (s *State) set(k Kind, target Target) {
	s.mu.Lock()
	s.kind = k
	s.target = target
	s.mu.Unlock()
}

// CloseAll закрывает всё.
func (s *State) CloseAll() {
	s.set(None, Target{})
}

// CloseFor закрывает черновик, только если он открыт в ветке threadID.
func (s *State) CloseFor(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kind != None && s.target.ThreadID == threadID {
		s.kind = None
		s.target = Target{}
	}
}

// CloseIf закрывает черновик, только если открыт именно kind к target.
// Возвращает true, если черновик был закрыт.
func (s *State) CloseIf(kind Kind, target Target) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind == None || s.kind != kind || s.target != target {
		return false
	}

	s.kind = None
	s.target = Target{}

	return true
}

// Current возвращает тип и цель открытого черновика.
func (s *State) Current() (Kind, Target) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.kind, s.target
}

// ReplyTarget — цель открытого ответа, если он есть.
func (s *State) ReplyTarget() (Target, bool) {
	k, t := s.Current()
	return t, k == Reply
}

// ReportTarget — цель открытой жалобы, если она есть.
func (s *State) ReportTarget() (Target, bool) {
	k, t := s.Current()
	return t, k == Report
}

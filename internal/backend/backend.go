// Package backend описывает REST-бэкенд, в котором живут комментарии.
// Бэкенд — внешний коллаборатор: он хранит данные, проверяет авторство и
// права; движок только зеркалирует его состояние.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/comments-engine/internal/models"
)

var (
	// ErrRejected — бэкенд отклонил входные данные (400/422).
	ErrRejected = errors.New("rejected")
	// ErrUnauthenticated — нет/битая авторизация (401).
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden — действие запрещено этому пользователю (403).
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound — ветка или комментарий не найдены (404), в т.ч. уже удалён.
	ErrNotFound = errors.New("not found")
	// ErrConflict — конфликт состояния (409).
	ErrConflict = errors.New("conflict")
	// ErrRateLimited — бэкенд просит притормозить (429).
	ErrRateLimited = errors.New("rate limited")
	// ErrUnavailable — 5xx, сетевые ошибки, таймауты, битый ответ.
	ErrUnavailable = errors.New("unavailable")
)

// StatusError — неуспешный HTTP-ответ. Kind — одна из ошибок выше,
// Detail — поле detail из тела ответа, если оно было.
type StatusError struct {
	Status int
	Detail string
	Kind   error
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Detail)
	}

	return fmt.Sprintf("%s (status %d)", e.Kind, e.Status)
}

func (e *StatusError) Unwrap() error { return e.Kind }

// ListQuery — параметры выдачи страницы корней.
type ListQuery struct {
	Page     int
	Ordering string
	Language string
}

// Backend описывает операции над комментариями ветки.
type Backend interface {
	// ListComments возвращает страницу корней ветки с вложенными ответами.
	// HasMore выставляется по наличию ссылки на следующую страницу.
	ListComments(ctx context.Context, threadID string, q ListQuery) (*models.Page, error)

	// CountComments — авторитетное общее число комментариев ветки.
	CountComments(ctx context.Context, threadID string) (int, error)

	// CreateComment создаёт корневой комментарий или ответ (multipart).
	CreateComment(ctx context.Context, threadID string, in models.NewComment) (*models.Comment, error)

	// DeleteComment удаляет комментарий от имени requesterID.
	// Авторство проверяет бэкенд: чужой — ErrForbidden, нет такого — ErrNotFound.
	DeleteComment(ctx context.Context, threadID string, commentID, requesterID models.ID) error

	// ReportComment отправляет жалобу.
	ReportComment(ctx context.Context, threadID string, commentID models.ID, r models.Report) error
}

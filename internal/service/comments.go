package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/pribylovaa/comments-engine/internal/attachments"
	"github.com/pribylovaa/comments-engine/internal/backend"
	"github.com/pribylovaa/comments-engine/internal/composition"
	"github.com/pribylovaa/comments-engine/internal/models"
	"github.com/pribylovaa/comments-engine/pkg/log"
)

// SubmitInput — создание корневого комментария или ответа.
// ParentID пуст — корень; иначе ответ на ParentID.
type SubmitInput struct {
	Text           string
	AuthorID       models.ID
	AuthorUsername string
	ParentID       models.ID
	Images         []attachments.File
}

// textLength — длина текста в кодовых точках после NFC: "e\u0301" — один
// символ. Суррогатные пары не учитываются, "😀" — тоже один символ.
// Сам текст в NFC не переписывается и уходит как введён (без краевых пробелов).
func textLength(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(s))
}

// SubmitComment — создание комментария.
//
// Валидация (до любого сетевого вызова):
//   - текст после TrimSpace не короче MinTextLength символов;
//   - AuthorID и AuthorUsername не пусты;
//   - изображения проходят политику вложений (*attachments.RejectedError
//     доступен через errors.As).
//
// После успешного создания закрывается черновик ответа на ParentID этой
// ветки (черновики других веток и комментариев не трогаются), затем ровно один раз
// перезагружаются страница 1 и счётчик. Новый комментарий в дерево
// локально не вставляется.
func (c *Controller) SubmitComment(ctx context.Context, in SubmitInput) (*models.Comment, error) {
	const op = "service/SubmitComment"

	ctx, lg := log.With(ctx,
		"op", op,
		"thread_id", c.ThreadID(),
		"author_id", in.AuthorID.String(),
		"parent_id", in.ParentID.String(),
	)

	text := strings.TrimSpace(in.Text)
	if textLength(text) < MinTextLength {
		lg.Warn("invalid argument: text too short")
		c.observe(opSubmit, ErrValidation)
		return nil, fmt.Errorf("%s: text shorter than %d characters: %w", op, MinTextLength, ErrValidation)
	}

	username := strings.TrimSpace(in.AuthorUsername)
	if in.AuthorID.IsZero() || username == "" {
		lg.Warn("invalid argument: empty author")
		c.observe(opSubmit, ErrValidation)
		return nil, fmt.Errorf("%s: empty author: %w", op, ErrValidation)
	}

	if err := c.policy.Validate(in.Images); err != nil {
		lg.Warn("invalid argument: attachments rejected", "err", err)
		c.observe(opSubmit, ErrValidation)
		return nil, fmt.Errorf("%s: %w: %w", op, ErrValidation, err)
	}

	images := make([]models.Attachment, 0, len(in.Images))
	for _, f := range in.Images {
		images = append(images, models.Attachment{Name: f.Name, MIMEType: f.MIMEType, Data: f.Data})
	}

	created, err := c.backend.CreateComment(ctx, c.ThreadID(), models.NewComment{
		Text:           text,
		AuthorID:       in.AuthorID,
		AuthorUsername: username,
		ParentID:       in.ParentID,
		Images:         images,
	})
	c.observe(opSubmit, err)

	if err != nil {
		logBackendError(lg, "submit_failed", err)
		return nil, fmt.Errorf("%s: %w: %w", op, ErrSubmitFailed, err)
	}

	lg.Info("comment_created", "comment_id", created.ID.String())

	if !in.ParentID.IsZero() {
		c.comp.CloseIf(composition.Reply, composition.Target{ThreadID: c.ThreadID(), CommentID: in.ParentID.String()})
	}
	c.reload(ctx)

	return created, nil
}

// DeleteComment — удаление комментария от имени requesterID.
// Подтверждение — забота UI. Авторство проверяет бэкенд.
// Успех — перезагрузка страницы 1 и счётчика.
func (c *Controller) DeleteComment(ctx context.Context, commentID, requesterID models.ID) error {
	const op = "service/DeleteComment"

	ctx, lg := log.With(ctx,
		"op", op,
		"thread_id", c.ThreadID(),
		"comment_id", commentID.String(),
		"requester_id", requesterID.String(),
	)

	if commentID.IsZero() || requesterID.IsZero() {
		lg.Warn("invalid argument: empty id")
		c.observe(opDelete, ErrValidation)
		return fmt.Errorf("%s: empty id: %w", op, ErrValidation)
	}

	err := c.backend.DeleteComment(ctx, c.ThreadID(), commentID, requesterID)
	c.observe(opDelete, err)

	if err != nil {
		logBackendError(lg, "delete_failed", err)
		return fmt.Errorf("%s: %w: %w", op, ErrDeleteFailed, err)
	}

	lg.Info("comment_deleted")

	c.reload(ctx)

	return nil
}

// ReportComment — жалоба на комментарий. Локально меняется только
// композиция (закрывается жалоба на commentID, если открыта): видимое
// содержимое комментария для автора жалобы прежнее.
func (c *Controller) ReportComment(ctx context.Context, commentID, reporterID models.ID, reason models.ReportReason, description string) error {
	const op = "service/ReportComment"

	ctx, lg := log.With(ctx,
		"op", op,
		"thread_id", c.ThreadID(),
		"comment_id", commentID.String(),
		"reason", string(reason),
	)

	if commentID.IsZero() || reporterID.IsZero() {
		lg.Warn("invalid argument: empty id")
		c.observe(opReport, ErrValidation)
		return fmt.Errorf("%s: empty id: %w", op, ErrValidation)
	}

	if _, err := models.ParseReportReason(string(reason)); err != nil {
		lg.Warn("invalid argument: unknown reason")
		c.observe(opReport, ErrValidation)
		return fmt.Errorf("%s: %w: %w", op, ErrValidation, err)
	}

	err := c.backend.ReportComment(ctx, c.ThreadID(), commentID, models.Report{
		ReporterID:  reporterID,
		Reason:      reason,
		Description: strings.TrimSpace(description),
	})
	c.observe(opReport, err)

	if err != nil {
		logBackendError(lg, "report_failed", err)
		return fmt.Errorf("%s: %w: %w", op, ErrReportFailed, err)
	}

	lg.Info("comment_reported")

	c.comp.CloseIf(composition.Report, composition.Target{ThreadID: c.ThreadID(), CommentID: commentID.String()})

	return nil
}

// logBackendError пишет отказ бэкенда: ожидаемые клиентские исходы — Warn,
// недоступность и неизвестные ошибки — Error.
func logBackendError(lg *slog.Logger, msg string, err error) {
	switch {
	case errors.Is(err, backend.ErrRejected),
		errors.Is(err, backend.ErrNotFound),
		errors.Is(err, backend.ErrForbidden),
		errors.Is(err, backend.ErrUnauthenticated),
		errors.Is(err, backend.ErrConflict),
		errors.Is(err, backend.ErrRateLimited),
		errors.Is(err, context.Canceled):
		lg.Warn(msg, "err", err)
	default:
		lg.Error(msg, "err", err)
	}
}

// rest реализует backend.Backend поверх REST API бэкенда комментариев:
// JSON для чтения и жалоб, multipart/form-data для создания комментария.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/pribylovaa/comments-engine/internal/backend"
	"github.com/pribylovaa/comments-engine/internal/clients/interceptors"
	"github.com/pribylovaa/comments-engine/internal/models"
)

// maxBody — верхняя граница тела успешного ответа.
const maxBody = 8 << 20

// Шаблоны маршрутов для логов/метрик.
const (
	routeList   = "list_comments"
	routeCount  = "count_comments"
	routeCreate = "create_comment"
	routeDelete = "delete_comment"
	routeReport = "report_comment"
)

// Client — HTTP-клиент бэкенда.
type Client struct {
	base *url.URL
	http *http.Client
}

// New создаёт клиент. baseURL — корень API (например, https://host/api).
func New(baseURL string, hc *http.Client) (*Client, error) {
	const op = "backend/rest/New"

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%s: unsupported scheme %q", op, u.Scheme)
	}

	if hc == nil {
		hc = http.DefaultClient
	}

	return &Client{base: u, http: hc}, nil
}

// endpoint собирает URL из экранированных сегментов пути.
func (c *Client) endpoint(query url.Values, segments ...string) string {
	u := *c.base

	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}

	u.Path = c.base.Path + "/" + strings.Join(segments, "/")
	u.RawPath = c.base.EscapedPath() + "/" + strings.Join(escaped, "/")
	u.RawQuery = query.Encode()

	return u.String()
}

// do выполняет запрос и возвращает ответ с ожидаемым статусом;
// неожиданный статус превращается в *backend.StatusError.
func (c *Client) do(ctx context.Context, op, route string, req *http.Request, want ...int) (*http.Response, error) {
	resp, err := c.http.Do(req.WithContext(interceptors.WithRoute(ctx, route)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, backend.ErrUnavailable, err)
	}

	for _, w := range want {
		if resp.StatusCode == w {
			return resp, nil
		}
	}

	defer resp.Body.Close()
	return nil, fmt.Errorf("%s: %w", op, statusError(resp))
}

func decode(op string, resp *http.Response, v any) error {
	defer resp.Body.Close()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(v); err != nil {
		return fmt.Errorf("%s: decode: %w: %w", op, backend.ErrUnavailable, err)
	}

	return nil
}

// drain дочитывает тело, чтобы соединение вернулось в пул.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
	_ = resp.Body.Close()
}

// ListComments — GET /threads/{id}/comments?page=&ordering=&language=.
func (c *Client) ListComments(ctx context.Context, threadID string, q backend.ListQuery) (*models.Page, error) {
	const op = "backend/rest/ListComments"

	query := url.Values{}
	query.Set("page", strconv.Itoa(q.Page))
	if q.Ordering != "" {
		query.Set("ordering", q.Ordering)
	}
	if q.Language != "" {
		query.Set("language", q.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(query, "threads", threadID, "comments"), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(ctx, op, routeList, req, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var out listResponse
	if err := decode(op, resp, &out); err != nil {
		return nil, err
	}

	return &models.Page{
		Items:   out.Results,
		HasMore: out.Next != nil && *out.Next != "",
	}, nil
}

// CountComments — GET /threads/{id}/comments/count.
func (c *Client) CountComments(ctx context.Context, threadID string) (int, error) {
	const op = "backend/rest/CountComments"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(nil, "threads", threadID, "comments", "count"), nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(ctx, op, routeCount, req, http.StatusOK)
	if err != nil {
		return 0, err
	}

	var out countResponse
	if err := decode(op, resp, &out); err != nil {
		return 0, err
	}

	return out.Count, nil
}

// CreateComment — POST /threads/{id}/comments, multipart/form-data:
// text, author_telegram_id, author_username, parent_comment?, images[].
func (c *Client) CreateComment(ctx context.Context, threadID string, in models.NewComment) (*models.Comment, error) {
	const op = "backend/rest/CreateComment"

	body, contentType, err := multipartBody(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(nil, "threads", threadID, "comments"), body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(ctx, op, routeCreate, req, http.StatusCreated, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var out models.Comment
	if err := decode(op, resp, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func multipartBody(in models.NewComment) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"text", in.Text},
		{"author_telegram_id", in.AuthorID.String()},
		{"author_username", in.AuthorUsername},
	}
	if !in.ParentID.IsZero() {
		fields = append(fields, [2]string{"parent_comment", in.ParentID.String()})
	}

	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	for _, img := range in.Images {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, img.Name))
		h.Set("Content-Type", img.MIMEType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}

		if _, err := part.Write(img.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

// DeleteComment — DELETE /threads/{id}/comments/{cid}?telegram_id=.
func (c *Client) DeleteComment(ctx context.Context, threadID string, commentID, requesterID models.ID) error {
	const op = "backend/rest/DeleteComment"

	query := url.Values{}
	query.Set("telegram_id", requesterID.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.endpoint(query, "threads", threadID, "comments", commentID.String()), nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.do(ctx, op, routeDelete, req, http.StatusNoContent, http.StatusOK)
	if err != nil {
		return err
	}

	drain(resp)
	return nil
}

// ReportComment — POST /threads/{id}/comments/{cid}/report (JSON).
func (c *Client) ReportComment(ctx context.Context, threadID string, commentID models.ID, r models.Report) error {
	const op = "backend/rest/ReportComment"

	payload, err := json.Marshal(reportRequest{
		ReporterTelegramID: r.ReporterID.String(),
		Reason:             string(r.Reason),
		Description:        r.Description,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint(nil, "threads", threadID, "comments", commentID.String(), "report"), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, op, routeReport, req, http.StatusOK, http.StatusCreated, http.StatusNoContent)
	if err != nil {
		return err
	}

	drain(resp)
	return nil
}

// Проверка выполнения контракта верхнего уровня.
var _ backend.Backend = (*Client)(nil)

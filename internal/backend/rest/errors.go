package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/pribylovaa/comments-engine/internal/backend"
)

// maxDetail — сколько байт detail сохраняем в ошибке (по границе символа).
const maxDetail = 512

// kindFromStatus — маппинг HTTP-статуса бэкенда в сентинел-ошибку.
// Таблица:
//   - 400, 413, 415, 422 -> ErrRejected (битые входные данные/файлы);
//   - 401 -> ErrUnauthenticated;
//   - 403 -> ErrForbidden (не автор, бан);
//   - 404, 410 -> ErrNotFound (в т.ч. уже удалён);
//   - 409 -> ErrConflict;
//   - 429 -> ErrRateLimited;
//   - прочее (5xx, неожиданные коды) -> ErrUnavailable.
func kindFromStatus(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge,
		http.StatusUnsupportedMediaType, http.StatusUnprocessableEntity:
		return backend.ErrRejected
	case http.StatusUnauthorized:
		return backend.ErrUnauthenticated
	case http.StatusForbidden:
		return backend.ErrForbidden
	case http.StatusNotFound, http.StatusGone:
		return backend.ErrNotFound
	case http.StatusConflict:
		return backend.ErrConflict
	case http.StatusTooManyRequests:
		return backend.ErrRateLimited
	default:
		return backend.ErrUnavailable
	}
}

// statusError читает тело неуспешного ответа и собирает *backend.StatusError.
// detail в DRF бывает строкой, списком или объектом — нестроковые значения
// сохраняем компактным JSON.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}

	detail := ""
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Detail) > 0 {
		var s string
		if err := json.Unmarshal(body.Detail, &s); err == nil {
			detail = s
		} else {
			detail = compact(body.Detail)
		}
	}

	// Ошибки валидации полей DRF приходят без detail: {"text": ["..."]}.
	if detail == "" {
		detail = compact(raw)
	}

	detail = truncateDetail(detail, maxDetail)

	return &backend.StatusError{
		Status: resp.StatusCode,
		Detail: detail,
		Kind:   kindFromStatus(resp.StatusCode),
	}
}

// truncateDetail обрезает s до limit байт, не разрывая UTF-8 последовательность.
func truncateDetail(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	i := limit
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}

	return s[:i]
}

func compact(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err == nil {
		return buf.String()
	}

	return string(bytes.TrimSpace(raw))
}

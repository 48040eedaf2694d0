// Package models содержит доменные сущности движка комментариев.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID — непрозрачный идентификатор (комментария, автора, ветки).
// Бэкенд отдаёт идентификаторы то строкой, то числом; наружу всегда string.
type ID string

// String возвращает строковое представление идентификатора.
func (id ID) String() string { return string(id) }

// IsZero — идентификатор не задан.
func (id ID) IsZero() bool { return id == "" }

// UnmarshalJSON принимает JSON-строку, JSON-число и null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: expected string or number, got %s", data)
	}

	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("id: non-integer number %s", n)
	}

	*id = ID(n.String())
	return nil
}

// Image — прикреплённое к комментарию изображение.
type Image struct {
	URL string `json:"url"`
}

// Comment — комментарий в том виде, в каком его отдаёт бэкенд.
// Важно:
//   - ParentID пуст у корневого комментария;
//   - IsDeleted — «надгробие»: текст скрыт, действия недоступны, но узел
//     остаётся в дереве, чтобы не ломать структуру ответов;
//   - Replies — дети в порядке бэкенда, на клиенте не пересортировываются;
//   - CreatedAtDisplay — уже отформатированная строка, движок её не парсит.
type Comment struct {
	ID               ID        `json:"id"               yaml:"id"`
	AuthorID         ID        `json:"author_telegram_id" yaml:"author_id"`
	AuthorUsername   string    `json:"author_username"  yaml:"author_username"`
	Text             string    `json:"text"             yaml:"text"`
	CreatedAtDisplay string    `json:"created_at_display" yaml:"created_at"`
	ParentID         ID        `json:"parent_comment"   yaml:"parent_id,omitempty"`
	Images           []Image   `json:"images"           yaml:"images,omitempty"`
	IsDeleted        bool      `json:"is_deleted"       yaml:"is_deleted"`
	Replies          []Comment `json:"replies"          yaml:"replies,omitempty"`
}

// IsRoot — комментарий верхнего уровня.
func (c *Comment) IsRoot() bool { return c.ParentID.IsZero() }

// Page — одна страница корневых комментариев.
type Page struct {
	Items   []Comment
	HasMore bool
}

// FlatComment — элемент «сплющенного» дерева для отрисовки 1:1.
// ReplyTo — имя автора непосредственного родителя; у корня пусто и
// HasReplyTo=false (пустое имя автора у родителя тоже допустимо).
type FlatComment struct {
	Comment    Comment `json:"comment"      yaml:"comment"`
	ReplyTo    string  `json:"reply_to"     yaml:"reply_to,omitempty"`
	HasReplyTo bool    `json:"has_reply_to" yaml:"has_reply_to"`
	Depth      int     `json:"depth"        yaml:"depth"`
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"gopkg.in/yaml.v3"

	"github.com/pribylovaa/comments-engine/internal/models"
	"github.com/pribylovaa/comments-engine/internal/thread"
)

// Коды выхода.
const (
	ExitSuccess      = 0 // успех
	ExitFailure      = 1 // операция не удалась (бэкенд, сеть)
	ExitCommandError = 2 // ошибка использования: флаги, конфиг, невалидный ввод
)

// ExitError — ошибка с кодом выхода.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError создаёт ExitError без причины.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError оборачивает err кодом выхода.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode извлекает код выхода; не-ExitError — ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// commentView — строка плоского дерева в выводе.
type commentView struct {
	ID        string   `json:"id" yaml:"id"`
	Author    string   `json:"author" yaml:"author"`
	ReplyTo   string   `json:"reply_to,omitempty" yaml:"reply_to,omitempty"`
	Depth     int      `json:"depth" yaml:"depth"`
	Text      string   `json:"text,omitempty" yaml:"text,omitempty"`
	CreatedAt string   `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Deleted   bool     `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	Images    []string `json:"images,omitempty" yaml:"images,omitempty"`
}

type listView struct {
	Thread   string        `json:"thread" yaml:"thread"`
	Page     int           `json:"page" yaml:"page"`
	HasMore  bool          `json:"has_more" yaml:"has_more"`
	Comments []commentView `json:"comments" yaml:"comments"`
}

type countView struct {
	Thread string `json:"thread" yaml:"thread"`
	Count  int    `json:"count" yaml:"count"`
}

type actionView struct {
	Thread    string `json:"thread" yaml:"thread"`
	Action    string `json:"action" yaml:"action"`
	CommentID string `json:"comment_id" yaml:"comment_id"`
	Total     *int   `json:"total,omitempty" yaml:"total,omitempty"`
}

// newListView строит вывод из снимка ветки. У «надгробий» текст и
// изображения скрыты.
func newListView(st thread.State) listView {
	flat := thread.Flatten(st.Roots)

	out := listView{
		Thread:   st.ThreadID,
		Page:     st.Page,
		HasMore:  st.HasMore,
		Comments: make([]commentView, 0, len(flat)),
	}

	for _, fc := range flat {
		v := commentView{
			ID:        fc.Comment.ID.String(),
			Author:    fc.Comment.AuthorUsername,
			ReplyTo:   fc.ReplyTo,
			Depth:     fc.Depth,
			CreatedAt: fc.Comment.CreatedAtDisplay,
			Deleted:   fc.Comment.IsDeleted,
		}

		if !fc.Comment.IsDeleted {
			v.Text = fc.Comment.Text
			v.Images = imageURLs(fc.Comment.Images)
		}

		out.Comments = append(out.Comments, v)
	}

	return out
}

func imageURLs(images []models.Image) []string {
	if len(images) == 0 {
		return nil
	}

	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, img.URL)
	}

	return urls
}

// printer выводит значение в выбранном формате; text — ручной рендер.
type printer struct {
	format string
	w      io.Writer
}

func (p printer) print(v any, text func(io.Writer) error) error {
	switch p.format {
	case "json":
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(p.w)
	}
}

// writeListText — дерево с отступом по глубине:
//
//	#10 anna, 2 hours ago
//	  text
//	  #11 bob -> anna
//	    text
func writeListText(w io.Writer, v listView) error {
	more := "no"
	if v.HasMore {
		more = "yes"
	}

	if _, err := fmt.Fprintf(w, "thread %s: page %d, %d comments, more pages: %s\n", v.Thread, v.Page, len(v.Comments), more); err != nil {
		return err
	}

	for _, c := range v.Comments {
		indent := strings.Repeat("  ", c.Depth)

		head := indent + "#" + c.ID + " " + c.Author
		if c.ReplyTo != "" {
			head += " -> " + c.ReplyTo
		}
		if c.CreatedAt != "" {
			head += ", " + c.CreatedAt
		}

		lines := []string{head}
		if c.Deleted {
			lines = append(lines, indent+"  [deleted]")
		} else {
			body := strings.ReplaceAll(c.Text, "\n", "\n"+indent+"  ")
			lines = append(lines, indent+"  "+body)
			for _, u := range c.Images {
				lines = append(lines, indent+"  image: "+u)
			}
		}

		if _, err := io.WriteString(w, strings.Join(lines, "\n")+"\n"); err != nil {
			return err
		}
	}

	return nil
}

func writeActionText(w io.Writer, v actionView) error {
	verb := map[string]string{"create": "created", "delete": "deleted", "report": "reported"}[v.Action]

	line := fmt.Sprintf("%s comment %s in %s", verb, v.CommentID, v.Thread)
	if v.Total != nil {
		line += fmt.Sprintf(" (total %d)", *v.Total)
	}

	_, err := fmt.Fprintln(w, line)
	return err
}

// dumpMetrics выводит метрики реестра в текстовом формате экспозиции.
func dumpMetrics(w io.Writer, reg *prometheus.Registry) error {
	mfs, err := reg.Gather()
	if err != nil {
		return err
	}

	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}

	return nil
}

// Package attachments проверяет набор изображений до любого сетевого вызова.
//
// Правила применяются по порядку, побеждает первое нарушение:
//  1. файлов больше MaxFiles -> TooMany;
//  2. какой-либо файл больше MaxSizeBytes -> TooLarge (с этим файлом);
//  3. MIME-тип вне allow-list -> InvalidFormat (с этим файлом).
package attachments

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultMaxFiles — сколько изображений можно прикрепить к комментарию.
	DefaultMaxFiles = 3
	// DefaultMaxSizeBytes — 5 MiB на файл.
	DefaultMaxSizeBytes int64 = 5 * 1024 * 1024
)

// DefaultAllowedTypes — допустимые MIME-типы изображений.
var DefaultAllowedTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"}

// ErrValidation — общий признак отказа валидации (errors.Is).
var ErrValidation = errors.New("attachments rejected")

// Reason — причина отказа.
type Reason string

const (
	TooMany       Reason = "too_many"
	TooLarge      Reason = "too_large"
	InvalidFormat Reason = "invalid_format"
)

// File — кандидат на загрузку. Data может быть пустым, если валидируются
// только метаданные.
type File struct {
	Name     string
	Size     int64
	MIMEType string
	Data     []byte
}

// RejectedError — результат Rejected(reason[, file]).
// File заполнен для TooLarge и InvalidFormat.
type RejectedError struct {
	Reason Reason
	File   *File
}

func (e *RejectedError) Error() string {
	if e.File == nil {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}

	return fmt.Sprintf("%s: %s (%s)", ErrValidation, e.Reason, e.File.Name)
}

// Is позволяет матчить любой отказ через errors.Is(err, ErrValidation).
func (e *RejectedError) Is(target error) bool { return target == ErrValidation }

// Policy — ограничения на вложения.
type Policy struct {
	MaxFiles     int
	MaxSizeBytes int64
	AllowedTypes []string
}

// DefaultPolicy возвращает ограничения по умолчанию (3 файла, 5 MiB, jpeg/png/gif/webp).
func DefaultPolicy() Policy {
	return Policy{
		MaxFiles:     DefaultMaxFiles,
		MaxSizeBytes: DefaultMaxSizeBytes,
		AllowedTypes: DefaultAllowedTypes,
	}
}

// Validate проверяет файлы по политике по умолчанию.
func Validate(files []File) error {
	return DefaultPolicy().Validate(files)
}

// Validate — чистая синхронная проверка набора файлов.
// Возвращает nil (Ok) или *RejectedError.
func (p Policy) Validate(files []File) error {
	if len(files) > p.MaxFiles {
		return &RejectedError{Reason: TooMany}
	}

	for i := range files {
		if files[i].Size > p.MaxSizeBytes {
			return &RejectedError{Reason: TooLarge, File: &files[i]}
		}
	}

	for i := range files {
		if !p.allowed(files[i].MIMEType) {
			return &RejectedError{Reason: InvalidFormat, File: &files[i]}
		}
	}

	return nil
}

// allowed сравнивает тип без учёта регистра и параметров ("; charset=...").
func (p Policy) allowed(contentType string) bool {
	mt := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}

	for _, a := range p.AllowedTypes {
		if strings.EqualFold(a, mt) {
			return true
		}
	}

	return false
}

// FileFromPath читает файл с диска. MIME-тип берётся по расширению, а если
// расширение неизвестно — определяется по содержимому.
func FileFromPath(path string) (File, error) {
	const op = "attachments/FileFromPath"

	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", op, err)
	}

	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if ct == "" {
		ct = http.DetectContentType(data)
	}

	return File{
		Name:     filepath.Base(path),
		Size:     int64(len(data)),
		MIMEType: ct,
		Data:     data,
	}, nil
}

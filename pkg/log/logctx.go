// log переносит *slog.Logger через context.Context: хост кладёт логгер
// с атрибутами запроса/ветки, а движок достаёт его на любой глубине.
package log

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// Into возвращает дочерний контекст с логгером l.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// From — логгер движка из ctx; без него (или при nil) slog.Default().
func From(ctx context.Context) *slog.Logger {
	if l, _ := ctx.Value(loggerKey{}).(*slog.Logger); l != nil {
		return l
	}

	return slog.Default()
}

// With обогащает логгер из контекста атрибутами и кладёт результат обратно.
// Возвращает и новый контекст, и сам логгер, чтобы не доставать его повторно.
func With(ctx context.Context, args ...any) (context.Context, *slog.Logger) {
	l := From(ctx).With(args...)
	return Into(ctx, l), l
}

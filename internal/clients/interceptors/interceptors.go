// interceptors предоставляет набор клиентских HTTP-интерсепторов
// (обёрток над http.RoundTripper) для исходящих запросов к бэкенду.
package interceptors

import (
	"context"
	"net/http"
)

// RoundTripperFunc адаптирует функцию к http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Interceptor оборачивает транспорт.
type Interceptor func(next http.RoundTripper) http.RoundTripper

// Chain применяет интерсепторы к base в порядке перечисления:
// первый в списке — самый внешний.
func Chain(base http.RoundTripper, ics ...Interceptor) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	for i := len(ics) - 1; i >= 0; i-- {
		base = ics[i](base)
	}

	return base
}

type CtxKey string

const (
	CtxRequestID CtxKey = "request_id"
	CtxAuthToken CtxKey = "auth_token"
	CtxRoute     CtxKey = "route"
)

// WithRoute помечает запрос шаблоном маршрута (для логов и метрик
// без взрыва кардинальности по id ветки/комментария).
func WithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, CtxRoute, route)
}

// RouteFrom возвращает шаблон маршрута или "-".
func RouteFrom(ctx context.Context) string {
	if v, _ := ctx.Value(CtxRoute).(string); v != "" {
		return v
	}

	return "-"
}

// WithAuthToken кладёт токен пользователя в контекст исходящего запроса.
func WithAuthToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, CtxAuthToken, token)
}

// WithRequestID кладёт request id в контекст исходящего запроса.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, CtxRequestID, rid)
}

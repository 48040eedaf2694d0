package interceptors

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/comments-engine/pkg/log"
)

// ClientLogging — логирование исходящих запросов.
// Поведение:
//   - берёт X-Request-Id из заголовка запроса (или генерирует UUID и добавляет);
//   - добавляет поля request_id/method/route, прокладывает обогащённый
//     логгер в контекст (pkg/log);
//   - пишет одну финальную запись уровня Info: msg="http", status, dur;
//     при ошибке транспорта — уровня Warn с err.
//
// Безопасность: не логирует тело, query и заголовки авторизации.
func ClientLogging(base *slog.Logger) Interceptor {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()

			r = r.Clone(r.Context())

			rid := r.Header.Get("X-Request-Id")
			if rid == "" {
				rid = uuid.NewString()
				r.Header.Set("X-Request-Id", rid)
			}

			l := base.With(
				slog.String("request_id", rid),
				slog.String("method", r.Method),
				slog.String("route", RouteFrom(r.Context())),
			)
			r = r.WithContext(log.Into(r.Context(), l))

			resp, err := next.RoundTrip(r)
			if err != nil {
				l.Warn("http",
					slog.String("err", err.Error()),
					slog.Duration("dur", time.Since(start)),
				)
				return nil, err
			}

			l.Info("http",
				slog.Int("status", resp.StatusCode),
				slog.Duration("dur", time.Since(start)),
			)

			return resp, nil
		})
	}
}

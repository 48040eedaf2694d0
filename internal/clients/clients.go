// clients собирает HTTP-клиент бэкенда с цепочкой интерсепторов
// и REST-реализацию backend.Backend поверх него.
package clients

import (
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/pribylovaa/comments-engine/internal/backend/rest"
	"github.com/pribylovaa/comments-engine/internal/clients/interceptors"
	"github.com/pribylovaa/comments-engine/internal/config"
	"github.com/pribylovaa/comments-engine/internal/metrics"
)

// Clients агрегирует транспорт и клиент бэкенда.
type Clients struct {
	HTTP    *http.Client
	Backend *rest.Client
}

// New создаёт HTTP-клиент и REST-клиент бэкенда.
// base — транспорт нижнего уровня (nil -> http.DefaultTransport).
func New(cfg config.Config, log *slog.Logger, m *metrics.Metrics, base http.RoundTripper) (*Clients, error) {
	const op = "internal/clients/New"

	var limiter *rate.Limiter
	if cfg.Limits.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Limits.RPS), cfg.Limits.Burst)
	}

	// Цепочка: default token -> metadata -> timeout -> rate limit -> logging -> metrics.
	transport := interceptors.Chain(base,
		withDefaultToken(cfg.Backend.AuthToken),
		interceptors.ClientWithMetadata(cfg.Backend.UserAgent, cfg.Backend.AuthScheme),
		interceptors.ClientWithTimeout(cfg.Timeouts.Request),
		interceptors.ClientRateLimit(limiter),
		interceptors.ClientLogging(log),
		interceptors.ClientMetrics(m),
	)

	hc := &http.Client{Transport: transport}

	be, err := rest.New(cfg.Backend.BaseURL, hc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Clients{HTTP: hc, Backend: be}, nil
}

// Close закрывает простаивающие соединения.
func (c *Clients) Close() {
	c.HTTP.CloseIdleConnections()
}

// withDefaultToken подставляет токен из конфигурации, если вызывающий
// не положил свой в контекст.
func withDefaultToken(token string) interceptors.Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		if token == "" {
			return next
		}

		return interceptors.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if tok, _ := r.Context().Value(interceptors.CtxAuthToken).(string); tok == "" {
				r = r.WithContext(interceptors.WithAuthToken(r.Context(), token))
			}

			return next.RoundTrip(r)
		})
	}
}

package interceptors

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pribylovaa/comments-engine/internal/metrics"
)

// ClientMetrics считает запросы по маршруту/коду и их длительность.
// Сетевые ошибки попадают в code="error".
func ClientMetrics(m *metrics.Metrics) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		if m == nil {
			return next
		}

		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			route := RouteFrom(r.Context())
			start := time.Now()

			resp, err := next.RoundTrip(r)

			code := "error"
			if err == nil {
				code = strconv.Itoa(resp.StatusCode)
			}

			m.Requests.WithLabelValues(route, code).Inc()
			m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())

			return resp, err
		})
	}
}

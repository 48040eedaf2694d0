package interceptors

import (
	"net/http"

	"golang.org/x/time/rate"
)

// ClientRateLimit ждёт разрешения лимитера перед отправкой запроса.
// Ожидание прерывается отменой/дедлайном контекста запроса.
// limiter == nil — без ограничений.
func ClientRateLimit(limiter *rate.Limiter) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		if limiter == nil {
			return next
		}

		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if err := limiter.Wait(r.Context()); err != nil {
				return nil, err
			}

			return next.RoundTrip(r)
		})
	}
}

package interceptors

import (
	"net/http"
)

// ClientWithMetadata — добавляет в исходящий запрос заголовки:
//   - X-Request-Id (если есть в контексте и ещё не задан),
//   - Authorization: <scheme> <token> (если токен есть в контексте),
//   - User-Agent (если передан параметром).
//
// Пустой authScheme означает "Bearer".
func ClientWithMetadata(userAgent, authScheme string) Interceptor {
	if authScheme == "" {
		authScheme = "Bearer"
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			ctx := r.Context()
			r = r.Clone(ctx)

			if rid, _ := ctx.Value(CtxRequestID).(string); rid != "" && r.Header.Get("X-Request-Id") == "" {
				r.Header.Set("X-Request-Id", rid)
			}

			if tok, _ := ctx.Value(CtxAuthToken).(string); tok != "" {
				r.Header.Set("Authorization", authScheme+" "+tok)
			}

			if userAgent != "" {
				r.Header.Set("User-Agent", userAgent)
			}

			return next.RoundTrip(r)
		})
	}
}

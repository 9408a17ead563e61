package obs

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type routePatternKey struct{}

// WithRoutePattern stores the matched router pattern on the context.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext returns the pattern stored by WithRoutePattern.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(routePatternKey{}).(string)
	return v
}

// RoutePatternMiddleware resolves the chi pattern for the request before the
// handler runs so outer middleware can label by route instead of raw path.
func RoutePatternMiddleware(mux chi.Routes) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if mux == nil {
				next.ServeHTTP(w, r)
				return
			}
			rctx := chi.NewRouteContext()
			pattern := r.URL.Path
			if mux.Match(rctx, r.Method, r.URL.Path) {
				if p := rctx.RoutePattern(); p != "" {
					pattern = p
				}
			}
			ctx := WithRoutePattern(r.Context(), pattern)
			if span := trace.SpanFromContext(ctx); span.IsRecording() {
				span.SetName(r.Method + " " + pattern)
				span.SetAttributes(attribute.String("http.route", pattern))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Tracing starts a server span per request using otelhttp. Span names are
// refined to the route pattern by RoutePatternMiddleware.
func Tracing(operation string) func(http.Handler) http.Handler {
	return otelhttp.NewMiddleware(operation,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

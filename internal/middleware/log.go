package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	inHttp "github.com/Alturino/bookstore/internal/http"
	"github.com/Alturino/bookstore/internal/log"
	"github.com/Alturino/bookstore/internal/otel"
)

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(inHttp.KeyHeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c, span := otel.Tracer.Start(
			r.Context(),
			"middleware Logging",
			trace.WithAttributes(
				attribute.String(log.KeyRequestID, requestID),
				attribute.String("http.host", r.Host),
				attribute.String("http.method", r.Method),
				attribute.String("http.uri", r.RequestURI),
			),
		)
		defer span.End()

		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyRequestID, requestID).
			Dict("request", zerolog.Dict().
				Str("host", r.Host).
				Str("ip", r.RemoteAddr).
				Str("method", r.Method).
				Str("uri", r.RequestURI)).
			Logger()

		c = log.AttachRequestIDToContext(c, requestID)
		c = logger.WithContext(c)
		r = r.WithContext(c)

		logger.Trace().Msg("attached request value to context")
		next.ServeHTTP(w, r)
	})
}

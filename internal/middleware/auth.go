package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Alturino/bookstore/internal"
	"github.com/Alturino/bookstore/internal/config"
	"github.com/Alturino/bookstore/internal/constants"
	inErrors "github.com/Alturino/bookstore/internal/errors"
	inHttp "github.com/Alturino/bookstore/internal/http"
	"github.com/Alturino/bookstore/internal/log"
)

func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context()).With().Str(log.KeyTag, "middleware Auth").Logger()
		c := logger.WithContext(r.Context())

		authorization := r.Header.Get("Authorization")
		if authorization == "" {
			logger.Error().Err(inErrors.ErrEmptyAuth).Msg(inErrors.ErrEmptyAuth.Error())
			inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
				"status":     "failed",
				"statusCode": http.StatusUnauthorized,
				"message":    inErrors.ErrEmptyAuth.Error(),
			})
			return
		}

		token := strings.TrimPrefix(authorization, "Bearer ")
		cfg := config.Get(c, constants.AppName)
		jwtToken, err := internal.VerifyToken(c, token, cfg.Application.SecretKey)
		if err != nil {
			logger.Error().Err(err).Msg(err.Error())
			inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
				"status":     "failed",
				"statusCode": http.StatusUnauthorized,
				"message":    inErrors.ErrTokenInvalid.Error(),
			})
			return
		}

		c = internal.AttachJwtToken(c, jwtToken)
		next.ServeHTTP(w, r.WithContext(c))
	})
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/bookstore/internal/errors"
	"github.com/Alturino/bookstore/internal/otel"
)

func WriteJsonResponse(
	c context.Context,
	w http.ResponseWriter,
	header map[string]string,
	body map[string]interface{},
) {
	c, span := otel.Tracer.Start(c, "WriteJsonResponse")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str("tag", "WriteJsonResponse").Logger()

	w.Header().Add(KeyHeaderContentType, ValueHeaderApplicationJson)
	for k, v := range header {
		w.Header().Add(k, v)
	}

	if v, ok := body["statusCode"]; ok {
		w.WriteHeader(v.(int))
	}

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
}

// StatusCodeFromError maps domain errors to HTTP status codes. Ownership
// violations surface as not found so other users' resources are not leaked.
func StatusCodeFromError(err error) int {
	switch {
	case errors.Is(err, inErrors.ErrBookNotFound),
		errors.Is(err, inErrors.ErrCartNotFound),
		errors.Is(err, inErrors.ErrCartItemNotFound),
		errors.Is(err, inErrors.ErrOrderNotFound),
		errors.Is(err, inErrors.ErrOrderItemNotFound),
		errors.Is(err, inErrors.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, inErrors.ErrDuplicateCartItem),
		errors.Is(err, inErrors.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, inErrors.ErrEmptyCart):
		return http.StatusUnprocessableEntity
	case errors.Is(err, inErrors.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, inErrors.ErrEmptyAuth),
		errors.Is(err, inErrors.ErrTokenInvalid),
		errors.Is(err, inErrors.ErrPasswordMismatch):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

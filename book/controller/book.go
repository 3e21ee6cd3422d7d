package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/bookstore/book/otel"
	"github.com/Alturino/bookstore/book/service"
	"github.com/Alturino/bookstore/book/pkg/request"
	inHttp "github.com/Alturino/bookstore/internal/http"
	"github.com/Alturino/bookstore/internal/log"
	inOtel "github.com/Alturino/bookstore/internal/otel"
)

type BookController struct {
	service *service.BookService
}

// AttachBookController registers the public catalog routes on router and the
// write routes on authed, which carries the auth middleware.
func AttachBookController(router *mux.Router, authed *mux.Router, service *service.BookService) {
	controller := BookController{service: service}
	router.HandleFunc("/books", controller.FindBooks).Methods(http.MethodGet)
	router.HandleFunc("/books/{bookId}", controller.FindBookById).Methods(http.MethodGet)
	authed.HandleFunc("/books", controller.InsertBook).Methods(http.MethodPost)
	authed.HandleFunc("/books/{bookId}", controller.DeleteBook).Methods(http.MethodDelete)
}

func (ct BookController) FindBooks(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "BookController FindBooks")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "BookController FindBooks").
		Logger()

	reqBody := request.FindBooks{Limit: 20, Offset: 0}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			err = fmt.Errorf("failed parsing limit=%s with error=%w", v, err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
				"status":     "failed",
				"statusCode": http.StatusBadRequest,
				"message":    err.Error(),
			})
			return
		}
		reqBody.Limit = int32(limit)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			err = fmt.Errorf("failed parsing offset=%s with error=%w", v, err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
				"status":     "failed",
				"statusCode": http.StatusBadRequest,
				"message":    err.Error(),
			})
			return
		}
		reqBody.Offset = int32(offset)
	}

	logger = logger.With().Str(log.KeyProcess, "validating request").Logger()
	logger.Trace().Msg("validating request")
	if err := validator.New(validator.WithRequiredStructEnabled()).StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger.Trace().Msg("validated request")

	books, err := ct.service.FindBooks(c, reqBody)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": inHttp.StatusCodeFromError(err),
			"message":    err.Error(),
		})
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "found books",
		"data":       map[string]interface{}{"books": books},
	})
}

func (ct BookController) FindBookById(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "BookController FindBookById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "BookController FindBookById").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "parsing bookId").Logger()
	logger.Trace().Msg("parsing bookId")
	bookId, err := uuid.Parse(mux.Vars(r)["bookId"])
	if err != nil {
		err = fmt.Errorf("failed parsing bookId with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger = logger.With().Str(log.KeyBookID, bookId.String()).Logger()
	logger.Trace().Msg("parsed bookId")

	book, err := ct.service.FindBookById(c, bookId)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": inHttp.StatusCodeFromError(err),
			"message":    err.Error(),
		})
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "found book",
		"data":       map[string]interface{}{"book": book},
	})
}

func (ct BookController) InsertBook(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "BookController InsertBook")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "BookController InsertBook").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Trace().Msg("decoding request body")
	reqBody := request.InsertBook{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	logger.Trace().Msg("validating request body")
	if err := validator.New(validator.WithRequiredStructEnabled()).StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger.Trace().Msg("validated request body")

	book, err := ct.service.InsertBook(c, reqBody)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": inHttp.StatusCodeFromError(err),
			"message":    err.Error(),
		})
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusCreated,
		"message":    "inserted book",
		"data":       map[string]interface{}{"book": book},
	})
}

func (ct BookController) DeleteBook(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "BookController DeleteBook")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "BookController DeleteBook").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "parsing bookId").Logger()
	logger.Trace().Msg("parsing bookId")
	bookId, err := uuid.Parse(mux.Vars(r)["bookId"])
	if err != nil {
		err = fmt.Errorf("failed parsing bookId with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger = logger.With().Str(log.KeyBookID, bookId.String()).Logger()
	logger.Trace().Msg("parsed bookId")

	if err := ct.service.DeleteBook(c, bookId); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": inHttp.StatusCodeFromError(err),
			"message":    err.Error(),
		})
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "deleted book",
	})
}

package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inboxshot/pkg/binder"
	"github.com/dmitrymomot/inboxshot/pkg/handler"
)

type createRequest struct {
	Name string `json:"name"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) handler.JSONResponse {
	t.Helper()
	var body handler.JSONResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func post(body, contentType string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/things", strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return r
}

func TestWrap(t *testing.T) {
	t.Parallel()

	create := func(ctx handler.Context, req createRequest) handler.Response {
		if req.Name == "" {
			v := handler.NewValidationError()
			v.Add("name", "is required")
			return handler.JSONError(v)
		}
		return handler.JSON(map[string]string{"name": req.Name}, handler.WithJSONStatus(http.StatusCreated))
	}
	h := handler.Wrap(create,
		handler.WithBinders[createRequest](binder.JSON()),
		handler.WithErrorHandler[createRequest](handler.NewErrorHandler(nil)),
	)

	t.Run("created", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		h(rec, post(`{"name":" box "}`, "application/json"))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		body := decode(t, rec)
		assert.Equal(t, map[string]any{"name": "box"}, body.Data)
		assert.Nil(t, body.Error)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		h(rec, post(`{"name":""}`, "application/json"))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decode(t, rec)
		require.NotNil(t, body.Error)
		assert.Equal(t, "validation_error", body.Error.Code)
		assert.Equal(t, []string{"is required"}, body.Error.Details["name"])
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		h(rec, post(`{"name":`, "application/json"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_request", decode(t, rec).Error.Code)
	})

	t.Run("wrong media type", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		h(rec, post(`name=x`, "application/x-www-form-urlencoded"))

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func TestWrap_Errors(t *testing.T) {
	t.Parallel()

	t.Run("http error keeps its status", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(func(handler.Context, struct{}) handler.Response {
			return handler.JSONError(errors.Join(handler.ErrNotFound, errors.New("row missing")))
		})
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", decode(t, rec).Error.Code)
	})

	t.Run("internal errors are not leaked", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(func(handler.Context, struct{}) handler.Response {
			return handler.JSON(errors.New("dsn=postgres://secret"))
		})
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret")
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()
		var got error
		h := handler.Wrap(func(handler.Context, struct{}) handler.Response { return nil },
			handler.WithErrorHandler[struct{}](func(ctx handler.Context, err error) { got = err }))
		h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		assert.ErrorIs(t, got, handler.ErrNilResponse)
	})
}

func TestWrap_Decorators(t *testing.T) {
	t.Parallel()

	var order []string
	tag := func(name string) handler.Decorator[struct{}] {
		return func(next handler.HandlerFunc[struct{}]) handler.HandlerFunc[struct{}] {
			return func(ctx handler.Context, req struct{}) handler.Response {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}
	h := handler.Wrap(func(handler.Context, struct{}) handler.Response {
		order = append(order, "handler")
		return handler.JSON("ok")
	}, handler.WithDecorators(tag("outer"), tag("inner")))

	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

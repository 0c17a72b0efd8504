package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inboxshot/pkg/binder"
)

func TestJSON(t *testing.T) {
	t.Parallel()

	type request struct {
		Token   string   `json:"token"`
		Clients []string `json:"clients"`
		Dark    bool     `json:"dark"`
	}

	newRequest := func(body, contentType string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		if contentType != "" {
			r.Header.Set("Content-Type", contentType)
		}
		return r
	}

	t.Run("decodes and trims", func(t *testing.T) {
		t.Parallel()
		var req request
		r := newRequest(`{"token":"  run-1 ","clients":[" gmail"],"dark":true}`, "application/json; charset=utf-8")
		require.NoError(t, binder.JSON()(r, &req))
		assert.Equal(t, request{Token: "run-1", Clients: []string{"gmail"}, Dark: true}, req)
	})

	tests := []struct {
		name        string
		body        string
		contentType string
		wantErr     error
	}{
		{name: "missing content type", body: `{}`, wantErr: binder.ErrMissingContentType},
		{name: "wrong media type", body: `{}`, contentType: "text/plain", wantErr: binder.ErrUnsupportedMediaType},
		{name: "unknown field", body: `{"extra":1}`, contentType: "application/json", wantErr: binder.ErrFailedToParseJSON},
		{name: "empty body", body: ``, contentType: "application/json", wantErr: binder.ErrFailedToParseJSON},
		{name: "trailing data", body: `{"token":"a"}{}`, contentType: "application/json", wantErr: binder.ErrFailedToParseJSON},
		{name: "too large", body: `{"token":"` + strings.Repeat("a", binder.DefaultMaxJSONSize) + `"}`, contentType: "application/json", wantErr: binder.ErrFailedToParseJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var req request
			err := binder.JSON()(newRequest(tt.body, tt.contentType), &req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPath(t *testing.T) {
	t.Parallel()

	params := func(values map[string]string) func(*http.Request, string) string {
		return func(_ *http.Request, name string) string { return values[name] }
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	t.Run("binds tagged fields", func(t *testing.T) {
		t.Parallel()
		type request struct {
			ID       uuid.UUID `path:"id"`
			Page     int       `path:"page"`
			Verbose  *bool     `path:"verbose"`
			Internal string    `path:"-"`
		}
		id := uuid.New()
		var req request
		err := binder.Path(params(map[string]string{
			"id": id.String(), "page": "3", "verbose": "true", "-": "nope",
		}))(r, &req)
		require.NoError(t, err)
		assert.Equal(t, id, req.ID)
		assert.Equal(t, 3, req.Page)
		require.NotNil(t, req.Verbose)
		assert.True(t, *req.Verbose)
		assert.Empty(t, req.Internal)
	})

	t.Run("missing values stay zero", func(t *testing.T) {
		t.Parallel()
		var req struct {
			ID uuid.UUID `path:"id"`
		}
		require.NoError(t, binder.Path(params(nil))(r, &req))
		assert.Equal(t, uuid.Nil, req.ID)
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Parallel()
		var req struct {
			ID uuid.UUID `path:"id"`
		}
		err := binder.Path(params(map[string]string{"id": "not-a-uuid"}))(r, &req)
		assert.ErrorIs(t, err, binder.ErrFailedToParsePath)
	})

	t.Run("bad target", func(t *testing.T) {
		t.Parallel()
		var s string
		assert.ErrorIs(t, binder.Path(params(nil))(r, &s), binder.ErrInvalidPath)
		assert.ErrorIs(t, binder.Path(nil)(r, &struct{}{}), binder.ErrInvalidPath)
	})
}

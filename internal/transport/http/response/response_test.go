package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careercompass/auth-service/internal/domain"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"id": "1"}, "created")

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "created", body["message"])
	assert.Equal(t, "1", body["data"].(map[string]any)["id"])
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	t.Run("validation maps to 422 with details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, req, domain.ErrValidation(map[string]string{"email": "bad"}))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "error", body["status"])
		errObj := body["error"].(map[string]any)
		assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
		assert.Equal(t, "bad", errObj["details"].(map[string]any)["email"])
	})

	t.Run("kind to status mapping", func(t *testing.T) {
		cases := []struct {
			err  error
			want int
		}{
			{domain.ErrInvalidJSON(errors.New("x")), http.StatusBadRequest},
			{domain.ErrUnauthenticated(), http.StatusUnauthorized},
			{domain.ErrAlreadyAuthenticated(), http.StatusForbidden},
			{domain.ErrUserNotFound(), http.StatusNotFound},
			{domain.ErrRateLimited("login", time.Minute), http.StatusTooManyRequests},
			{domain.ErrDBUnavailable(errors.New("down")), http.StatusServiceUnavailable},
			{domain.ErrInternal(errors.New("boom")), http.StatusInternalServerError},
		}
		for _, tc := range cases {
			rec := httptest.NewRecorder()
			WriteError(rec, req, tc.err)
			assert.Equal(t, tc.want, rec.Code)
		}
	})

	t.Run("rate limit sets retry-after", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, req, domain.ErrRateLimited("login", 42*time.Second))
		assert.Equal(t, "42", rec.Header().Get("Retry-After"))
	})

	t.Run("non-domain error becomes opaque 500", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, req, errors.New("pq: connection refused to db-host"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "db-host")
	})

	t.Run("500 bodies never carry details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		err := domain.ErrSocialAuth("google", errors.New("secret internals"))
		err.Details = map[string]string{"leak": "no"}
		WriteError(rec, req, err)

		body := decode(t, rec)
		errObj := body["error"].(map[string]any)
		_, hasDetails := errObj["details"]
		assert.False(t, hasDetails)
		assert.NotContains(t, rec.Body.String(), "secret internals")
	})
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
		var p payload
		require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &p))
		assert.Equal(t, "x", p.Name)
	})

	t.Run("malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{oops`))
		var p payload
		err := DecodeJSON(httptest.NewRecorder(), req, &p)
		assert.True(t, domain.Is(err, "INVALID_JSON"))
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
		var p payload
		err := DecodeJSON(httptest.NewRecorder(), req, &p)
		assert.True(t, domain.Is(err, "INVALID_JSON"))
	})

	t.Run("trailing garbage rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}{"name":"y"}`))
		var p payload
		err := DecodeJSON(httptest.NewRecorder(), req, &p)
		assert.True(t, domain.Is(err, "INVALID_JSON"))
	})
}

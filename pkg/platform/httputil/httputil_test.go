package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vouch/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("coded error includes description", func(t *testing.T) {
		rr := httptest.NewRecorder()
		WriteError(rr, dErrors.New(dErrors.CodeBadRequest, "token is required"))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t,
			`{"error":"bad_request","error_description":"token is required"}`,
			rr.Body.String())
	})

	t.Run("internal error omits description", func(t *testing.T) {
		rr := httptest.NewRecorder()
		WriteError(rr, dErrors.Wrap(errors.New("pq: connection reset"),
			dErrors.CodeInternal, "audit append failed"))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"error":"internal_error"}`, rr.Body.String())
		assert.NotContains(t, rr.Body.String(), "pq:")
	})

	t.Run("uncoded error reads as internal", func(t *testing.T) {
		rr := httptest.NewRecorder()
		WriteError(rr, errors.New("something leaked"))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"error":"internal_error"}`, rr.Body.String())
	})
}

func TestStatusOf(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeInvalidInput: http.StatusBadRequest,
		dErrors.CodeBadRequest:   http.StatusBadRequest,
		dErrors.CodeUnauthorized: http.StatusUnauthorized,
		dErrors.CodeForbidden:    http.StatusForbidden,
		dErrors.CodeNotFound:     http.StatusNotFound,
		dErrors.CodeConflict:     http.StatusConflict,
		dErrors.CodeUnavailable:  http.StatusServiceUnavailable,
		dErrors.CodeInternal:     http.StatusInternalServerError,
		dErrors.Code("made_up"):  http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, StatusOf(code), "code %s", code)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Token string `json:"token"`
	}

	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"token":"abc"}`))
		rr := httptest.NewRecorder()

		got, ok := DecodeJSON[payload](rr, req)
		require.True(t, ok)
		assert.Equal(t, "abc", got.Token)
	})

	t.Run("malformed body writes the error itself", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{nope`))
		rr := httptest.NewRecorder()

		_, ok := DecodeJSON[payload](rr, req)
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "invalid_input")
	})
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSON(rr, http.StatusCreated, map[string]int{"admitted": 2})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"admitted":2}`, rr.Body.String())
}

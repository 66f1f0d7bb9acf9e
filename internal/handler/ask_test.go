package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskHandler(t *testing.T) {
	t.Run("relays the upstream answer", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req askRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "what is the return policy?", req.Question)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"answer":"30 days"}`))
		}))
		defer upstream.Close()

		h := NewAskHandler(upstream.URL)

		body := strings.NewReader(`{"question":"what is the return policy?"}`)
		req := authed(httptest.NewRequest("POST", "/ask", body), "user-1")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"answer":"30 days"}`, rec.Body.String())
	})

	t.Run("rejects unauthenticated requests", func(t *testing.T) {
		h := NewAskHandler("http://localhost:0")

		req := httptest.NewRequest("POST", "/ask", strings.NewReader(`{"question":"hi"}`))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects an empty question", func(t *testing.T) {
		h := NewAskHandler("http://localhost:0")

		req := authed(httptest.NewRequest("POST", "/ask", strings.NewReader(`{}`)), "user-1")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("reports when no assistant is configured", func(t *testing.T) {
		h := NewAskHandler("")

		req := authed(httptest.NewRequest("POST", "/ask", strings.NewReader(`{"question":"hi"}`)), "user-1")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

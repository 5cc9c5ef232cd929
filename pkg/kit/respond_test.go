package kit

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name string `json:"name"`
}

func decode(body string) (payload, error) {
	var p payload
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	err := DecodeJSON(httptest.NewRecorder(), r, &p)
	return p, err
}

func TestDecodeJSON(t *testing.T) {
	p, err := decode(`{"name":"asha"}`)
	require.NoError(t, err)
	assert.Equal(t, "asha", p.Name)

	_, err = decode(`{"name":"asha","role":"admin"}`)
	assert.Error(t, err)

	_, err = decode(`{"name":"a"}{"name":"b"}`)
	assert.True(t, errors.Is(err, ErrTrailingData))

	_, err = decode(`{"name":"` + strings.Repeat("x", MaxBodyBytes) + `"}`)
	assert.Error(t, err)
}

func TestWriteError_CarriesRequestID(t *testing.T) {
	var got ErrorResponse
	h := chimw.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusTeapot, "nope", map[string]any{"k": "v"})
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "nope", got.Error)
	assert.NotEmpty(t, got.RequestID)
}

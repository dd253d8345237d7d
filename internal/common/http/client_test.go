package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "v", in["k"])

		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"ok":false}`))
	}))
	defer srv.Close()

	resp, err := NewClient(time.Second).PostJSON(context.Background(), srv.URL, map[string]string{"k": "v"},
		map[string]string{"Authorization": "Bearer k"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.True(t, resp.IsError())
	assert.JSONEq(t, `{"ok":false}`, string(resp.Body))
}

func TestPostJSON_Errors(t *testing.T) {
	c := NewClient(0)

	_, err := c.PostJSON(context.Background(), "http://example.invalid", func() {}, nil)
	assert.ErrorContains(t, err, "marshal payload")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	_, err = c.PostJSON(ctx, srv.URL, map[string]string{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResponse_IsError(t *testing.T) {
	assert.False(t, (&Response{StatusCode: 200}).IsError())
	assert.False(t, (&Response{StatusCode: 302}).IsError())
	assert.True(t, (&Response{StatusCode: 400}).IsError())
	assert.True(t, (&Response{StatusCode: 503}).IsError())
}

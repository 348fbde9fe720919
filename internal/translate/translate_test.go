package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate_a/single", r.URL.Path)
		assert.Equal(t, "hi", r.URL.Query().Get("tl"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "Good opening. Ask more questions.", r.PostForm.Get("q"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[[["अच्छी शुरुआत। ","Good opening. ",null,null,10],["और प्रश्न पूछें।","Ask more questions.",null,null,10]],null,"en"]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "hi", time.Second)

	text, err := client.Translate(context.Background(), "Good opening. Ask more questions.")
	require.NoError(t, err)
	assert.Equal(t, "अच्छी शुरुआत। और प्रश्न पूछें।", text)
}

func TestTranslateEmptyTextSkipsCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	text, err := NewClient(server.URL, "hi", time.Second).Translate(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, "  ", text)
	assert.False(t, called)
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "error status", status: http.StatusTooManyRequests, body: "slow down"},
		{name: "invalid json", status: http.StatusOK, body: "not json"},
		{name: "no segments", status: http.StatusOK, body: "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, "hi", time.Second).Translate(context.Background(), "hello")
			assert.ErrorIs(t, err, ErrTranslationFailed)
		})
	}
}

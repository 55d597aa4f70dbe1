package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/realm-engine/internal/auth"
)

// do sends a request through h. A non-empty userID is attached as the
// authenticated user.
func do(t *testing.T, h http.Handler, method, path string, body any, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

type registrar interface {
	Register(mux *http.ServeMux)
}

func mux(handlers ...registrar) *http.ServeMux {
	m := http.NewServeMux()
	for _, h := range handlers {
		h.Register(m)
	}
	return m
}

// recordingQueue captures reputation requests.
type recordingQueue struct {
	mu    sync.Mutex
	users []string
}

func (q *recordingQueue) EnqueueReputation(_ context.Context, userID, _ string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.users = append(q.users, userID)
	return nil
}

func (q *recordingQueue) Users() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.users...)
}

func withTestUser(ctx context.Context, userID string) context.Context {
	return auth.WithUserID(ctx, userID)
}

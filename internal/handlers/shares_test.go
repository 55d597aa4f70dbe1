package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/realm-engine/pkg/moderation"
	"github.com/jwebster45206/realm-engine/pkg/npc"
	"github.com/jwebster45206/realm-engine/pkg/share"
	"github.com/jwebster45206/realm-engine/pkg/storage"
)

func newShareMux(store storage.Storage, limiter *moderation.Limiter, q ReputationQueue) *http.ServeMux {
	return mux(NewShareHandler(store, limiter, testLogger()).WithReputation(q))
}

func TestShareHandler_CreateAndView(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStorage()
	q := &recordingQueue{}
	m := newShareMux(store, moderation.NewLimiter(nil), q)

	n := &npc.NPC{ID: "n1", Name: "Mira", Trait: "brave", Backstory: "Born at sea.", CreatorID: "alice", CreatedAt: time.Now()}
	require.NoError(t, store.SaveNPC(ctx, n))

	w := do(t, m, http.MethodPost, "/v1/share/n1", nil, "bob")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[ShareResponse](t, w)
	assert.Equal(t, "bob", created.Share.UserID)
	assert.Equal(t, "Mira", created.Share.NPCName)
	assert.Equal(t, "/share/"+created.Share.ID, created.ShareURL)

	stored, err := store.LoadNPC(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ShareCount)

	for i := 1; i <= 2; i++ {
		w = do(t, m, http.MethodGet, "/v1/share/"+created.Share.ID, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[ShareResponse](t, w)
		assert.Equal(t, i, got.Share.ViewCount)
		assert.Equal(t, "n1", got.NPC.ID)
	}
	assert.Equal(t, []string{"bob", "alice", "bob", "bob"}, q.Users())
}

func TestShareHandler_Errors(t *testing.T) {
	m := newShareMux(storage.NewMockStorage(), moderation.NewLimiter(map[string]int{moderation.ActionShareCreate: 1}), nil)

	assert.Equal(t, http.StatusUnauthorized, do(t, m, http.MethodPost, "/v1/share/n1", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, m, http.MethodPost, "/v1/share/n1", nil, "bob").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, m, http.MethodPost, "/v1/share/n1", nil, "bob").Code)
	assert.Equal(t, http.StatusNotFound, do(t, m, http.MethodGet, "/v1/share/missing", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, m, http.MethodGet, "/share/missing", nil, "").Code)
}

func TestShareHandler_Page(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStorage()
	m := newShareMux(store, nil, nil)

	n := &npc.NPC{ID: "n1", Name: `<script>alert("x")</script>`, Trait: "sly", Backstory: "Quiet."}
	require.NoError(t, store.SaveNPC(ctx, n))
	s := share.New("bob", n)
	require.NoError(t, store.SaveShare(ctx, s))

	w := do(t, m, http.MethodGet, "/share/"+s.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, `og:title`)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")

	viewed, err := store.LoadShare(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, viewed.ViewCount)
}

func TestShareHandler_Lists(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStorage()
	m := newShareMux(store, nil, nil)

	base := time.Now().UTC()
	for _, s := range []*share.Share{
		{ID: "s1", UserID: "bob", CreatedAt: base.Add(-2 * time.Hour), ViewCount: 3},
		{ID: "s2", UserID: "bob", CreatedAt: base.Add(-time.Hour), ViewCount: 1, RemixFromShare: 1},
		{ID: "s3", UserID: "carol", CreatedAt: base, ViewCount: 4},
	} {
		require.NoError(t, store.SaveShare(ctx, s))
	}

	w := do(t, m, http.MethodGet, "/v1/shares/popular", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	popular := decode[ShareListResponse](t, w).Shares
	require.Len(t, popular, 3)
	assert.Equal(t, []string{"s2", "s3", "s1"}, []string{popular[0].ID, popular[1].ID, popular[2].ID})

	w = do(t, m, http.MethodGet, "/v1/shares/user/bob", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[ShareListResponse](t, w).Shares
	require.Len(t, mine, 2)
	assert.Equal(t, "s2", mine[0].ID, "newest first")

	w = do(t, m, http.MethodGet, "/v1/shares/user/nobody", nil, "")
	assert.JSONEq(t, `{"shares":[]}`, w.Body.String())
}

package redis

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
)

type fakeEntry struct {
	value []byte
	ttl   time.Duration
}

// fakeClient records commands against an in-process map.
type fakeClient struct {
	mu      sync.Mutex
	data    map[string]fakeEntry
	failErr error
	closed  bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{data: make(map[string]fakeEntry)}
}

func (f *fakeClient) Get(_ context.Context, key string) *goredis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return goredis.NewStringResult("", f.failErr)
	}
	e, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(string(e.value), nil)
}

func (f *fakeClient) Set(_ context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return goredis.NewStatusResult("", f.failErr)
	}
	f.data[key] = fakeEntry{value: value.([]byte), ttl: expiration}
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return goredis.NewIntResult(0, f.failErr)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func (f *fakeClient) Ping(_ context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", f.failErr)
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestConversationStore_SaveAndLoad(t *testing.T) {
	client := newFakeClient()
	store := newConversationStore(client)
	ctx := context.Background()

	sc := &domain.SessionContext{
		ConversationID:   "abc",
		PreviousQuestion: "Bussysteme im Fahrzeug",
		PreviousHits:     []domain.HitSummary{{BookID: 7, Title: "CAN"}},
		Turn:             2,
		UpdatedAt:        time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, sc, 30*time.Minute))

	entry, ok := client.data["conversation:abc"]
	require.True(t, ok)
	assert.Equal(t, 30*time.Minute, entry.ttl)
	assert.Contains(t, string(entry.value), `"previous_question":"Bussysteme im Fahrzeug"`)

	got, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, sc, got)
}

func TestConversationStore_LoadMissing(t *testing.T) {
	store := newConversationStore(newFakeClient())

	_, err := store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversationStore_LoadCorrupt(t *testing.T) {
	client := newFakeClient()
	client.data["conversation:bad"] = fakeEntry{value: []byte("{not json")}
	store := newConversationStore(client)

	_, err := store.Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestConversationStore_NegativeTTL(t *testing.T) {
	client := newFakeClient()
	store := newConversationStore(client)

	require.NoError(t, store.Save(context.Background(), &domain.SessionContext{ConversationID: "c"}, -time.Second))
	assert.Equal(t, time.Duration(0), client.data["conversation:c"].ttl)
}

func TestConversationStore_SaveInvalid(t *testing.T) {
	store := newConversationStore(newFakeClient())

	assert.ErrorIs(t, store.Save(context.Background(), nil, time.Minute), domain.ErrInvalidInput)
}

func TestConversationStore_Delete(t *testing.T) {
	client := newFakeClient()
	store := newConversationStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.SessionContext{ConversationID: "c"}, time.Minute))
	require.NoError(t, store.Delete(ctx, "c"))
	assert.Empty(t, client.data)
}

func TestConversationStore_ClientErrors(t *testing.T) {
	client := newFakeClient()
	client.failErr = errors.New("connection refused")
	store := newConversationStore(client)
	ctx := context.Background()

	_, err := store.Load(ctx, "c")
	assert.ErrorContains(t, err, "connection refused")
	assert.Error(t, store.Save(ctx, &domain.SessionContext{ConversationID: "c"}, time.Minute))
	assert.Error(t, store.Delete(ctx, "c"))
	assert.Error(t, store.Ping(ctx))
}

func TestConversationStore_Close(t *testing.T) {
	client := newFakeClient()
	store := newConversationStore(client)

	require.NoError(t, store.Close())
	assert.True(t, client.closed)
}

func TestNewConversationStore_EmptyAddr(t *testing.T) {
	_, err := NewConversationStore(context.Background(), Options{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestConversationStore_Live(t *testing.T) {
	addr := os.Getenv("SHELFSEARCH_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SHELFSEARCH_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	store, err := NewConversationStore(ctx, Options{Addr: addr})
	require.NoError(t, err)
	defer store.Close()

	id := "live-" + time.Now().Format("150405.000000")
	require.NoError(t, store.Save(ctx, &domain.SessionContext{ConversationID: id, Turn: 1}, time.Minute))
	defer store.Delete(ctx, id)

	got, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Turn)
}

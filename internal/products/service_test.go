package products

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pilotdeck/pilotdeck/internal/apiclient"
)

func newBackend(t *testing.T, listCalls *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts", func(w http.ResponseWriter, r *http.Request) {
		listCalls.Add(1)
		posts := make([]backendPost, 0, 10)
		for id := 1; id <= 10; id++ {
			posts = append(posts, backendPost{ID: id, Title: "Post title", UserID: 1})
		}
		_ = json.NewEncoder(w).Encode(posts)
	})
	mux.HandleFunc("POST /posts", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(backendPost{ID: 101, Title: body["title"].(string)})
	})
	mux.HandleFunc("PUT /posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body backendPost
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("DELETE /posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newService(t *testing.T, backendURL string) *Service {
	t.Helper()
	client := apiclient.New(backendURL, nil, nil)
	cache := apiclient.NewCache(time.Minute, 10*time.Minute)
	return NewService(client, cache, nil)
}

func TestListAugmentsBackendRecords(t *testing.T) {
	var calls atomic.Int64
	backend := newBackend(t, &calls)
	svc := newService(t, backend.URL)

	items, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 10)

	// Derivations are deterministic per ID.
	require.Equal(t, StatusActive, items[0].Status)
	require.Equal(t, StatusDraft, items[1].Status)
	require.Equal(t, StatusArchived, items[2].Status)
	require.Equal(t, "Electronics", items[3].Category)
	require.Equal(t, "Accessories", items[0].Category)
	require.Equal(t, int64(600000), items[0].Price)
	require.Equal(t, 10, items[0].Stock)
}

func TestListServedFromCacheWhileFresh(t *testing.T) {
	var calls atomic.Int64
	backend := newBackend(t, &calls)
	svc := newService(t, backend.URL)

	_, err := svc.List(context.Background())
	require.NoError(t, err)
	_, err = svc.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), calls.Load())
}

func TestCreateAppendsToCachedList(t *testing.T) {
	var calls atomic.Int64
	backend := newBackend(t, &calls)
	svc := newService(t, backend.URL)

	_, err := svc.List(context.Background())
	require.NoError(t, err)

	created, err := svc.Create(context.Background(), Form{
		Name:     "Widget",
		Category: "Accessories",
		Price:    125000,
		Stock:    4,
		Status:   StatusActive,
	})
	require.NoError(t, err)
	require.Equal(t, 101, created.ID)

	items, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 11)
	require.Equal(t, "Widget", items[10].Name)
	// The patched entry stays fresh, so no refetch happened.
	require.Equal(t, int64(1), calls.Load())
}

func TestUpdateReplacesInCachedList(t *testing.T) {
	var calls atomic.Int64
	backend := newBackend(t, &calls)
	svc := newService(t, backend.URL)

	_, err := svc.List(context.Background())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), 3, Form{
		Name:     "Renamed",
		Category: "Electronics",
		Price:    990000,
		Stock:    7,
		Status:   StatusDraft,
	})
	require.NoError(t, err)

	items, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 10)
	require.Equal(t, "Renamed", items[2].Name)
	require.Equal(t, StatusDraft, items[2].Status)
	require.Equal(t, int64(1), calls.Load())
}

func TestDeleteRemovesFromCachedList(t *testing.T) {
	var calls atomic.Int64
	backend := newBackend(t, &calls)
	svc := newService(t, backend.URL)

	_, err := svc.List(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 5))

	items, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 9)
	for _, item := range items {
		require.NotEqual(t, 5, item.ID)
	}
	require.Equal(t, int64(1), calls.Load())
}

func TestListErrorSurfacesAndIsNotCachedAsFresh(t *testing.T) {
	var status atomic.Int64
	status.Store(http.StatusInternalServerError)
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if code := int(status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		_ = json.NewEncoder(w).Encode([]backendPost{{ID: 1, Title: "Back online"}})
	}))
	t.Cleanup(backend.Close)
	svc := newService(t, backend.URL)

	_, err := svc.List(context.Background())
	require.Error(t, err)

	status.Store(http.StatusOK)
	items, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
}

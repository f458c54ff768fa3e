package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Lixing-Zhang/product-catalog/internal/handlers"
	"github.com/Lixing-Zhang/product-catalog/internal/metrics"
	"github.com/Lixing-Zhang/product-catalog/internal/models"
	"github.com/Lixing-Zhang/product-catalog/internal/repository"
	"github.com/Lixing-Zhang/product-catalog/internal/service"
	"github.com/Lixing-Zhang/product-catalog/pkg/logger"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	repo := repository.NewInMemoryProductRepository(repository.SeedProducts())
	srv := httptest.NewServer(handlers.NewRouter(service.NewProductService(repo), logger.Discard()))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Discard())}, opts...)
	c, err := New(baseURL, opts...)
	require.NoError(t, err)
	return c
}

func findProduct(products []models.Product, id int64) (models.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New("/Products")
	assert.Error(t, err)

	_, err = New("://bad")
	assert.Error(t, err)
}

func TestClient_CreateListUpdateDelete(t *testing.T) {
	ctx := context.Background()
	srv := newBackend(t)
	c := newClient(t, srv.URL+"/")

	draft := models.Draft{Name: "Widget", Description: "A widget", Price: 9.99, Category: "Tools"}
	id, err := c.Create(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	products, err := c.List(ctx)
	require.NoError(t, err)
	got, ok := findProduct(products, id)
	require.True(t, ok, "created product missing from list")
	assert.Equal(t, models.Product{ID: 7, Name: "Widget", Description: "A widget", Price: 9.99, Category: "Tools"}, got)

	changed := models.Draft{Name: "Widget Pro", Description: "Better", Price: 12.5, Category: "Gadgets"}
	require.NoError(t, c.Update(ctx, id, changed))

	products, err = c.List(ctx)
	require.NoError(t, err)
	got, ok = findProduct(products, id)
	require.True(t, ok)
	assert.Equal(t, changed, got.Draft())

	require.NoError(t, c.Delete(ctx, id))

	products, err = c.List(ctx)
	require.NoError(t, err)
	_, ok = findProduct(products, id)
	assert.False(t, ok, "deleted product still listed")
}

func TestClient_UnknownIDPropagatesServerError(t *testing.T) {
	ctx := context.Background()
	c := newClient(t, newBackend(t).URL)

	err := c.Delete(ctx, 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "Product not found", statusErr.Message)

	err = c.Update(ctx, 999, models.Draft{Name: "a", Description: "b", Price: 1, Category: "c"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestClient_RequestShape(t *testing.T) {
	var (
		gotMethod, gotPath, gotContentType, gotAuth, gotRequestID string
		gotBody                                                   map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-Id")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	c := newClient(t, srv.URL+"/api")
	err := c.Update(context.Background(), 5, models.Draft{Name: "n", Description: "d", Price: 2.5, Category: "c"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/Products/5", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Empty(t, gotAuth)
	_, err = uuid.Parse(gotRequestID)
	assert.NoError(t, err, "request id %q", gotRequestID)
	assert.Equal(t, map[string]any{"name": "n", "description": "d", "price": 2.5, "category": "c"}, gotBody)

	firstID := gotRequestID
	require.NoError(t, c.Delete(context.Background(), 5))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.NotEqual(t, firstID, gotRequestID)
	assert.Equal(t, "application/json", gotContentType)
}

func TestClient_CreateResponseShapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantID  int64
		wantErr bool
	}{
		{name: "bare integer", body: "7\n", wantID: 7},
		{name: "object", body: `{"id": 42}`, wantID: 42},
		{name: "object without id", body: `{"name": "x"}`, wantErr: true},
		{name: "empty", body: "", wantErr: true},
		{name: "string", body: `"7"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusCreated)
				_, _ = io.WriteString(w, tt.body)
			}))
			t.Cleanup(srv.Close)

			id, err := newClient(t, srv.URL).Create(context.Background(), models.Draft{Name: "x", Description: "y", Category: "z"})
			if tt.wantErr {
				var decErr *DecodeError
				assert.True(t, errors.As(err, &decErr), "expected DecodeError, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "database on fire")
	}))
	t.Cleanup(srv.Close)

	_, err := newClient(t, srv.URL).List(context.Background())

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "database on fire", statusErr.Message)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrNetwork))
}

func TestClient_NetworkFailureIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("response writer cannot hijack")
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	t.Cleanup(srv.Close)

	_, err := newClient(t, srv.URL).List(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
	var netErr *NetworkError
	assert.True(t, errors.As(err, &netErr))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	_, err := newClient(t, srv.URL, WithTimeout(20*time.Millisecond)).List(context.Background())
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestClient_RecordsMetrics(t *testing.T) {
	m := metrics.NewCollector("test")
	c := newClient(t, newBackend(t).URL, WithMetrics(m))

	_, err := c.List(context.Background())
	require.NoError(t, err)
	_ = c.Delete(context.Background(), 999)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("list", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("delete", "error")))
}

func TestClient_EmptyListIsNotNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "null")
	}))
	t.Cleanup(srv.Close)

	products, err := newClient(t, srv.URL).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ProductCatalog/internal/catalog"
	"ProductCatalog/pkg/kit"
)

const metricsToken = "test-token"

func seededStore(t *testing.T, codes ...string) *catalog.FileStore {
	t.Helper()

	s := catalog.NewFileStore(filepath.Join(t.TempDir(), "products.json"), zap.NewNop(), nil)
	for i, code := range codes {
		_, err := s.Create(context.Background(), catalog.NewProduct{
			Title:       "producto " + code,
			Description: "descripcion " + code,
			Price:       catalog.NumberFromInt(int64(100 * (i + 1))),
			Thumbnail:   "Sin imagen",
			Code:        code,
			Stock:       catalog.NumberFromInt(10),
		})
		require.NoError(t, err)
	}
	return s
}

func newCatalogTS(t *testing.T, store catalog.Store, rateLimit int) *httptest.Server {
	t.Helper()

	h := catalog.NewHandler(&catalog.Server{Store: store, Log: zap.NewNop()}, catalog.HTTPDeps{
		Log:             zap.NewNop(),
		Service:         "catalog",
		Registry:        prometheus.NewRegistry(),
		MetricsEnabled:  true,
		MetricsToken:    metricsToken,
		RateLimitPerMin: rateLimit,
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decodeProducts(t *testing.T, raw []byte) []catalog.Product {
	t.Helper()
	var out []catalog.Product
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func decodeError(t *testing.T, raw []byte) kit.ErrorResponse {
	t.Helper()
	var out kit.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestListProducts(t *testing.T) {
	ts := newCatalogTS(t, seededStore(t, "a", "b", "c"), 0)

	cases := []struct {
		query string
		want  []string
	}{
		{"", []string{"a", "b", "c"}},
		{"?limit=2", []string{"a", "b"}},
		{"?limit=10", []string{"a", "b", "c"}},
		{"?limit=0", []string{}},
		{"?limit=abc", []string{"a", "b", "c"}},
		{"?limit=-1", []string{"a", "b", "c"}},
		{"?limit=", []string{"a", "b", "c"}},
	}

	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			resp, raw := get(t, ts.URL+"/products"+tc.query, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			products := decodeProducts(t, raw)
			codes := make([]string, 0, len(products))
			for _, p := range products {
				codes = append(codes, p.Code)
			}
			require.Equal(t, tc.want, codes)
		})
	}
}

func TestListProducts_EmptyStoreIsEmptyArray(t *testing.T) {
	ts := newCatalogTS(t, seededStore(t), 0)

	resp, raw := get(t, ts.URL+"/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `[]`, string(raw))
}

func TestGetProduct(t *testing.T) {
	ts := newCatalogTS(t, seededStore(t, "a", "b"), 0)

	resp, raw := get(t, ts.URL+"/products/2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

	var p catalog.Product
	require.NoError(t, json.Unmarshal(raw, &p))
	require.Equal(t, int64(2), p.ID)
	require.Equal(t, "b", p.Code)
	require.True(t, p.Price.Equal(catalog.NumberFromInt(200).Decimal))
}

func TestGetProduct_NotFound(t *testing.T) {
	ts := newCatalogTS(t, seededStore(t, "a"), 0)

	for _, pid := range []string{"999", "abc", "1.5"} {
		t.Run(pid, func(t *testing.T) {
			resp, raw := get(t, ts.URL+"/products/"+pid, nil)
			require.Equal(t, http.StatusNotFound, resp.StatusCode)
			require.NotEmpty(t, decodeError(t, raw).Error)
		})
	}

	_, raw := get(t, ts.URL+"/products/999", nil)
	body := decodeError(t, raw)
	require.Equal(t, catalog.ErrNotFound.Error(), body.Error)
	require.NotEmpty(t, body.RequestID)
}

func TestProducts_NoWriteRoutes(t *testing.T) {
	ts := newCatalogTS(t, seededStore(t, "a"), 0)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		req, err := http.NewRequest(method, ts.URL+"/products/1", nil)
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, method)
	}

	resp, raw := get(t, ts.URL+"/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decodeProducts(t, raw), 1)
}

type brokenStore struct {
	catalog.Store
	err error
}

func (s brokenStore) Ping(context.Context) error { return s.err }

func (s brokenStore) List(context.Context) ([]catalog.Product, error) { return nil, s.err }

func (s brokenStore) Get(context.Context, int64) (catalog.Product, error) {
	return catalog.Product{}, s.err
}

func TestStoreFaults(t *testing.T) {
	ts := newCatalogTS(t, brokenStore{err: errors.New("disk on fire")}, 0)

	resp, raw := get(t, ts.URL+"/products", nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "disk on fire", decodeError(t, raw).Error)

	resp, raw = get(t, ts.URL+"/products/1", nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "server error", decodeError(t, raw).Error)

	resp, _ = get(t, ts.URL+"/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = get(t, ts.URL+"/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReadyz(t *testing.T) {
	ts := newCatalogTS(t, seededStore(t, "a"), 0)

	resp, _ := get(t, ts.URL+"/readyz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newCatalogTS(t, seededStore(t, "a"), 0)

	resp, _ := get(t, ts.URL+"/products/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, ts.URL+"/metrics", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = get(t, ts.URL+"/metrics", map[string]string{"Authorization": "Bearer wrong"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw := get(t, ts.URL+"/metrics", map[string]string{"Authorization": "Bearer " + metricsToken})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(raw), `http_requests_total{method="GET",path="/products/{pid}",service="catalog",status="200"} 1`)
}

func TestRateLimit(t *testing.T) {
	ts := newCatalogTS(t, seededStore(t, "a"), 2)

	for i := 0; i < 2; i++ {
		resp, _ := get(t, ts.URL+"/products", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, raw := get(t, ts.URL+"/products/1", nil)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, "too many requests", decodeError(t, raw).Error)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))

	resp, _ = get(t, ts.URL+"/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

package inspect_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-registry/framework/container"
	"github.com/km-arc/go-registry/framework/inspect"
	"github.com/km-arc/go-registry/framework/metrics"
	"github.com/km-arc/go-registry/framework/service"
)

func sampleTree(t *testing.T, opts ...container.Option) *container.Container {
	t.Helper()
	root := container.New(opts...)
	require.NoError(t, root.Register(service.NewInstance("config", map[string]any{})))
	require.NoError(t, root.ExtendNested("sysdir", "/filesystem/system", "folder"))

	fs, err := root.Ensure("filesystem")
	require.NoError(t, err)
	require.NoError(t, fs.Register(service.NewInstance("disk", "sda")))

	sys, err := fs.Ensure("system")
	require.NoError(t, err)
	require.NoError(t, sys.Register(service.NewInstance("folder", "/usr")))
	return root
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	if rr.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	}
	return rr, body
}

func TestSnapshot(t *testing.T) {
	root := sampleTree(t)
	_, err := root.Get("sysdir")
	require.NoError(t, err)

	n := inspect.Snapshot(root, -1)
	assert.Equal(t, "/", n.Path)
	assert.Equal(t, root.ID(), n.ID)
	assert.Equal(t, []string{"config"}, n.Services)
	assert.Equal(t, container.AliasTarget{Namespace: "/filesystem/system", Name: "folder"}, n.Aliases["sysdir"])
	assert.Equal(t, 3, n.Count())

	require.Len(t, n.Children, 1)
	sys := n.Children[0].Children[0]
	assert.Equal(t, "/filesystem/system", sys.Path)
	assert.Equal(t, 1, sys.Cached)

	shallow := inspect.Snapshot(root, 1)
	assert.Len(t, shallow.Children, 1)
	assert.Empty(t, shallow.Children[0].Children)
}

func TestServer_Tree(t *testing.T) {
	h := inspect.New(sampleTree(t)).Handler()

	rr, body := get(t, h, "/tree")
	require.Equal(t, http.StatusOK, rr.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "/", data["path"])
	assert.Len(t, data["children"], 1)

	rr, body = get(t, h, "/tree?depth=0")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, body["data"].(map[string]any)["children"])

	rr, _ = get(t, h, "/tree?depth=x")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServer_Namespace(t *testing.T) {
	h := inspect.New(sampleTree(t)).Handler()

	rr, body := get(t, h, "/namespaces/filesystem/system")
	require.Equal(t, http.StatusOK, rr.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "/filesystem/system", data["path"])
	assert.Equal(t, []any{"folder"}, data["services"])

	rr, body = get(t, h, "/namespaces/filesystem/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, container.CodeNamespaceNotFound, body["code"])
}

func TestServer_Health(t *testing.T) {
	root := sampleTree(t)
	h := inspect.New(root).Handler()

	rr, body := get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(3), body["containers"])
	assert.Equal(t, root.ID(), body["root"])
}

func TestServer_Metrics(t *testing.T) {
	rec := metrics.New(metrics.Options{})
	root := sampleTree(t, container.WithRecorder(rec))
	_, err := root.Get("config")
	require.NoError(t, err)

	h := inspect.New(root, inspect.WithMetrics(rec.Handler())).Handler()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	b, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), `registry_constructions_total{namespace="/",service="config"} 1`)
}

func TestServer_NoMetricsByDefault(t *testing.T) {
	h := inspect.New(sampleTree(t)).Handler()
	rr, body := get(t, h, "/metrics")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Not found.", body["message"])
}

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gridhaven/kraken/internal/config"
	"github.com/gridhaven/kraken/internal/server/handlers"
	"github.com/gridhaven/kraken/pkg/engine"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	eng := engine.New(engine.Config{})
	t.Cleanup(func() { _ = eng.End(context.Background()) })

	return New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, eng, zap.NewNop())
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body handlers.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
}

func TestListAdaptors(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/adaptors", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var infos []handlers.AdaptorInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&infos))
	require.Len(t, infos, 4)

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{"local", "gridengine", "ftp", "s3"}, names)
}

func TestGetAdaptor(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/adaptors/gridengine", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var info handlers.AdaptorInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, "gridengine", info.Name)
	assert.ElementsMatch(t, []string{"ge", "sge"}, info.Schemes)
	assert.True(t, info.Capabilities.DetachedJobs)
	assert.NotEmpty(t, info.Properties)
}

func TestGetAdaptorUnknownIs404(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/adaptors/slurm", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body handlers.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestPort(t *testing.T) {
	eng := engine.New(engine.Config{})
	defer eng.End(context.Background())

	srv := New(config.ServerConfig{Host: "127.0.0.1", Port: 9000}, eng, zap.NewNop())
	assert.Equal(t, 9000, srv.Port())
}

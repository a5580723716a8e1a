package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/feescope/feescope/internal/dataexport"
)

func testRouter(t *testing.T, datasetsDir string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api, err := NewApiHandler(datasetsDir)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/info", api.GetInfo)
	router.GET("/metadata", api.GetMetadata)
	router.GET("/metrics", api.GetMetrics)
	router.GET("/datasets/:file", api.GetDataset)
	return router
}

func do(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestEndpointsWithoutExports(t *testing.T) {
	router := testRouter(t, t.TempDir())

	require.Equal(t, http.StatusOK, do(router, "/info").Code)
	require.Equal(t, http.StatusNotFound, do(router, "/metadata").Code)
	require.Equal(t, http.StatusNotFound, do(router, "/metrics").Code)
	require.Equal(t, http.StatusNotFound, do(router, "/datasets/fees.arrow").Code)
}

func TestEndpointsWithExports(t *testing.T) {
	dir := t.TempDir()

	schema, err := dataexport.BuildSchema([]string{"height", "fee_total"})
	require.NoError(t, err)
	info := dataexport.DescribeDataset("fees.arrow", schema)
	require.NoError(t, dataexport.WriteMetadata(dir, dataexport.BlockRange{End: 10}, info))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fees.arrow"), []byte("payload"), 0o644))

	router := testRouter(t, dir)

	w := do(router, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Metrics []struct {
			Name    string `json:"name"`
			Dataset string `json:"dataset"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Metrics, 1)
	require.Equal(t, "fee_total", body.Metrics[0].Name)
	require.Equal(t, "fees", body.Metrics[0].Dataset)

	require.Equal(t, http.StatusOK, do(router, "/metadata").Code)

	w = do(router, "/datasets/fees.arrow")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "payload", w.Body.String())

	require.Equal(t, http.StatusNotFound, do(router, "/datasets/other.arrow").Code)
}

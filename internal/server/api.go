package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/feescope/feescope/internal/config"
	"github.com/feescope/feescope/internal/dataexport"
	"github.com/feescope/feescope/internal/explorer"
	"github.com/feescope/feescope/internal/logging"
)

// ApiHandler serves exported datasets and their metadata to frontends.
type ApiHandler struct {
	DatasetsDir string
	Explorer    *explorer.Explorer
}

func NewApiHandler(datasetsDir string) (*ApiHandler, error) {
	h := &ApiHandler{DatasetsDir: datasetsDir, Explorer: explorer.New()}

	raw, err := os.ReadFile(filepath.Join(datasetsDir, dataexport.MetadataFileName))
	if errors.Is(err, os.ErrNotExist) {
		// nothing exported yet, endpoints answer accordingly
		return h, nil
	}
	if err != nil {
		return nil, err
	}
	if err := h.Explorer.LoadMetadata(raw); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *ApiHandler) GetInfo(c *gin.Context) {
	info := gin.H{
		"network":  config.ChainToString(config.Chain),
		"datasets": 0,
	}
	if h.Explorer.Loaded() {
		blockRange, err := h.Explorer.BlockRange()
		if err == nil {
			info["block_range"] = blockRange
		}
		metrics, err := h.Explorer.AvailableMetrics()
		if err == nil {
			info["datasets"] = len(metrics)
		}
	}
	c.JSON(http.StatusOK, info)
}

func (h *ApiHandler) GetMetadata(c *gin.Context) {
	path := filepath.Join(h.DatasetsDir, dataexport.MetadataFileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no datasets exported yet"})
		return
	}
	c.File(path)
}

func (h *ApiHandler) GetMetrics(c *gin.Context) {
	metrics, err := h.Explorer.AvailableMetrics()
	if errors.Is(err, explorer.ErrNotLoaded) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no datasets exported yet"})
		return
	}
	if err != nil {
		logging.L.Err(err).Msg("error listing metrics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list metrics"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": metrics})
}

func (h *ApiHandler) GetDataset(c *gin.Context) {
	name := filepath.Base(c.Param("file")) // no path traversal
	path := filepath.Join(h.DatasetsDir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "dataset not found"})
		return
	}
	c.File(path)
}

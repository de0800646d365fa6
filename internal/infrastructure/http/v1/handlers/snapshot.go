package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/engine"
	"trailerpos/internal/infrastructure/snapshot"
	"trailerpos/pkg/logger"
)

// MaxSnapshotBytes caps an uploaded snapshot.
const MaxSnapshotBytes = 64 << 20

const snapshotContentType = "application/vnd.trailerpos.snapshot"

// SnapshotHandler exports and imports the full engine state.
type SnapshotHandler struct {
	*BaseHandler
	engine *engine.Engine

	// store is optional; without it imports are not persisted and
	// the /snapshots endpoints are not registered
	store snapshot.Store
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(base *BaseHandler, e *engine.Engine, store snapshot.Store) *SnapshotHandler {
	return &SnapshotHandler{BaseHandler: base, engine: e, store: store}
}

// Export handles GET /snapshot
func (h *SnapshotHandler) Export(c *gin.Context) {
	blob, err := h.engine.ExportSnapshot(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="trailerpos.tps"`)
	c.Header("X-Snapshot-Checksum", snapshot.Checksum(blob))
	c.Data(http.StatusOK, snapshotContentType, blob)
}

// Import handles PUT /snapshot. The body is the raw blob of Export.
func (h *SnapshotHandler) Import(c *gin.Context) {
	ctx := c.Request.Context()

	blob, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxSnapshotBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, apperror.NewValidation("snapshot too large").WithDetail("limit", tooLarge.Limit))
			return
		}
		h.Error(c, apperror.NewValidation("unreadable request body").WithDetail("error", err.Error()))
		return
	}
	if len(blob) == 0 {
		h.Error(c, apperror.NewValidation("snapshot body is empty"))
		return
	}

	if err := h.engine.ImportSnapshot(ctx, blob); err != nil {
		h.Error(c, err)
		return
	}

	resp := gin.H{"imported": true, "bytes": len(blob)}
	if h.store != nil {
		info, err := h.store.Save(ctx, blob)
		if err != nil {
			// The live state already changed; the next autosave persists it.
			logger.Error(ctx, "imported snapshot not persisted", "error", err)
		} else {
			resp["snapshot"] = info
		}
	}
	h.OK(c, resp)
}

// List handles GET /snapshots
func (h *SnapshotHandler) List(c *gin.Context) {
	infos, err := h.store.List(c.Request.Context(), h.ParseIntQuery(c, "limit", 0))
	if err != nil {
		h.Error(c, err)
		return
	}
	List(c, infos)
}

// Save handles POST /snapshots
func (h *SnapshotHandler) Save(c *gin.Context) {
	ctx := c.Request.Context()

	blob, err := h.engine.ExportSnapshot(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}
	info, err := h.store.Save(ctx, blob)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, info)
}

// RegisterRoutes registers snapshot routes behind admin.
func (h *SnapshotHandler) RegisterRoutes(rg *gin.RouterGroup, admin gin.HandlerFunc) {
	rg.GET("/snapshot", admin, h.Export)
	rg.PUT("/snapshot", admin, h.Import)

	if h.store != nil {
		rg.GET("/snapshots", admin, h.List)
		rg.POST("/snapshots", admin, h.Save)
	}
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"trailerpos/internal/domain/catalog"
	"trailerpos/internal/engine"
	"trailerpos/internal/infrastructure/http/v1/dto"
)

// MenuHandler handles menu items and their recipes.
type MenuHandler struct {
	*BaseHandler
	engine *engine.Engine
}

// NewMenuHandler creates a new menu handler.
func NewMenuHandler(base *BaseHandler, e *engine.Engine) *MenuHandler {
	return &MenuHandler{BaseHandler: base, engine: e}
}

// Create handles POST /menu-items
func (h *MenuHandler) Create(c *gin.Context) {
	var req dto.MenuItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in := catalog.MenuItemInput{
		SKU:         req.SKU,
		Name:        req.Name,
		Price:       req.Price,
		TaxRateCode: req.TaxRateCode,
		Recipe:      make([]catalog.RecipeLine, len(req.Recipe)),
	}
	for i, l := range req.Recipe {
		in.Recipe[i] = catalog.RecipeLine{SKU: l.SKU, Qty: l.Qty}
	}

	item, err := h.engine.AddMenuItem(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, item)
}

// List handles GET /menu-items
func (h *MenuHandler) List(c *gin.Context) {
	items, err := h.engine.Catalog().ListMenuItems(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	List(c, items)
}

// RegisterRoutes registers menu routes. Creating items is guarded by admin.
func (h *MenuHandler) RegisterRoutes(rg *gin.RouterGroup, admin gin.HandlerFunc) {
	rg.GET("/menu-items", h.List)
	rg.POST("/menu-items", admin, h.Create)
}

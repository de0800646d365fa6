package handlers

import (
	"github.com/gin-gonic/gin"

	"trailerpos/internal/engine"
	"trailerpos/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler handles deliveries and waste.
type PurchaseHandler struct {
	*BaseHandler
	engine *engine.Engine
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(base *BaseHandler, e *engine.Engine) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, engine: e}
}

func toPurchaseLine(l dto.PurchaseLineRequest) engine.PurchaseLine {
	return engine.PurchaseLine{SKU: l.SKU, Qty: l.Qty, UnitCost: l.UnitCost}
}

// Create handles POST /purchases
func (h *PurchaseHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.PurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	storeID, ok := h.ResolveStore(c, req.Store)
	if !ok {
		return
	}
	supplier, err := h.engine.Catalog().GetSupplierByCode(ctx, req.SupplierCode)
	if err != nil {
		h.Error(c, err)
		return
	}

	in := engine.PurchaseRequest{
		StoreID:    storeID,
		SupplierID: supplier.ID,
		Notes:      req.Notes,
		Lines:      make([]engine.PurchaseLine, len(req.Lines)),
	}
	for i, l := range req.Lines {
		in.Lines[i] = toPurchaseLine(l)
	}

	create := h.engine.CreatePurchase
	if req.Receive {
		create = h.engine.ReceivePurchase
	}
	p, err := create(ctx, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

// AddLine handles POST /purchases/:id/lines
func (h *PurchaseHandler) AddLine(c *gin.Context) {
	purchaseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.PurchaseLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.engine.AddPurchaseLine(c.Request.Context(), purchaseID, toPurchaseLine(req))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Receive handles POST /purchases/:id/receive
func (h *PurchaseHandler) Receive(c *gin.Context) {
	purchaseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	p, err := h.engine.Receive(c.Request.Context(), purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Cancel handles POST /purchases/:id/cancel
func (h *PurchaseHandler) Cancel(c *gin.Context) {
	purchaseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	p, err := h.engine.CancelPurchase(c.Request.Context(), purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Get handles GET /purchases/:id
func (h *PurchaseHandler) Get(c *gin.Context) {
	purchaseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	p, err := h.engine.Purchase(c.Request.Context(), purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// List handles GET /purchases
func (h *PurchaseHandler) List(c *gin.Context) {
	var req dto.StoreQuery
	if !h.BindQuery(c, &req) {
		return
	}
	storeID, ok := h.ResolveStore(c, req.Store)
	if !ok {
		return
	}
	purchases, err := h.engine.Purchases(c.Request.Context(), &storeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	List(c, purchases)
}

// RecordWaste handles POST /waste
func (h *PurchaseHandler) RecordWaste(c *gin.Context) {
	var req dto.WasteRequest
	if !h.BindJSON(c, &req) {
		return
	}
	storeID, ok := h.ResolveStore(c, req.Store)
	if !ok {
		return
	}

	ev, err := h.engine.RecordWaste(c.Request.Context(), engine.WasteRequest{
		StoreID: storeID,
		SKU:     req.SKU,
		Qty:     req.Qty,
		Reason:  req.Reason,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, ev)
}

// ListWaste handles GET /waste
func (h *PurchaseHandler) ListWaste(c *gin.Context) {
	var req dto.StoreQuery
	if !h.BindQuery(c, &req) {
		return
	}
	storeID, ok := h.ResolveStore(c, req.Store)
	if !ok {
		return
	}
	events, err := h.engine.WasteEvents(c.Request.Context(), &storeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	List(c, events)
}

// RegisterRoutes registers purchase and waste routes.
func (h *PurchaseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	purchases := rg.Group("/purchases")
	purchases.GET("", h.List)
	purchases.POST("", h.Create)
	purchases.GET("/:id", h.Get)
	purchases.POST("/:id/lines", h.AddLine)
	purchases.POST("/:id/receive", h.Receive)
	purchases.POST("/:id/cancel", h.Cancel)

	rg.GET("/waste", h.ListWaste)
	rg.POST("/waste", h.RecordWaste)
}

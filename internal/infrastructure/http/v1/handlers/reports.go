package handlers

import (
	"slices"

	"github.com/gin-gonic/gin"

	"trailerpos/internal/core/entity"
	"trailerpos/internal/domain/reports"
	"trailerpos/internal/engine"
	"trailerpos/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles HTTP requests for reports and the ledger.
type ReportsHandler struct {
	*BaseHandler
	engine *engine.Engine
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, e *engine.Engine) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, engine: e}
}

func (h *ReportsHandler) inventoryFilter(c *gin.Context) (reports.InventoryFilter, bool) {
	var req dto.ReportQuery
	if !h.BindQuery(c, &req) {
		return reports.InventoryFilter{}, false
	}
	storeID, ok := h.ResolveStore(c, req.Store)
	if !ok {
		return reports.InventoryFilter{}, false
	}
	return reports.InventoryFilter{StoreID: storeID, Limit: req.Limit}, true
}

func (h *ReportsHandler) profitFilter(c *gin.Context) (reports.ProfitFilter, bool) {
	var req dto.ProfitQuery
	if !h.BindQuery(c, &req) {
		return reports.ProfitFilter{}, false
	}
	storeID, ok := h.ResolveStore(c, req.Store)
	if !ok {
		return reports.ProfitFilter{}, false
	}
	return reports.ProfitFilter{
		StoreID: storeID,
		From:    req.From,
		To:      req.To,
		Limit:   req.Limit,
	}, true
}

// GetInventory handles GET /reports/inventory
func (h *ReportsHandler) GetInventory(c *gin.Context) {
	filter, ok := h.inventoryFilter(c)
	if !ok {
		return
	}
	rows, err := h.engine.Inventory(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	List(c, rows)
}

// GetValuation handles GET /reports/valuation
func (h *ReportsHandler) GetValuation(c *gin.Context) {
	filter, ok := h.inventoryFilter(c)
	if !ok {
		return
	}
	v, err := h.engine.Valuation(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// GetOrderProfit handles GET /reports/order-profit
func (h *ReportsHandler) GetOrderProfit(c *gin.Context) {
	filter, ok := h.profitFilter(c)
	if !ok {
		return
	}
	rows, err := h.engine.OrderProfit(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	List(c, rows)
}

// GetDailyProfit handles GET /reports/daily-profit
func (h *ReportsHandler) GetDailyProfit(c *gin.Context) {
	filter, ok := h.profitFilter(c)
	if !ok {
		return
	}
	rows, err := h.engine.DailyProfit(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	List(c, rows)
}

// GetFoodCost handles GET /reports/food-cost
func (h *ReportsHandler) GetFoodCost(c *gin.Context) {
	var req dto.StoreQuery
	if !h.BindQuery(c, &req) {
		return
	}
	storeID, ok := h.ResolveStore(c, req.Store)
	if !ok {
		return
	}
	rows, err := h.engine.FoodCost(c.Request.Context(), storeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	List(c, rows)
}

// GetLedger handles GET /ledger
func (h *ReportsHandler) GetLedger(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LedgerQuery
	if !h.BindQuery(c, &req) {
		return
	}
	storeID, ok := h.ResolveStore(c, req.Store)
	if !ok {
		return
	}
	product, err := h.engine.Catalog().GetProductBySKU(ctx, req.SKU)
	if err != nil {
		h.Error(c, err)
		return
	}
	state, err := h.engine.CostState(ctx, storeID, product.ID)
	if err != nil {
		h.Error(c, err)
		return
	}

	entries := slices.Collect(h.engine.LedgerEntries(ctx, storeID, product.ID))
	if entries == nil {
		entries = []entity.LedgerEntry{}
	}
	h.OK(c, dto.LedgerResponse{
		SKU:     product.SKU(),
		State:   state,
		Entries: entries,
	})
}

// RegisterRoutes registers report routes.
func (h *ReportsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reportsGroup := rg.Group("/reports")
	reportsGroup.GET("/inventory", h.GetInventory)
	reportsGroup.GET("/valuation", h.GetValuation)
	reportsGroup.GET("/order-profit", h.GetOrderProfit)
	reportsGroup.GET("/daily-profit", h.GetDailyProfit)
	reportsGroup.GET("/food-cost", h.GetFoodCost)

	rg.GET("/ledger", h.GetLedger)
}

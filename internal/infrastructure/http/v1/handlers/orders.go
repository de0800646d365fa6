package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
	"trailerpos/internal/domain/documents/order"
	"trailerpos/internal/engine"
	"trailerpos/internal/infrastructure/http/v1/dto"
)

// OrderHandler handles sales and the order lifecycle.
type OrderHandler struct {
	*BaseHandler
	engine *engine.Engine
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, e *engine.Engine) *OrderHandler {
	return &OrderHandler{BaseHandler: base, engine: e}
}

// RecordSale handles POST /sales
func (h *OrderHandler) RecordSale(c *gin.Context) {
	var req dto.SaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	storeID, ok := h.ResolveStore(c, req.Store)
	if !ok {
		return
	}
	cashier, ok := h.ResolveCashier(c)
	if !ok {
		return
	}

	sale := engine.SaleRequest{
		StoreID:     storeID,
		CashierID:   cashier.ID,
		OrderType:   order.Type(req.OrderType),
		MenuItemSKU: req.MenuItemSKU,
		Qty:         req.Quantity(),
		UnitPrice:   req.UnitPrice,
		Discount:    req.Discount,
		Tip:         req.Tip,
	}
	for _, raw := range req.Modifiers {
		sale.ModifierOptionIDs = append(sale.ModifierOptionIDs, id.MustParse(raw))
	}
	if req.Payment != nil {
		sale.Payment = &engine.PaymentRequest{
			Method: order.PaymentMethod(req.Payment.Method),
			Amount: req.Payment.Amount,
		}
	}

	summary, err := h.engine.RecordSale(c.Request.Context(), sale)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, summary)
}

// Open handles POST /orders
func (h *OrderHandler) Open(c *gin.Context) {
	var req dto.OpenOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	storeID, ok := h.ResolveStore(c, req.Store)
	if !ok {
		return
	}
	cashier, ok := h.ResolveCashier(c)
	if !ok {
		return
	}

	o, err := h.engine.OpenOrder(c.Request.Context(), order.OpenInput{
		StoreID:   storeID,
		CashierID: cashier.ID,
		OrderType: order.Type(req.OrderType),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromOrder(o))
}

// AddLine handles POST /orders/:id/lines
func (h *OrderHandler) AddLine(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.AddLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	line, err := h.engine.AddLineBySKU(c.Request.Context(), orderID, req.MenuItemSKU, req.Quantity(), req.UnitPrice)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, line)
}

// AddModifier handles POST /orders/lines/:lineId/modifiers
func (h *OrderHandler) AddModifier(c *gin.Context) {
	lineID, ok := h.ParseID(c, "lineId")
	if !ok {
		return
	}
	var req dto.AddModifierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	mod, err := h.engine.AddModifier(c.Request.Context(), lineID, id.MustParse(req.OptionID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, mod)
}

// SetDiscount handles PUT /orders/:id/discount
func (h *OrderHandler) SetDiscount(c *gin.Context) {
	h.setAmount(c, h.engine.SetDiscount)
}

// SetTip handles PUT /orders/:id/tip
func (h *OrderHandler) SetTip(c *gin.Context) {
	h.setAmount(c, h.engine.SetTip)
}

func (h *OrderHandler) setAmount(c *gin.Context, set func(ctx context.Context, orderID id.ID, amount types.Money) (*order.Order, error)) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.AmountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := set(c.Request.Context(), orderID, req.Amount)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromOrder(o))
}

// AddPayment handles POST /orders/:id/payments
func (h *OrderHandler) AddPayment(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.engine.RecordPayment(c.Request.Context(), orderID, order.PaymentMethod(req.Method), req.Amount)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

// Get handles GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	details, err := h.engine.Order(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, details)
}

// List handles GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	var req dto.OrderListQuery
	if !h.BindQuery(c, &req) {
		return
	}
	storeID, ok := h.ResolveStore(c, req.Store)
	if !ok {
		return
	}

	orders, err := h.engine.Orders(c.Request.Context(), order.ListFilter{
		StoreID: &storeID,
		From:    req.From,
		To:      req.To,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	List(c, dto.FromOrders(orders))
}

// RegisterRoutes registers sale and order routes.
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sales", h.RecordSale)

	orders := rg.Group("/orders")
	orders.GET("", h.List)
	orders.POST("", h.Open)
	orders.GET("/:id", h.Get)
	orders.POST("/:id/lines", h.AddLine)
	orders.PUT("/:id/discount", h.SetDiscount)
	orders.PUT("/:id/tip", h.SetTip)
	orders.POST("/:id/payments", h.AddPayment)
	orders.POST("/lines/:lineId/modifiers", h.AddModifier)
}

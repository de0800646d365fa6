package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trailerpos/internal/core/apperror"
	appctx "trailerpos/internal/core/context"
	"trailerpos/internal/core/id"
	"trailerpos/internal/domain/catalog"
	"trailerpos/internal/infrastructure/http/v1/dto"
)

// StoreResolver finds stores and cashiers named in requests.
type StoreResolver interface {
	GetStoreByCode(ctx context.Context, code string) (*catalog.Store, error)
	GetCashierByUsername(ctx context.Context, username string) (*catalog.Cashier, error)
}

// BaseHandler provides common handler utilities.
type BaseHandler struct {
	stores       StoreResolver
	defaultStore string
}

// NewBaseHandler creates a new base handler. defaultStore is the store code
// used when neither the request nor the actor names one.
func NewBaseHandler(stores StoreResolver, defaultStore string) *BaseHandler {
	return &BaseHandler{stores: stores, defaultStore: defaultStore}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers err on the Gin context and aborts the request.
// The JSON body is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseID parses the UUID path parameter name.
func (h *BaseHandler) ParseID(c *gin.Context, name string) (id.ID, bool) {
	raw := c.Param(name)
	parsed, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id").
			WithDetail("param", name).
			WithDetail("value", raw))
		return id.Nil(), false
	}
	return parsed, true
}

// ParseIntQuery parses integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	parsed, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ResolveStore returns the store of a request: the explicit code if given,
// then the actor's store, then the default store.
func (h *BaseHandler) ResolveStore(c *gin.Context, code string) (id.ID, bool) {
	ctx := c.Request.Context()

	if code == "" {
		if actor := appctx.GetActor(ctx); actor != nil && actor.StoreID != "" {
			if storeID, err := id.Parse(actor.StoreID); err == nil {
				return storeID, true
			}
		}
		code = h.defaultStore
	}
	if code == "" {
		h.Error(c, apperror.NewValidation("store is required").WithDetail("field", "store"))
		return id.Nil(), false
	}

	st, err := h.stores.GetStoreByCode(ctx, code)
	if err != nil {
		h.Error(c, err)
		return id.Nil(), false
	}
	return st.ID, true
}

// ResolveCashier returns the cashier acting on the request.
func (h *BaseHandler) ResolveCashier(c *gin.Context) (*catalog.Cashier, bool) {
	ctx := c.Request.Context()
	actor := appctx.GetActor(ctx)
	if actor == nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return nil, false
	}
	cashier, err := h.stores.GetCashierByUsername(ctx, actor.Username)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return cashier, true
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// List sends 200 response wrapping items.
func List[T any](c *gin.Context, items []T) {
	c.JSON(http.StatusOK, dto.NewListResponse(items))
}

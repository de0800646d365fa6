package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/types"
	"trailerpos/internal/domain/auth"
	"trailerpos/internal/domain/catalog"
	"trailerpos/internal/engine"
	v1 "trailerpos/internal/infrastructure/http/v1"
	"trailerpos/internal/infrastructure/storage/file"
)

type testAPI struct {
	router *gin.Engine
	eng    *engine.Engine
	store  *file.SnapshotStore
}

// newTestAPI serves a Trailer-1 catalog with a manager (1234) and a
// cashier (5678), one ingredient X and menu item ITEM consuming 2 X.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	eng := engine.New(engine.Options{})

	err := eng.Define(ctx, func(ctx context.Context, c *catalog.Service) error {
		st := catalog.NewStore("T1", "Trailer-1")
		if err := c.CreateStore(ctx, st); err != nil {
			return err
		}
		for _, u := range []struct {
			name, pin string
			roles     []string
		}{
			{"manager1", "1234", []string{"cashier", v1.RoleManager}},
			{"cashier1", "5678", []string{"cashier"}},
		} {
			cashier := catalog.NewCashier(st.ID, u.name, "")
			hash, err := auth.HashPIN(u.pin)
			if err != nil {
				return err
			}
			cashier.PinHash = hash
			cashier.Roles = u.roles
			if err := c.CreateCashier(ctx, cashier); err != nil {
				return err
			}
		}
		if err := c.CreateTaxRate(ctx, catalog.NewTaxRate(engine.DefaultTaxCode, "Standard 21%", types.MustMoney("0.21"))); err != nil {
			return err
		}
		if err := c.CreateUnit(ctx, catalog.NewUnit("pcs", "Pieces")); err != nil {
			return err
		}
		if err := c.CreateProduct(ctx, catalog.NewProduct("X", "Ingredient X", "pcs")); err != nil {
			return err
		}
		return c.CreateSupplier(ctx, catalog.NewSupplier("SUP", "Supplier"))
	})
	require.NoError(t, err)

	_, err = eng.AddMenuItem(ctx, catalog.MenuItemInput{
		SKU:    "ITEM",
		Name:   "Menu Item",
		Price:  types.MustMoney("8.00"),
		Recipe: []catalog.RecipeLine{{SKU: "X", Qty: types.MustQuantity("2")}},
	})
	require.NoError(t, err)

	jwtSvc := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"), time.Now)
	snapshots := file.NewSnapshotStoreFs(afero.NewMemMapFs(), "/snapshots", 0)

	return &testAPI{
		router: v1.NewRouter(v1.RouterConfig{
			Engine:        eng,
			AuthService:   auth.NewService(eng.Catalog(), jwtSvc),
			DefaultStore:  "T1",
			SnapshotStore: snapshots,
			Version:       "test",
		}),
		eng:   eng,
		store: snapshots,
	}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		r = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) login(t *testing.T, username, pin string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"pin":      pin,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token struct {
			AccessToken string `json:"accessToken"`
		} `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token.AccessToken)
	return resp.Token.AccessToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func TestHealthLive(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuth_Required(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodGet, "/api/v1/reports/inventory", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, string(apperror.CodeUnauthorized), decode(t, w)["code"])

	w = a.do(t, http.MethodGet, "/api/v1/reports/inventory", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_WrongPIN(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "cashier1",
		"pin":      "0000",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe(t *testing.T) {
	a := newTestAPI(t)
	token := a.login(t, "cashier1", "5678")

	w := a.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cashier1", decode(t, w)["username"])
}

func TestPurchaseThenSale(t *testing.T) {
	a := newTestAPI(t)
	token := a.login(t, "cashier1", "5678")

	w := a.do(t, http.MethodPost, "/api/v1/purchases", token, map[string]any{
		"supplierCode": "SUP",
		"receive":      true,
		"lines":        []map[string]any{{"sku": "X", "qty": "10", "unitCost": "2.00"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "RECEIVED", decode(t, w)["status"])

	w = a.do(t, http.MethodPost, "/api/v1/sales", token, map[string]any{
		"menuItemSku": "ITEM",
		"payment":     map[string]any{"method": "CASH"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sale := decode(t, w)
	assert.Equal(t, "9.68", sale["revenue"])
	assert.Equal(t, "4", sale["cogs"])
	assert.Equal(t, "5.68", sale["grossProfit"])

	w = a.do(t, http.MethodGet, "/api/v1/orders/"+sale["orderId"].(string), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode(t, w)["lines"], 1)

	w = a.do(t, http.MethodGet, "/api/v1/ledger?sku=X", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ledger := decode(t, w)
	assert.Len(t, ledger["entries"], 2)
	assert.Equal(t, "8", ledger["state"].(map[string]any)["qtyOnHand"])

	w = a.do(t, http.MethodGet, "/api/v1/reports/inventory", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, decode(t, w)["total"])
}

func TestOrderLifecycle(t *testing.T) {
	a := newTestAPI(t)
	token := a.login(t, "cashier1", "5678")

	w := a.do(t, http.MethodPost, "/api/v1/orders", token, map[string]any{"orderType": "TAKEAWAY"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	orderID := decode(t, w)["id"].(string)

	w = a.do(t, http.MethodPost, "/api/v1/orders/"+orderID+"/lines", token, map[string]any{
		"menuItemSku": "ITEM",
		"qty":         "2",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodPut, "/api/v1/orders/"+orderID+"/tip", token, map[string]any{"amount": "1.00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	// 16.00 + 3.36 tax + 1.00 tip
	assert.Equal(t, "20.36", decode(t, w)["grandTotal"])

	w = a.do(t, http.MethodPost, "/api/v1/orders/"+orderID+"/payments", token, map[string]any{"method": "CARD"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "20.36", decode(t, w)["amount"])
}

func TestRequestErrors(t *testing.T) {
	a := newTestAPI(t)
	token := a.login(t, "cashier1", "5678")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"unknown menu item", http.MethodPost, "/api/v1/sales", map[string]any{"menuItemSku": "NOPE"}, http.StatusNotFound},
		{"missing sku", http.MethodPost, "/api/v1/sales", map[string]any{}, http.StatusBadRequest},
		{"bad payment method", http.MethodPost, "/api/v1/sales", map[string]any{"menuItemSku": "ITEM", "payment": map[string]any{"method": "IOU"}}, http.StatusBadRequest},
		{"malformed order id", http.MethodGet, "/api/v1/orders/xyz", nil, http.StatusBadRequest},
		{"unknown store", http.MethodGet, "/api/v1/reports/valuation?store=NOPE", nil, http.StatusNotFound},
		{"zero waste", http.MethodPost, "/api/v1/waste", map[string]any{"sku": "X", "qty": "0"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(t, tt.method, tt.path, token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestSnapshotRoutesRequireManager(t *testing.T) {
	a := newTestAPI(t)
	token := a.login(t, "cashier1", "5678")

	w := a.do(t, http.MethodGet, "/api/v1/snapshot", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, http.MethodPost, "/api/v1/menu-items", token, map[string]any{"sku": "NEW", "name": "New"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSnapshotExportImport(t *testing.T) {
	a := newTestAPI(t)
	token := a.login(t, "manager1", "1234")

	w := a.do(t, http.MethodGet, "/api/v1/snapshot", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	blob := w.Body.Bytes()
	require.NotEmpty(t, blob)

	w = a.do(t, http.MethodPut, "/api/v1/snapshot", token, blob)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["imported"])

	_, info, err := a.store.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(blob), info.SizeBytes)

	w = a.do(t, http.MethodPut, "/api/v1/snapshot", token, []byte("garbage"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, "/api/v1/snapshots", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])
}

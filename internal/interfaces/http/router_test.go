package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/auth"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/dto"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/inventory"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/sequence"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/syncer"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/usecase"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/infrastructure/local"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/infrastructure/memory"
	apphttp "github.com/worldelectronics558-art/inventory-plus-sub000/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sidecar completo sobre el almacén en memoria y una cola SQLite temporal
// ──────────────────────────────────────────────────────────────────────────────

type sidecar struct {
	app  *fiber.App
	gate *syncer.Gate
}

func newSidecar(t *testing.T) *sidecar {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	users := memory.NewUserRepository()
	authUC := auth.NewAuthUseCase(users, testScopeID, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer})
	_, err := authUC.RegisterUser(ctx, dto.RegisterRequest{Email: "ana@example.com", Password: "secreto123", Name: "Ana", Role: "admin"})
	require.NoError(t, err)

	h, err := local.OpenAt(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	kv := local.NewKVStore(h)
	queue, err := local.OpenQueue(ctx, kv)
	require.NoError(t, err)

	gate := syncer.NewGate(authUC, local.NewCredentialStore(kv, "llave-local"), zerolog.Nop())
	gate.SetReachable(true)

	svc := inventory.NewService(store, zerolog.Nop(), nil)
	engine := syncer.NewEngine(syncer.Deps{
		ScopeID:    testScopeID,
		Dispatcher: svc,
		Queue:      queue,
		Gate:       gate,
		Sequence:   sequence.NewGenerator(store, nil),
		Logger:     zerolog.Nop(),
	})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:     authUC,
		Gate:       gate,
		Engine:     engine,
		Inventory:  svc,
		ProductUC:  usecase.NewProductUseCase(store, gate, testScopeID),
		LocationUC: usecase.NewLocationUseCase(store, gate, testScopeID),
		LookupUC:   usecase.NewLookupUseCase(store, gate, testScopeID),
		DocumentUC: usecase.NewDocumentUseCase(store, gate, testScopeID, nil),
		ScopeID:    testScopeID,
		JWTSecret:  testJWTSecret,
	})
	return &sidecar{app: app, gate: gate}
}

// call hace la petición y decodifica la respuesta en out (si no es nil).
func (s *sidecar) call(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *sidecar) login(t *testing.T) string {
	t.Helper()
	var out dto.LoginResponse
	code := s.call(t, http.MethodPost, "/api/session/login", "", dto.LoginRequest{Email: "ana@example.com", Password: "secreto123"}, &out)
	require.Equal(t, http.StatusOK, code)
	require.True(t, out.Online)
	return out.Token
}

// seedCatalog crea la ubicación A y el producto X; devuelve el id del producto.
func (s *sidecar) seedCatalog(t *testing.T, token string) string {
	t.Helper()
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/api/locations", token,
		dto.CreateLocationRequest{ID: "A", Name: "Bodega A"}, nil))
	var p dto.ProductResponse
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/api/products", token,
		map[string]any{"sku": "X", "name": "Cable HDMI", "price": "15"}, &p))
	return p.ID
}

func stockIn(productID string, qty int) map[string]any {
	return map[string]any{
		"type": "STOCK_IN",
		"operation": map[string]any{
			"mode": "direct",
			"items": []map[string]any{{
				"productId": productID, "sku": "X", "locationId": "A", "quantity": qty, "unitCost": "100",
			}},
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Sesión
// ──────────────────────────────────────────────────────────────────────────────

func TestSesion_LoginActivaOnlineYLogoutLoDesactiva(t *testing.T) {
	s := newSidecar(t)

	var st dto.SyncStatusResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/sync/status", "", nil, &st))
	assert.False(t, st.Online)
	assert.True(t, st.Reachable)

	var bad dto.ErrorResponse
	code := s.call(t, http.MethodPost, "/api/session/login", "", dto.LoginRequest{Email: "ana@example.com", Password: "otra-clave"}, &bad)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", bad.Code)

	token := s.login(t)
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/sync/status", "", nil, &st))
	assert.True(t, st.Online)
	assert.Equal(t, "Ana", st.UserName)

	assert.Equal(t, http.StatusNoContent, s.call(t, http.MethodPost, "/api/session/logout", token, nil, nil))
	assert.False(t, s.gate.IsOnline())

	// Sin credenciales guardadas no se puede volver online.
	assert.Equal(t, http.StatusUnauthorized, s.call(t, http.MethodPost, "/api/sync/online", token, nil, nil))
}

func TestSesion_LoginValidaCuerpo(t *testing.T) {
	s := newSidecar(t)
	var out dto.ErrorResponse
	code := s.call(t, http.MethodPost, "/api/session/login", "", map[string]string{"email": "no-es-email"}, &out)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION", out.Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cola de acciones
// ──────────────────────────────────────────────────────────────────────────────

func TestSync_EncolarVaciarYConsultarStock(t *testing.T) {
	s := newSidecar(t)
	token := s.login(t)
	productID := s.seedCatalog(t, token)

	var enq dto.EnqueueResponse
	require.Equal(t, http.StatusAccepted, s.call(t, http.MethodPost, "/api/sync/actions", token, stockIn(productID, 5), &enq))
	assert.NotEmpty(t, enq.ActionID)
	assert.NotEmpty(t, enq.Token)
	assert.Equal(t, 1, enq.Pending)

	var queue []dto.QueuedActionResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/sync/queue", token, nil, &queue))
	require.Len(t, queue, 1)
	assert.Equal(t, "STOCK_IN", queue[0].Type)
	assert.Equal(t, "Ana", queue[0].UserName)

	var rep dto.DrainResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/sync/drain", token, nil, &rep))
	assert.Equal(t, 1, rep.Applied)
	assert.Zero(t, rep.Remaining)

	var report dto.StockReportResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/products/"+productID+"/stock", token, nil, &report))
	assert.Equal(t, 5, report.Product.TotalInStock)
	assert.Equal(t, 5, report.Product.ByLocation["A"])
	assert.NotEmpty(t, report.Items)
	assert.NotEmpty(t, report.Events)
}

func TestSync_AccionPermanenteVaALasMuertas(t *testing.T) {
	s := newSidecar(t)
	token := s.login(t)
	s.seedCatalog(t, token)

	require.Equal(t, http.StatusAccepted, s.call(t, http.MethodPost, "/api/sync/actions", token, stockIn("no-existe", 1), nil))
	var rep dto.DrainResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/sync/drain", token, nil, &rep))
	assert.Equal(t, 1, rep.DeadLettered)

	var dead []dto.QueuedActionResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/sync/dead-letters", token, nil, &dead))
	require.Len(t, dead, 1)
	assert.NotEmpty(t, dead[0].Reason)
	assert.NotNil(t, dead[0].FailedAt)

	assert.Equal(t, http.StatusNotFound, s.call(t, http.MethodPost, "/api/sync/dead-letters/otro/requeue", token, nil, nil))
	assert.Equal(t, http.StatusNoContent, s.call(t, http.MethodDelete, "/api/sync/dead-letters/"+dead[0].ID, token, nil, nil))
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/sync/dead-letters", token, nil, &dead))
	assert.Empty(t, dead)
}

func TestSync_RechazaTipoYOperacionInvalidos(t *testing.T) {
	s := newSidecar(t)
	token := s.login(t)

	var out dto.ErrorResponse
	code := s.call(t, http.MethodPost, "/api/sync/actions", token, map[string]any{"type": "BORRAR_TODO", "operation": map[string]any{}}, &out)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION", out.Code)

	code = s.call(t, http.MethodPost, "/api/sync/actions", token, map[string]any{
		"type":      "TRANSFER",
		"operation": map[string]any{"items": []map[string]any{{"productId": "px", "sku": "X", "fromLocationId": "A", "toLocationId": "A", "quantity": 1}}},
	}, &out)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSync_OfflineEncolaPeroBloqueaCatalogo(t *testing.T) {
	s := newSidecar(t)
	token := s.login(t)
	productID := s.seedCatalog(t, token)

	var st dto.SyncStatusResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/sync/offline", token, nil, &st))
	assert.False(t, st.Online)

	var out dto.ErrorResponse
	code := s.call(t, http.MethodPost, "/api/products", token, map[string]any{"sku": "Y", "name": "Otro"}, &out)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "OFFLINE", out.Code)

	var lookupErr dto.ErrorResponse
	code = s.call(t, http.MethodPost, "/api/lookups", token, dto.CreateLookupRequest{Kind: "brands", Value: "Sony"}, &lookupErr)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "OFFLINE", lookupErr.Code)
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/lookups", token, nil, nil))

	require.Equal(t, http.StatusAccepted, s.call(t, http.MethodPost, "/api/sync/actions", token, stockIn(productID, 2), nil))
	var rep dto.DrainResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/sync/drain", token, nil, &rep))
	assert.Zero(t, rep.Applied)
	assert.Equal(t, 1, rep.Remaining)

	// Las credenciales guardadas permiten volver online y vaciar.
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/sync/online", token, nil, &st))
	assert.True(t, st.Online)
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/sync/drain", token, nil, &rep))
	assert.Equal(t, 1, rep.Applied)
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo y documentos
// ──────────────────────────────────────────────────────────────────────────────

func TestCatalogo_CRUDYPermisos(t *testing.T) {
	s := newSidecar(t)
	token := s.login(t)
	productID := s.seedCatalog(t, token)

	var dup dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, s.call(t, http.MethodPost, "/api/products", token,
		map[string]any{"sku": "X", "name": "Repetido"}, &dup))
	assert.Equal(t, "DUPLICATE", dup.Code)

	var p dto.ProductResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPut, "/api/products/"+productID, token,
		map[string]any{"name": "Cable HDMI 2m"}, &p))
	assert.Equal(t, "Cable HDMI 2m", p.Name)

	var list dto.ProductListResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/products?limit=500", token, nil, &list))
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 100, list.Page.Limit)

	assert.Equal(t, http.StatusNotFound, s.call(t, http.MethodGet, "/api/products/no-existe", token, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.call(t, http.MethodGet, "/api/locations/Z", token, nil, nil))

	vendedor := strings.TrimPrefix(tokenForRole(t, "vendedor"), "Bearer ")
	var forbidden dto.ErrorResponse
	assert.Equal(t, http.StatusForbidden, s.call(t, http.MethodPost, "/api/locations", vendedor,
		dto.CreateLocationRequest{Name: "Bodega B"}, &forbidden))
	assert.Equal(t, "FORBIDDEN", forbidden.Code)

	assert.Equal(t, http.StatusNoContent, s.call(t, http.MethodDelete, "/api/products/"+productID, token, nil, nil))
}

func TestCatalogo_MarcasYCategorias(t *testing.T) {
	s := newSidecar(t)
	token := s.login(t)

	var brand dto.LookupItemResponse
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/api/lookups", token,
		dto.CreateLookupRequest{Kind: "brands", Value: "Sony"}, &brand))
	var dup dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, s.call(t, http.MethodPost, "/api/lookups", token,
		dto.CreateLookupRequest{Kind: "brands", Value: "SONY"}, &dup))
	assert.Equal(t, "DUPLICATE", dup.Code)
	assert.Equal(t, http.StatusBadRequest, s.call(t, http.MethodPost, "/api/lookups", token,
		dto.CreateLookupRequest{Kind: "colores", Value: "Rojo"}, nil))

	var list dto.LookupListResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/lookups?kind=BRANDS", token, nil, &list))
	require.Len(t, list.Brands, 1)
	assert.Equal(t, "Sony", list.Brands[0].Value)
	assert.Empty(t, list.Categories)
	assert.Equal(t, http.StatusBadRequest, s.call(t, http.MethodGet, "/api/lookups?kind=colores", token, nil, nil))

	vendedor := strings.TrimPrefix(tokenForRole(t, "vendedor"), "Bearer ")
	assert.Equal(t, http.StatusForbidden, s.call(t, http.MethodPost, "/api/lookups", vendedor,
		dto.CreateLookupRequest{Kind: "categories", Value: "Audio"}, nil))

	assert.Equal(t, http.StatusNoContent, s.call(t, http.MethodDelete, "/api/lookups/"+brand.ID, token, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.call(t, http.MethodDelete, "/api/lookups/"+brand.ID, token, nil, nil))
}

func TestDocumentos_FacturaYPedido(t *testing.T) {
	s := newSidecar(t)
	token := s.login(t)
	productID := s.seedCatalog(t, token)

	var inv dto.DocumentResponse
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/api/purchase-invoices", token, map[string]any{
		"supplier_name": "Proveedor S.A.",
		"lines":         []map[string]any{{"product_id": productID, "quantity": 10, "unit_cost": "100"}},
	}, &inv))
	assert.True(t, strings.HasPrefix(inv.ID, "PI-"))
	assert.Equal(t, "PENDING", inv.Status)

	var got dto.DocumentResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/purchase-invoices/"+inv.ID, token, nil, &got))
	assert.Equal(t, "Proveedor S.A.", got.Party)

	var out dto.ErrorResponse
	assert.Equal(t, http.StatusNotFound, s.call(t, http.MethodPost, "/api/sales-orders", token, map[string]any{
		"customer_name": "Cliente",
		"location_id":   "Z",
		"lines":         []map[string]any{{"product_id": productID, "quantity": 1}},
	}, &out))

	var order dto.DocumentResponse
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/api/sales-orders", token, map[string]any{
		"customer_name": "Cliente",
		"location_id":   "A",
		"lines":         []map[string]any{{"product_id": productID, "quantity": 2, "unit_price": "15"}},
	}, &order))
	assert.True(t, strings.HasPrefix(order.ID, "SO-"))

	var batches []dto.BatchResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/batches?kind=receivable", token, nil, &batches))
	assert.Empty(t, batches)
	assert.Equal(t, http.StatusBadRequest, s.call(t, http.MethodGet, "/api/batches?kind=otro", token, nil, nil))
}

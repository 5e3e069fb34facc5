package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/auth"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/inventory"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/syncer"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/usecase"
)

// Roles reconocidos por el router.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC     *auth.AuthUseCase
	Gate       *syncer.Gate
	Engine     *syncer.Engine
	Inventory  *inventory.Service
	ProductUC  *usecase.ProductUseCase
	LocationUC *usecase.LocationUseCase
	LookupUC   *usecase.LookupUseCase
	DocumentUC *usecase.DocumentUseCase
	ScopeID    string
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	authHandler := NewAuthHandler(deps.AuthUC, deps.Gate)
	syncHandler := NewSyncHandler(deps.Gate, deps.Engine)

	// Público
	api.Post("/session/login", authHandler.Login)
	api.Get("/sync/status", syncHandler.Status)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	catalogWriters := RequireRole(RoleAdmin, RoleBodeguero)

	protected.Post("/session/logout", authHandler.Logout)
	protected.Post("/users", RequireRole(RoleAdmin), authHandler.Register)

	// Sync
	sync := protected.Group("/sync")
	sync.Post("/online", syncHandler.GoOnline)
	sync.Post("/offline", syncHandler.GoOffline)
	sync.Post("/actions", syncHandler.Enqueue)
	sync.Post("/drain", syncHandler.Drain)
	sync.Get("/queue", syncHandler.Queue)
	sync.Get("/dead-letters", syncHandler.DeadLetters)
	sync.Post("/dead-letters/:id/requeue", RequireRole(RoleAdmin), syncHandler.Requeue)
	sync.Delete("/dead-letters/:id", RequireRole(RoleAdmin), syncHandler.Discard)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Inventory, deps.ScopeID)
	products.Post("/", catalogWriters, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Get("/:id/stock", productHandler.Stock)
	products.Put("/:id", catalogWriters, productHandler.Update)
	products.Delete("/:id", RequireRole(RoleAdmin), productHandler.Delete)

	// Locations
	locations := protected.Group("/locations")
	locationHandler := NewLocationHandler(deps.LocationUC)
	locations.Post("/", catalogWriters, locationHandler.Create)
	locations.Get("/", locationHandler.List)
	locations.Get("/:id", locationHandler.GetByID)
	locations.Put("/:id", catalogWriters, locationHandler.Update)
	locations.Delete("/:id", RequireRole(RoleAdmin), locationHandler.Delete)

	// Marcas y categorías
	lookups := protected.Group("/lookups")
	lookupHandler := NewLookupHandler(deps.LookupUC)
	lookups.Post("/", catalogWriters, lookupHandler.Create)
	lookups.Get("/", lookupHandler.List)
	lookups.Delete("/:id", RequireRole(RoleAdmin), lookupHandler.Delete)

	// Documentos fuente
	documentHandler := NewDocumentHandler(deps.DocumentUC)
	purchases := protected.Group("/purchase-invoices")
	purchases.Post("/", RequireRole(RoleAdmin, RoleBodeguero), documentHandler.CreatePurchaseInvoice)
	purchases.Get("/:id", documentHandler.GetPurchaseInvoice)
	sales := protected.Group("/sales-orders")
	sales.Post("/", RequireRole(RoleAdmin, RoleVendedor), documentHandler.CreateSalesOrder)
	sales.Get("/:id", documentHandler.GetSalesOrder)
	protected.Get("/batches", documentHandler.ListBatches)
}

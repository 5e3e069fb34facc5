package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/dto"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/usecase"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
)

// DocumentHandler facturas de compra, pedidos de venta y lotes pendientes (protegido).
type DocumentHandler struct {
	uc *usecase.DocumentUseCase
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(uc *usecase.DocumentUseCase) *DocumentHandler {
	return &DocumentHandler{uc: uc}
}

// CreatePurchaseInvoice godoc
// @Summary      Crear factura de compra
// @Description  Numera la factura PI-YYMM-NNN. Requiere conexión.
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseInvoiceRequest  true  "Proveedor y líneas"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/purchase-invoices [post]
func (h *DocumentHandler) CreatePurchaseInvoice(c *fiber.Ctx) error {
	var in dto.CreatePurchaseInvoiceRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.CreatePurchaseInvoice(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetPurchaseInvoice godoc
// @Summary      Obtener factura de compra
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchase-invoices/{id} [get]
func (h *DocumentHandler) GetPurchaseInvoice(c *fiber.Ctx) error {
	out, err := h.uc.GetPurchaseInvoice(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
	}
	return c.JSON(out)
}

// CreateSalesOrder godoc
// @Summary      Crear pedido de venta
// @Description  Numera el pedido SO-YYMM-NNN. Requiere conexión.
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSalesOrderRequest  true  "Cliente, ubicación y líneas"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/sales-orders [post]
func (h *DocumentHandler) CreateSalesOrder(c *fiber.Ctx) error {
	var in dto.CreateSalesOrderRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.CreateSalesOrder(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetSalesOrder godoc
// @Summary      Obtener pedido de venta
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id} [get]
func (h *DocumentHandler) GetSalesOrder(c *fiber.Ctx) error {
	out, err := h.uc.GetSalesOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "pedido no encontrado"})
	}
	return c.JSON(out)
}

// ListBatches godoc
// @Summary      Lotes pendientes de conciliar
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        kind  query  string  false  "RECEIVABLE | DELIVERABLE"
// @Success      200   {array}   dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/batches [get]
func (h *DocumentHandler) ListBatches(c *fiber.Ctx) error {
	kind := entity.BatchKind(strings.ToUpper(c.Query("kind")))
	switch kind {
	case "", entity.BatchReceivable, entity.BatchDeliverable:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "kind debe ser RECEIVABLE o DELIVERABLE"})
	}
	out, err := h.uc.ListBatches(c.UserContext(), kind)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(out)
}

package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/dto"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/usecase"
)

// LookupHandler marcas y categorías del catálogo.
type LookupHandler struct {
	uc *usecase.LookupUseCase
}

// NewLookupHandler construye el handler.
func NewLookupHandler(uc *usecase.LookupUseCase) *LookupHandler {
	return &LookupHandler{uc: uc}
}

// Create godoc
// @Summary      Agregar marca o categoría
// @Tags         lookups
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateLookupRequest  true  "kind + value"
// @Success      201   {object}  dto.LookupItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/lookups [post]
func (h *LookupHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateLookupRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.Add(c.UserContext(), in)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar marcas y categorías
// @Tags         lookups
// @Security     Bearer
// @Produce      json
// @Param        kind  query  string  false  "brands | categories"
// @Success      200   {object}  dto.LookupListResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/lookups [get]
func (h *LookupHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), strings.ToLower(c.Query("kind")))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar marca o categoría
// @Tags         lookups
// @Security     Bearer
// @Param        id   path  string  true  "ID del valor"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/lookups/{id} [delete]
func (h *LookupHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return mapDomainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/auth"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/dto"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/syncer"
)

// AuthHandler maneja la sesión del sidecar y el alta de usuarios.
type AuthHandler struct {
	uc   *auth.AuthUseCase
	gate *syncer.Gate
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase, gate *syncer.Gate) *AuthHandler {
	return &AuthHandler{uc: uc, gate: gate}
}

// Register godoc
// @Summary      Registrar usuario
// @Tags         auth
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "email, password, name, role"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/users [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	user, err := h.uc.RegisterUser(c.UserContext(), in)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login godoc
// @Summary      Iniciar sesión
// @Description  Valida las credenciales contra el almacén compartido, las guarda localmente y activa el modo online.
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/session/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	s, err := h.gate.SignIn(c.UserContext(), in.Email, in.Password)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(dto.LoginResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		UserID:    s.UserID,
		Name:      s.DisplayName,
		Role:      s.Role,
		Online:    h.gate.IsOnline(),
		Local:     s.Local,
	})
}

// Logout godoc
// @Summary      Cerrar sesión
// @Description  Pasa a modo offline y borra las credenciales guardadas. La cola pendiente se conserva.
// @Tags         session
// @Security     Bearer
// @Success      204
// @Router       /api/session/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.gate.SignOut(c.UserContext()); err != nil {
		return mapDomainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

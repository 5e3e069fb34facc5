package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/dto"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/syncer"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
)

// SyncHandler expone la compuerta de conectividad y la cola de acciones.
type SyncHandler struct {
	gate   *syncer.Gate
	engine *syncer.Engine
}

// NewSyncHandler construye el handler.
func NewSyncHandler(gate *syncer.Gate, engine *syncer.Engine) *SyncHandler {
	return &SyncHandler{gate: gate, engine: engine}
}

// Status godoc
// @Summary      Estado de sincronización
// @Tags         sync
// @Produce      json
// @Success      200  {object}  dto.SyncStatusResponse
// @Router       /api/sync/status [get]
func (h *SyncHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.status())
}

func (h *SyncHandler) status() dto.SyncStatusResponse {
	s := h.engine.Status()
	out := dto.SyncStatusResponse{
		Online:      s.Online,
		Reachable:   h.gate.Reachable(),
		Syncing:     s.Syncing,
		Pending:     s.Pending,
		DeadLetters: s.DeadLetters,
		LastError:   s.LastError,
		LastDrainAt: s.LastDrainAt,
	}
	if sess := h.gate.Session(); sess != nil {
		out.UserName = sess.DisplayName
	}
	return out
}

// GoOnline godoc
// @Summary      Pasar a modo online
// @Description  Re-autentica con las credenciales guardadas. Sin credenciales válidas responde 401 y sigue offline.
// @Tags         sync
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SyncStatusResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/sync/online [post]
func (h *SyncHandler) GoOnline(c *fiber.Ctx) error {
	if err := h.gate.GoOnline(c.UserContext()); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(h.status())
}

// GoOffline godoc
// @Summary      Pasar a modo offline
// @Tags         sync
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SyncStatusResponse
// @Router       /api/sync/offline [post]
func (h *SyncHandler) GoOffline(c *fiber.Ctx) error {
	h.gate.GoOffline(c.UserContext())
	return c.JSON(h.status())
}

// Enqueue godoc
// @Summary      Encolar operación de stock
// @Description  Única entrada que modifica stock. La acción queda en la cola local y se aplica al haber conexión.
// @Tags         sync
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.EnqueueRequest  true  "type + operation"
// @Success      202   {object}  dto.EnqueueResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/sync/actions [post]
func (h *SyncHandler) Enqueue(c *fiber.Ctx) error {
	var in dto.EnqueueRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	op, err := entity.DecodeOperation(entity.ActionType(in.Type), in.Operation)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_OPERATION", Message: err.Error()})
	}
	a, err := h.engine.AddToQueue(c.UserContext(), op, syncer.Actor{
		UserID:      GetUserID(c),
		DisplayName: GetDisplayName(c),
	})
	if err != nil {
		return mapDomainError(c, err)
	}
	_, batchID, _ := entity.StagedBatch(a.Payload.Operation)
	return c.Status(fiber.StatusAccepted).JSON(dto.EnqueueResponse{
		ActionID: a.ID,
		Token:    a.Token,
		BatchID:  batchID,
		Pending:  len(h.engine.Pending()),
	})
}

// Drain godoc
// @Summary      Vaciar la cola ahora
// @Description  Aplica las acciones pendientes en orden. Un error transitorio detiene el vaciado y responde 503.
// @Tags         sync
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.DrainResponse
// @Failure      503  {object}  dto.DrainResponse
// @Router       /api/sync/drain [post]
func (h *SyncHandler) Drain(c *fiber.Ctx) error {
	rep, err := h.engine.Drain(c.UserContext())
	out := dto.DrainResponse{
		Skipped:      rep.Skipped,
		Applied:      rep.Applied,
		DeadLettered: rep.DeadLettered,
		Remaining:    rep.Remaining,
		Halted:       rep.Halted,
	}
	if err != nil {
		out.Error = err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(out)
	}
	return c.JSON(out)
}

// Queue godoc
// @Summary      Acciones pendientes
// @Tags         sync
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.QueuedActionResponse
// @Router       /api/sync/queue [get]
func (h *SyncHandler) Queue(c *fiber.Ctx) error {
	pending := h.engine.Pending()
	out := make([]dto.QueuedActionResponse, 0, len(pending))
	for _, a := range pending {
		out = append(out, toQueuedActionResponse(a))
	}
	return c.JSON(out)
}

// DeadLetters godoc
// @Summary      Acciones descartadas
// @Tags         sync
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.QueuedActionResponse
// @Router       /api/sync/dead-letters [get]
func (h *SyncHandler) DeadLetters(c *fiber.Ctx) error {
	dead := h.engine.DeadLetters()
	out := make([]dto.QueuedActionResponse, 0, len(dead))
	for _, d := range dead {
		r := toQueuedActionResponse(d.Action)
		failedAt := d.FailedAt
		r.Reason = d.Reason
		r.FailedAt = &failedAt
		out = append(out, r)
	}
	return c.JSON(out)
}

// Requeue godoc
// @Summary      Reencolar acción descartada
// @Tags         sync
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la acción"
// @Success      200  {object}  dto.QueuedActionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sync/dead-letters/{id}/requeue [post]
func (h *SyncHandler) Requeue(c *fiber.Ctx) error {
	a, err := h.engine.Requeue(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(toQueuedActionResponse(a))
}

// Discard godoc
// @Summary      Eliminar acción descartada
// @Tags         sync
// @Security     Bearer
// @Param        id   path  string  true  "ID de la acción"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sync/dead-letters/{id} [delete]
func (h *SyncHandler) Discard(c *fiber.Ctx) error {
	if err := h.engine.Discard(c.UserContext(), c.Params("id")); err != nil {
		return mapDomainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func toQueuedActionResponse(a entity.QueuedAction) dto.QueuedActionResponse {
	out := dto.QueuedActionResponse{
		ID:         a.ID,
		Type:       string(a.Type),
		UserName:   a.Payload.User.DisplayName,
		EnqueuedAt: a.EnqueuedAt,
	}
	if a.Payload.Operation != nil {
		if b, err := json.Marshal(a.Payload.Operation); err == nil {
			out.Operation = b
		}
	}
	return out
}

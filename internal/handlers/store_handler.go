package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/kasirpos/backend/internal/dto"
	"github.com/kasirpos/backend/internal/services"
	"github.com/kasirpos/backend/internal/tenant"
)

type StoreHandler struct {
	storeService *services.StoreService
}

func NewStoreHandler(storeService *services.StoreService) *StoreHandler {
	return &StoreHandler{storeService: storeService}
}

func (h *StoreHandler) Create(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.CreateStoreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	store, decision, err := h.storeService.CreateStore(userID, &req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	if store == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":    true,
			"message":  decision.Reason,
			"decision": decision,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(store)
}

func (h *StoreHandler) AddMember(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	storeID, err := tenant.GetStoreID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid store id",
		})
	}

	var req dto.AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	member, decision, err := h.storeService.AddMember(storeID, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotStoreOwner):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrStoreNotFound), errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}
	}
	if member == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":    true,
			"message":  decision.Reason,
			"decision": decision,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(member)
}

func (h *StoreHandler) List(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	stores, err := h.storeService.ListStores(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(fiber.Map{"stores": stores})
}

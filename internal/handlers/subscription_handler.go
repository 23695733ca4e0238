package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kasirpos/backend/internal/dto"
	"github.com/kasirpos/backend/internal/models"
	"github.com/kasirpos/backend/internal/services"
	"github.com/kasirpos/backend/internal/tenant"
	"gorm.io/gorm"
)

type SubscriptionHandler struct {
	subscriptionService *services.SubscriptionService
	db                  *gorm.DB
}

func NewSubscriptionHandler(subscriptionService *services.SubscriptionService, db *gorm.DB) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService, db: db}
}

func (h *SubscriptionHandler) GetStatus(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	resp, err := h.subscriptionService.CheckSubscriptionStatus(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(resp)
}

func (h *SubscriptionHandler) ListPackages(c *fiber.Ctx) error {
	var packages []models.SubscriptionPackage
	if err := h.db.Where("is_active = ?", true).Order("price ASC").Find(&packages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(fiber.Map{"packages": packages})
}

// CheckStoreEntitlement lets the client probe the store limit before showing
// the "add store" flow.
func (h *SubscriptionHandler) CheckStoreEntitlement(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	decision, err := h.subscriptionService.CanCreateStore(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(decision)
}

func (h *SubscriptionHandler) CheckMemberEntitlement(c *fiber.Ctx) error {
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

	decision, err := h.subscriptionService.CanAddMember(storeID, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(decision)
}

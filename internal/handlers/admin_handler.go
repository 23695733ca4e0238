package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kasirpos/backend/internal/dto"
	"github.com/kasirpos/backend/internal/models"
	"github.com/kasirpos/backend/internal/services"
	"gorm.io/gorm"
)

type AdminHandler struct {
	subscriptionService *services.SubscriptionService
	db                  *gorm.DB
}

func NewAdminHandler(subscriptionService *services.SubscriptionService, db *gorm.DB) *AdminHandler {
	return &AdminHandler{subscriptionService: subscriptionService, db: db}
}

// RunExpirySweep triggers the subscription expiry sweep manually. Safe to
// call repeatedly; overdue rows only transition once.
func (h *AdminHandler) RunExpirySweep(c *fiber.Ctx) error {
	expired, err := h.subscriptionService.ExpireOverdue()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Expiry sweep failed",
		})
	}
	return c.JSON(fiber.Map{"expired": expired})
}

func (h *AdminHandler) RunReminderSweep(c *fiber.Ctx) error {
	sent, err := h.subscriptionService.SendReminders()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Reminder sweep failed",
		})
	}
	return c.JSON(fiber.Map{"sent": sent})
}

func (h *AdminHandler) ListPayments(c *fiber.Ctx) error {
	var payments []models.Payment
	err := h.db.Order("created_at DESC").
		Limit(c.QueryInt("limit", 100)).
		Offset(c.QueryInt("offset", 0)).
		Find(&payments).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(fiber.Map{"payments": payments})
}

package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/kasirpos/backend/internal/dto"
	"github.com/kasirpos/backend/internal/services"
	"github.com/kasirpos/backend/internal/tenant"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	resp, err := h.paymentService.CreateSubscriptionPayment(c.Context(), userID, req.PackageID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrPackageNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrEmailNotVerified):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		default:
			slog.Error("payment creation failed", "user_id", userID.String(), "error", err.Error())
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
				Error: true, Message: "Payment creation failed, please try again",
			})
		}
	}

	status := fiber.StatusCreated
	if resp.IsExisting {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(resp)
}

// HandleCallback receives the gateway's result notification. The gateway is
// always acknowledged with a literal "OK" so it stops retrying; processing
// failures are logged and recorded in-band, never surfaced as a transport
// error.
func (h *PaymentHandler) HandleCallback(c *fiber.Ctx) error {
	var cb dto.GatewayCallback
	if err := c.BodyParser(&cb); err != nil {
		slog.Error("unparseable payment callback", "error", err.Error())
		return c.SendString("OK")
	}

	outcome, err := h.paymentService.HandleCallback(c.Context(), &cb)
	if err != nil {
		slog.Error("payment callback processing failed",
			"merchant_order_id", cb.MerchantOrderID,
			"action", "payment_callback",
			"error", err.Error())
		return c.SendString("OK")
	}

	slog.Info("payment callback processed",
		"merchant_order_id", outcome.MerchantOrderID,
		"status", string(outcome.Status),
		"message", outcome.Message)
	return c.SendString("OK")
}

func (h *PaymentHandler) GetPaymentStatus(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	resp, err := h.paymentService.GetPaymentStatus(userID, c.Params("order_id"))
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(resp)
}

func (h *PaymentHandler) GetPaymentHistory(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	resp, err := h.paymentService.GetUserPaymentHistory(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(fiber.Map{"payments": resp})
}

package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/form-relay/internal/domain"
	"github.com/kursadbilgin/form-relay/internal/service"
)

type DispatchService interface {
	Dispatch(ctx context.Context, form domain.Form) (*service.Outcome, error)
	GetDelivery(ctx context.Context, recipientKey string) (*service.DeliveryView, error)
}

type DispatchHandler struct {
	service DispatchService
}

func NewDispatchHandler(service DispatchService) (*DispatchHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("dispatch service is required")
	}
	return &DispatchHandler{service: service}, nil
}

func RegisterDispatchRoutes(router fiber.Router, service DispatchService) error {
	h, err := NewDispatchHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/forms/contact", h.SubmitContact)
	v1.Post("/forms/internship", h.SubmitInternship)
	v1.Get("/deliveries/:recipientKey", h.GetDelivery)

	return nil
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type internshipRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Course string `json:"course"`
	Phone  string `json:"phone"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type dispatchData struct {
	RecipientKey string `json:"recipientKey"`
	Status       string `json:"status"`
	AlreadySent  bool   `json:"alreadySent"`
	Attempts     int    `json:"attempts"`
	MessageID    string `json:"messageId,omitempty"`
}

type deliveryData struct {
	RecipientKey      string            `json:"recipientKey"`
	Delivered         bool              `json:"delivered"`
	Attempts          int               `json:"attempts"`
	LastAttemptAt     *time.Time        `json:"lastAttemptAt,omitempty"`
	LastError         *string           `json:"lastError,omitempty"`
	ProviderMessageID *string           `json:"providerMessageId,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	History           []attemptDataItem `json:"history"`
}

type attemptDataItem struct {
	AttemptNumber int       `json:"attemptNumber"`
	Error         *string   `json:"error,omitempty"`
	ElapsedMillis int64     `json:"elapsedMs"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (h *DispatchHandler) SubmitContact(c *fiber.Ctx) error {
	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	form := &domain.ContactForm{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}

	outcome, err := h.service.Dispatch(c.Context(), form)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(toDispatchResponse(outcome, "contact message relayed"))
}

func (h *DispatchHandler) SubmitInternship(c *fiber.Ctx) error {
	var req internshipRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	form := &domain.InternshipForm{
		Name:   strings.TrimSpace(req.Name),
		Email:  strings.TrimSpace(req.Email),
		Course: strings.TrimSpace(req.Course),
		Phone:  strings.TrimSpace(req.Phone),
	}

	outcome, err := h.service.Dispatch(c.Context(), form)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(toDispatchResponse(outcome, "internship registration relayed"))
}

func (h *DispatchHandler) GetDelivery(c *fiber.Ctx) error {
	recipientKey := strings.TrimSpace(c.Params("recipientKey"))

	view, err := h.service.GetDelivery(c.Context(), recipientKey)
	if err != nil {
		return err
	}

	history := make([]attemptDataItem, 0, len(view.Attempts))
	for _, attempt := range view.Attempts {
		history = append(history, attemptDataItem{
			AttemptNumber: attempt.AttemptNumber,
			Error:         attempt.Error,
			ElapsedMillis: attempt.ElapsedMillis,
			CreatedAt:     attempt.CreatedAt,
		})
	}

	return c.Status(fiber.StatusOK).JSON(successResponse{
		Success: true,
		Message: "delivery record found",
		Data: deliveryData{
			RecipientKey:      view.Record.RecipientKey,
			Delivered:         view.Record.Delivered,
			Attempts:          view.Record.Attempts,
			LastAttemptAt:     view.Record.LastAttemptAt,
			LastError:         view.Record.LastError,
			ProviderMessageID: view.Record.ProviderMessageID,
			CreatedAt:         view.Record.CreatedAt,
			History:           history,
		},
	})
}

func toDispatchResponse(outcome *service.Outcome, message string) successResponse {
	if outcome.AlreadySent {
		message = "already sent"
	}

	return successResponse{
		Success: true,
		Message: message,
		Data: dispatchData{
			RecipientKey: outcome.RecipientKey,
			Status:       string(outcome.Status),
			AlreadySent:  outcome.AlreadySent,
			Attempts:     outcome.Attempts,
			MessageID:    outcome.MessageID,
		},
	}
}

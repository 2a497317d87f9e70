package handlers

import (
	"codeduel/internal/models"
	"codeduel/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// MatchmakingHandler handles HTTP requests for users and the matchmaking queue
type MatchmakingHandler struct {
	service   *service.MatchmakingService
	validator *validator.Validate
}

// NewMatchmakingHandler creates a new matchmaking handler
func NewMatchmakingHandler(service *service.MatchmakingService) *MatchmakingHandler {
	return &MatchmakingHandler{
		service:   service,
		validator: validator.New(),
	}
}

// CreateUser handles POST /api/v1/users
// @Summary Create or fetch a user
// @Description Provisions a user for an external identity; idempotent per external ID
// @Accept json
// @Produce json
// @Param request body models.CreateUserRequest true "User provisioning request"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/users [post]
func (h *MatchmakingHandler) CreateUser(c *fiber.Ctx) error {
	var req models.CreateUserRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
	}

	if err := h.validator.Struct(&req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Validation failed",
			Message: validationErrors.Error(),
		})
	}

	user, err := h.service.CreateUser(c.Context(), &req)
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse{
			Error:   "Failed to create user",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

// GetUser handles GET /api/v1/users/:id
// @Summary Get a user
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/users/{id} [get]
func (h *MatchmakingHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.service.GetUser(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse{
			Error:   "Failed to get user",
			Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(user)
}

// JoinQueue handles POST /api/v1/queue/join
// @Summary Join the matchmaking queue
// @Description Pairs the user with a compatible waiting opponent or parks them in the queue
// @Accept json
// @Produce json
// @Param request body models.JoinQueueRequest true "Join queue request"
// @Success 200 {object} models.JoinQueueResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 402 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/v1/queue/join [post]
func (h *MatchmakingHandler) JoinQueue(c *fiber.Ctx) error {
	var req models.JoinQueueRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
	}

	if err := h.validator.Struct(&req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Validation failed",
			Message: validationErrors.Error(),
		})
	}

	resp, err := h.service.JoinQueue(c.Context(), req.UserID, req.EntryFee)
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse{
			Error:   "Failed to join queue",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// LeaveQueue handles POST /api/v1/queue/leave
// @Summary Leave the matchmaking queue
// @Description Cancels the user's waiting entry; a no-op if they are not queued
// @Accept json
// @Produce json
// @Param request body models.LeaveQueueRequest true "Leave queue request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/queue/leave [post]
func (h *MatchmakingHandler) LeaveQueue(c *fiber.Ctx) error {
	var req models.LeaveQueueRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
	}

	if err := h.validator.Struct(&req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Validation failed",
			Message: validationErrors.Error(),
		})
	}

	if err := h.service.LeaveQueue(c.Context(), req.UserID); err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse{
			Error:   "Failed to leave queue",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Left queue",
	})
}

package handlers

import (
	"strconv"

	"codeduel/internal/models"
	"codeduel/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// MatchHandler handles HTTP requests for matches, submissions and the ledger
type MatchHandler struct {
	service   *service.MatchService
	validator *validator.Validate
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(service *service.MatchService) *MatchHandler {
	return &MatchHandler{
		service:   service,
		validator: validator.New(),
	}
}

// SubmitSolution handles POST /api/v1/matches/:id/submissions
// @Summary Submit a graded solution
// @Description Records a submission for an active match and settles the match when the verdict decides it
// @Accept json
// @Produce json
// @Param id path string true "Match ID"
// @Param request body models.SubmitSolutionRequest true "Graded submission"
// @Success 200 {object} models.SubmitSolutionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/v1/matches/{id}/submissions [post]
func (h *MatchHandler) SubmitSolution(c *fiber.Ctx) error {
	var req models.SubmitSolutionRequest

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

	resp, err := h.service.SubmitSolution(c.Context(), c.Params("id"), &req)
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse{
			Error:   "Failed to submit solution",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// GetMatch handles GET /api/v1/matches/:id
// @Summary Get a match
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} models.Match
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/matches/{id} [get]
func (h *MatchHandler) GetMatch(c *fiber.Ctx) error {
	match, err := h.service.GetMatch(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(statusForError(err)).JSON(models.ErrorResponse{
			Error:   "Failed to get match",
			Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(match)
}

// GetMatchTransactions handles GET /api/v1/matches/:id/transactions
// @Summary List a match's ledger entries
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {array} models.Transaction
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/matches/{id}/transactions [get]
func (h *MatchHandler) GetMatchTransactions(c *fiber.Ctx) error {
	txns, err := h.service.GetMatchTransactions(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error:   "Failed to get transactions",
			Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(txns)
}

// GetUserTransactions handles GET /api/v1/users/:id/transactions
// @Summary List a user's recent ledger entries
// @Produce json
// @Param id path string true "User ID"
// @Param limit query int false "Max entries to return" default(50)
// @Success 200 {array} models.Transaction
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/users/{id}/transactions [get]
func (h *MatchHandler) GetUserTransactions(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	txns, err := h.service.GetUserTransactions(c.Context(), c.Params("id"), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error:   "Failed to get transactions",
			Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(txns)
}

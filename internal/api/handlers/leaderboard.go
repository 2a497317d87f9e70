package handlers

import (
	"strconv"

	"codeduel/internal/models"
	"codeduel/internal/problems"
	"codeduel/internal/service"

	"github.com/gofiber/fiber/v2"
)

// LeaderboardHandler handles HTTP requests for the leaderboard and the
// problem catalog
type LeaderboardHandler struct {
	service *service.LeaderboardService
	catalog *problems.Catalog
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(service *service.LeaderboardService, catalog *problems.Catalog) *LeaderboardHandler {
	return &LeaderboardHandler{
		service: service,
		catalog: catalog,
	}
}

// GetLeaderboard handles GET /api/v1/leaderboard
// @Summary Get leaderboard
// @Description Retrieves the rating leaderboard with pagination
// @Produce json
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination" default(50)
// @Success 200 {object} models.LeaderboardResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard(c *fiber.Ctx) error {
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100 // Max limit to prevent abuse
	}

	leaderboard, err := h.service.GetLeaderboard(c.Context(), offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error:   "Failed to retrieve leaderboard",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(leaderboard)
}

// SearchPlayer handles GET /api/v1/search/:username
// @Summary Search for a player
// @Description Retrieves a player's global rank and rating
// @Produce json
// @Param username path string true "Username to search"
// @Success 200 {object} models.SearchResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/search/{username} [get]
func (h *LeaderboardHandler) SearchPlayer(c *fiber.Ctx) error {
	username := c.Params("username")

	if username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid username",
			Message: "Username cannot be empty",
		})
	}

	result, err := h.service.SearchPlayer(c.Context(), username)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error:   "Player not found",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// ListProblems handles GET /api/v1/problems
// @Summary List the problem catalog
// @Produce json
// @Success 200 {array} models.Problem
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/problems [get]
func (h *LeaderboardHandler) ListProblems(c *fiber.Ctx) error {
	list, err := h.catalog.ListAll(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error:   "Failed to list problems",
			Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(list)
}

// HealthCheck handles GET /api/v1/health
// @Summary Health check
// @Description Checks the health of the service and its dependencies
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} models.ErrorResponse
// @Router /api/v1/health [get]
func (h *LeaderboardHandler) HealthCheck(c *fiber.Ctx) error {
	if err := h.service.HealthCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error:   "Health check failed",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "healthy",
		"message": "All systems operational",
	})
}

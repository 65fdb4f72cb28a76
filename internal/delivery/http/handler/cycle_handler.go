package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tomether-ux/polygonum-sub000/internal/domain"
	"github.com/tomether-ux/polygonum-sub000/internal/usecase/cycles"
)

type CycleHandler struct {
	cyclesUseCase *cycles.CyclesUseCase
}

func NewCycleHandler(cyclesUseCase *cycles.CyclesUseCase) *CycleHandler {
	return &CycleHandler{
		cyclesUseCase: cyclesUseCase,
	}
}

// CyclesResponse wraps a cycle list
type CyclesResponse struct {
	Cycles []*domain.Cycle `json:"cycles"`
	Count  int             `json:"count"`
}

// GetActiveCycles handles GET /cycles
// @Summary List active cycles
// @Description List all active exchange cycles, optionally only ones with a title-level match
// @Tags cycles
// @Produce json
// @Param title_match query bool false "Only cycles with a title-level match"
// @Success 200 {object} CyclesResponse
// @Failure 500 {object} ErrorResponse
// @Router /cycles [get]
func (h *CycleHandler) GetActiveCycles(c *gin.Context) {
	titleMatchOnly := c.Query("title_match") == "true"

	result, err := h.cyclesUseCase.GetActiveCycles(c.Request.Context(), titleMatchOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to get cycles",
		})
		return
	}

	c.JSON(http.StatusOK, CyclesResponse{Cycles: result, Count: len(result)})
}

// GetCycle handles GET /cycles/:id
// @Summary Get cycle
// @Description Get one cycle by id, regardless of status
// @Tags cycles
// @Produce json
// @Param id path int true "Cycle ID"
// @Success 200 {object} domain.Cycle
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /cycles/{id} [get]
func (h *CycleHandler) GetCycle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid cycle id",
		})
		return
	}

	cycle, err := h.cyclesUseCase.GetCycle(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrCycleNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: "cycle not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to get cycle",
		})
		return
	}

	c.JSON(http.StatusOK, cycle)
}

// GetUserCycles handles GET /users/:user_id/cycles
// @Summary List a user's cycles
// @Description List the active cycles the user participates in, best per participant group
// @Tags cycles
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} CyclesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /users/{user_id}/cycles [get]
func (h *CycleHandler) GetUserCycles(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid user id",
		})
		return
	}

	result, err := h.cyclesUseCase.GetUserCycles(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to get user cycles",
		})
		return
	}

	c.JSON(http.StatusOK, CyclesResponse{Cycles: result, Count: len(result)})
}

// ArchiveCycle handles POST /admin/cycles/:id/archive
// @Summary Archive a cycle
// @Description Manually retire a cycle; refused while a pending proposal references it
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param id path int true "Cycle ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/cycles/{id}/archive [post]
func (h *CycleHandler) ArchiveCycle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid cycle id",
		})
		return
	}

	if err := h.cyclesUseCase.ArchiveCycle(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrCycleNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: "cycle not found",
			})
		case errors.Is(err, domain.ErrCyclePinnedByProposal):
			c.JSON(http.StatusConflict, ErrorResponse{
				Error: "cycle has a pending proposal",
			})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error: "failed to archive cycle",
			})
		}
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "cycle archived",
	})
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents success response
type SuccessResponse struct {
	Message string `json:"message"`
}

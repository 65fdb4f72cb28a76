package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tomether-ux/polygonum-sub000/internal/domain"
	"github.com/tomether-ux/polygonum-sub000/internal/usecase/recompute"
)

type RecomputeHandler struct {
	recomputeUseCase *recompute.UseCase
}

func NewRecomputeHandler(recomputeUseCase *recompute.UseCase) *RecomputeHandler {
	return &RecomputeHandler{
		recomputeUseCase: recomputeUseCase,
	}
}

// RecomputeRequest tunes a triggered run; zero fields fall back to the
// configured defaults.
type RecomputeRequest struct {
	MaxLength int  `json:"max_length" binding:"cyclelength"`
	ForceFull bool `json:"force_full"`
	BatchSize int  `json:"batch_size" binding:"omitempty,gte=1"`
}

// TriggerRecompute handles POST /admin/recompute
// @Summary Trigger a recompute run
// @Description Run cycle discovery now instead of waiting for the scheduler
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body RecomputeRequest false "Run overrides"
// @Success 200 {object} domain.RunSummary
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/recompute [post]
func (h *RecomputeHandler) TriggerRecompute(c *gin.Context) {
	var req RecomputeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "invalid request body",
			})
			return
		}
	}

	summary, err := h.recomputeUseCase.Run(c.Request.Context(), recompute.Options{
		MaxLength: req.MaxLength,
		ForceFull: req.ForceFull,
		BatchSize: req.BatchSize,
	})
	if err != nil {
		if errors.Is(err, domain.ErrRecomputeInProgress) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error: "recompute already in progress",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "recompute failed",
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

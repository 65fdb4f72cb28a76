package http

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tomether-ux/polygonum-sub000/internal/delivery/http/handler"
	"github.com/tomether-ux/polygonum-sub000/internal/delivery/http/middleware"
)

type Router struct {
	cycleHandler     *handler.CycleHandler
	recomputeHandler *handler.RecomputeHandler
	authMiddleware   *middleware.AuthMiddleware
}

func NewRouter(
	cycleHandler *handler.CycleHandler,
	recomputeHandler *handler.RecomputeHandler,
	authMiddleware *middleware.AuthMiddleware,
) *Router {
	return &Router{
		cycleHandler:     cycleHandler,
		recomputeHandler: recomputeHandler,
		authMiddleware:   authMiddleware,
	}
}

func (r *Router) Setup() *gin.Engine {
	router := gin.Default()

	// "unset or within bounds": zero means use the configured default
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("cyclelength", func(fl validator.FieldLevel) bool {
			n := fl.Field().Int()
			return n == 0 || (n >= 2 && n <= 10)
		})
	}

	// Health check (supports both GET and HEAD)
	healthHandler := func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	// API v1
	v1 := router.Group("/api/v1")
	{
		cyclesGroup := v1.Group("/cycles")
		{
			cyclesGroup.GET("", r.cycleHandler.GetActiveCycles)
			cyclesGroup.GET("/:id", r.cycleHandler.GetCycle)
		}

		v1.GET("/users/:user_id/cycles", r.cycleHandler.GetUserCycles)

		// Operational routes (service token)
		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.RequireServiceToken())
		{
			admin.POST("/recompute", r.recomputeHandler.TriggerRecompute)
			admin.POST("/cycles/:id/archive", r.cycleHandler.ArchiveCycle)
		}
	}

	return router
}

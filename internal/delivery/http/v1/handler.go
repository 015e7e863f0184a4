package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-sync/internal/clock"
	"github.com/adanyl0v/go-todo-sync/internal/services"
)

type Handler interface {
	HandleSignIn(c *gin.Context)
	HandleSignOut(c *gin.Context)
	HandleIdentityMiddleware(c *gin.Context)

	HandleGetTasks(c *gin.Context)
	HandleGetUpcomingTasks(c *gin.Context)
	HandleCreateTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)

	HandleRefresh(c *gin.Context)
	HandleSync(c *gin.Context)
	HandleSetConnectivity(c *gin.Context)
	HandleGetQueue(c *gin.Context)
}

type handlerImpl struct {
	logger   zerolog.Logger
	sync     services.SyncService
	sessions services.SessionService
	clock    clock.Clock
}

func New(
	logger zerolog.Logger,
	syncService services.SyncService,
	sessionService services.SessionService,
	clk clock.Clock,
) Handler {
	return &handlerImpl{
		logger:   logger.With().Str("component", "http").Logger(),
		sync:     syncService,
		sessions: sessionService,
		clock:    clk,
	}
}

func RegisterRoutes(router gin.IRouter, h Handler) {
	router = router.Group("/api/v1")

	sessionRouter := router.Group("/session")
	sessionRouter.POST("", h.HandleSignIn)
	sessionRouter.DELETE("", h.HandleIdentityMiddleware, h.HandleSignOut)

	router = router.Group("", h.HandleIdentityMiddleware)
	router.GET("/tasks", h.HandleGetTasks)
	router.GET("/tasks/upcoming", h.HandleGetUpcomingTasks)
	router.POST("/tasks", h.HandleCreateTask)
	router.PUT("/tasks/:id", h.HandleUpdateTask)
	router.DELETE("/tasks/:id", h.HandleDeleteTask)

	router.POST("/refresh", h.HandleRefresh)
	router.POST("/sync", h.HandleSync)
	router.PUT("/connectivity", h.HandleSetConnectivity)
	router.GET("/queue", h.HandleGetQueue)
}

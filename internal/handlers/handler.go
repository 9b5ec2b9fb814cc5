package handlers

import (
	"net/http"

	"ctfplatform/internal/logger"
	"ctfplatform/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.SetHTMLTemplate(mustParseTemplates())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Static assets (form validation script)
	router.StaticFS("/static", staticFS())

	// Every page resolves the session cookie to the current user, guests
	// included.
	site := router.Group("/", h.currentUserMiddleware)
	{
		site.GET("/", h.home)
		site.GET("/auth", h.authPage)
		site.POST("/login", h.login)
		site.POST("/register", h.register)
		site.GET("/check-username", h.checkUsername)
		site.GET("/check-email", h.checkEmail)
		site.GET("/users", h.usersPage)
		site.GET("/logout", h.logout)
		site.GET("/category/:category", h.categoryPage)
	}

	// Live leaderboard feed (HTTP upgrade on the same port)
	router.GET("/ws/leaderboard", h.wsLeaderboard)

	// Admin API (protected)
	h.registerAdminRoutes(router)

	return router
}

func (h *Handler) registerAdminRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.currentUserMiddleware, h.requireAdmin)
	{
		api.DELETE("/users/:id", h.deleteUser)
		api.POST("/users/:id/score", h.addScore)
		api.GET("/events", h.listEvents)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

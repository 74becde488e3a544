package routes

import (
	"database/sql"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"taskmail/internal/cache"
	"taskmail/internal/config"
	"taskmail/internal/controller"
	"taskmail/internal/middleware"
	"taskmail/internal/service"
)

// Deps carries the constructed services and infrastructure the router
// wires into handlers.
type Deps struct {
	Cfg   *config.Config
	DB    *sql.DB
	Auth  *service.Auth
	Items *service.Items
	Lists *cache.Lists
}

// Router assembles the HTTP gateway: one route per service operation,
// bearer auth on everything under /api except register/login/health.
func Router(deps Deps) *gin.Engine {
	if deps.Cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     deps.Cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	health := controller.NewHealth(deps.DB)
	router.GET("/api/health", health.Live)
	router.GET("/ready", health.Ready)

	authCtl := controller.NewAuth(deps.Auth)
	requireAuth := middleware.Auth(deps.Auth)

	auth := router.Group("/api/auth")
	{
		auth.POST("/register", authCtl.Register)
		auth.POST("/login", authCtl.Login)
		auth.GET("/me", requireAuth, authCtl.Me)
		auth.GET("/users", requireAuth, authCtl.Users)
	}

	itemCtl := controller.NewItems(deps.Items, deps.Lists)
	todos := router.Group("/api/todos")
	todos.Use(requireAuth)
	{
		// static paths before /:id
		todos.GET("/stats", itemCtl.Stats)
		todos.DELETE("/bulk", itemCtl.DeleteBulk)

		todos.GET("", itemCtl.List)
		todos.POST("", itemCtl.Create)
		todos.DELETE("", itemCtl.DeleteCompleted)
		todos.GET("/:id", itemCtl.Get)
		todos.PUT("/:id", itemCtl.Update)
		todos.PATCH("/:id/toggle", itemCtl.ToggleCompleted)
		todos.PATCH("/:id/toggle-star", itemCtl.ToggleStar)
		todos.PATCH("/:id/snooze", itemCtl.Snooze)
		todos.PATCH("/:id/unsnooze", itemCtl.Unsnooze)
		todos.DELETE("/:id", itemCtl.Delete)
	}

	return router
}

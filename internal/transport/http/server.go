package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nicoceron/nimble-backend/internal/bootstrap"
	"github.com/nicoceron/nimble-backend/internal/transport/http/handler"
	"github.com/nicoceron/nimble-backend/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.AccessLog(app.Logger), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	userHandler := handler.NewUserHandler(app.Users)
	taskHandler := handler.NewTaskHandler(app.Tasks)
	activityHandler := handler.NewActivityHandler(app.Activities)

	v1 := router.Group("/api/v1")
	userGroup := v1.Group("/users")
	userGroup.POST("/register", userHandler.Register)
	userGroup.POST("/login", userHandler.Login)
	userGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), userHandler.Me)
	userGroup.GET("/:id", userHandler.GetByID)
	userGroup.GET("/:id/tasks", taskHandler.ListForUser)
	userGroup.GET("/:id/activity", activityHandler.ListForUser)

	taskGroup := v1.Group("/tasks")
	taskGroup.POST("", taskHandler.Create)
	taskGroup.POST("/undated", taskHandler.CreateWithoutDate)
	taskGroup.GET("/:id", taskHandler.GetByID)
	taskGroup.PUT("/:id", taskHandler.Update)
	taskGroup.DELETE("/:id", taskHandler.Delete)

	return router
}

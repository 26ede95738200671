package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskdesk/internal/apperror"
	"taskdesk/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	corsOrigins []string,
	tokens *service.TokenService,
	authH *AuthHandler,
	taskH *TaskHandler,
	healthH *HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares básicos: logging, recovery con forma de error uniforme y CORS.
	r.Use(
		zapLoggerMiddleware(logger),
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			logger.Error("panic recovered", zap.Any("panic", recovered))
			internal := apperror.Internal()
			c.AbortWithStatusJSON(internal.Status, errorResponse{
				ErrorCode: internal.Code,
				Message:   internal.Message,
			})
		}),
		corsMiddleware(corsOrigins),
	)

	r.GET("/health", healthH.Check)

	requireAuth := AuthRequired(tokens)

	auth := r.Group("/auth")
	auth.POST("/signup", authH.Signup)
	auth.POST("/signin", authH.Signin)
	auth.GET("/me", requireAuth, authH.Me)

	tasks := r.Group("/tasks")
	tasks.Use(requireAuth)
	tasks.GET("", taskH.List)
	tasks.POST("", taskH.Create)
	tasks.GET("/:id", taskH.Get)
	tasks.PUT("/:id", taskH.Update)
	tasks.DELETE("/:id", taskH.Delete)
	tasks.PATCH("/:id/complete", taskH.ToggleComplete)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// corsMiddleware restringe los orígenes permitidos a los de la configuración.
func corsMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

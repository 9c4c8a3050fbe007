package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"auth-service/internal/domain"
	"auth-service/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(logger *zap.Logger, authH *AuthHandler, jwtSvc *service.JWTService) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	v1 := r.Group("/api/v1")
	v1.POST("/register", authH.Register)
	v1.POST("/resend-otp", authH.ResendOTP)
	v1.POST("/verify-email", authH.VerifyEmail)
	v1.POST("/login", authH.Login)
	v1.POST("/token/refresh", authH.RefreshToken)
	v1.POST("/forgot-password", authH.ForgotPassword)
	v1.POST("/reset-password", authH.ResetPassword)

	authed := v1.Group("")
	authed.Use(JWTAuthMiddleware(jwtSvc))
	authed.POST("/logout", authH.Logout)
	authed.POST("/change-password", authH.ChangePassword)
	authed.GET("/me", authH.Me)
	authed.GET("/users", RequireRoles(domain.RoleAdmin, domain.RoleHR), authH.ListUsers)

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

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"companion-llm/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	assessmentH *AssessmentHandler,
	contentH *ContentHandler,
	characterH *CharacterHandler,
	messageH *MessageHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	auth := r.Group("/", JWTAuthMiddleware(jwtSvc))

	assessment := auth.Group("/assessment")
	assessment.GET("/question", assessmentH.NextQuestion)
	assessment.POST("/answer", assessmentH.SubmitAnswer)

	auth.POST("/content", contentH.FetchOrGenerate)
	auth.POST("/content/:id/rating", contentH.RateArtifact)
	auth.GET("/stats/profile", contentH.ProfileStats)

	characters := auth.Group("/characters")
	characters.POST("", characterH.Create)
	characters.GET("", characterH.List)

	auth.POST("/message", messageH.Post)

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

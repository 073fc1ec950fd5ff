package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/petrioteer/swatantra.ai/docs"
	"github.com/petrioteer/swatantra.ai/internal/config"
	"github.com/petrioteer/swatantra.ai/internal/domains/voicesession"
	"github.com/petrioteer/swatantra.ai/internal/handlers"
	wshandler "github.com/petrioteer/swatantra.ai/internal/handlers/websocket"
	"github.com/petrioteer/swatantra.ai/pkg/Logger"
)

type Dependencies struct {
	VoiceService voicesession.Service
	Logger       *Logger.Logger
	Configs      *config.Settings
}

func NewServerDependencies(
	voiceService voicesession.Service,
	logger *Logger.Logger,
	config *config.Settings,
) Dependencies {
	return Dependencies{
		VoiceService: voiceService,
		Logger:       logger,
		Configs:      config,
	}
}

func InitializeRoutes(r *gin.Engine, dep Dependencies) {
	r.Use(handlers.CORSMiddleware())
	r.Use(handlers.RequestLoggerMiddleware(dep.Logger))
	r.Use(handlers.ErrorHandlerMiddleware(dep.Logger))

	r.GET("/", handlers.HomePage)
	r.GET("/health", func(ctx *gin.Context) { ctx.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Control API
	api := r.Group("/api/v1")
	voiceHandler := handlers.NewVoiceHandler(dep.VoiceService, dep.Logger)
	voiceHandler.RegisterVoiceRoutes(api)

	// Audio streaming websocket
	wsHandler := wshandler.NewHandler(dep.Logger, dep.VoiceService)
	wsHandler.RegisterRoutes(r)
}

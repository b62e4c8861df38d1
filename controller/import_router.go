package controller

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"vendor-inventory-import/conf"
	"vendor-inventory-import/controller/handler"
	"vendor-inventory-import/controller/respond"
	importerDocs "vendor-inventory-import/docs/importer"
	"vendor-inventory-import/service/common_service/fieldmap"
	"vendor-inventory-import/service/import_service"
	"vendor-inventory-import/service/shipping_service"
)

// Services everything the HTTP API calls into
type Services struct {
	Normalizer *fieldmap.Normalizer
	Imports    *import_service.ImportService
	Scheduler  *import_service.ChunkScheduler
	Progress   *import_service.ProgressService
	Staging    *import_service.StagingService
	Reconciler *import_service.ReconcileService
	Mass       *import_service.MassCorrectionService
	Exporter   *import_service.ExportService
	Quotes     *shipping_service.QuoteService
	MaxBytes   int64 // Upload size limit, 0 for unlimited
}

// SetupImportRouter setup import service router
func SetupImportRouter(svc *Services) *gin.Engine {
	// Set Swagger host from config
	if conf.Cfg != nil {
		importerDocs.SwaggerInfoimporter.Host = conf.Cfg.SwaggerBaseUrl
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Accept", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * 3600, // 12 hours
	}))

	// Add timing middleware
	r.Use(respond.TimingMiddleware())

	importHandler := handler.NewImportHandler(svc.Imports, svc.Scheduler, svc.Progress, svc.Normalizer, svc.MaxBytes)
	sessionHandler := handler.NewSessionHandler(svc.Imports, svc.Staging, svc.Reconciler, svc.Mass, svc.Exporter)
	recordHandler := handler.NewRecordHandler(svc.Imports, svc.Staging, svc.Reconciler)

	v1 := r.Group("/api/v1")
	{
		imports := v1.Group("/imports")
		{
			imports.POST("", importHandler.Upload)
			imports.GET("/header-mapping", importHandler.HeaderMapping)
			imports.POST("/header-mapping/preview", importHandler.PreviewHeaderMapping)

			// Static segment takes priority over :runId
			imports.GET("/current/progress", importHandler.GetCurrentProgress)
			imports.GET("/:runId/progress", importHandler.GetRunProgress)

			imports.POST("/:runId/pause", importHandler.PauseRun)
			imports.POST("/:runId/resume", importHandler.ResumeRun)
			imports.POST("/:runId/stop", importHandler.StopRun)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.GET("", sessionHandler.ListSessions)
			sessions.GET("/:sessionId", sessionHandler.GetSession)
			sessions.DELETE("/:sessionId", sessionHandler.DeleteSession)
			sessions.GET("/:sessionId/records", sessionHandler.ListRecords)
			sessions.GET("/:sessionId/export", sessionHandler.ExportSession)
			sessions.POST("/:sessionId/process-all", sessionHandler.ProcessAll)
			sessions.POST("/:sessionId/mass-correct", sessionHandler.MassCorrect)
		}

		records := v1.Group("/records")
		{
			records.POST("/process", recordHandler.ProcessSelected)
			records.GET("/:id", recordHandler.GetRecord)
			records.PATCH("/:id", recordHandler.UpdateRecord)
			records.DELETE("/:id", recordHandler.DeleteRecord)
			records.POST("/:id/process", recordHandler.ProcessRecord)
		}

		v1.GET("/inventory/:compositeKey", recordHandler.GetInventory)

		if svc.Quotes != nil {
			shippingHandler := handler.NewShippingHandler(svc.Quotes)
			v1.POST("/shipping/quotes", shippingHandler.Quote)
		}
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "importer",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.InstanceName("importer")))

	return r
}

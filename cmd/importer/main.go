package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vendor-inventory-import/app"
	"vendor-inventory-import/conf"
	"vendor-inventory-import/controller"
	"vendor-inventory-import/database"
	"vendor-inventory-import/service/import_service"
)

var (
	ENV        string
	ConfigPath string
)

func init() {
	flag.StringVar(&ENV, "env", "loc", "Environment: loc/dev/prod/example")
	flag.StringVar(&ConfigPath, "config", "", "Config file path, overrides -env")
}

// @title           Vendor Inventory Import API
// @version         1.0
// @description     Stages vendor inventory CSV files in chunks, lets operators review and correct rows, and reconciles them into inventory
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:7290
// @BasePath  /api/v1

// @schemes https http

func main() {
	flag.Parse()

	store, cleanup, err := app.Bootstrap(ENV, ConfigPath)
	if err != nil {
		conf.Log.WithError(err).Fatal("Failed to start importer")
	}
	defer cleanup()

	svc := app.NewServices(database.DB, store, app.Options{})

	recovery := import_service.NewRecoveryProcessor(database.DB, svc.Scheduler,
		conf.Cfg.Import.RecoveryInterval, conf.Cfg.Import.StalledAfter)
	archives := import_service.NewArchiveCleanupProcessor(database.DB, store, app.ArchiveRetention())
	recovery.Start()
	archives.Start()

	srv := &http.Server{
		Addr:    ":" + conf.Cfg.Port,
		Handler: controller.SetupImportRouter(svc),
	}
	go startServer(srv)
	conf.Log.WithField("port", conf.Cfg.Port).Info("Importer API service started")

	waitForShutdown()
	conf.Log.Info("Shutting down importer...")

	recovery.Stop()
	archives.Stop()

	// Active runs are paused at their next batch boundary and resume on restart
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := svc.Scheduler.Shutdown(ctx); err != nil {
		conf.Log.WithError(err).Warn("Runs did not pause before the deadline")
	}

	shutdownServer(srv)
	conf.Log.Info("Server exited")
}

// startServer start HTTP server
func startServer(srv *http.Server) {
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		conf.Log.WithError(err).Fatal("Failed to start server")
	}
}

// waitForShutdown wait for shutdown signal
func waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

// shutdownServer gracefully shutdown server
func shutdownServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		conf.Log.WithError(err).Error("Server forced to shutdown")
	}
}

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter собирает маршруты. Префикса /api нет: клиент проксирует /api/* на корень.
func NewRouter(repo Repository, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(log), Metrics(), Recovery())

	// служебные
	r.GET("/healthz", HealthHandler())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/check-db-connection", CheckDBConnectionHandler(repo))
	r.GET("/admin/schema", AdminSchemaHandler(repo))

	r.GET("/meta", MetaListHandler(repo))
	r.GET("/meta/catalogs/:name", MetaCatalogHandler(repo))
	r.GET("/meta/:entity", MetaEntityHandler(repo))

	// изменения
	r.POST("/insert-planet", InsertPlanetHandler(repo))
	r.PUT("/update/:table", UpdateHandler(repo))
	r.PUT("/update-star/:starName", UpdateStarHandler(repo))
	r.DELETE("/delete-lifeform/:lfName", DeleteLifeformHandler(repo))

	// отчёты — статические маршруты раньше /:entity
	r.GET("/lifeforms-in-galaxy/:galaxyName", LifeformsInGalaxyHandler(repo))
	r.GET("/planet-count-by-star", PlanetCountByStarHandler(repo))
	r.GET("/stars-with-many-planets", StarsWithManyPlanetsHandler(repo))
	r.GET("/biologically-rich-planets", BiologicallyRichPlanetsHandler(repo))
	r.GET("/planets-with-all-lifeform-types", PlanetsWithAllLifeformTypesHandler(repo))
	r.POST("/project-lifeforms", ProjectLifeformsHandler(repo))
	r.POST("/select-star", SelectStarHandler(repo))
	r.POST("/select/:entity", SelectHandler(repo))

	r.GET("/:entity", ReadAllHandler(repo))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, envelope{Success: false, Message: "Route not found", Code: "NOT_FOUND"})
	})
	return r
}

// RunServer обслуживает запросы до отмены ctx, затем даёт grace на завершение начатых
func RunServer(ctx context.Context, addr string, h http.Handler, grace time.Duration, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, open := <-errCh:
		if open {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down http server", zap.Duration("grace", grace))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "bscar/backend/docs"
	"bscar/backend/internal/auth"
	"bscar/backend/internal/handler"
	"bscar/backend/internal/hub"
	"bscar/backend/internal/metrics"
	"bscar/backend/internal/middleware"
	"bscar/backend/internal/storage"
	"bscar/backend/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// newRouter builds the engine with the shared middleware, the health, metrics
// and swagger endpoints, and the API routes.
func newRouter(h *handler.Handler, users auth.UserLoader, limiter *middleware.RateLimiter, log *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logger(log), metrics.Middleware(), gin.Recovery())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	h.RegisterRoutes(router, users, limiter)
	return router
}

func runServer(ctx context.Context, configDir string) error {
	a, err := setup(configDir)
	if err != nil {
		return err
	}
	defer a.close()
	gin.SetMode(a.cfg.GinMode)

	files := storage.NewLocal(a.cfg.UploadDir)
	events := hub.NewHub()
	s := store.New(a.db, files, events, a.log)
	h := handler.New(s, files, events, a.log, handler.SessionOptions{
		Secret:       a.cfg.JWTSecret,
		TTL:          a.cfg.SessionTTL,
		CookieSecure: a.cfg.CookieSecure,
	})
	limiter := middleware.NewRateLimiter(a.cfg.RateLimitRPS, a.cfg.RateLimitBurst, a.log)

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           newRouter(h, s, limiter, a.log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", srv.Addr).Info("Server is running")
		a.log.Infof("Swagger UI is available at http://localhost:%s/swagger/index.html", a.cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.log.WithField("signal", sig.String()).Info("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

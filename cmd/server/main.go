// Package main provides the entry point for the simsync server.
package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kneutral-org/simsync/internal/config"
	"github.com/kneutral-org/simsync/internal/coordinator"
	"github.com/kneutral-org/simsync/internal/logging"
	"github.com/kneutral-org/simsync/internal/metrics"
	"github.com/kneutral-org/simsync/internal/middleware"
	"github.com/kneutral-org/simsync/internal/status"
	"github.com/kneutral-org/simsync/internal/world"
)

func main() {
	cfg := config.Load()

	var logger zerolog.Logger
	if cfg.PrettyLogs {
		logger = logging.NewPrettyLogger("simsync", cfg.LogLevel)
	} else {
		logger = logging.NewLogger("simsync", cfg.LogLevel)
	}

	// The coordinator starts with the main lock exclusively held; the
	// simulation loop below owns it from here on.
	coord := coordinator.New(logger,
		coordinator.WithSlowDrainWarning(cfg.SlowDrainWarning),
	)

	w := world.NewWorld()
	seedWorld(w)

	accessor := world.NewAccessor(coord, w, logger)

	// Setup Gin router
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.RequestLogger(logger))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	metrics.RegisterMetricsEndpoint(router)

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.PayloadLimit(cfg.MaxBodyBytes, logger))
	statusHandler := status.NewHandler(coord, accessor, logger)
	statusHandler.RegisterRoutes(apiV1)

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	loopCtx, stopLoops := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	// Main simulation context
	wg.Add(1)
	go func() {
		defer wg.Done()
		runMainLoop(loopCtx, coord, w, cfg, logging.MainContextLogger(logger))
	}()

	// Worker contexts
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runWorker(loopCtx, accessor, logging.WorkerLogger(logger, id))
		}(i)
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	stopLoops()
	wg.Wait()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited properly")
}

// seedWorld populates the initial entity set. Runs before any worker
// starts, while the main context still holds its construction-time
// exclusive lock.
func seedWorld(w *world.World) {
	names := []string{"relay", "drone", "hauler", "beacon", "probe"}
	for i, name := range names {
		w.Spawn(world.Entity{
			Name: name,
			Position: world.Vec3{
				X: float64(i*10 + 5),
				Y: rand.Float64() * 20,
				Z: rand.Float64() * 20,
			},
			Radius: 1 + rand.Float64()*2,
		})
	}
}

// runMainLoop is the main simulation context. Each iteration mutates the
// world under the exclusive lock, then releases it for a shared window so
// workers and HTTP reads can proceed, then reacquires it, waiting out any
// active shared holders.
func runMainLoop(ctx context.Context, coord *coordinator.Coordinator, w *world.World, cfg *config.Config, logger zerolog.Logger) {
	for {
		// Tick: exclusive access held on entry.
		tick(w)
		time.Sleep(cfg.TickInterval)

		if err := coord.ReleaseMainExclusive(); err != nil {
			logger.Error().Err(err).Msg("failed to release exclusive lock")
			return
		}

		select {
		case <-ctx.Done():
			// Leave the lock released so blocked workers can drain.
			logger.Info().Msg("main loop stopped")
			return
		case <-time.After(cfg.SharedWindow):
		}

		if err := coord.AcquireMainExclusive(); err != nil {
			logger.Error().Err(err).Msg("failed to reacquire exclusive lock")
			return
		}
	}
}

// tick nudges every entity. Stands in for the real simulation step;
// the locking protocol around it is what matters.
func tick(w *world.World) {
	for _, e := range w.Entities() {
		e.Position.X += rand.Float64() - 0.5
		e.Position.Y += rand.Float64() - 0.5
		e.Position.Z += rand.Float64() - 0.5
		w.Spawn(e)
	}
}

// runWorker performs periodic shared reads through the accessor,
// alternating blocking and non-blocking paths.
func runWorker(ctx context.Context, accessor *world.Accessor, logger zerolog.Logger) {
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if count, ok := accessor.TryCount(); ok {
			logger.Debug().Int("entities", count).Msg("non-blocking count")
		}

		origin := world.Vec3{}
		dir := world.Vec3{X: rand.Float64(), Y: rand.Float64(), Z: rand.Float64()}
		hit, err := accessor.RayCast(origin, dir, 100)
		if err != nil {
			logger.Error().Err(err).Msg("raycast failed")
			continue
		}
		if hit != nil {
			logger.Debug().
				Str("entity", hit.Entity.Name).
				Float64("distance", hit.Distance).
				Msg("raycast hit")
		}
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/hospitalops/scheduler-api/config"
	"github.com/hospitalops/scheduler-api/internal/handler"
	appointmentHandler "github.com/hospitalops/scheduler-api/internal/handler/appointment"
	authHandler "github.com/hospitalops/scheduler-api/internal/handler/auth"
	availabilityHandler "github.com/hospitalops/scheduler-api/internal/handler/availability"
	roomHandler "github.com/hospitalops/scheduler-api/internal/handler/room"
	shiftHandler "github.com/hospitalops/scheduler-api/internal/handler/shift"
	"github.com/hospitalops/scheduler-api/internal/middleware"
	"github.com/hospitalops/scheduler-api/internal/repository/postgres"
	"github.com/hospitalops/scheduler-api/internal/router"
	appointmentService "github.com/hospitalops/scheduler-api/internal/service/appointment"
	availabilityService "github.com/hospitalops/scheduler-api/internal/service/availability"
	otService "github.com/hospitalops/scheduler-api/internal/service/ot"
	rbacService "github.com/hospitalops/scheduler-api/internal/service/rbac"
	shiftService "github.com/hospitalops/scheduler-api/internal/service/shift"
	userService "github.com/hospitalops/scheduler-api/internal/service/user"
	"github.com/hospitalops/scheduler-api/pkg/auth"
	"github.com/hospitalops/scheduler-api/pkg/metrics"
	"github.com/hospitalops/scheduler-api/pkg/security"
	"github.com/hospitalops/scheduler-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve operating timezone")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	availabilityRepo := postgres.NewAvailabilityRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	roomRepo := postgres.NewRoomRepository(db)
	otRepo := postgres.NewOTRepository(db)
	shiftRepo := postgres.NewShiftRepository(db)

	// Services
	m := metrics.NewMetrics("scheduler", "api")
	tokens := auth.NewTokenService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	hasher := security.NewBcryptHasher(0)

	rbacSvc := rbacService.NewService()
	userSvc := userService.NewService(userRepo, hasher, tokens)
	availabilitySvc := availabilityService.NewService(availabilityRepo, userRepo, loc)
	appointmentSvc := appointmentService.NewService(appointmentRepo, userRepo, availabilitySvc, m, loc)
	otSvc := otService.NewService(otRepo, roomRepo, userRepo, m, loc)
	shiftSvc := shiftService.NewService(shiftRepo, userRepo, m, loc)

	// Middleware and handlers
	v := validator.New()
	authMiddleware := middleware.NewAuthMiddleware(tokens, userRepo, rbacSvc)

	r := router.New(
		authMiddleware,
		authHandler.NewHandler(userSvc, v),
		availabilityHandler.NewHandler(availabilitySvc, v),
		appointmentHandler.NewHandler(appointmentSvc, v),
		roomHandler.NewHandler(roomRepo, otSvc, v),
		shiftHandler.NewHandler(shiftSvc, v),
		handler.NewHealthHandler(db),
		router.Config{
			RateLimit:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:  cfg.RateLimit.Burst,
			Timeout:    30 * time.Second,
			CORSConfig: middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

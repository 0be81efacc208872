package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/hospitalops/scheduler-api/internal/handler"
	appointmenthandler "github.com/hospitalops/scheduler-api/internal/handler/appointment"
	authhandler "github.com/hospitalops/scheduler-api/internal/handler/auth"
	availabilityhandler "github.com/hospitalops/scheduler-api/internal/handler/availability"
	roomhandler "github.com/hospitalops/scheduler-api/internal/handler/room"
	shifthandler "github.com/hospitalops/scheduler-api/internal/handler/shift"
	"github.com/hospitalops/scheduler-api/internal/middleware"
	"github.com/hospitalops/scheduler-api/internal/model"
)

type Config struct {
	RateLimit  rate.Limit
	RateBurst  int
	Timeout    time.Duration
	CORSConfig middleware.CORSConfig
}

type Router struct {
	engine        *gin.Engine
	auth          *middleware.AuthMiddleware
	authH         *authhandler.Handler
	availabilityH *availabilityhandler.Handler
	appointmentH  *appointmenthandler.Handler
	roomH         *roomhandler.Handler
	shiftH        *shifthandler.Handler
	healthH       *handler.HealthHandler
	metrics       *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func New(
	auth *middleware.AuthMiddleware,
	authH *authhandler.Handler,
	availabilityH *availabilityhandler.Handler,
	appointmentH *appointmenthandler.Handler,
	roomH *roomhandler.Handler,
	shiftH *shifthandler.Handler,
	healthH *handler.HealthHandler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:        engine,
		auth:          auth,
		authH:         authH,
		availabilityH: availabilityH,
		appointmentH:  appointmentH,
		roomH:         roomH,
		shiftH:        shiftH,
		healthH:       healthH,
		metrics:       newRouterMetrics(),
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
		middleware.CORS(config.CORSConfig),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/health", r.healthH.HealthCheck)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/login", r.authH.Login)
	}

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	protected.GET("/auth/me", r.authH.Me)

	users := protected.Group("/users")
	{
		users.POST("", r.auth.RequireRole(model.RoleAdmin), r.authH.Register)
		users.GET("", r.auth.RequireRole(model.RoleHR), r.authH.ListUsers)
		users.POST("/:id/activate", r.auth.RequireRole(model.RoleAdmin), r.authH.Activate)
		users.POST("/:id/deactivate", r.auth.RequireRole(model.RoleAdmin), r.authH.Deactivate)
	}

	protected.GET("/doctors/:id/availability", r.availabilityH.ListForDoctor)

	availability := protected.Group("/availability")
	{
		// Ownership (the doctor themself or an admin) is enforced in the
		// service; the route guard only sets the floor.
		availability.POST("", r.auth.RequireRole(model.RoleDoctor), r.availabilityH.Create)
		availability.PUT("/:id", r.auth.RequireRole(model.RoleDoctor), r.availabilityH.Update)
		availability.DELETE("/:id", r.auth.RequireRole(model.RoleDoctor), r.availabilityH.Delete)
	}

	appointments := protected.Group("/appointments")
	{
		appointments.POST("", r.auth.RequireRole(model.RoleDoctor), r.appointmentH.Create)
		appointments.GET("", r.auth.RequireRole(model.RoleAdmin), r.appointmentH.List)
		appointments.GET("/:id", r.appointmentH.Get)
		appointments.POST("/:id/cancel", r.appointmentH.Cancel)
		appointments.POST("/:id/complete", r.auth.RequireRole(model.RoleDoctor), r.appointmentH.Complete)
		appointments.POST("/:id/no-show", r.auth.RequireRole(model.RoleDoctor), r.appointmentH.MarkNoShow)
	}

	rooms := protected.Group("/rooms")
	{
		rooms.POST("", r.auth.RequireRole(model.RoleAdmin), r.roomH.CreateRoom)
		rooms.GET("", r.roomH.ListRooms)
		rooms.GET("/:id", r.roomH.GetRoom)
		rooms.PUT("/:id", r.auth.RequireRole(model.RoleAdmin), r.roomH.UpdateRoom)
		rooms.DELETE("/:id", r.auth.RequireRole(model.RoleAdmin), r.roomH.DeleteRoom)
		rooms.GET("/:id/ot-slots", r.roomH.ListSlots)
	}

	otSlots := protected.Group("/ot-slots")
	{
		otSlots.POST("", r.auth.RequireRole(model.RoleAdmin), r.roomH.CreateSlot)
		otSlots.POST("/book", r.auth.RequireRole(model.RoleDoctor), r.roomH.BookSlot)
	}

	otBookings := protected.Group("/ot-bookings")
	{
		otBookings.GET("/:id", r.roomH.GetBooking)
		otBookings.POST("/:id/approve", r.auth.RequireRole(model.RoleHR), r.roomH.ApproveBooking)
		otBookings.POST("/:id/reject", r.auth.RequireRole(model.RoleHR), r.roomH.RejectBooking)
		otBookings.POST("/:id/complete", r.auth.RequireRole(model.RoleDoctor), r.roomH.CompleteBooking)
	}

	shifts := protected.Group("/shifts")
	{
		shifts.POST("", r.auth.RequireRole(model.RoleHR), r.shiftH.CreateShift)
		shifts.GET("", r.shiftH.ListShifts)
		shifts.GET("/:id", r.shiftH.GetShift)
		shifts.PUT("/:id", r.auth.RequireRole(model.RoleHR), r.shiftH.UpdateShift)
		shifts.DELETE("/:id", r.auth.RequireRole(model.RoleHR), r.shiftH.DeleteShift)
		shifts.POST("/assign", r.auth.RequireRole(model.RoleHR), r.shiftH.Assign)
		shifts.POST("/swap-request", r.shiftH.RequestSwap)
		shifts.POST("/swap/:id/approve", r.auth.RequireRole(model.RoleHR), r.shiftH.ApproveSwap)
		shifts.POST("/swap/:id/reject", r.auth.RequireRole(model.RoleHR), r.shiftH.RejectSwap)
	}

	protected.GET("/my-appointments", r.auth.RequireRole(model.RoleDoctor), r.appointmentH.MyAppointments)
	protected.GET("/my-shifts", r.shiftH.MyShifts)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func newRouterMetrics() *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "scheduler_http_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

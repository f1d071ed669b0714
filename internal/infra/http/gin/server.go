package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"livonto/internal/infra/config"
	"livonto/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Cancel(c *gin.Context)
	Invoice(c *gin.Context)
}

type AvailabilityHTTP interface {
	Check(c *gin.Context)
}

type PaymentHTTP interface {
	Confirm(c *gin.Context)
}

type KycHTTP interface {
	Submit(c *gin.Context)
}

type OwnerHTTP interface {
	CreateListing(c *gin.Context)
	UpsertRoom(c *gin.Context)
	DeleteRoom(c *gin.Context)
}

type AdminHTTP interface {
	Sweep(c *gin.Context)
}

type Handlers struct {
	Booking        BookingHTTP
	Availability   AvailabilityHTTP
	Payment        PaymentHTTP
	Kyc            KycHTTP
	Owner          OwnerHTTP
	Admin          AdminHTTP
	Auth           AuthHTTP
	Me             MeHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Availability != nil {
		api.GET("/listings/:id/availability", h.Availability.Check)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
		api.GET("/bookings/:id/invoice", h.Booking.Invoice)
	}
	if h.Payment != nil {
		api.POST("/payments/confirm", h.Payment.Confirm)
	}
	if h.Kyc != nil {
		api.POST("/kyc", h.Kyc.Submit)
	}
	if h.Me != nil {
		meGroup := api.Group("/me")
		meGroup.GET("/bookings", h.Me.ListBookings)
	}
	if h.Owner != nil {
		ownerGroup := api.Group("/owner")
		ownerGroup.POST("/listings", h.Owner.CreateListing)
		ownerGroup.POST("/listings/:id/rooms", h.Owner.UpsertRoom)
		ownerGroup.PUT("/listings/:id/rooms", h.Owner.UpsertRoom)
		ownerGroup.DELETE("/listings/:id/rooms/:roomID", h.Owner.DeleteRoom)
	}
	if h.Admin != nil {
		api.POST("/admin/sweep", h.Admin.Sweep)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}

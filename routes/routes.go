package routes

import (
	"time"

	"servicehub/handlers"
	"servicehub/middleware"
	"servicehub/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Options configures the middleware the routes are registered behind.
type Options struct {
	SessionSecret []byte
	SessionCookie string
	CORSOrigins   []string
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
}

// RegisterCatalogRoutes registers the catalog endpoints shared by every role.
func RegisterCatalogRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	catalog := api.Group("/catalog")
	{
		catalog.GET("/categories", hb.GetCategories)
		catalog.GET("/categories/:id/services", hb.GetServicesByCategory)
	}
}

// registerCommon adds chat, notification and device routes to a role group.
func registerCommon(g *gin.RouterGroup, hb *handlers.HandlerBundle) {
	g.GET("/chats/:bookingId/stream", hb.ChatStream)
	g.GET("/chats/:bookingId/messages", hb.ChatHistory)
	g.POST("/chats/:bookingId/messages", hb.SendMessage)
	g.GET("/notifications/stream", hb.NotificationStream)
	g.GET("/notifications", hb.ListNotifications)
	g.POST("/devices", hb.RegisterDevice)
}

// RegisterUserRoutes registers customer endpoints.
func RegisterUserRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	user := api.Group("/"+string(models.RoleUser), middleware.RequireRole(models.RoleUser))
	{
		user.GET("/bookings", hb.ListBookings)
		user.GET("/bookings/:id", hb.GetBooking)
		user.POST("/bookings/:id/cancel", hb.CancelBooking)
		user.POST("/bookings/:id/pay", hb.StartCheckout)
		user.POST("/bookings/:id/rate", hb.RateBooking)
		user.POST("/bookings/:id/parts/decision", hb.DecideParts)
		user.GET("/offers", hb.ListOffers)
		user.GET("/coupons", hb.ListCoupons)
		user.GET("/wallet", hb.GetWallet)
		user.GET("/payments/verify", hb.VerifyPayment)
		registerCommon(user, hb)
	}
}

// RegisterTechnicianRoutes registers technician endpoints.
func RegisterTechnicianRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	tech := api.Group("/"+string(models.RoleTechnician), middleware.RequireRole(models.RoleTechnician))
	{
		tech.GET("/bookings", hb.ListBookings)
		tech.GET("/bookings/:id", hb.GetBooking)
		tech.POST("/bookings/:id/cancel", hb.CancelBooking)
		tech.POST("/bookings/:id/start", hb.StartBooking)
		tech.POST("/bookings/:id/complete", hb.CompleteBooking)
		tech.POST("/bookings/:id/parts", hb.ProposeParts)
		tech.POST("/bookings/:id/parts/quote", hb.QuoteParts)
		tech.GET("/wallet", hb.GetWallet)
		registerCommon(tech, hb)
	}
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	admin := api.Group("/"+string(models.RoleAdmin), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/bookings", hb.ListBookings)
		admin.GET("/bookings/:id", hb.GetBooking)
		admin.POST("/bookings/:id/cancel", hb.CancelBooking)
		admin.GET("/users", hb.AdminUsers)

		admin.GET("/:resource", hb.AdminList)
		admin.POST("/:resource", hb.AdminCreate)
		admin.PUT("/:resource/:id", hb.AdminUpdate)
		admin.DELETE("/:resource/:id", hb.AdminDelete)
		admin.PATCH("/:resource/:id/toggle", hb.AdminToggle)
		registerCommon(admin, hb)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, opts Options) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     opts.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)

	api := r.Group("/api", middleware.SessionAuth(opts.SessionSecret, opts.SessionCookie))
	RegisterCatalogRoutes(api, hb)
	RegisterUserRoutes(api, hb)
	RegisterTechnicianRoutes(api, hb)
	RegisterAdminRoutes(api, hb)
}

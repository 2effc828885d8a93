package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"

	"github.com/ignatzorin/vessel-charter/internal/config"
	"github.com/ignatzorin/vessel-charter/internal/http/middleware"
	"github.com/ignatzorin/vessel-charter/internal/infrastructure/document"
	"github.com/ignatzorin/vessel-charter/internal/interface/http/handler"
)

// Handlers собирает все HTTP-хэндлеры приложения.
type Handlers struct {
	Vessel   *handler.VesselHandler
	Booking  *handler.BookingHandler
	Contract *handler.ContractHandler
	Escrow   *handler.EscrowHandler
	Webhook  *handler.WebhookHandler
	WS       *handler.WSHandler
	Health   *handler.HealthHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokens middleware.TokenParser) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	r.Static(document.PublicPrefix, cfg.DocumentStoragePath)

	api := r.Group("/api")
	api.GET("/health", h.Health.Health)
	api.GET("/ws", h.WS.Handle)
	api.POST("/webhooks/:provider", h.Webhook.Handle)

	protected := api.Group("/")
	protected.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		protected.POST("/vessels", h.Vessel.CreateVessel)
		protected.GET("/vessels/my", h.Vessel.ListMyVessels)
		protected.GET("/vessels/:id", middleware.UUIDValidator("id"), h.Vessel.GetVessel)
		protected.POST("/vessels/:id/activate", middleware.UUIDValidator("id"), h.Vessel.ActivateVessel)
		protected.POST("/vessels/:id/availability", middleware.UUIDValidator("id"), h.Vessel.AddSlot)
		protected.DELETE("/vessels/:id/availability/:slotId", middleware.UUIDValidator("id", "slotId"), h.Vessel.RemoveSlot)
		protected.GET("/vessels/:id/bookings", middleware.UUIDValidator("id"), h.Vessel.ListVesselBookings)

		protected.POST("/bookings", h.Booking.CreateBooking)
		protected.GET("/bookings/my", h.Booking.ListMyBookings)
		protected.GET("/bookings/:id", middleware.UUIDValidator("id"), h.Booking.GetBooking)
		protected.PATCH("/bookings/:id", middleware.UUIDValidator("id"), h.Booking.UpdateBooking)
		protected.GET("/bookings/:id/history", middleware.UUIDValidator("id"), h.Booking.GetHistory)

		protected.POST("/contracts", h.Contract.CreateContract)
		protected.GET("/contracts/:id", middleware.UUIDValidator("id"), h.Contract.GetContract)
		protected.POST("/contracts/:id/sign", middleware.UUIDValidator("id"), h.Contract.SignContract)

		protected.POST("/escrow", h.Escrow.InitiateEscrow)
		protected.GET("/escrow/:id", middleware.UUIDValidator("id"), h.Escrow.GetEscrow)
		protected.POST("/escrow/:id/status", middleware.UUIDValidator("id"), h.Escrow.ApplyProviderUpdate)
	}

	return r
}

// Compress оборачивает обработчик gzip-сжатием ответов. Запросы на WebSocket Upgrade идут мимо.
func Compress(next http.Handler) http.Handler {
	gz := gzhttp.GzipHandler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

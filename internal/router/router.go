package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tammydufil/moodlagosapi/internal/config"
	"github.com/tammydufil/moodlagosapi/internal/database"
	"github.com/tammydufil/moodlagosapi/internal/handler"
	mw "github.com/tammydufil/moodlagosapi/internal/middleware"
	"github.com/tammydufil/moodlagosapi/internal/service"
	"github.com/tammydufil/moodlagosapi/internal/ws"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "https://pos.moodlagos.com"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}, hub)
	checkoutService := service.NewCheckoutService(pool, func(db database.DBTX) service.CheckoutStore {
		return database.New(db)
	}, hub)

	r.Route("/api", func(r chi.Router) {
		// Auth routes (public)
		authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
		authHandler.RegisterRoutes(r)

		// Protected routes (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))

			orderHandler := handler.NewOrderHandler(orderService, queries)
			orderHandler.RegisterRoutes(r)

			stationHandler := handler.NewStationHandler(orderService, queries)
			stationHandler.RegisterRoutes(r)

			checkoutHandler := handler.NewCheckoutHandler(checkoutService, queries)
			checkoutHandler.RegisterRoutes(r)

			salesHandler := handler.NewSalesHandler(queries)
			salesHandler.RegisterRoutes(r)

			notificationHandler := handler.NewNotificationHandler(queries)
			notificationHandler.RegisterRoutes(r)

			referenceHandler := handler.NewReferenceHandler(queries)
			referenceHandler.RegisterRoutes(r)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}

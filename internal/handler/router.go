package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xandylearning/mentor-ai/backend/internal/handler/chat"
	"github.com/xandylearning/mentor-ai/backend/internal/handler/mentor"
	"github.com/xandylearning/mentor-ai/backend/internal/handler/stream"
	"github.com/xandylearning/mentor-ai/backend/internal/handler/ws"
	"github.com/xandylearning/mentor-ai/backend/internal/metrics"
	middlewarePkg "github.com/xandylearning/mentor-ai/backend/internal/middleware"
	chatService "github.com/xandylearning/mentor-ai/backend/internal/service/chat"
	"github.com/xandylearning/mentor-ai/backend/pkg/utils"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service, db Pinger, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.AccessLog(log))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)
	r.Use(metrics.Middleware)

	r.Get("/healthz", handleHealth(db))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		chat.New(chatSvc).RegisterRoutes(api)
		mentor.New(chatSvc).RegisterRoutes(api)
		stream.New(chatSvc, log).RegisterRoutes(api)
		ws.New(chatSvc, log).RegisterRoutes(api)
	})

	return r
}

func handleHealth(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": "database unreachable"})
				return
			}
		}
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

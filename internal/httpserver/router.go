package httpserver

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"wavechat/internal/config"
	"wavechat/internal/metrics"
	"wavechat/internal/presence"
	"wavechat/internal/security"
	"wavechat/internal/service"
	"wavechat/internal/store/sqlite"
	"wavechat/internal/ws"
)

// NewRouter constructs the HTTP router and wires repositories, services, and
// the WebSocket gateway. The REST API proper lives in a separate deployment;
// this process only exposes the real-time endpoint plus health and metrics.
func NewRouter(
	cfg *config.Config,
	db *sql.DB,
	store presence.Store,
	hub *ws.Hub,
	tokenSvc *security.TokenService,
	encryptor *security.Encryptor,
	m *metrics.Metrics,
	log *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Repositories
	accountRepo := sqlite.NewAccountRepo(db)
	sessionRepo := sqlite.NewRefreshTokenRepo(db)
	convRepo := sqlite.NewConversationRepo(db)
	partRepo := sqlite.NewParticipantRepo(db)
	msgRepo := sqlite.NewMessageRepo(db)
	statusRepo := sqlite.NewStatusRepo(db)
	reactionRepo := sqlite.NewReactionRepo(db)

	// Services
	authenticator := service.NewAuthenticator(tokenSvc, accountRepo, sessionRepo, log)
	lifecycle := service.NewLifecycle(authenticator, store, clock.New(), log)
	roomSvc := service.NewRoomService(partRepo, store)
	msgSvc := service.NewMessageService(convRepo, partRepo, msgRepo, statusRepo, reactionRepo, encryptor)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	r.Method(http.MethodGet, "/metrics", m.Handler())

	// WebSocket endpoint
	r.Get("/ws", ws.MakeHandler(hub, lifecycle, roomSvc, msgSvc, m, log, cfg.CORSOrigins))

	return r
}

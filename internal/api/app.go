package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"

	"github.com/gorilla/handlers"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/flatfinder/flat-finder/internal/config"
	"github.com/flatfinder/flat-finder/internal/database"
	"github.com/flatfinder/flat-finder/internal/listings"
	"github.com/flatfinder/flat-finder/internal/live"
	"github.com/flatfinder/flat-finder/internal/stats"
	"github.com/flatfinder/flat-finder/internal/types"
)

// Credential endpoints get a small per-address budget.
const (
	authRateLimit = rate.Limit(10.0 / 60.0)
	authRateBurst = 10
)

type FlatFinderApp struct {
	log            *log.Logger
	db             database.FlatFinderRepository
	mux            *http.Server
	live           *live.LiveServer
	view           *listings.View
	stats          stats.StatsProvider
	signingKey     []byte
	allowedOrigins []string
	authLimiter    *addrLimiter
}

func NewFlatFinderApp(mux *http.ServeMux, logger *log.Logger, ls *live.LiveServer,
	db database.FlatFinderRepository, view *listings.View, sp stats.StatsProvider, cfg *config.Config) *FlatFinderApp {
	s := &FlatFinderApp{
		log:            logger,
		db:             db,
		live:           ls,
		view:           view,
		stats:          sp,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
		authLimiter:    newAddrLimiter(authRateLimit, authRateBurst),
	}

	mux.HandleFunc("POST /api/auth/register", s.rateLimitMiddleware(s.createAccount))
	mux.HandleFunc("POST /api/auth/login", s.rateLimitMiddleware(s.login))
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.Handle("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.Handle("/api/account", s.authMiddleware(s.account))
	mux.Handle("PUT /api/account/password", s.authMiddleware(s.changePassword))

	mux.Handle("GET /api/flats", s.authMiddleware(s.listFlats))
	mux.Handle("POST /api/flats", s.authMiddleware(s.createFlat))
	mux.Handle("GET /api/flat", s.authMiddleware(s.getFlat))
	mux.Handle("PUT /api/flat", s.authMiddleware(s.updateFlat))
	mux.Handle("DELETE /api/flat", s.authMiddleware(s.deleteFlat))
	mux.Handle("POST /api/flats/favorite", s.authMiddleware(s.toggleFavorite))
	mux.Handle("GET /api/flats/mine", s.authMiddleware(s.myFlats))
	mux.Handle("GET /api/flats/favorites", s.authMiddleware(s.favoriteFlats))

	mux.Handle("POST /api/messages", s.authMiddleware(s.sendMessage))
	mux.Handle("POST /api/messages/reply", s.authMiddleware(s.replyMessage))
	mux.Handle("GET /api/messages/inbox", s.authMiddleware(s.inbox))
	mux.Handle("GET /api/messages/sent", s.authMiddleware(s.sent))
	mux.Handle("POST /api/messages/read", s.authMiddleware(s.markMessageRead))
	mux.Handle("DELETE /api/messages", s.authMiddleware(s.deleteMessage))
	mux.Handle("GET /api/messages/unread", s.authMiddleware(s.unreadCount))

	mux.Handle("GET /api/admin/users", s.authMiddleware(s.adminMiddleware(s.listUsers)))
	mux.Handle("POST /api/admin/grant", s.authMiddleware(s.adminMiddleware(s.grantAdmin)))
	mux.Handle("DELETE /api/admin/users", s.authMiddleware(s.adminMiddleware(s.removeUser)))

	mux.HandleFunc("GET /healthz", s.healthz)
	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *FlatFinderApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *FlatFinderApp) healthz(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Println("health check:", err)
		s.writeJson(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *FlatFinderApp) serveWs(w http.ResponseWriter, r *http.Request) {
	id, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.GetProfile(id)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewProfileNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := live.NewClient(types.Session{
		UserId:    user.Id,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsAdmin:   user.IsAdmin,
	}, conn, s.live, s.log)

	s.live.RegisterClient(client)
	go client.Write()
	go client.Read()
}

func (s *FlatFinderApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *FlatFinderApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

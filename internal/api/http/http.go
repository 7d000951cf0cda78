package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"

	"github.com/lessonlane/studio-manager/internal/apisrv/admin"
)

// Config is the configuration for the http server
type Config struct {
	Port           string   `mapstructure:"port"`
	Address        string   `mapstructure:"address"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	JWTSecret      string   `mapstructure:"jwt_secret"`
}

// Server is the http server
type Server struct {
	hs   *http.Server
	c    *Config
	auth *jwtauth.JWTAuth
	done chan struct{}
}

// New creates a new server
func New(config *Config) *Server {
	return &Server{
		c:    config,
		auth: jwtauth.New("HS256", []byte(config.JWTSecret), nil),
		done: make(chan struct{}),
	}
}

// Done returns a channel that is closed when the http server exits
func (s *Server) Done() <-chan struct{} {
	return s.done
}

func (s *Server) router(adminServer *admin.Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.c.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h := &handlers{srv: adminServer}

	r.Route("/api/waitlist", func(r chi.Router) {
		r.Use(jwtauth.Verifier(s.auth))
		r.Use(jwtauth.Authenticator)
		r.Use(tenantCtx)

		r.Post("/", h.addEntry)
		r.Get("/", h.listEntries)
		r.Get("/stats", h.getStats)
		r.Get("/instruments", h.getInstrumentBreakdown)
		r.Post("/reorder", h.reorder)
		r.Put("/settings", h.updateTenantSettings)

		r.Route("/{entryId}", func(r chi.Router) {
			r.Get("/", h.getEntry)
			r.Put("/", h.updateEntry)
			r.Get("/activity", h.getActivity)
			r.Post("/priority", h.setPriority)
			r.Post("/offer", h.offerSlot)
			r.Post("/respond", h.respondToOffer)
			r.Post("/withdraw", h.withdraw)
			r.Post("/lost", h.markLost)
			r.Post("/convert", h.convert)
		})
	})

	return r
}

// Start starts the server
func (s *Server) Start(ctx context.Context, adminServer *admin.Server) error {
	listenerAddr := fmt.Sprintf("%s:%s", s.c.Address, s.c.Port)
	s.hs = &http.Server{
		Addr:              listenerAddr,
		Handler:           s.router(adminServer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Default().InfoContext(ctx, fmt.Sprintf("studio-manager new listener on: http://%v", listenerAddr))
		err := s.hs.ListenAndServe()
		if err == http.ErrServerClosed {
			slog.Default().InfoContext(ctx, "http server returned")
		} else {
			slog.Default().ErrorContext(ctx, "http server exited with an error",
				slog.String("err", err.Error()),
			)
		}
		close(s.done)
	}()

	return nil
}

// Stop shuts the server down, letting in-flight requests finish.
func (s *Server) Stop(ctx context.Context) error {
	if s.hs == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.hs.Shutdown(ctx)
}

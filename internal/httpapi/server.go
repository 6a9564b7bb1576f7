package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/safeway/server/internal/safeway/service"
)

type Dependencies struct {
	Logger    *zap.Logger
	Addr      string
	Engine    *service.AccessEngine
	Directory *service.DirectoryService
	Logs      *service.LogService
}

type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	engine     *service.AccessEngine
	directory  *service.DirectoryService
	logs       *service.LogService
}

func NewServer(d Dependencies) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		logger:    logger.Named("http"),
		engine:    d.Engine,
		directory: d.Directory,
		logs:      d.Logs,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.logger, d.Logs))
	r.Use(chimw.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/rfid", func(r chi.Router) {
			r.Post("/validate-access", s.handleValidateAccess)

			r.Post("/credentials", s.handleCreateCredential)
			r.Get("/credentials", s.handleListCredentials)
			r.Get("/credentials/all", s.handleListAllCredentials)
			r.Get("/credentials/sync", s.handleSyncCredentials)
			r.Get("/credentials/{id}", s.handleGetCredential)
			r.Put("/credentials/{id}", s.handleUpdateCredential)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", s.handleCreateUser)
			r.Get("/", s.handleListUsers)
			r.Get("/{id}", s.handleGetUser)
			r.Put("/{id}", s.handleUpdateUser)
			r.Delete("/{id}", s.handleDeactivateUser)
		})

		r.Route("/logs", func(r chi.Router) {
			r.Get("/access", s.handleListAccessLogs)
			r.Get("/access/all", s.handleListAllAccessLogs)
			r.Get("/access/{id}", s.handleGetAccessLog)

			r.Post("/errors", s.handleReportError)
			r.Get("/errors", s.handleListErrors)
			r.Get("/errors/all", s.handleListAllErrors)
			r.Get("/errors/{id}", s.handleGetError)

			r.Get("/http", s.handleListHTTPLogs)
		})
	})

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "SafeWay access server"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Server owns the storefront http.Server and its logger.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// New builds a Server serving the storefront API.
func New(addr string, logger *zap.Logger, db *pgxpool.Pool, deps Deps) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	router, err := buildRouter(logger.Named("http"), db, deps)
	if err != nil {
		return nil, err
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       time.Minute,
			ErrorLog:          zap.NewStdLog(logger.Named("http")),
		},
		logger: logger,
	}, nil
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight cart writes
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("draining http server")
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ReadyCheck reports whether a backing dependency can serve requests.
type ReadyCheck func(ctx context.Context) error

func pingDB(db *pgxpool.Pool) ReadyCheck {
	return func(ctx context.Context) error {
		if db == nil {
			return errors.New("not configured")
		}
		return db.Ping(ctx)
	}
}

// readyHandler runs every check with a shared one second budget. The response
// lists the failing dependencies by name.
func readyHandler(checks map[string]ReadyCheck) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		failing := gin.H{}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				failing[name] = err.Error()
			}
		}
		if len(failing) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failing": failing})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

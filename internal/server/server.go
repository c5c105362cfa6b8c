package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/workoutkit/internal/dedup"
	"github.com/claude/workoutkit/internal/events"
	"github.com/claude/workoutkit/internal/ingest/hae"
	"github.com/claude/workoutkit/internal/ingest/healthconnect"
	"github.com/claude/workoutkit/internal/observability"
	"github.com/claude/workoutkit/internal/storage"
	"github.com/claude/workoutkit/internal/workout"
	"github.com/go-chi/chi/v5"
)

// Store is the persistence the HTTP API needs. *storage.DB implements it.
type Store interface {
	InsertWorkout(ctx context.Context, rec workout.Record) (bool, error)
	QueryWorkouts(ctx context.Context, start, end time.Time, activity string) ([]workout.Record, error)
	GetWorkout(ctx context.Context, id string) (*workout.Record, error)
	DeleteWorkouts(ctx context.Context, ids []string) (int64, error)
	InsertIngestLog(ctx context.Context, log storage.IngestLog) (int64, error)
	QueryIngestLogs(ctx context.Context, limit int) ([]storage.IngestLog, error)
}

var _ Store = (*storage.DB)(nil)

// Options configures a Server.
type Options struct {
	APIKey string

	// AppSource and ThresholdMinutes are the duplicate search defaults.
	// A nil ThresholdMinutes selects dedup.DefaultThresholdMinutes; zero
	// means exact matches only.
	AppSource        string
	ThresholdMinutes *int

	// Publisher receives an event for every newly stored workout. Nil disables events.
	Publisher events.Publisher

	// MCP, when set, is mounted at /mcp.
	MCP http.Handler

	// Tailscale, when set, resolves caller identities for each request.
	Tailscale WhoIser
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db            Store
	recorder      *recorder
	hae           *hae.Provider
	healthConnect *healthconnect.Provider
	log           *slog.Logger
	opts          Options
	threshold     int
	router        chi.Router
}

// New creates a new Server with all routes configured.
func New(db Store, opts Options, log *slog.Logger) *Server {
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	threshold := dedup.DefaultThresholdMinutes
	if opts.ThresholdMinutes != nil {
		threshold = *opts.ThresholdMinutes
	}
	rec := &recorder{store: db, publisher: opts.Publisher, log: log}
	s := &Server{
		db:            db,
		recorder:      rec,
		hae:           hae.NewProvider(rec, log),
		healthConnect: healthconnect.NewProvider(rec, log),
		log:           log,
		opts:          opts,
		threshold:     threshold,
		router:        chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	if s.opts.Tailscale != nil {
		s.router.Use(TailscaleIdentity(s.opts.Tailscale, s.log))
	} else {
		s.router.Use(DevIdentity)
	}
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	auth := APIKeyAuth(s.opts.APIKey)

	// Ingest endpoints (API key required)
	s.router.Route("/api/v1/ingest", func(r chi.Router) {
		r.With(auth).Post("/", s.handleHAEIngest)
		r.With(auth).Post("/healthconnect", s.handleHealthConnectIngest)
		r.Get("/logs", s.handleIngestLogs)
	})

	// Reads are open (tsnet handles access); writes need the API key.
	s.router.Route("/api/v1/workouts", func(r chi.Router) {
		r.Get("/", s.handleQueryWorkouts)
		r.With(auth).Post("/", s.handleCreateWorkout)
		r.Get("/duplicates", s.handleFindDuplicates)
		r.With(auth).Post("/duplicates/resolve", s.handleResolveDuplicates)
		r.Get("/{id}", s.handleGetWorkout)
	})

	s.router.Get("/api/v1/me", s.handleMe)
	s.router.Handle("/metrics", observability.Handler())
	if s.opts.MCP != nil {
		s.router.Handle("/mcp", s.opts.MCP)
	}
}

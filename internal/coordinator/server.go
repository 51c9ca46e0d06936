package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"pkg.jsn.cam/fieldminmax/pkg/minmax"
	"pkg.jsn.cam/fieldminmax/pkg/minmax/httpx"
	"pkg.jsn.cam/fieldminmax/pkg/minmax/protocol"
)

// Server wraps the coordinator and HTTP server
type Server struct {
	coordinator  *Coordinator
	mux          *http.ServeMux
	port         int
	roundTimeout time.Duration
}

// NewServer creates a new coordinator server
func NewServer(cfg Config) (*Server, error) {
	coordinator, err := NewCoordinator(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		coordinator:  coordinator,
		mux:          http.NewServeMux(),
		port:         cfg.Port,
		roundTimeout: cfg.RoundTimeout,
	}
	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("POST /api/partitions/register", httpx.Wrap(s.handleRegister))
	s.mux.HandleFunc("POST /api/runs/{runID}/rounds/{seq}", httpx.Wrap(s.handleRound))
	s.mux.HandleFunc("GET /api/status", httpx.Wrap(s.handleStatus))
	s.mux.HandleFunc("GET /health", httpx.Wrap(s.handleHealth))
}

// Handler returns the server's routes
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Coordinator returns the hosted coordinator
func (s *Server) Coordinator() *Coordinator {
	return s.coordinator
}

// ListenAndServe serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.mux,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	s.coordinator.StartRoundMonitor(ctx, s.roundTimeout)

	log.Printf("[COORDINATOR] Listening on :%d (run %s)", s.port, s.coordinator.RunID())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) error {
	var req protocol.RegistrationRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return nil
	}

	if err := s.coordinator.Register(req); err != nil {
		log.Printf("[COORDINATOR] Rejected partition %d: %v", req.Partition, err)
		resp := protocol.RegistrationResponse{
			Success: false,
			Error:   err.Error(),
		}
		httpx.JSON(w, http.StatusOK, resp) // Still 200, but Success=false
		return nil
	}

	resp := protocol.RegistrationResponse{
		RunID:   s.coordinator.RunID(),
		Size:    s.coordinator.rv.Size(),
		Success: true,
	}
	httpx.JSON(w, http.StatusOK, resp)
	return nil
}

func (s *Server) handleRound(w http.ResponseWriter, r *http.Request) error {
	if r.PathValue("runID") != s.coordinator.RunID() {
		httpx.JSON(w, http.StatusNotFound, protocol.RoundResponse{Error: minmax.ErrRunNotFound.Error()})
		return nil
	}

	seq, err := strconv.ParseUint(r.PathValue("seq"), 10, 64)
	if err != nil || seq == 0 {
		httpx.JSON(w, http.StatusBadRequest, protocol.RoundResponse{Error: "invalid round"})
		return nil
	}

	var req protocol.ContributionRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return nil
	}
	if !s.coordinator.Registered(req.Partition) {
		httpx.JSON(w, http.StatusForbidden, protocol.RoundResponse{
			Error: fmt.Sprintf("partition %d is not registered", req.Partition),
		})
		return nil
	}

	req.Candidate.Partition = req.Partition
	cands, err := s.coordinator.rv.Contribute(r.Context(), seq, req.Key, req.Candidate)
	switch {
	case errors.Is(err, minmax.ErrCollectiveMismatch):
		log.Printf("[COORDINATOR] Round %d failed: %v", seq, err)
		httpx.JSON(w, http.StatusConflict, protocol.RoundResponse{Error: err.Error(), Mismatch: true})
	case errors.Is(err, minmax.ErrPartitionOutOfRange):
		httpx.JSON(w, http.StatusBadRequest, protocol.RoundResponse{Error: err.Error()})
	case errors.Is(err, minmax.ErrRoundFailed):
		log.Printf("[COORDINATOR] Round %d failed: %v", seq, err)
		httpx.JSON(w, http.StatusServiceUnavailable, protocol.RoundResponse{Error: err.Error()})
	case err != nil:
		// The partition went away while waiting.
		log.Printf("[COORDINATOR] Partition %d left round %d: %v", req.Partition, seq, err)
		httpx.JSON(w, http.StatusServiceUnavailable, protocol.RoundResponse{Error: err.Error()})
	default:
		httpx.JSON(w, http.StatusOK, protocol.RoundResponse{Candidates: cands})
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) error {
	httpx.JSON(w, http.StatusOK, s.coordinator.Status())
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) error {
	httpx.JSON(w, http.StatusOK, protocol.HealthResponse{Status: "healthy"})
	return nil
}

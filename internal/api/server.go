package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/VictorW-repo/astral-assessment/internal/telemetry"
	"github.com/VictorW-repo/astral-assessment/internal/workflow"
)

// requestTimeout bounds synchronous handler work. Lead analysis itself
// runs on the worker pool, not the request.
const requestTimeout = 30 * time.Second

// enqueueTimeout bounds how long a handler waits for queue space.
const enqueueTimeout = 5 * time.Second

// IDGenerator mints request identifiers.
type IDGenerator interface {
	NewV4ID() (string, error)
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// Enqueuer hands accepted leads to the processing pool. Satisfied by
// *dispatcher.Dispatcher.
type Enqueuer interface {
	Enqueue(ctx context.Context, lead workflow.Lead) error
}

// Server wires HTTP handlers to the lead queue.
type Server struct {
	router   chi.Router
	enqueuer Enqueuer
	idGen    IDGenerator
	clock    Clock
	verifier *SignatureVerifier
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes. signingKey
// may be empty, which disables signature verification.
func NewServer(
	enqueuer Enqueuer,
	idGen IDGenerator,
	clock Clock,
	signingKey string,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		enqueuer: enqueuer,
		idGen:    idGen,
		clock:    clock,
		verifier: NewSignatureVerifier(signingKey),
		logger:   logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metricsMiddleware)
	r.Use(timeoutMiddleware(requestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())
	r.Post("/register", s.register)

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// register accepts a lead, answers 202 immediately, and leaves the
// analysis to the worker pool.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if !s.verifier.Verify(body, r.Header.Get("X-Webhook-Signature")) {
		writeError(w, http.StatusUnauthorized, "invalid webhook signature")
		return
	}

	var req registerRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if problems := req.validate(); len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "validation failed",
			"details": problems,
		})
		return
	}

	requestID, err := s.idGen.NewV4ID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate request id")
		return
	}
	now := s.clock.Now()
	lead := workflow.Lead{
		RequestID:      requestID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		CompanyWebsite: req.CompanyWebsite,
		LinkedIn:       req.LinkedIn,
		ReceivedAt:     now,
	}

	// Enqueue against a detached context so a client disconnect cannot
	// drop an already accepted lead.
	queueCtx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
	defer cancel()
	if err := s.enqueuer.Enqueue(queueCtx, lead); err != nil {
		s.logger.Error("lead enqueue failed",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		writeError(w, http.StatusServiceUnavailable, "intake queue unavailable")
		return
	}

	s.logger.Info("lead accepted",
		zap.String("request_id", requestID),
		zap.String("website", req.CompanyWebsite),
	)
	writeJSON(w, http.StatusAccepted, registerResponse{
		Status:    "accepted",
		RequestID: requestID,
		Message:   "lead analysis started",
		Timestamp: now.UTC(),
	})
}

type registerRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	CompanyWebsite string `json:"company_website"`
	LinkedIn       string `json:"linkedin"`
}

// validate collects every problem instead of stopping at the first so
// the caller can fix a submission in one round trip.
func (r registerRequest) validate() []string {
	var problems []string
	if r.FirstName == "" {
		problems = append(problems, "first_name is required")
	}
	if r.LastName == "" {
		problems = append(problems, "last_name is required")
	}
	if r.CompanyWebsite == "" && r.LinkedIn == "" {
		problems = append(problems, "at least one of company_website or linkedin is required")
	}
	return problems
}

type registerResponse struct {
	Status    string    `json:"status"`
	RequestID string    `json:"request_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
